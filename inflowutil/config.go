/*
Copyright © 2017 the Inflow authors.
This file is part of Inflow.

Inflow is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Inflow is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Inflow.  If not, see <http://www.gnu.org/licenses/>.
*/

package inflowutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/inflow"
	"github.com/spatialmodel/inflow/foamfile"
	"github.com/spatialmodel/inflow/h5db"
	"github.com/spatialmodel/inflow/tvmfv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// RescaleConfig holds the configuration of an inflow generation run.
type RescaleConfig struct {
	// ReadPath is the location of the precursor database: an OpenFOAM
	// case for the foamFile reader or an HDF5 file for the hdf5 reader.
	ReadPath string

	// InflowReadPath is the location of the inflow patch points: the
	// directory holding <InletPatchName>/faceCentres for the foamFile
	// reader or an HDF5 precursor archive for the hdf5 reader.
	InflowReadPath string

	// WritePath is the directory the output is written to.
	WritePath string

	SampleSurfaceName string
	InletPatchName    string

	// Reader and InflowReader are "foamFile" or "hdf5", and Writer is
	// "tvmfv" or "hdf5".
	Reader, InflowReader, Writer string

	// HDF5FileName is the name of the output file of the hdf5 writer.
	HDF5FileName string

	// UMeanFile is the mean profile of a foamFile precursor database.
	UMeanFile string

	XOrigin float64

	NProcs int

	ParametersFile string
	ProfilePlot    string

	Generator inflow.GeneratorConfig
}

// configReader reads and validates configuration variables, keeping the
// first error.
type configReader struct {
	cfg *viper.Viper
	err error
}

func (r *configReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// str returns a string variable, expanding environment variables.
func (r *configReader) str(key string, required bool) string {
	s := os.ExpandEnv(strings.TrimSpace(r.cfg.GetString(key)))
	if s == "" && required {
		r.fail(&inflow.ConfigurationError{Key: key, Msg: "is not specified"})
	}
	return s
}

// kind returns a string variable that must be one of valid.
func (r *configReader) kind(key string, valid ...string) string {
	s := r.str(key, true)
	if s == "" {
		return s
	}
	for _, v := range valid {
		if s == v {
			return s
		}
	}
	r.fail(&inflow.ConfigurationError{Key: key, Value: s,
		Msg: fmt.Sprintf("is invalid. Valid options are %s", strings.Join(valid, " and "))})
	return s
}

func (r *configReader) float(key string) float64 {
	if !r.cfg.IsSet(key) {
		r.fail(&inflow.ConfigurationError{Key: key, Msg: "is not specified"})
		return 0
	}
	return r.optFloat(key, 0)
}

// optFloat returns a numeric variable, or def if it is not set.
func (r *configReader) optFloat(key string, def float64) float64 {
	raw := r.cfg.Get(key)
	if raw == nil {
		return def
	}
	v, err := cast.ToFloat64E(strings.TrimSpace(cast.ToString(raw)))
	if err != nil {
		r.fail(&inflow.ConfigurationError{Key: key, Value: r.cfg.GetString(key), Msg: "is not a number"})
	}
	return v
}

// optInt returns an integer variable, or def if it is not set.
func (r *configReader) optInt(key string, def int) int {
	raw := r.cfg.Get(key)
	if raw == nil {
		return def
	}
	v, err := cast.ToIntE(strings.TrimSpace(cast.ToString(raw)))
	if err != nil {
		r.fail(&inflow.ConfigurationError{Key: key, Value: r.cfg.GetString(key), Msg: "is not an integer"})
	}
	return v
}

// RescaleConfigFromViper reads and validates the configuration of an
// inflow generation run.
func RescaleConfigFromViper(cfg *viper.Viper) (*RescaleConfig, error) {
	r := &configReader{cfg: cfg}
	c := &RescaleConfig{
		ReadPath:       r.str("readPath", true),
		InflowReadPath: r.str("inflowReadPath", true),
		WritePath:      r.str("writePath", true),
		InletPatchName: r.str("inletPatchName", true),
		Reader:         r.kind("reader", "foamFile", "hdf5"),
		InflowReader:   r.kind("inflowReader", "foamFile", "hdf5"),
		Writer:         r.kind("writer", "tvmfv", "hdf5"),
		XOrigin:        r.optFloat("xOrigin", 0),
		NProcs:         r.optInt("nProcs", runtime.GOMAXPROCS(0)),
		ParametersFile: r.str("parametersFile", false),
		ProfilePlot:    r.str("profilePlot", false),
	}
	c.SampleSurfaceName = r.str("sampleSurfaceName", c.Reader == "foamFile")
	c.UMeanFile = r.str("uMeanFile", c.Reader == "foamFile")
	c.HDF5FileName = r.str("hdf5FileName", c.Writer == "hdf5")

	p := inflow.PhysicalConfig{
		NuInflow:      r.float("nuInflow"),
		NuPrecursor:   r.float("nuPrecursor"),
		Delta99:       r.float("delta99"),
		Ue:            r.float("Ue"),
		UTauPrecursor: r.float("uTauPrecursor"),
		YOrigin:       r.optFloat("yOrigin", 0),
		Blend: inflow.Blend{
			Alpha:    r.optFloat("blendAlpha", inflow.DefaultBlend.Alpha),
			B:        r.optFloat("blendB", inflow.DefaultBlend.B),
			EtaInner: r.optFloat("etaInner", inflow.DefaultBlend.EtaInner),
			EtaOuter: r.optFloat("etaOuter", inflow.DefaultBlend.EtaOuter),
		},
	}
	p.PrecursorOuterLength = r.optFloat("precursorOuterLength", 0)
	if strings.EqualFold(r.str("uTauInflow", true), "compute") {
		p.ComputeUTauInflow = true
	} else {
		p.UTauInflow = r.float("uTauInflow")
	}
	c.Generator = inflow.GeneratorConfig{
		Physical:   p,
		Dt:         r.float("dt"),
		T0:         r.float("t0"),
		TEnd:       r.float("tEnd"),
		TPrecision: r.optInt("tPrecision", 6),
	}
	if r.err != nil {
		return nil, r.err
	}
	if c.NProcs < 1 {
		return nil, &inflow.ConfigurationError{Key: "nProcs", Value: fmt.Sprint(c.NProcs), Msg: "must be at least 1"}
	}
	if err := c.Generator.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewPrecursorReader opens the precursor database at readPath with the
// reader of the given kind: "foamFile" or "hdf5". surface and uMeanFile
// are only used by the foamFile reader.
func NewPrecursorReader(kind, readPath, surface, uMeanFile string) (inflow.Reader, error) {
	switch kind {
	case "foamFile":
		r, err := foamfile.Open(readPath, surface, foamfile.Options{MeanFile: uMeanFile, Pad: true})
		if err != nil {
			return nil, err
		}
		return r, nil
	case "hdf5":
		a, err := h5db.Open(readPath)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, &inflow.ConfigurationError{Key: "reader", Value: kind,
			Msg: "is invalid. Valid options are foamFile and hdf5"}
	}
}

// NewInflowGrid reads the points of the inflow plane with the reader of
// the given kind. For "foamFile" they are read from
// <readPath>/<patch>/faceCentres and for "hdf5" from the precursor
// archive at readPath.
func NewInflowGrid(kind, readPath, patch string) (*inflow.Grid, error) {
	switch kind {
	case "foamFile":
		return foamfile.ReadGrid(filepath.Join(readPath, patch, "faceCentres"))
	case "hdf5":
		a, err := h5db.Open(readPath)
		if err != nil {
			return nil, err
		}
		defer a.Close()
		return a.ReadGrid()
	default:
		return nil, &inflow.ConfigurationError{Key: "inflowReader", Value: kind,
			Msg: "is invalid. Valid options are foamFile and hdf5"}
	}
}

// NewWriterFactory returns a function that creates the output writer of
// the kind configured in c: "tvmfv" or "hdf5".
func NewWriterFactory(c *RescaleConfig, log logrus.FieldLogger) (inflow.WriterFactory, error) {
	switch c.Writer {
	case "tvmfv":
		return func(*inflow.Grid, int) (inflow.Writer, error) {
			return tvmfv.New(c.WritePath, c.InletPatchName, c.XOrigin), nil
		}, nil
	case "hdf5":
		return func(g *inflow.Grid, nSteps int) (inflow.Writer, error) {
			if err := os.MkdirAll(c.WritePath, 0755); err != nil {
				return nil, fmt.Errorf("inflowutil: %w", err)
			}
			path := filepath.Join(c.WritePath, c.HDF5FileName)
			if err := removeExisting(path, log); err != nil {
				return nil, err
			}
			w, err := h5db.CreateInflow(path, nSteps, g.NPoints(), c.XOrigin)
			if err != nil {
				return nil, err
			}
			return w, nil
		}, nil
	default:
		return nil, &inflow.ConfigurationError{Key: "writer", Value: c.Writer,
			Msg: "is invalid. Valid options are tvmfv and hdf5"}
	}
}

// removeExisting deletes the file at path if there is one.
func removeExisting(path string, log logrus.FieldLogger) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	log.WithField("path", path).Warn("overwriting existing file")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("inflowutil: %w", err)
	}
	return nil
}
