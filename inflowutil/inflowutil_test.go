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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/inflow"
	"github.com/spatialmodel/inflow/foamfile"
	"github.com/spatialmodel/inflow/h5db"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gonum.org/v1/hdf5"
)

const (
	precNY, precNZ = 8, 3
	inflNY, inflNZ = 12, 4
)

// writeTestCase writes a precursor database with time-steps 1 and 2 to
// <dir>/precursor, its mean profile to <dir>/uMean and the points of the
// inflow patch to <dir>/inflow/inlet/faceCentres.
func writeTestCase(t *testing.T, dir string) {
	t.Helper()
	meanU := func(y float64) float64 { return math.Min(y/0.5, 1) }

	var mean strings.Builder
	mean.WriteString("# y UX UY\n0 0 0\n")
	var points [][3]float64
	for i := 1; i <= precNY; i++ {
		y := 0.1 * float64(i)
		fmt.Fprintf(&mean, "%g %g 0\n", y, meanU(y))
		for j := 0; j < precNZ; j++ {
			points = append(points, [3]float64{0, y, 0.2 * float64(precNZ-1-j)})
		}
	}
	fmt.Fprintf(&mean, "1.2 %g 0\n", meanU(1.2))
	if err := os.WriteFile(filepath.Join(dir, "uMean"), []byte(mean.String()), 0644); err != nil {
		t.Fatal(err)
	}

	for k, tl := range []string{"1", "2"} {
		sdir := filepath.Join(dir, "precursor", "postProcessing", "sampledSurface", tl, "inlet")
		if err := os.MkdirAll(filepath.Join(sdir, "vectorField"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := foamfile.WriteVectorFile(filepath.Join(sdir, "faceCentres"), points); err != nil {
			t.Fatal(err)
		}
		u := make([][3]float64, len(points))
		for i, p := range points {
			s := 0.01 * float64(k+1) * math.Sin(p[2])
			u[i] = [3]float64{meanU(p[1]) + s, s, -s}
		}
		if err := foamfile.WriteVectorFile(filepath.Join(sdir, "vectorField", "U"), u); err != nil {
			t.Fatal(err)
		}
	}

	var inflPoints [][3]float64
	for i := 0; i < inflNY; i++ {
		for j := 0; j < inflNZ; j++ {
			inflPoints = append(inflPoints, [3]float64{0, 0.12 * float64(i), 0.1 * float64(j)})
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "inflow", "inlet"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := foamfile.WriteVectorFile(filepath.Join(dir, "inflow", "inlet", "faceCentres"), inflPoints); err != nil {
		t.Fatal(err)
	}
}

// writeConfig writes a configuration file for the test case in dir,
// with the given variables replacing the defaults.
func writeConfig(t *testing.T, dir string, vars map[string]string) string {
	t.Helper()
	c := map[string]string{
		"readPath":          filepath.Join(dir, "precursor"),
		"inflowReadPath":    filepath.Join(dir, "inflow"),
		"writePath":         filepath.Join(dir, "out"),
		"sampleSurfaceName": "inlet",
		"inletPatchName":    "inlet",
		"reader":            "foamFile",
		"inflowReader":      "foamFile",
		"writer":            "tvmfv",
		"hdf5FileName":      "inflow.hdf5",
		"uMeanFile":         filepath.Join(dir, "uMean"),
		"nuInflow":          "1e-5",
		"nuPrecursor":       "1e-5",
		"delta99":           "0.5",
		"Ue":                "1",
		"uTauInflow":        "compute",
		"uTauPrecursor":     "0.05",
		"xOrigin":           "0",
		"yOrigin":           "0",
		"dt":                "0.01",
		"t0":                "0",
		"tEnd":              "0.02",
		"tPrecision":        "3",
		"nProcs":            "2",
	}
	for k, v := range vars {
		c[k] = v
	}
	var b strings.Builder
	b.WriteString("# Rescaling configuration\n\n")
	for k, v := range c {
		if v != "" {
			fmt.Fprintf(&b, "%s %s\n", k, v)
		}
	}
	path := filepath.Join(dir, "rescale.cfg")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// resetFlags restores the flags of cmd to their defaults after a test.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	})
}

func execute(t *testing.T, config string, args ...string) error {
	t.Helper()
	Cfg.Set("config", config)
	Root.SetArgs(args)
	return Root.Execute()
}

func TestVersion(t *testing.T) {
	var b strings.Builder
	Root.SetOut(&b)
	Root.SetErr(&b)
	defer Root.SetOut(nil)
	defer Root.SetErr(nil)
	if err := execute(t, "", "version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), inflow.Version) {
		t.Errorf("version output %q", b.String())
	}
}

func TestRescaleTVMFV(t *testing.T) {
	dir := t.TempDir()
	writeTestCase(t, dir)
	params := filepath.Join(dir, "params.toml")
	cfg := writeConfig(t, dir, map[string]string{"parametersFile": params})
	if err := execute(t, cfg, "rescale"); err != nil {
		t.Fatal(err)
	}

	base := filepath.Join(dir, "out", "constant", "boundaryData", "inlet")
	points, err := foamfile.ReadVectorFile(filepath.Join(base, "points"))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != inflNY*inflNZ {
		t.Errorf("%d points, want %d", len(points), inflNY*inflNZ)
	}
	for _, label := range []string{"0.000", "0.010", "0.020"} {
		u, err := foamfile.ReadVectorFile(filepath.Join(base, label, "U"))
		if err != nil {
			t.Fatal(err)
		}
		if len(u) != inflNY*inflNZ {
			t.Errorf("time %s: %d values", label, len(u))
		}
		// The top row is in the free stream.
		top := u[len(u)-1]
		if top != [3]float64{1, 0, 0} {
			t.Errorf("time %s: free-stream velocity %v", label, top)
		}
	}
	if _, err := os.Stat(filepath.Join(base, "0.030")); !os.IsNotExist(err) {
		t.Errorf("unexpected time-step 0.030: %v", err)
	}

	var s parameterSummary
	if _, err := toml.DecodeFile(params, &s); err != nil {
		t.Fatal(err)
	}
	if s.Inflow.Delta99 != 0.5 || s.Inflow.Ue != 1 {
		t.Errorf("inflow parameters %+v", s.Inflow)
	}
	want := math.Sqrt(0.02 * math.Pow(1*0.5/1e-5, -1.0/6) / 2)
	if math.Abs(s.Inflow.UTau-want) > 1e-12 {
		t.Errorf("uTau = %g, want %g", s.Inflow.UTau, want)
	}
	if s.Rescaling.Alpha != inflow.DefaultBlend.Alpha {
		t.Errorf("blend alpha %g", s.Rescaling.Alpha)
	}
}

func TestRescaleHighSpeedThinLayer(t *testing.T) {
	dir := t.TempDir()
	writeTestCase(t, dir)
	cfg := writeConfig(t, dir, map[string]string{
		"delta99":       "0.05",
		"Ue":            "10",
		"uTauInflow":    "compute",
		"uTauPrecursor": "0.4",
	})
	if err := execute(t, cfg, "rescale"); err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(dir, "out", "constant", "boundaryData", "inlet")
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatal(err)
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() {
			labels = append(labels, e.Name())
		}
	}
	if strings.Join(labels, ",") != "0.000,0.010,0.020" {
		t.Errorf("time-steps %v, want 0.000, 0.010 and 0.020", labels)
	}
	for _, label := range labels {
		u, err := foamfile.ReadVectorFile(filepath.Join(base, label, "U"))
		if err != nil {
			t.Fatal(err)
		}
		if top := u[len(u)-1]; top != [3]float64{10, 0, 0} {
			t.Errorf("time %s: free-stream velocity %v", label, top)
		}
	}
}

func TestConvertAndRescaleHDF5(t *testing.T) {
	dir := t.TempDir()
	writeTestCase(t, dir)
	archive := filepath.Join(dir, "precursor.hdf5")
	// An existing output file is replaced.
	if err := os.WriteFile(archive, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	resetFlags(t, convertCmd)
	err := execute(t, "", "convert",
		"--precursorPath", filepath.Join(dir, "precursor"),
		"--surfaceName", "inlet",
		"--fileName", archive,
		"--uMeanFile", filepath.Join(dir, "uMean"),
		"--nProcs", "2")
	if err != nil {
		t.Fatal(err)
	}

	a, err := h5db.Open(archive)
	if err != nil {
		t.Fatal(err)
	}
	if nt, ny, nz := a.Shape(); nt != 2 || ny != precNY+2 || nz != precNZ {
		t.Errorf("archive shape (%d, %d, %d)", nt, ny, nz)
	}
	s, err := a.ReadSnapshot(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.UX[0][0] != 0 || s.UX[precNY+1][1] != 1 {
		t.Errorf("padding rows %v %v", s.UX[0], s.UX[precNY+1])
	}
	if err = a.Close(); err != nil {
		t.Fatal(err)
	}

	plot := filepath.Join(dir, "profiles.png")
	cfg := writeConfig(t, dir, map[string]string{
		"reader":      "hdf5",
		"readPath":    archive,
		"writer":      "hdf5",
		"profilePlot": plot,
	})
	if err = execute(t, cfg, "rescale"); err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(plot); err != nil {
		t.Error(err)
	}

	f, err := hdf5.OpenFile(filepath.Join(dir, "out", "inflow.hdf5"), hdf5.F_ACC_RDONLY)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds, err := f.OpenDataset("time")
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()
	times := make([]float64, 3)
	if err = ds.Read(&times); err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{0, 0.01, 0.02} {
		if times[i] != want {
			t.Errorf("time %d = %g, want %g", i, times[i], want)
		}
	}
}

func TestRescaleMissingTimeStep(t *testing.T) {
	dir := t.TempDir()
	writeTestCase(t, dir)
	if err := os.Remove(filepath.Join(dir, "precursor", "postProcessing", "sampledSurface", "2", "inlet", "vectorField", "U")); err != nil {
		t.Fatal(err)
	}
	cfg := writeConfig(t, dir, map[string]string{"tEnd": "0.2"})
	if err := execute(t, cfg, "rescale"); err == nil {
		t.Error("expected an error for a missing time-step")
	}
}

func TestRescaleConfigErrors(t *testing.T) {
	dir := t.TempDir()
	writeTestCase(t, dir)
	tests := []struct {
		name string
		vars map[string]string
		key  string
	}{
		{name: "reader", vars: map[string]string{"reader": "vtk"}, key: "reader"},
		{name: "writer", vars: map[string]string{"writer": "csv"}, key: "writer"},
		{name: "missing", vars: map[string]string{"nuInflow": ""}, key: "nuInflow"},
		{name: "number", vars: map[string]string{"dt": "fast"}, key: "dt"},
		{name: "uTau", vars: map[string]string{"uTauInflow": "-1"}, key: "uTauInflow"},
		{name: "surface", vars: map[string]string{"sampleSurfaceName": ""}, key: "sampleSurfaceName"},
		{name: "blend", vars: map[string]string{"etaOuter": "0.5"}, key: "etaOuter"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := viper.New()
			cfg.SetConfigFile(writeConfig(t, dir, test.vars))
			cfg.SetConfigType("properties")
			if err := cfg.ReadInConfig(); err != nil {
				t.Fatal(err)
			}
			_, err := RescaleConfigFromViper(cfg)
			var e *inflow.ConfigurationError
			if !errors.As(err, &e) || e.Key != test.key {
				t.Errorf("got %v, want a ConfigurationError for %s", err, test.key)
			}
		})
	}
}

func TestRescaleConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := viper.New()
	cfg.SetConfigFile(writeConfig(t, dir, map[string]string{"blendAlpha": "3", "uTauInflow": "0.04", "precursorOuterLength": "1"}))
	cfg.SetConfigType("properties")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	c, err := RescaleConfigFromViper(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := c.Generator.Physical
	if p.ComputeUTauInflow || p.UTauInflow != 0.04 {
		t.Errorf("uTauInflow %g (compute %v)", p.UTauInflow, p.ComputeUTauInflow)
	}
	if p.Blend.Alpha != 3 || p.Blend.B != inflow.DefaultBlend.B {
		t.Errorf("blend %+v", p.Blend)
	}
	if p.PrecursorOuterLength != 1 {
		t.Errorf("precursorOuterLength %g", p.PrecursorOuterLength)
	}
	if p.Ue != 1 || p.NuInflow != 1e-5 || c.Generator.TPrecision != 3 || c.NProcs != 2 {
		t.Errorf("configuration %+v", c)
	}
	if c.ReadPath != filepath.Join(dir, "precursor") || c.Reader != "foamFile" {
		t.Errorf("reader %s %s", c.Reader, c.ReadPath)
	}
}

func TestNewPrecursorReaderKind(t *testing.T) {
	_, err := NewPrecursorReader("netcdf", "", "", "")
	var e *inflow.ConfigurationError
	if !errors.As(err, &e) || e.Key != "reader" {
		t.Errorf("got %v", err)
	}
	_, err = NewInflowGrid("netcdf", "", "")
	if !errors.As(err, &e) || e.Key != "inflowReader" {
		t.Errorf("got %v", err)
	}
}
