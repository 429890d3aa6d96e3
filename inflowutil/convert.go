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
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/inflow"
	"github.com/spatialmodel/inflow/foamfile"
	"github.com/spatialmodel/inflow/h5db"
)

// Convert converts the foamFile precursor database of the sampled surface
// surfaceName in the OpenFOAM case at precursorPath, with the mean
// profile in uMeanFile, into the HDF5 archive fileName using nProcs
// concurrent workers.
func Convert(ctx context.Context, precursorPath, surfaceName, fileName, uMeanFile string, nProcs int, log logrus.FieldLogger) error {
	vars := []string{precursorPath, surfaceName, fileName, uMeanFile}
	varNames := []string{"precursorPath", "surfaceName", "fileName", "uMeanFile"}
	for i, v := range vars {
		if v == "" {
			return &inflow.ConfigurationError{Key: varNames[i], Msg: "is not specified"}
		}
	}
	r, err := foamfile.Open(precursorPath, surfaceName, foamfile.Options{MeanFile: uMeanFile, Pad: true})
	if err != nil {
		return err
	}
	defer r.Close()
	return inflow.Convert(ctx, inflow.ConvertConfig{
		Precursor: r,
		Create: func(g *inflow.Grid, nTimes int) (inflow.ArchiveWriter, error) {
			if err := removeExisting(fileName, log); err != nil {
				return nil, err
			}
			ny, nz := g.Dims()
			a, err := h5db.Create(fileName, nTimes, ny, nz)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
		NProcs: nProcs,
	}, log)
}
