/*
Copyright © 2019 the chemiss authors.
This file is part of chemiss.

chemiss is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

chemiss is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with chemiss.  If not, see <http://www.gnu.org/licenses/>.
*/

package chemiss

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// GridCell is a cell of a rectilinear grid.
type GridCell struct {
	geom.Polygon
	Row, Col int
}

// lonLat is the identity transform for longitude-latitude coordinates.
func lonLat(x, y float64) (float64, float64, error) { return x, y, nil }

// rectilinearCells returns the cells of the grid with the given edges,
// in row-major order, in the coordinates of t.
func rectilinearCells(t proj.Transformer, lonB, latB []float64) ([]*GridCell, error) {
	nx, ny := len(lonB)-1, len(latB)-1
	cells := make([]*GridCell, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p, err := cellPolygon(t, lonB[i], lonB[i+1], latB[j], latB[j+1])
			if err != nil {
				return nil, err
			}
			cells = append(cells, &GridCell{Polygon: p, Row: j, Col: i})
		}
	}
	return cells, nil
}

// Bounds returns the cell edges of g.
func (g *EmissionGrid) Bounds() (lonB, latB []float64, err error) {
	if lonB, err = CellBounds(g.Lon); err != nil {
		return nil, nil, err
	}
	if latB, err = CellBounds(g.Lat); err != nil {
		return nil, nil, err
	}
	return lonB, latB, nil
}

// Cells returns the cells of g in longitude-latitude coordinates.
func (g *EmissionGrid) Cells() ([]*GridCell, error) {
	lonB, latB, err := g.Bounds()
	if err != nil {
		return nil, err
	}
	return rectilinearCells(lonLat, lonB, latB)
}

// Bounds returns the cell edges of w from the staggered coordinates.
// If those are missing, the edges are estimated from the cell
// centers along the first row and column.
func (w *WRFInput) Bounds() (lonB, latB []float64, err error) {
	lonB, err = w.LonBounds()
	if err != nil {
		lon := make([]float64, w.Nx())
		copy(lon, w.XLong.Elements[:w.Nx()])
		if lonB, err = CellBounds(lon); err != nil {
			return nil, nil, err
		}
	}
	latB, err = w.LatBounds()
	if err != nil {
		lat := make([]float64, w.Ny())
		for j := range lat {
			lat[j] = w.XLat.Get(j, 0)
		}
		if latB, err = CellBounds(lat); err != nil {
			return nil, nil, err
		}
	}
	return lonB, latB, nil
}

// Cells returns the cells of w in longitude-latitude coordinates.
func (w *WRFInput) Cells() ([]*GridCell, error) {
	lonB, latB, err := w.Bounds()
	if err != nil {
		return nil, err
	}
	return rectilinearCells(lonLat, lonB, latB)
}

// WriteGridShapefile writes cells to a shapefile at path.
func WriteGridShapefile(path string, cells []*GridCell) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
	fields := make([]goshp.Field, 2)
	fields[0] = goshp.NumberField("row", 10)
	fields[1] = goshp.NumberField("col", 10)
	shpf, err := shp.NewEncoderFromFields(base+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("chemiss: creating grid shapefile: %v", err)
	}
	for _, cell := range cells {
		if err = shpf.EncodeFields(cell.Polygon, cell.Row, cell.Col); err != nil {
			shpf.Close()
			return fmt.Errorf("chemiss: writing grid shapefile: %v", err)
		}
	}
	shpf.Close()

	o, err := os.Create(base + ".prj")
	if err != nil {
		return fmt.Errorf("chemiss: writing grid projection: %v", err)
	}
	if _, err = o.Write([]byte(wgs84WKT)); err != nil {
		o.Close()
		return fmt.Errorf("chemiss: writing grid projection: %v", err)
	}
	return o.Close()
}

const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`
