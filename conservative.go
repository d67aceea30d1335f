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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

func newConservativeRegridder(src *EmissionGrid, dst *WRFInput) (*weightRegridder, error) {
	srcLonB, srcLatB, err := src.Bounds()
	if err != nil {
		return nil, err
	}
	dstLonB, err := dst.LonBounds()
	if err != nil {
		return nil, fmt.Errorf("%v; it is required for conservative regridding", err)
	}
	dstLatB, err := dst.LatBounds()
	if err != nil {
		return nil, fmt.Errorf("%v; it is required for conservative regridding", err)
	}
	if len(dstLonB) != dst.Nx()+1 || len(dstLatB) != dst.Ny()+1 {
		return nil, fmt.Errorf("chemiss: wrfinput has %d×%d cells but %d latitude and %d longitude edges",
			dst.Ny(), dst.Nx(), len(dstLatB), len(dstLonB))
	}
	if _, err := axisDirection("WRF longitude edge", dstLonB); err != nil {
		return nil, err
	}
	if _, err := axisDirection("WRF latitude edge", dstLatB); err != nil {
		return nil, err
	}

	t, err := equalAreaProjection((dstLonB[0]+dstLonB[len(dstLonB)-1])/2,
		(dstLatB[0]+dstLatB[len(dstLatB)-1])/2)
	if err != nil {
		return nil, err
	}
	// Source cells are indexed in longitude-latitude coordinates. Both
	// grids are rectilinear in those coordinates, so each overlap is the
	// longitude-latitude rectangle shared by two cells, which is
	// projected to measure its area.
	srcCells, err := rectilinearCells(lonLat, srcLonB, srcLatB)
	if err != nil {
		return nil, err
	}
	lonB, latB := ascending(dstLonB), ascending(dstLatB)
	// Descending edges (not expected from WRF) flip the destination index.
	flipX := dstLonB[0] > dstLonB[1]
	flipY := dstLatB[0] > dstLatB[1]

	tree := rtree.NewTree(25, 50)
	for _, c := range srcCells {
		tree.Insert(c)
	}

	r := &weightRegridder{
		srcNx: src.Nx(), srcNy: src.Ny(),
		dstNx: dst.Nx(), dstNy: dst.Ny(),
	}
	r.weights = make([][]weight, r.dstNx*r.dstNy)
	for j := 0; j < r.dstNy; j++ {
		for i := 0; i < r.dstNx; i++ {
			p, err := cellPolygon(t, lonB[i], lonB[i+1], latB[j], latB[j+1])
			if err != nil {
				return nil, fmt.Errorf("chemiss: projecting WRF grid: %v", err)
			}
			area := p.Area()
			if area <= 0 {
				continue
			}
			row, col := j, i
			if flipY {
				row = r.dstNy - 1 - row
			}
			if flipX {
				col = r.dstNx - 1 - col
			}
			d := row*r.dstNx + col
			b := &geom.Bounds{
				Min: geom.Point{X: lonB[i], Y: latB[j]},
				Max: geom.Point{X: lonB[i+1], Y: latB[j+1]},
			}
			for _, sI := range tree.SearchIntersect(b) {
				s := sI.(*GridCell)
				lon0 := math.Max(lonB[i], srcLonB[s.Col])
				lon1 := math.Min(lonB[i+1], srcLonB[s.Col+1])
				lat0 := math.Max(latB[j], srcLatB[s.Row])
				lat1 := math.Min(latB[j+1], srcLatB[s.Row+1])
				if lon1 <= lon0 || lat1 <= lat0 {
					continue
				}
				isect, err := cellPolygon(t, lon0, lon1, lat0, lat1)
				if err != nil {
					return nil, fmt.Errorf("chemiss: projecting grid overlap: %v", err)
				}
				if a := isect.Area(); a > 0 {
					r.weights[d] = append(r.weights[d], weight{src: s.Row*r.srcNx + s.Col, w: a / area})
				}
			}
		}
	}
	return r, nil
}

// ascending returns v sorted into ascending order, assuming it is
// monotonic.
func ascending(v []float64) []float64 {
	if len(v) < 2 || v[0] < v[1] {
		return v
	}
	o := append([]float64{}, v...)
	reverse(o)
	return o
}
