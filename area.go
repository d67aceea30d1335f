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
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// EarthRadius is the radius of the spherical earth used for
// cell area calculations [m].
const EarthRadius = 6371000.

const deg2rad = math.Pi / 180

// maxEdgeStep is the largest longitude step [degrees] between
// vertices along a cell edge that follows a parallel.
const maxEdgeStep = 0.1

// equalAreaProjection returns a transformer from longitude and latitude
// in degrees to an Albers equal-area plane [m] centered on (lon0, lat0).
func equalAreaProjection(lon0, lat0 float64) (proj.Transformer, error) {
	sr := proj.NewSR()
	sr.Name = "aea"
	sr.A, sr.B = EarthRadius, EarthRadius
	sr.Lat0 = lat0 * deg2rad
	// The standard parallel must stay away from the equator.
	par := lat0
	if math.Abs(par) < 10 {
		par = math.Copysign(10, par)
	}
	sr.Lat1, sr.Lat2 = par*deg2rad, par*deg2rad
	sr.Long0 = lon0 * deg2rad
	sr.X0, sr.Y0 = 0, 0
	forward, _, err := proj.AEA(sr)
	if err != nil {
		return nil, fmt.Errorf("chemiss: creating equal-area projection: %v", err)
	}
	return func(lon, lat float64) (float64, float64, error) {
		return forward(lon*deg2rad, lat*deg2rad)
	}, nil
}

// cellPolygon returns the polygon bounded by the given longitudes and
// latitudes in the coordinates of t. Edges along parallels are
// densified because parallels are curved in the projected plane.
func cellPolygon(t proj.Transformer, lon0, lon1, lat0, lat1 float64) (geom.Polygon, error) {
	n := int(math.Ceil(math.Abs(lon1-lon0) / maxEdgeStep))
	if n < 1 {
		n = 1
	}
	ring := make([]geom.Point, 0, 2*n+3)
	add := func(lon, lat float64) error {
		x, y, err := t(lon, lat)
		if err != nil {
			return err
		}
		ring = append(ring, geom.Point{X: x, Y: y})
		return nil
	}
	dlon := (lon1 - lon0) / float64(n)
	for i := 0; i <= n; i++ {
		if err := add(lon0+float64(i)*dlon, lat0); err != nil {
			return nil, err
		}
	}
	for i := n; i >= 0; i-- {
		if err := add(lon0+float64(i)*dlon, lat1); err != nil {
			return nil, err
		}
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}, nil
}

// CellAreas returns the areas [m²] of the cells of a rectilinear
// longitude-latitude grid with the given cell edges, as a [lat, lon]
// array. The earth is treated as a sphere with radius EarthRadius.
func CellAreas(lonB, latB []float64) (*sparse.DenseArray, error) {
	if len(lonB) < 2 || len(latB) < 2 {
		return nil, fmt.Errorf("chemiss: cell areas need at least 2 edges in each direction")
	}
	nx, ny := len(lonB)-1, len(latB)-1
	t, err := equalAreaProjection((lonB[0]+lonB[nx])/2, (latB[0]+latB[ny])/2)
	if err != nil {
		return nil, err
	}
	o := sparse.ZerosDense(ny, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p, err := cellPolygon(t, lonB[i], lonB[i+1], latB[j], latB[j+1])
			if err != nil {
				return nil, fmt.Errorf("chemiss: calculating cell area: %v", err)
			}
			o.Set(p.Area(), j, i)
		}
	}
	return o, nil
}
