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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// centerPoint is a source cell center with its flattened index.
type centerPoint struct {
	geom.Point
	i int
}

// centerIndex finds the nearest source cell center to a location.
type centerIndex struct {
	tree *rtree.Rtree

	// step is the initial search half-width [degrees].
	step float64
}

func newCenterIndex(g *EmissionGrid) *centerIndex {
	c := &centerIndex{tree: rtree.NewTree(25, 50)}
	for j, lat := range g.Lat {
		for i, lon := range g.Lon {
			c.tree.Insert(&centerPoint{Point: geom.Point{X: lon, Y: lat}, i: j*g.Nx() + i})
		}
	}
	for _, axis := range [][]float64{g.Lon, g.Lat} {
		for i := 1; i < len(axis); i++ {
			c.step = math.Max(c.step, axis[i]-axis[i-1])
		}
	}
	if c.step == 0 { // single cell
		c.step = 1
	}
	return c
}

// nearest returns the flattened index of the source center with the
// smallest great-circle distance to (lon, lat). The search box grows
// until it contains the whole circle around the best candidate.
func (c *centerIndex) nearest(lon, lat float64) int {
	h := c.step
	for {
		best, bestD := -1, math.Inf(1)
		for _, g := range c.tree.SearchIntersect(searchBox(lon, lat, h)) {
			p := g.(*centerPoint)
			if d := greatCircle(lon, lat, p.X, p.Y); d < bestD {
				best, bestD = p.i, d
			}
		}
		if (best >= 0 && bestD/deg2rad <= h) || h >= 360 {
			return best
		}
		h *= 2
	}
}

// searchBox returns the box around (lon, lat) that contains every point
// within h degrees of arc.
func searchBox(lon, lat, h float64) *geom.Bounds {
	dlon := 360.
	if c := math.Cos(lat * deg2rad); c > h/360 {
		dlon = math.Min(h/c, 360)
	}
	return &geom.Bounds{
		Min: geom.Point{X: lon - dlon, Y: lat - h},
		Max: geom.Point{X: lon + dlon, Y: lat + h},
	}
}

// greatCircle returns the angular distance [radians] between two points
// given in degrees.
func greatCircle(lon1, lat1, lon2, lat2 float64) float64 {
	φ1, φ2 := lat1*deg2rad, lat2*deg2rad
	dφ := φ2 - φ1
	dλ := (lon2 - lon1) * deg2rad
	a := math.Pow(math.Sin(dφ/2), 2) + math.Cos(φ1)*math.Cos(φ2)*math.Pow(math.Sin(dλ/2), 2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(a)))
}

func newNearestRegridder(src *EmissionGrid, dst *WRFInput) (*weightRegridder, error) {
	idx := newCenterIndex(src)
	r := &weightRegridder{
		srcNx: src.Nx(), srcNy: src.Ny(),
		dstNx: dst.Nx(), dstNy: dst.Ny(),
	}
	r.weights = make([][]weight, r.dstNx*r.dstNy)
	for d := range r.weights {
		s := idx.nearest(dst.XLong.Elements[d], dst.XLat.Elements[d])
		r.weights[d] = []weight{{src: s, w: 1}}
	}
	return r, nil
}
