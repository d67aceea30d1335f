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
	"time"

	"github.com/ctessum/sparse"
)

// Method is a regridding method.
type Method string

const (
	// NearestS2D assigns to each destination cell the value of the
	// nearest source cell center.
	NearestS2D Method = "nearest_s2d"

	// Conservative assigns to each destination cell the area-weighted
	// average of the overlapping source cells, which conserves the
	// area integral of the field.
	Conservative Method = "conservative"
)

// ParseMethod returns the regridding method named s.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case NearestS2D, Conservative:
		return Method(s), nil
	}
	return "", fmt.Errorf("chemiss: invalid regridding method %q; valid methods are %q and %q", s, NearestS2D, Conservative)
}

// RegriddedEmissions holds emissions on a WRF grid.
type RegriddedEmissions struct {
	Times   []time.Time
	Species []string

	// Data holds the emission rates for each species,
	// with dimensions [Time, south_north, west_east].
	Data map[string]*sparse.DenseArray
}

// Nt returns the number of time steps.
func (r *RegriddedEmissions) Nt() int { return len(r.Times) }

// A Regridder moves emissions from a source grid to a WRF grid.
type Regridder interface {
	Regrid(*EmissionGrid) (*RegriddedEmissions, error)
}

// NewRegridder returns a Regridder that uses method m to regrid from the
// grid of src to the grid of dst. Weights are calculated once and can be
// applied to any EmissionGrid with the same coordinates as src.
func NewRegridder(m Method, src *EmissionGrid, dst *WRFInput) (Regridder, error) {
	switch m {
	case NearestS2D:
		return newNearestRegridder(src, dst)
	case Conservative:
		return newConservativeRegridder(src, dst)
	}
	_, err := ParseMethod(string(m))
	return nil, err
}

type weight struct {
	src int
	w   float64
}

// weightRegridder applies precalculated weights. weights[d] holds the
// source cells that contribute to flattened destination cell d.
type weightRegridder struct {
	srcNx, srcNy int
	dstNx, dstNy int
	weights      [][]weight
}

func (r *weightRegridder) Regrid(g *EmissionGrid) (*RegriddedEmissions, error) {
	if g.Nx() != r.srcNx || g.Ny() != r.srcNy {
		return nil, fmt.Errorf("chemiss: regridder was created for a %d×%d source grid but the emissions are on a %d×%d grid",
			r.srcNy, r.srcNx, g.Ny(), g.Nx())
	}
	o := &RegriddedEmissions{
		Times:   g.Times,
		Species: append([]string{}, g.Species...),
		Data:    make(map[string]*sparse.DenseArray),
	}
	nt := g.Nt()
	nSrc, nDst := r.srcNx*r.srcNy, r.dstNx*r.dstNy
	for _, sp := range g.Species {
		in := g.Data[sp]
		out := sparse.ZerosDense(nt, r.dstNy, r.dstNx)
		for k := 0; k < nt; k++ {
			src := in.Elements[k*nSrc : (k+1)*nSrc]
			dst := out.Elements[k*nDst : (k+1)*nDst]
			for d, ws := range r.weights {
				var v float64
				for _, w := range ws {
					v += src[w.src] * w.w
				}
				dst[d] = v
			}
		}
		o.Data[sp] = out
	}
	return o, nil
}
