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

// ReshapeConfig specifies the dimensions of the source emission grid.
type ReshapeConfig struct {
	// Nx and Ny are the number of longitude and latitude points.
	Nx, Ny int

	// Start and End are the first and last hours of emissions,
	// inclusive.
	Start, End time.Time
}

// EmissionGrid holds emissions on a rectilinear longitude-latitude grid.
type EmissionGrid struct {
	// Lon and Lat are the cell-center coordinates, both ascending.
	Lon, Lat []float64

	// Times holds the hourly time steps.
	Times []time.Time

	// Species holds the species names in input order.
	Species []string

	// Data holds the emission rates for each species,
	// with dimensions [time, lat, lon].
	Data map[string]*sparse.DenseArray
}

// Nt returns the number of time steps.
func (g *EmissionGrid) Nt() int { return len(g.Times) }

// Nx returns the number of longitude points.
func (g *EmissionGrid) Nx() int { return len(g.Lon) }

// Ny returns the number of latitude points.
func (g *EmissionGrid) Ny() int { return len(g.Lat) }

// AddSpecies adds species name with the given data, which must have
// dimensions [time, lat, lon].
func (g *EmissionGrid) AddSpecies(name string, data *sparse.DenseArray) error {
	if _, ok := g.Data[name]; ok {
		return fmt.Errorf("chemiss: species %s already exists", name)
	}
	if len(data.Shape) != 3 || data.Shape[0] != g.Nt() || data.Shape[1] != g.Ny() || data.Shape[2] != g.Nx() {
		return fmt.Errorf("chemiss: species %s has shape %v but the grid is [%d %d %d]", name, data.Shape, g.Nt(), g.Ny(), g.Nx())
	}
	g.Species = append(g.Species, name)
	g.Data[name] = data
	return nil
}

// HourlyTimes returns the hourly time steps from start to end, inclusive.
func HourlyTimes(start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("chemiss: end time %v is before start time %v", end, start)
	}
	var o []time.Time
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		o = append(o, t)
	}
	return o, nil
}

// NewEmissionGrid reshapes the columns of t into [time, lat, lon] arrays.
// Rows of t must be ordered with longitude varying fastest, then
// latitude, then time. The longitude axis is taken from the first
// cfg.Nx rows and the latitude axis from every cfg.Nx-th row of the
// first time step. Grids stored with descending latitude (or longitude)
// are flipped so that both axes ascend.
func NewEmissionGrid(t *Table, cfg ReshapeConfig) (*EmissionGrid, error) {
	if cfg.Nx < 1 || cfg.Ny < 1 {
		return nil, fmt.Errorf("chemiss: the emission grid must have at least 1 point in each direction but nx=%d and ny=%d", cfg.Nx, cfg.Ny)
	}
	times, err := HourlyTimes(cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	nt, ny, nx := len(times), cfg.Ny, cfg.Nx
	if n := nt * ny * nx; t.Len() != n {
		return nil, fmt.Errorf("chemiss: the emission table has %d rows, but %d time steps × %d latitudes × %d longitudes = %d",
			t.Len(), nt, ny, nx, n)
	}

	g := &EmissionGrid{
		Lon:   make([]float64, nx),
		Lat:   make([]float64, ny),
		Times: times,
		Data:  make(map[string]*sparse.DenseArray),
	}
	copy(g.Lon, t.Lon[:nx])
	for j := 0; j < ny; j++ {
		g.Lat[j] = t.Lat[j*nx]
	}
	flipLon, err := axisDirection("longitude", g.Lon)
	if err != nil {
		return nil, err
	}
	flipLat, err := axisDirection("latitude", g.Lat)
	if err != nil {
		return nil, err
	}
	if flipLon {
		reverse(g.Lon)
	}
	if flipLat {
		reverse(g.Lat)
	}

	for _, sp := range t.Species() {
		d := sparse.ZerosDense(nt, ny, nx)
		copy(d.Elements, t.Values[sp])
		if flipLat || flipLon {
			d = flip(d, flipLat, flipLon)
		}
		g.Species = append(g.Species, sp)
		g.Data[sp] = d
	}
	return g, nil
}

// axisDirection returns true if the axis is strictly descending and
// false if it is strictly ascending. Other axes are an error.
func axisDirection(name string, v []float64) (bool, error) {
	asc, desc := true, true
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			asc = false
		}
		if !(v[i] < v[i-1]) {
			desc = false
		}
	}
	switch {
	case asc:
		return false, nil
	case desc:
		return true, nil
	}
	return false, fmt.Errorf("chemiss: the %s axis %v is not strictly monotonic; check the row order and the grid dimensions", name, v)
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

// flip reverses the lat and/or lon dimensions of a [time, lat, lon] array.
func flip(d *sparse.DenseArray, lat, lon bool) *sparse.DenseArray {
	nt, ny, nx := d.Shape[0], d.Shape[1], d.Shape[2]
	o := sparse.ZerosDense(nt, ny, nx)
	for k := 0; k < nt; k++ {
		for j := 0; j < ny; j++ {
			jj := j
			if lat {
				jj = ny - 1 - j
			}
			for i := 0; i < nx; i++ {
				ii := i
				if lon {
					ii = nx - 1 - i
				}
				o.Set(d.Get(k, j, i), k, jj, ii)
			}
		}
	}
	return o
}
