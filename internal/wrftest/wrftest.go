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

// Package wrftest writes small synthetic wrfinput files for testing.
package wrftest

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// Domain describes a WRF domain with cell centers on a regular
// longitude-latitude grid.
type Domain struct {
	Nx, Ny int

	// Lon0 and Lat0 are the coordinates of the center of the
	// southwest cell [degrees].
	Lon0, Lat0 float64

	// DLon and DLat are the grid spacing [degrees].
	DLon, DLat float64

	// DX and DY are the grid spacing stored in the file [m].
	DX, DY float64

	GridID int
	Times  string

	// NoStagger omits XLAT_V and XLONG_U.
	NoStagger bool
}

// Lon returns the longitude of the center of column i.
func (d Domain) Lon(i int) float64 { return d.Lon0 + float64(i)*d.DLon }

// Lat returns the latitude of the center of row j.
func (d Domain) Lat(j int) float64 { return d.Lat0 + float64(j)*d.DLat }

// WriteFile writes d as a wrfinput file at path.
func (d Domain) WriteFile(path string) error {
	h := cdf.NewHeader(
		[]string{"Time", "DateStrLen", "west_east", "south_north", "west_east_stag", "south_north_stag"},
		[]int{0, 19, d.Nx, d.Ny, d.Nx + 1, d.Ny + 1})
	h.AddAttribute("", "TITLE", " OUTPUT FROM REAL_EM V3.9.1 PREPROCESSOR")
	h.AddAttribute("", "DX", []float32{float32(d.DX)})
	h.AddAttribute("", "DY", []float32{float32(d.DY)})
	h.AddAttribute("", "GRID_ID", []int32{int32(d.GridID)})
	h.AddAttribute("", "MAP_PROJ", []int32{3})
	h.AddVariable("Times", []string{"Time", "DateStrLen"}, "")
	vars := map[string][]string{
		"XLAT":  {"Time", "south_north", "west_east"},
		"XLONG": {"Time", "south_north", "west_east"},
	}
	if !d.NoStagger {
		vars["XLAT_V"] = []string{"Time", "south_north_stag", "west_east"}
		vars["XLONG_U"] = []string{"Time", "south_north", "west_east_stag"}
	}
	for _, v := range []string{"XLAT", "XLONG", "XLAT_V", "XLONG_U"} {
		if dims, ok := vars[v]; ok {
			h.AddVariable(v, dims, []float32{0})
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("wrftest: %v", errs)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		f.Close()
		return err
	}
	data := map[string][]float32{
		"XLAT":  d.field(d.Nx, d.Ny, func(i, j int) float64 { return d.Lat(j) }),
		"XLONG": d.field(d.Nx, d.Ny, func(i, j int) float64 { return d.Lon(i) }),
	}
	if !d.NoStagger {
		data["XLAT_V"] = d.field(d.Nx, d.Ny+1, func(i, j int) float64 { return d.Lat(j) - d.DLat/2 })
		data["XLONG_U"] = d.field(d.Nx+1, d.Ny, func(i, j int) float64 { return d.Lon(i) - d.DLon/2 })
	}
	if _, err := cf.Writer("Times", []int{0, 0}, []int{1, 0}).Write(d.Times); err != nil {
		f.Close()
		return err
	}
	for v, vals := range data {
		w := cf.Writer(v, []int{0, 0, 0}, []int{1, 0, 0})
		if _, err := w.Write(vals); err != nil {
			f.Close()
			return err
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d Domain) field(nx, ny int, v func(i, j int) float64) []float32 {
	o := make([]float32, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			o = append(o, float32(v(i, j)))
		}
	}
	return o
}
