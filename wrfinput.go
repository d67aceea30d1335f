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
	"bytes"
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Attribute is a NetCDF attribute. Value is one of []uint8, string,
// []int16, []int32, []float32 or []float64.
type Attribute struct {
	Name  string
	Value interface{}
}

// WRFInput holds the grid definition of a WRF domain, as read from
// a wrfinput file.
type WRFInput struct {
	// XLat and XLong are the cell-center coordinates [degrees]
	// with dimensions [south_north, west_east].
	XLat, XLong *sparse.DenseArray

	// XLatV and XLongU are the latitudes of the V points and the
	// longitudes of the U points, with dimensions
	// [south_north_stag, west_east] and [south_north, west_east_stag].
	// They are nil if the file does not contain them.
	XLatV, XLongU *sparse.DenseArray

	// DX and DY are the grid spacing [m].
	DX, DY float64

	// GridID is the domain number.
	GridID int

	// Times is the first time string in the file.
	Times string

	// Attributes holds the global attributes in file order.
	Attributes []Attribute
}

// Nx returns the number of grid cells in the west-east direction.
func (w *WRFInput) Nx() int { return w.XLat.Shape[1] }

// Ny returns the number of grid cells in the south-north direction.
func (w *WRFInput) Ny() int { return w.XLat.Shape[0] }

// CellArea returns the area of one grid cell [m²].
func (w *WRFInput) CellArea() float64 { return w.DX * w.DY }

// Domain returns the domain name, e.g. "d01".
func (w *WRFInput) Domain() string { return fmt.Sprintf("d%02d", w.GridID) }

// LonBounds returns the longitudes of the cell edges along the first
// row of U points.
func (w *WRFInput) LonBounds() ([]float64, error) {
	if w.XLongU == nil {
		return nil, fmt.Errorf("chemiss: wrfinput file does not contain XLONG_U")
	}
	nx := w.XLongU.Shape[1]
	o := make([]float64, nx)
	copy(o, w.XLongU.Elements[:nx])
	return o, nil
}

// LatBounds returns the latitudes of the cell edges along the first
// column of V points.
func (w *WRFInput) LatBounds() ([]float64, error) {
	if w.XLatV == nil {
		return nil, fmt.Errorf("chemiss: wrfinput file does not contain XLAT_V")
	}
	ny := w.XLatV.Shape[0]
	o := make([]float64, ny)
	for j := 0; j < ny; j++ {
		o[j] = w.XLatV.Get(j, 0)
	}
	return o, nil
}

// OpenWRFInput reads the wrfinput file at path.
func OpenWRFInput(path string) (*WRFInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chemiss: opening wrfinput file: %v", err)
	}
	defer f.Close()
	w, err := ReadWRFInput(f)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, path)
	}
	return w, nil
}

// ReadWRFInput reads a WRF domain definition from rw.
func ReadWRFInput(rw cdf.ReaderWriterAt) (*WRFInput, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("chemiss: reading wrfinput file: %v", err)
	}
	w := new(WRFInput)
	if w.XLat, err = readFirstRecord(f, "XLAT"); err != nil {
		return nil, err
	}
	if w.XLong, err = readFirstRecord(f, "XLONG"); err != nil {
		return nil, err
	}
	if len(w.XLat.Shape) != 2 || !sameShape(w.XLat, w.XLong) {
		return nil, fmt.Errorf("chemiss: wrfinput XLAT %v and XLONG %v must be 2-dimensional with the same shape", w.XLat.Shape, w.XLong.Shape)
	}
	if hasVariable(f, "XLAT_V") {
		if w.XLatV, err = readFirstRecord(f, "XLAT_V"); err != nil {
			return nil, err
		}
	}
	if hasVariable(f, "XLONG_U") {
		if w.XLongU, err = readFirstRecord(f, "XLONG_U"); err != nil {
			return nil, err
		}
	}

	if w.DX, err = floatAttribute(f.Header, "DX"); err != nil {
		return nil, err
	}
	if w.DY, err = floatAttribute(f.Header, "DY"); err != nil {
		return nil, err
	}
	w.GridID = 1
	if f.Header.GetAttribute("", "GRID_ID") != nil {
		id, err := floatAttribute(f.Header, "GRID_ID")
		if err != nil {
			return nil, err
		}
		w.GridID = int(id)
	}
	for _, a := range f.Header.Attributes("") {
		w.Attributes = append(w.Attributes, Attribute{Name: a, Value: f.Header.GetAttribute("", a)})
	}
	if hasVariable(f, "Times") {
		if w.Times, err = readTimeString(f, 0); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func hasVariable(f *cdf.File, v string) bool {
	for _, vv := range f.Header.Variables() {
		if vv == v {
			return true
		}
	}
	return false
}

func sameShape(a, b *sparse.DenseArray) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i, s := range a.Shape {
		if b.Shape[i] != s {
			return false
		}
	}
	return true
}

// readFirstRecord reads the first time record of variable v. Variables
// without a record dimension are read whole.
func readFirstRecord(f *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("chemiss: reading netcdf: variable %s not in file", v)
	}
	if f.Header.IsRecordVariable(v) {
		return readRecord(f, v, 0)
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("chemiss: reading netcdf variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	if err := copyFloats(data.Elements, buf); err != nil {
		return nil, fmt.Errorf("chemiss: reading netcdf variable %s: %v", v, err)
	}
	return data, nil
}

// readRecord reads record index rec of record variable v.
func readRecord(f *cdf.File, v string, rec int) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(v)[1:]
	nread := 1
	for _, dim := range dims {
		nread *= dim
	}
	start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
	start[0], end[0] = rec, rec+1
	r := f.Reader(v, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("chemiss: reading netcdf variable %s record %d: %v", v, rec, err)
	}
	data := sparse.ZerosDense(dims...)
	if err := copyFloats(data.Elements, buf); err != nil {
		return nil, fmt.Errorf("chemiss: reading netcdf variable %s: %v", v, err)
	}
	return data, nil
}

func copyFloats(dst []float64, buf interface{}) error {
	switch b := buf.(type) {
	case []float32:
		for i, val := range b {
			dst[i] = float64(val)
		}
	case []float64:
		copy(dst, b)
	default:
		return fmt.Errorf("variable type %T is not floating point", buf)
	}
	return nil
}

// readTimeString reads record rec of the Times variable.
func readTimeString(f *cdf.File, rec int) (string, error) {
	n := f.Header.Lengths("Times")[1]
	r := f.Reader("Times", []int{rec, 0}, []int{rec + 1, 0})
	buf := make([]uint8, n)
	if _, err := r.Read(buf); err != nil {
		return "", fmt.Errorf("chemiss: reading netcdf Times record %d: %v", rec, err)
	}
	return string(bytes.TrimRight(buf, "\x00 ")), nil
}

// floatAttribute returns the first value of numeric global attribute a.
func floatAttribute(h *cdf.Header, a string) (float64, error) {
	switch v := h.GetAttribute("", a).(type) {
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	case []float64:
		if len(v) > 0 {
			return v[0], nil
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	case []int16:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	case nil:
		return 0, fmt.Errorf("chemiss: netcdf file is missing global attribute %s", a)
	}
	return 0, fmt.Errorf("chemiss: netcdf global attribute %s is not numeric", a)
}
