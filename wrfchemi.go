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
	"io"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Title is the default value of the TITLE attribute of wrfchemi files.
const Title = "OUTPUT FROM CHEMISS PREPROCESSOR"

// TimeFormat is the format of WRF time strings.
const TimeFormat = "2006-01-02_15:04:05"

const dateStrLen = 19

// WRFChemi holds the contents of a wrfchemi emission file.
type WRFChemi struct {
	Times   []time.Time
	Species []string

	// Units holds the units attribute of each species.
	Units map[string]string

	// XLat and XLong are the cell-center coordinates,
	// with dimensions [south_north, west_east].
	XLat, XLong *sparse.DenseArray

	// Attributes holds the global attributes in file order.
	Attributes []Attribute

	// Data holds the emission rates of each species, with dimensions
	// [Time, south_north, west_east]. The emissions_zdim dimension
	// always has length 1 and is not stored.
	Data map[string]*sparse.DenseArray
}

// Nt returns the number of time steps.
func (c *WRFChemi) Nt() int { return len(c.Times) }

// Nx returns the number of grid cells in the west-east direction.
func (c *WRFChemi) Nx() int { return c.XLat.Shape[1] }

// Ny returns the number of grid cells in the south-north direction.
func (c *WRFChemi) Ny() int { return c.XLat.Shape[0] }

// NewWRFChemi combines regridded emissions with the grid definition and
// global attributes of a wrfinput file. The TITLE attribute is set to
// title, or to Title if title is empty.
func NewWRFChemi(r *RegriddedEmissions, w *WRFInput, m Mechanism, title string) (*WRFChemi, error) {
	if len(r.Species) == 0 {
		return nil, fmt.Errorf("chemiss: there are no emission species to write")
	}
	if r.Nt() == 0 {
		return nil, fmt.Errorf("chemiss: there are no emission time steps to write")
	}
	if title == "" {
		title = Title
	}
	c := &WRFChemi{
		Times:   r.Times,
		Species: r.Species,
		Units:   make(map[string]string),
		XLat:    w.XLat,
		XLong:   w.XLong,
		Data:    make(map[string]*sparse.DenseArray),
	}
	for _, sp := range r.Species {
		d, ok := r.Data[sp]
		if !ok {
			return nil, fmt.Errorf("chemiss: species %s has no data", sp)
		}
		if len(d.Shape) != 3 || d.Shape[0] != r.Nt() || d.Shape[1] != w.Ny() || d.Shape[2] != w.Nx() {
			return nil, fmt.Errorf("chemiss: species %s has shape %v but the WRF grid is [%d %d %d]",
				sp, d.Shape, r.Nt(), w.Ny(), w.Nx())
		}
		c.Data[sp] = d
		c.Units[sp] = m.Units(sp)
	}
	hasTitle := false
	for _, a := range w.Attributes {
		if a.Name == "TITLE" {
			a = Attribute{Name: "TITLE", Value: title}
			hasTitle = true
		}
		c.Attributes = append(c.Attributes, a)
	}
	if !hasTitle {
		c.Attributes = append(c.Attributes, Attribute{Name: "TITLE", Value: title})
	}
	return c, nil
}

// Slice returns the time steps [begin, end) of c.
func (c *WRFChemi) Slice(begin, end int) (*WRFChemi, error) {
	if begin < 0 || end > c.Nt() || begin >= end {
		return nil, fmt.Errorf("chemiss: invalid time range [%d, %d) for %d time steps", begin, end, c.Nt())
	}
	o := &WRFChemi{
		Times:      c.Times[begin:end],
		Species:    c.Species,
		Units:      c.Units,
		XLat:       c.XLat,
		XLong:      c.XLong,
		Attributes: c.Attributes,
		Data:       make(map[string]*sparse.DenseArray),
	}
	n := c.Nx() * c.Ny()
	for sp, d := range c.Data {
		dd := sparse.ZerosDense(end-begin, c.Ny(), c.Nx())
		copy(dd.Elements, d.Elements[begin*n:end*n])
		o.Data[sp] = dd
	}
	return o, nil
}

func (c *WRFChemi) header() (*cdf.Header, error) {
	h := cdf.NewHeader([]string{"Time", "DateStrLen", "west_east", "south_north", "emissions_zdim"},
		[]int{0, dateStrLen, c.Nx(), c.Ny(), 1})
	for _, a := range c.Attributes {
		h.AddAttribute("", a.Name, a.Value)
	}
	h.AddVariable("Times", []string{"Time", "DateStrLen"}, "")
	for _, v := range []string{"XLAT", "XLONG"} {
		h.AddVariable(v, []string{"south_north", "west_east"}, []float32{0})
		h.AddAttribute(v, "FieldType", []int32{104})
		h.AddAttribute(v, "MemoryOrder", "XY ")
		h.AddAttribute(v, "stagger", "")
	}
	h.AddAttribute("XLAT", "description", "LATITUDE, SOUTH IS NEGATIVE")
	h.AddAttribute("XLAT", "units", "degree_north")
	h.AddAttribute("XLONG", "description", "LONGITUDE, WEST IS NEGATIVE")
	h.AddAttribute("XLONG", "units", "degree_east")
	for _, sp := range c.Species {
		addEmissionVariable(h, sp, c.Units[sp])
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("chemiss: invalid wrfchemi header: %v", errs)
	}
	return h, nil
}

func addEmissionVariable(h *cdf.Header, name, units string) {
	h.AddVariable(name, []string{"Time", "emissions_zdim", "south_north", "west_east"}, []float32{0})
	h.AddAttribute(name, "FieldType", []int32{104})
	h.AddAttribute(name, "MemoryOrder", "XYZ")
	h.AddAttribute(name, "description", "EMISSIONS")
	h.AddAttribute(name, "units", units)
	h.AddAttribute(name, "stagger", "")
	h.AddAttribute(name, "coordinates", "XLONG XLAT")
}

// Write writes c to f in NetCDF classic format.
func (c *WRFChemi) Write(f *os.File) error {
	h, err := c.header()
	if err != nil {
		return err
	}
	cf, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("chemiss: creating wrfchemi file: %v", err)
	}
	for v, d := range map[string]*sparse.DenseArray{"XLAT": c.XLat, "XLONG": c.XLong} {
		// Filling a fixed-size variable ends in io.EOF.
		if _, err := cf.Writer(v, nil, nil).Write(toFloat32(d.Elements)); err != nil && err != io.EOF {
			return fmt.Errorf("chemiss: writing %s: %v", v, err)
		}
	}
	n := c.Nx() * c.Ny()
	for k, t := range c.Times {
		w := cf.Writer("Times", []int{k, 0}, []int{k + 1, 0})
		if _, err := w.Write(t.Format(TimeFormat)); err != nil {
			return fmt.Errorf("chemiss: writing Times: %v", err)
		}
		for _, sp := range c.Species {
			w := cf.Writer(sp, []int{k, 0, 0, 0}, []int{k + 1, 0, 0, 0})
			if _, err := w.Write(toFloat32(c.Data[sp].Elements[k*n : (k+1)*n])); err != nil {
				return fmt.Errorf("chemiss: writing %s: %v", sp, err)
			}
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("chemiss: finishing wrfchemi file: %v", err)
	}
	return nil
}

// WriteFile writes c to a new file at path.
func (c *WRFChemi) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chemiss: creating wrfchemi file: %v", err)
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toFloat32(v []float64) []float32 {
	o := make([]float32, len(v))
	for i, vv := range v {
		o[i] = float32(vv)
	}
	return o
}

// OpenWRFChemi reads the wrfchemi file at path.
func OpenWRFChemi(path string) (*WRFChemi, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chemiss: opening wrfchemi file: %v", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("chemiss: opening wrfchemi file: %v", err)
	}
	c, err := LoadWRFChemi(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, path)
	}
	return c, nil
}

// LoadWRFChemi reads a wrfchemi file of the given size from rw.
// Every variable with dimensions
// [Time, emissions_zdim, south_north, west_east] is read as a species.
func LoadWRFChemi(rw cdf.ReaderWriterAt, size int64) (*WRFChemi, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("chemiss: reading wrfchemi file: %v", err)
	}
	nt := int(f.Header.NumRecs(size))
	c := &WRFChemi{
		Units: make(map[string]string),
		Data:  make(map[string]*sparse.DenseArray),
	}
	for _, a := range f.Header.Attributes("") {
		c.Attributes = append(c.Attributes, Attribute{Name: a, Value: f.Header.GetAttribute("", a)})
	}
	for k := 0; k < nt; k++ {
		s, err := readTimeString(f, k)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(TimeFormat, s)
		if err != nil {
			return nil, fmt.Errorf("chemiss: reading wrfchemi Times: %v", err)
		}
		c.Times = append(c.Times, t)
	}
	if c.XLat, err = readFirstRecord(f, "XLAT"); err != nil {
		return nil, err
	}
	if c.XLong, err = readFirstRecord(f, "XLONG"); err != nil {
		return nil, err
	}
	for _, v := range f.Header.Variables() {
		if !isEmissionVariable(f.Header, v) {
			continue
		}
		dims := f.Header.Lengths(v)
		ny, nx := dims[2], dims[3]
		if ny != c.Ny() || nx != c.Nx() {
			return nil, fmt.Errorf("chemiss: wrfchemi variable %s is %d×%d but XLAT is %d×%d", v, ny, nx, c.Ny(), c.Nx())
		}
		d := sparse.ZerosDense(nt, ny, nx)
		for k := 0; k < nt; k++ {
			rec, err := readRecord(f, v, k)
			if err != nil {
				return nil, err
			}
			copy(d.Elements[k*ny*nx:(k+1)*ny*nx], rec.Elements)
		}
		c.Species = append(c.Species, v)
		c.Data[v] = d
		if u, ok := f.Header.GetAttribute(v, "units").(string); ok {
			c.Units[v] = u
		}
	}
	return c, nil
}

func isEmissionVariable(h *cdf.Header, v string) bool {
	dims := h.Dimensions(v)
	if len(dims) != 4 {
		return false
	}
	for i, d := range []string{"Time", "emissions_zdim", "south_north", "west_east"} {
		if dims[i] != d {
			return false
		}
	}
	return true
}
