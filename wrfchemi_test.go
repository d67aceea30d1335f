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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
)

func testRegridded(nt int) *RegriddedEmissions {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &RegriddedEmissions{
		Species: []string{"E_CO", "E_PM25I"},
		Data:    make(map[string]*sparse.DenseArray),
	}
	for k := 0; k < nt; k++ {
		r.Times = append(r.Times, start.Add(time.Duration(k)*time.Hour))
	}
	for s, sp := range r.Species {
		d := sparse.ZerosDense(nt, 2, 2)
		for i := range d.Elements {
			d.Elements[i] = float64(i) + 0.5*float64(s)
		}
		r.Data[sp] = d
	}
	return r
}

func TestWRFChemi_roundTrip(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	w := openDomain(t, testDomain)
	c, err := NewWRFChemi(testRegridded(3), w, DefaultMechanism(), "")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "wrfchemi_d01_2019-01-01_00:00:00")
	if err := c.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	c2, err := OpenWRFChemi(path)
	if err != nil {
		t.Fatal(err)
	}
	if c2.Nt() != 3 {
		t.Fatalf("have %d time steps, want 3", c2.Nt())
	}
	for i, tt := range c.Times {
		if !tt.Equal(c2.Times[i]) {
			t.Errorf("time %d: have %v, want %v", i, c2.Times[i], tt)
		}
	}
	if !reflect.DeepEqual(c2.Species, c.Species) {
		t.Errorf("species: have %v, want %v", c2.Species, c.Species)
	}
	if diff := pretty.Diff(c2.Units, c.Units); len(diff) > 0 {
		t.Errorf("units: %v", diff)
	}
	if c2.Units["E_PM25I"] != AerosolUnits || c2.Units["E_CO"] != GasUnits {
		t.Errorf("units: %v", c2.Units)
	}
	for _, sp := range c.Species {
		if !reflect.DeepEqual(c2.Data[sp].Elements, c.Data[sp].Elements) {
			t.Errorf("%s: have %v, want %v", sp, c2.Data[sp].Elements, c.Data[sp].Elements)
		}
	}
	if !reflect.DeepEqual(c2.XLat.Elements, w.XLat.Elements) {
		t.Errorf("XLAT: have %v, want %v", c2.XLat.Elements, w.XLat.Elements)
	}
	if !reflect.DeepEqual(c2.XLong.Elements, w.XLong.Elements) {
		t.Errorf("XLONG: have %v, want %v", c2.XLong.Elements, w.XLong.Elements)
	}
	title := ""
	for _, a := range c2.Attributes {
		if a.Name == "TITLE" {
			title, _ = a.Value.(string)
		}
	}
	if title != Title {
		t.Errorf("TITLE: have %q, want %q", title, Title)
	}
	if len(c2.Attributes) != len(w.Attributes) {
		t.Errorf("have %d global attributes, want %d", len(c2.Attributes), len(w.Attributes))
	}
}

func TestWRFChemi_slice(t *testing.T) {
	w := openDomain(t, testDomain)
	c, err := NewWRFChemi(testRegridded(24), w, DefaultMechanism(), "custom title")
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Slice(12, 24)
	if err != nil {
		t.Fatal(err)
	}
	if s.Nt() != 12 || !s.Times[0].Equal(c.Times[12]) {
		t.Errorf("slice has %d steps starting at %v", s.Nt(), s.Times[0])
	}
	if have, want := s.Data["E_CO"].Get(0, 1, 1), c.Data["E_CO"].Get(12, 1, 1); have != want {
		t.Errorf("have %g, want %g", have, want)
	}
	for _, r := range [][2]int{{-1, 2}, {3, 3}, {0, 25}} {
		if _, err := c.Slice(r[0], r[1]); err == nil {
			t.Errorf("expected an error for range %v", r)
		}
	}
}

func TestNewWRFChemi_errors(t *testing.T) {
	w := openDomain(t, testDomain)
	r := testRegridded(2)
	r.Data["E_CO"] = sparse.ZerosDense(2, 3, 3)
	if _, err := NewWRFChemi(r, w, DefaultMechanism(), ""); err == nil {
		t.Errorf("expected an error for a shape mismatch")
	}
	if _, err := NewWRFChemi(&RegriddedEmissions{}, w, DefaultMechanism(), ""); err == nil {
		t.Errorf("expected an error for no species")
	}
}
