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
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

func TestCheckConservation(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	g := &EmissionGrid{
		Lon:     []float64{0, 1},
		Lat:     []float64{0, 1},
		Times:   []time.Time{start},
		Species: []string{"E_CO", "E_PM25I", "E_NO"},
		Data: map[string]*sparse.DenseArray{
			"E_CO":    sparse.ZerosDense(1, 2, 2),
			"E_PM25I": sparse.ZerosDense(1, 2, 2),
			"E_NO":    sparse.ZerosDense(1, 2, 2),
		},
	}
	r := &RegriddedEmissions{
		Times:   g.Times,
		Species: g.Species,
		Data: map[string]*sparse.DenseArray{
			"E_CO":    sparse.ZerosDense(1, 1, 2),
			"E_PM25I": sparse.ZerosDense(1, 1, 2),
			"E_NO":    sparse.ZerosDense(1, 1, 2),
		},
	}
	for _, sp := range []string{"E_CO", "E_PM25I"} {
		for i := range g.Data[sp].Elements {
			g.Data[sp].Elements[i] = 1
		}
		for i := range r.Data[sp].Elements {
			r.Data[sp].Elements[i] = 2
		}
	}
	// Half of the E_PM25I mass is lost.
	r.Data["E_PM25I"].Elements[1] = 0

	report, err := CheckConservation(g, r, DefaultMechanism(), []string{"E_CO", "E_PM25I", "E_NO", "E_SO2"},
		ConstantArea(2, 2, 10), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 3 {
		t.Fatalf("report has %d species, want 3", len(report))
	}
	tests := []struct {
		species    string
		inKg, outKg float64
		percent    float64
	}{
		// 4 cells × 10 km² × 1 mol km⁻² hr⁻¹ × 1 hr × 28 g/mol
		{species: "E_CO", inKg: 1.12, outKg: 1.12, percent: 100},
		// 4 cells × 1e7 m² × 1 μg m⁻² s⁻¹ × 3600 s
		{species: "E_PM25I", inKg: 144, outKg: 72, percent: 50},
	}
	for i, test := range tests {
		s := report[i]
		if s.Species != test.species {
			t.Fatalf("species %d: have %s, want %s", i, s.Species, test.species)
		}
		if different(s.Input.Value(), test.inKg, 1.e-10) {
			t.Errorf("%s input: have %g kg, want %g kg", s.Species, s.Input.Value(), test.inKg)
		}
		if different(s.Output.Value(), test.outKg, 1.e-10) {
			t.Errorf("%s output: have %g kg, want %g kg", s.Species, s.Output.Value(), test.outKg)
		}
		if different(s.Percent, test.percent, 1.e-10) {
			t.Errorf("%s: have %g%%, want %g%%", s.Species, s.Percent, test.percent)
		}
	}
	if !math.IsNaN(report[2].Percent) {
		t.Errorf("zero input should give NaN percent, not %g", report[2].Percent)
	}

	b := new(bytes.Buffer)
	if _, err := report.Table().Tabbed(b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"Conserved (%)", "E_PM25I", "50.00", "0.000144"} {
		if !strings.Contains(out, want) {
			t.Errorf("table does not contain %q:\n%s", want, out)
		}
	}
}

func TestInputTotal_errors(t *testing.T) {
	g := testGrid(1)
	m := DefaultMechanism()
	if _, err := InputTotal(g, "E_NO", m, ConstantArea(4, 4, 1)); err == nil {
		t.Errorf("expected an error for a missing species")
	}
	if _, err := InputTotal(g, "E_CO", m, ConstantArea(2, 2, 1)); err == nil {
		t.Errorf("expected an error for mismatched areas")
	}
	if _, err := InputTotal(g, "E_CO", Mechanism{}, ConstantArea(4, 4, 1)); err == nil {
		t.Errorf("expected an error for a species that is not in the mechanism")
	}
}
