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
	"testing"
)

func TestHourlyTotals(t *testing.T) {
	w := openDomain(t, testDomain)
	c, err := NewWRFChemi(testRegridded(3), w, DefaultMechanism(), "")
	if err != nil {
		t.Fatal(err)
	}
	totals, err := c.HourlyTotals("E_CO")
	if err != nil {
		t.Fatal(err)
	}
	// Step k holds values 4k to 4k+3.
	want := []float64{6, 22, 38}
	for i, v := range want {
		if totals[i] != v {
			t.Errorf("step %d: have %g, want %g", i, totals[i], v)
		}
	}
	if _, err := c.HourlyTotals("E_XYZ"); err == nil {
		t.Errorf("expected an error for a missing species")
	}

	b := new(bytes.Buffer)
	if err := c.PlotTotals(b, "E_CO", "E_PM25I"); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b.Bytes(), []byte("\x89PNG")) {
		t.Errorf("plot is not a PNG image")
	}
}
