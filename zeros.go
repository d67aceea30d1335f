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

// NewZeroWRFChemi returns a wrfchemi dataset on the grid of w where every
// species is zero at every time step. It can be used to run WRF-Chem
// without anthropogenic emissions.
func NewZeroWRFChemi(w *WRFInput, species []string, times []time.Time, m Mechanism) (*WRFChemi, error) {
	seen := make(map[string]bool)
	r := &RegriddedEmissions{
		Times: times,
		Data:  make(map[string]*sparse.DenseArray),
	}
	for _, sp := range species {
		if seen[sp] {
			return nil, fmt.Errorf("chemiss: species %s is listed more than once", sp)
		}
		seen[sp] = true
		r.Species = append(r.Species, sp)
		r.Data[sp] = sparse.ZerosDense(len(times), w.Ny(), w.Nx())
	}
	return NewWRFChemi(r, w, m, "")
}
