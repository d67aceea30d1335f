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
	"math"
	"text/tabwriter"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"gonum.org/v1/gonum/floats"
)

// kgPerKt is the number of kilograms in a kilotonne.
const kgPerKt = 1e6

// ConstantArea returns an [ny, nx] array where every cell has area a.
func ConstantArea(ny, nx int, a float64) *sparse.DenseArray {
	o := sparse.ZerosDense(ny, nx)
	for i := range o.Elements {
		o.Elements[i] = a
	}
	return o
}

// InputTotal returns the total mass of species emitted over all time
// steps of g. areaKm2 holds the source cell areas [km²] with dimensions
// [lat, lon].
func InputTotal(g *EmissionGrid, species string, m Mechanism, areaKm2 *sparse.DenseArray) (*unit.Unit, error) {
	d, ok := g.Data[species]
	if !ok {
		return nil, fmt.Errorf("chemiss: species %s is not in the emission grid", species)
	}
	if len(areaKm2.Shape) != 2 || areaKm2.Shape[0] != g.Ny() || areaKm2.Shape[1] != g.Nx() {
		return nil, fmt.Errorf("chemiss: source cell areas have shape %v but the grid is %d×%d", areaKm2.Shape, g.Ny(), g.Nx())
	}
	f, err := m.kgPerUnit(species)
	if err != nil {
		return nil, err
	}
	return unit.New(weightedSum(d, areaKm2.Elements)*f, unit.Kilogram), nil
}

// OutputTotal returns the total mass of species emitted over all time
// steps of r, where every WRF cell has area cellAreaKm2 [km²].
func OutputTotal(r *RegriddedEmissions, species string, m Mechanism, cellAreaKm2 float64) (*unit.Unit, error) {
	d, ok := r.Data[species]
	if !ok {
		return nil, fmt.Errorf("chemiss: species %s is not in the regridded emissions", species)
	}
	f, err := m.kgPerUnit(species)
	if err != nil {
		return nil, err
	}
	return unit.New(d.Sum()*cellAreaKm2*f, unit.Kilogram), nil
}

// weightedSum returns the sum over all time steps of d [time, y, x]
// multiplied by the per-cell weights w [y, x].
func weightedSum(d *sparse.DenseArray, w []float64) float64 {
	n := len(w)
	var sum float64
	for k := 0; k < len(d.Elements)/n; k++ {
		sum += floats.Dot(d.Elements[k*n:(k+1)*n], w)
	}
	return sum
}

// SpeciesConservation holds the conservation diagnostic for one species.
type SpeciesConservation struct {
	Species       string
	Input, Output *unit.Unit

	// Percent is 100 × Output / Input. It is NaN when Input is zero.
	Percent float64
}

// ConservationReport holds the conservation diagnostic for a set of species.
type ConservationReport []SpeciesConservation

// CheckConservation compares the total emitted mass of each of the given
// species before and after regridding. srcAreaKm2 holds the source cell
// areas [km²] and dstAreaKm2 is the WRF cell area [km²]. Species that
// are missing from the emissions are skipped.
func CheckConservation(g *EmissionGrid, r *RegriddedEmissions, m Mechanism, species []string,
	srcAreaKm2 *sparse.DenseArray, dstAreaKm2 float64) (ConservationReport, error) {
	var o ConservationReport
	for _, sp := range species {
		if _, ok := g.Data[sp]; !ok {
			continue
		}
		in, err := InputTotal(g, sp, m, srcAreaKm2)
		if err != nil {
			return nil, err
		}
		out, err := OutputTotal(r, sp, m, dstAreaKm2)
		if err != nil {
			return nil, err
		}
		pct := math.NaN()
		if in.Value() != 0 {
			pct = 100 * out.Value() / in.Value()
		}
		o = append(o, SpeciesConservation{Species: sp, Input: in, Output: out, Percent: pct})
	}
	return o, nil
}

// Table returns the report as a table, with totals in kilotonnes.
func (c ConservationReport) Table() ReportTable {
	t := ReportTable{{"Species", "Input (kt)", "Output (kt)", "Conserved (%)"}}
	for _, s := range c {
		t = append(t, []string{
			s.Species,
			fmt.Sprintf("%.4g", s.Input.Value()/kgPerKt),
			fmt.Sprintf("%.4g", s.Output.Value()/kgPerKt),
			fmt.Sprintf("%.2f", s.Percent),
		})
	}
	return t
}

// ReportTable is a table of strings.
type ReportTable [][]string

// Tabbed writes t to w with aligned columns.
func (t ReportTable) Tabbed(w io.Writer) (n int, err error) {
	ww := new(tabwriter.Writer)
	ww.Init(w, 0, 2, 1, ' ', 0)
	var nn int
	for _, l := range t {
		for _, r := range l {
			nn, err = fmt.Fprint(ww, r+"\t")
			if err != nil {
				return
			}
			n += nn
		}
		nn, err = fmt.Fprint(ww, "\n")
		if err != nil {
			return
		}
		n += nn
	}
	err = ww.Flush()
	return
}
