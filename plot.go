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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// HourlyTotals returns the sum over all grid cells of species sp at
// each time step of c.
func (c *WRFChemi) HourlyTotals(sp string) ([]float64, error) {
	d, ok := c.Data[sp]
	if !ok {
		return nil, fmt.Errorf("chemiss: species %s is not in the wrfchemi file", sp)
	}
	n := c.Nx() * c.Ny()
	o := make([]float64, c.Nt())
	for k := range o {
		o[k] = floats.Sum(d.Elements[k*n : (k+1)*n])
	}
	return o, nil
}

// PlotTotals writes to w a PNG line plot of the domain-total emission
// rate of each of the given species against the hour since the first
// time step.
func (c *WRFChemi) PlotTotals(w io.Writer, species ...string) error {
	if c.Nt() == 0 {
		return fmt.Errorf("chemiss: there are no time steps to plot")
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Domain total emissions"
	p.X.Label.Text = "Hours since " + c.Times[0].Format(TimeFormat)
	p.Y.Label.Text = "Sum of grid cell emission rates"
	var lines []interface{}
	for _, sp := range species {
		totals, err := c.HourlyTotals(sp)
		if err != nil {
			return err
		}
		xy := make(plotter.XYs, len(totals))
		for i, v := range totals {
			xy[i].X = c.Times[i].Sub(c.Times[0]).Hours()
			xy[i].Y = v
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", sp, c.Units[sp]), xy)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return err
	}
	p.Y.Min = 0
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
