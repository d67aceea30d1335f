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

package chemissutil

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/chemiss"
	"github.com/spatialmodel/chemiss/internal/wrftest"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(b []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(b)))
	return len(b), nil
}

// testLog returns a logger that writes to the test log.
func testLog(t *testing.T) logrus.FieldLogger {
	l := logrus.New()
	l.Out = testWriter{t}
	l.Level = logrus.DebugLevel
	return l
}

// testInputs writes a wrfinput file and an emission table with nt
// hourly steps to a new temporary directory and returns the directory.
// The emission table has 4×4 cells of 0.5° covering the 2×2 WRF domain,
// and every cell emits 1 unit of E_CO and 2 units of E_PM25.
func testInputs(t *testing.T, nt int) string {
	dir, err := ioutil.TempDir("", "chemissutil_test")
	if err != nil {
		t.Fatal(err)
	}
	d := wrftest.Domain{
		Nx: 2, Ny: 2,
		Lon0: 0.5, Lat0: 0.5,
		DLon: 1, DLat: 1,
		DX: 111000, DY: 111000,
		GridID: 1,
		Times:  "2019-01-01_00:00:00",
	}
	if err := d.WriteFile(filepath.Join(dir, "wrfinput_d01")); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "emissions.txt"))
	if err != nil {
		t.Fatal(err)
	}
	fmt.Fprintln(f, "idx lon lat E_CO E_PM25")
	i := 0
	for k := 0; k < nt; k++ {
		for j := 0; j < 4; j++ {
			for ii := 0; ii < 4; ii++ {
				fmt.Fprintf(f, "%d %g %g 1 2\n", i, 0.25+0.5*float64(ii), 0.25+0.5*float64(j))
				i++
			}
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return dir
}

// setTestConfig points the configuration at the files in dir.
func setTestConfig(dir string, nt int) {
	Cfg.Set("config", "")
	Cfg.Set("Input.WRFInput", filepath.Join(dir, "wrfinput_d01"))
	Cfg.Set("Input.EmissionFile", filepath.Join(dir, "emissions.txt"))
	Cfg.Set("Emissions.Nx", 4)
	Cfg.Set("Emissions.Ny", 4)
	Cfg.Set("Emissions.StartDate", "2019-01-01 00:00")
	end := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(nt-1) * time.Hour)
	Cfg.Set("Emissions.EndDate", end.Format(chemiss.TimeFormat))
	Cfg.Set("Emissions.Header", true)
	Cfg.Set("Emissions.Sep", `\s+`)
	Cfg.Set("Emissions.CellArea", 0.0)
	Cfg.Set("Regridding.Method", "conservative")
	Cfg.Set("Regridding.WeightsDir", "")
	Cfg.Set("Species.Mechanism", "")
	Cfg.Set("Species.Derived", `{"E_PM25J": "0.8 * E_PM25", "E_PM25I": "0.2 * E_PM25"}`)
	Cfg.Set("Output.Dir", dir)
	Cfg.Set("Output.Namelist", "")
	Cfg.Set("Output.GridShapefiles", "")
	Cfg.Set("Output.TotalsPlot", "")
	Cfg.Set("Output.PlotSpecies", []string{"E_CO"})
	Cfg.Set("Zeros.Species", []string{"E_CO", "E_NO"})
}
