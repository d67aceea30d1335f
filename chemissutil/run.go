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
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/chemiss"
	"github.com/spatialmodel/chemiss/cloud"
)

// Run creates wrfchemi files as specified by cfg and returns the local
// paths of the files it wrote. Files destined for blob storage are
// uploaded before Run returns.
func Run(ctx context.Context, log logrus.FieldLogger, cfg *RunConfig) ([]string, error) {
	table, err := readTable(log, cfg)
	if err != nil {
		return nil, err
	}
	g, err := chemiss.NewEmissionGrid(table, cfg.Reshape)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"nx": g.Nx(), "ny": g.Ny(), "nt": g.Nt(), "species": len(g.Species),
	}).Info("reshaped emissions")
	if len(cfg.Derived) > 0 {
		if err := chemiss.DeriveSpecies(g, cfg.Derived); err != nil {
			return nil, err
		}
		log.WithField("species", len(cfg.Derived)).Info("derived species")
	}

	w, err := chemiss.OpenWRFInput(cfg.WRFInput)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"file": cfg.WRFInput, "domain": w.Domain(), "nx": w.Nx(), "ny": w.Ny(),
	}).Info("read wrfinput")

	u := new(uploader)
	var written []string
	if cfg.GridShapefiles != "" {
		files, err := writeGridShapefiles(log, u, cfg.GridShapefiles, g, w)
		if err != nil {
			return nil, err
		}
		written = append(written, files...)
	}

	regridder, err := newRegridder(log, cfg, g, w)
	if err != nil {
		return nil, err
	}
	r, err := regridder.Regrid(g)
	if err != nil {
		return nil, err
	}

	if err := checkConservation(log, cfg, g, r, w); err != nil {
		return nil, err
	}

	c, err := chemiss.NewWRFChemi(r, w, cfg.Mechanism, "")
	if err != nil {
		return nil, err
	}
	files, err := writeWRFChemi(log, u, c, cfg.OutputDir, cfg.Namelist, w.GridID)
	if err != nil {
		return nil, err
	}
	written = append(written, files...)

	if cfg.TotalsPlot != "" {
		plotPath := cfg.TotalsPlot
		if cloud.IsBlob(plotPath) {
			plotPath = u.outputPath(path.Dir(plotPath), path.Base(plotPath))
			if u.err != nil {
				return nil, u.err
			}
		}
		if err := plotTotals(c, plotPath, cfg.PlotSpecies); err != nil {
			return nil, err
		}
		log.WithField("file", plotPath).Info("wrote totals plot")
		written = append(written, plotPath)
	}

	if err := u.uploadOutput(ctx, log); err != nil {
		return nil, err
	}
	return written, nil
}

func newRegridder(log logrus.FieldLogger, cfg *RunConfig, g *chemiss.EmissionGrid, w *chemiss.WRFInput) (chemiss.Regridder, error) {
	if cfg.WeightsDir == "" {
		log.WithField("method", cfg.Method).Info("calculating regridding weights")
		return chemiss.NewRegridder(cfg.Method, g, w)
	}
	r, loaded, err := chemiss.NewCachedRegridder(cfg.Method, g, w, cfg.WeightsDir)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"method": cfg.Method,
		"file":   chemiss.WeightsFileName(cfg.Method, g, w),
		"reused": loaded,
	}).Info("regridding weights")
	return r, nil
}

func readTable(log logrus.FieldLogger, cfg *RunConfig) (*chemiss.Table, error) {
	log.WithField("file", cfg.EmissionFile).Info("reading emissions")
	if chemiss.IsExcel(cfg.EmissionFile) {
		return chemiss.ReadTableExcel(cfg.EmissionFile, cfg.Table)
	}
	f, err := os.Open(cfg.EmissionFile)
	if err != nil {
		return nil, fmt.Errorf("chemiss: opening emission file: %v", err)
	}
	defer f.Close()
	t, err := chemiss.ReadTable(f, cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("%v (file %s)", err, cfg.EmissionFile)
	}
	return t, nil
}

// sourceAreas returns the emission grid cell areas [km²].
func sourceAreas(cfg *RunConfig, g *chemiss.EmissionGrid) (*sparse.DenseArray, error) {
	if cfg.CellArea > 0 {
		return chemiss.ConstantArea(g.Ny(), g.Nx(), cfg.CellArea), nil
	}
	lonB, latB, err := g.Bounds()
	if err != nil {
		return nil, err
	}
	a, err := chemiss.CellAreas(lonB, latB)
	if err != nil {
		return nil, err
	}
	a.Scale(1.e-6) // m² to km²
	return a, nil
}

// checkConservation logs the total mass of each species before and
// after regridding.
func checkConservation(log logrus.FieldLogger, cfg *RunConfig, g *chemiss.EmissionGrid,
	r *chemiss.RegriddedEmissions, w *chemiss.WRFInput) error {
	areas, err := sourceAreas(cfg, g)
	if err != nil {
		return err
	}
	var species []string
	for _, sp := range r.Species {
		if _, ok := cfg.Mechanism[sp]; ok {
			species = append(species, sp)
		} else {
			log.WithField("species", sp).Warn("species is not in the mechanism; skipping the conservation check")
		}
	}
	report, err := chemiss.CheckConservation(g, r, cfg.Mechanism, species, areas, w.CellArea()*1.e-6)
	if err != nil {
		return err
	}
	for _, s := range report {
		log.WithFields(logrus.Fields{
			"species":       s.Species,
			"input_kt":      s.Input.Value() / 1.e6,
			"output_kt":     s.Output.Value() / 1.e6,
			"conserved_pct": s.Percent,
		}).Debug("mass conservation")
	}
	b := new(bytes.Buffer)
	if _, err := report.Table().Tabbed(b); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"method": cfg.Method, "constant_area": cfg.CellArea > 0,
	}).Info("mass conservation:\n" + b.String())
	return nil
}

func writeGridShapefiles(log logrus.FieldLogger, u *uploader, dir string, g *chemiss.EmissionGrid, w *chemiss.WRFInput) ([]string, error) {
	srcCells, err := g.Cells()
	if err != nil {
		return nil, err
	}
	dstCells, err := w.Cells()
	if err != nil {
		return nil, err
	}
	var written []string
	for name, cells := range map[string][]*chemiss.GridCell{
		"emissions_grid.shp":             srcCells,
		"wrf_grid_" + w.Domain() + ".shp": dstCells,
	} {
		p := u.outputPath(dir, name)
		if u.err != nil {
			return nil, u.err
		}
		if err := chemiss.WriteGridShapefile(p, cells); err != nil {
			return nil, err
		}
		log.WithField("file", p).Info("wrote grid shapefile")
		written = append(written, p)
	}
	return written, nil
}

// writeWRFChemi splits c into files as specified by the namelist and
// writes them to dir.
func writeWRFChemi(log logrus.FieldLogger, u *uploader, c *chemiss.WRFChemi, dir string, nl *chemiss.Namelist, gridID int) ([]string, error) {
	var opts chemiss.NamingOptions
	if nl != nil {
		var err error
		if opts, err = nl.NamingOptions(gridID); err != nil {
			return nil, err
		}
	}
	files, err := chemiss.OutputFiles(c.Times, fmt.Sprintf("d%02d", gridID), opts)
	if err != nil {
		return nil, err
	}
	var written []string
	for _, f := range files {
		cc, err := c.Slice(f.Begin, f.End)
		if err != nil {
			return nil, err
		}
		p := u.outputPath(dir, f.Name)
		if u.err != nil {
			return nil, u.err
		}
		if err := cc.WriteFile(p); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"file":  p,
			"start": cc.Times[0].Format(chemiss.TimeFormat),
			"steps": cc.Nt(),
		}).Info("wrote wrfchemi file")
		written = append(written, p)
	}
	return written, nil
}

func plotTotals(c *chemiss.WRFChemi, path string, species []string) error {
	var plotted []string
	for _, sp := range species {
		if _, ok := c.Data[sp]; ok {
			plotted = append(plotted, sp)
		}
	}
	if len(plotted) == 0 {
		return fmt.Errorf("chemiss: none of the species %v in Output.PlotSpecies are in the emissions", species)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chemiss: creating totals plot: %v", err)
	}
	if err := c.PlotTotals(f, plotted...); err != nil {
		f.Close()
		return fmt.Errorf("chemiss: plotting totals: %v", err)
	}
	return f.Close()
}

// Zeros creates wrfchemi files where all emissions are zero and returns
// the paths of the files it wrote.
func Zeros(ctx context.Context, log logrus.FieldLogger, cfg *ZerosConfig) ([]string, error) {
	w, err := chemiss.OpenWRFInput(cfg.WRFInput)
	if err != nil {
		return nil, err
	}
	times, err := chemiss.HourlyTimes(cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}
	c, err := chemiss.NewZeroWRFChemi(w, cfg.Species, times, cfg.Mechanism)
	if err != nil {
		return nil, err
	}
	u := new(uploader)
	files, err := writeWRFChemi(log, u, c, cfg.OutputDir, cfg.Namelist, w.GridID)
	if err != nil {
		return nil, err
	}
	if err := u.uploadOutput(ctx, log); err != nil {
		return nil, err
	}
	return files, nil
}

// FileSummary describes the contents of a wrfchemi file.
type FileSummary struct {
	Start, End time.Time
	Steps      int

	// Totals holds the sum over all cells and time steps of each species,
	// in the units of the file.
	Totals map[string]float64
}

// Check reads the wrfchemi file at path, which may be a remote location,
// and logs a summary of its contents.
func Check(ctx context.Context, log logrus.FieldLogger, path string, m chemiss.Mechanism) (*FileSummary, error) {
	local, err := maybeDownload(ctx, path, log)
	if err != nil {
		return nil, err
	}
	c, err := chemiss.OpenWRFChemi(local)
	if err != nil {
		return nil, err
	}
	s := &FileSummary{Steps: c.Nt(), Totals: make(map[string]float64)}
	if c.Nt() > 0 {
		s.Start, s.End = c.Times[0], c.Times[c.Nt()-1]
	}
	log.WithFields(logrus.Fields{
		"file":    path,
		"start":   s.Start.Format(chemiss.TimeFormat),
		"end":     s.End.Format(chemiss.TimeFormat),
		"steps":   s.Steps,
		"species": len(c.Species),
	}).Info("wrfchemi file")
	for _, sp := range c.Species {
		totals, err := c.HourlyTotals(sp)
		if err != nil {
			return nil, err
		}
		var sum float64
		for _, v := range totals {
			sum += v
		}
		s.Totals[sp] = sum
		l := log.WithFields(logrus.Fields{"species": sp, "total": sum, "units": c.Units[sp]})
		if u := m.Units(sp); c.Units[sp] != u {
			l.Warnf("units differ from the expected %q", u)
		} else {
			l.Info("species total")
		}
	}
	return s, nil
}
