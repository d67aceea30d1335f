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
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/chemiss"
	"github.com/spatialmodel/chemiss/cloud"
	"github.com/spf13/cast"
)

// RunConfig holds the settings of the run command.
type RunConfig struct {
	// WRFInput and EmissionFile are local paths to the input files.
	WRFInput, EmissionFile string

	Table   chemiss.TableConfig
	Reshape chemiss.ReshapeConfig

	// CellArea is the area of every emission grid cell [km²]. If it is
	// zero, the areas are calculated from the grid coordinates.
	CellArea float64

	Method chemiss.Method

	// WeightsDir, if not empty, is a local directory where regridding
	// weights are cached.
	WeightsDir string

	Mechanism chemiss.Mechanism
	Derived   map[string]string

	// OutputDir is a local directory or a blob storage location.
	OutputDir string

	// Namelist, if not nil, controls how output files are split and named.
	Namelist *chemiss.Namelist

	// GridShapefiles, if not empty, is the directory where grid
	// shapefiles are written.
	GridShapefiles string

	// TotalsPlot, if not empty, is the path of a plot of the hourly
	// totals of PlotSpecies.
	TotalsPlot  string
	PlotSpecies []string
}

// ZerosConfig holds the settings of the zeros command.
type ZerosConfig struct {
	WRFInput   string
	Start, End time.Time
	Species    []string
	Mechanism  chemiss.Mechanism
	OutputDir  string
	Namelist   *chemiss.Namelist
}

// RunConfigFromViper reads the run command settings from cfg,
// downloading remote input files.
func RunConfigFromViper(ctx context.Context, cfg *viper.Viper) (*RunConfig, error) {
	var err error
	c := &RunConfig{
		Table: chemiss.TableConfig{
			Sep:      cfg.GetString("Emissions.Sep"),
			Header:   cfg.GetBool("Emissions.Header"),
			ColNames: expandStringSlice(cfg.GetStringSlice("Emissions.ColNames")),
			Sheet:    os.ExpandEnv(cfg.GetString("Emissions.Sheet")),
		},
		CellArea:       cfg.GetFloat64("Emissions.CellArea"),
		WeightsDir:     os.ExpandEnv(cfg.GetString("Regridding.WeightsDir")),
		GridShapefiles: os.ExpandEnv(cfg.GetString("Output.GridShapefiles")),
		TotalsPlot:     os.ExpandEnv(cfg.GetString("Output.TotalsPlot")),
		PlotSpecies:    expandStringSlice(cfg.GetStringSlice("Output.PlotSpecies")),
	}
	if c.WRFInput, err = inputFile(ctx, cfg, "Input.WRFInput"); err != nil {
		return nil, err
	}
	if c.EmissionFile, err = inputFile(ctx, cfg, "Input.EmissionFile"); err != nil {
		return nil, err
	}
	c.Reshape = chemiss.ReshapeConfig{
		Nx: cfg.GetInt("Emissions.Nx"),
		Ny: cfg.GetInt("Emissions.Ny"),
	}
	for _, v := range []struct {
		name string
		n    int
	}{{"Emissions.Nx", c.Reshape.Nx}, {"Emissions.Ny", c.Reshape.Ny}} {
		if v.n < 1 {
			return nil, fmt.Errorf("chemiss: %s=%d but should be >=1", v.name, v.n)
		}
	}
	if c.Reshape.Start, err = configTime(cfg, "Emissions.StartDate"); err != nil {
		return nil, err
	}
	if c.Reshape.End, err = configTime(cfg, "Emissions.EndDate"); err != nil {
		return nil, err
	}
	if c.CellArea < 0 {
		return nil, fmt.Errorf("chemiss: Emissions.CellArea=%g but should be >=0", c.CellArea)
	}
	if c.Method, err = chemiss.ParseMethod(cfg.GetString("Regridding.Method")); err != nil {
		return nil, fmt.Errorf("Regridding.Method: %v", err)
	}
	if c.Reshape.Nx < 2 || c.Reshape.Ny < 2 {
		// Cell edges, and so cell areas, need two centers in each direction.
		switch {
		case c.Method == chemiss.Conservative:
			return nil, fmt.Errorf("chemiss: conservative regridding needs Emissions.Nx and Emissions.Ny >=2")
		case c.CellArea == 0:
			return nil, fmt.Errorf("chemiss: Emissions.CellArea must be set when Emissions.Nx or Emissions.Ny is 1")
		case c.GridShapefiles != "":
			return nil, fmt.Errorf("chemiss: Output.GridShapefiles needs Emissions.Nx and Emissions.Ny >=2")
		}
	}
	if c.WeightsDir != "" {
		if fi, err := os.Stat(c.WeightsDir); err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("chemiss: Regridding.WeightsDir %s is not an existing directory", c.WeightsDir)
		}
	}
	if c.Mechanism, err = mechanism(ctx, cfg); err != nil {
		return nil, err
	}
	if c.Derived, err = GetStringMapString("Species.Derived", cfg); err != nil {
		return nil, err
	}
	if c.OutputDir, err = checkOutputDir(ctx, cfg.GetString("Output.Dir")); err != nil {
		return nil, err
	}
	if c.Namelist, err = namelist(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// ZerosConfigFromViper reads the zeros command settings from cfg,
// downloading remote input files.
func ZerosConfigFromViper(ctx context.Context, cfg *viper.Viper) (*ZerosConfig, error) {
	var err error
	c := &ZerosConfig{
		Species: expandStringSlice(cfg.GetStringSlice("Zeros.Species")),
	}
	if len(c.Species) == 0 {
		return nil, fmt.Errorf("chemiss: Zeros.Species is empty")
	}
	if c.WRFInput, err = inputFile(ctx, cfg, "Input.WRFInput"); err != nil {
		return nil, err
	}
	if c.Start, err = configTime(cfg, "Emissions.StartDate"); err != nil {
		return nil, err
	}
	if c.End, err = configTime(cfg, "Emissions.EndDate"); err != nil {
		return nil, err
	}
	if c.Mechanism, err = mechanism(ctx, cfg); err != nil {
		return nil, err
	}
	if c.OutputDir, err = checkOutputDir(ctx, cfg.GetString("Output.Dir")); err != nil {
		return nil, err
	}
	if c.Namelist, err = namelist(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// inputFile returns the local path of the required input file
// configuration variable varName.
func inputFile(ctx context.Context, cfg *viper.Viper, varName string) (string, error) {
	path := os.ExpandEnv(cfg.GetString(varName))
	if path == "" {
		return "", fmt.Errorf("chemiss: you need to specify the %s configuration variable", varName)
	}
	local, err := maybeDownload(ctx, path, Log)
	if err != nil {
		return "", fmt.Errorf("chemiss: %s: %v", varName, err)
	}
	return local, nil
}

// mechanism returns the built-in species properties, merged with those in
// the Species.Mechanism file if one is specified.
func mechanism(ctx context.Context, cfg *viper.Viper) (chemiss.Mechanism, error) {
	path := os.ExpandEnv(cfg.GetString("Species.Mechanism"))
	if path == "" {
		return chemiss.DefaultMechanism(), nil
	}
	local, err := maybeDownload(ctx, path, Log)
	if err != nil {
		return nil, fmt.Errorf("chemiss: Species.Mechanism: %v", err)
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("chemiss: Species.Mechanism: %v", err)
	}
	defer f.Close()
	return chemiss.ReadMechanism(f)
}

// namelist reads the Output.Namelist file, if one is specified.
func namelist(ctx context.Context, cfg *viper.Viper) (*chemiss.Namelist, error) {
	path := os.ExpandEnv(cfg.GetString("Output.Namelist"))
	if path == "" {
		return nil, nil
	}
	local, err := maybeDownload(ctx, path, Log)
	if err != nil {
		return nil, fmt.Errorf("chemiss: Output.Namelist: %v", err)
	}
	return chemiss.OpenNamelist(local)
}

// configTime parses the time in configuration variable varName. WRF
// time strings (2006-01-02_15:04:05) and the formats understood by
// github.com/spf13/cast are accepted.
func configTime(cfg *viper.Viper, varName string) (time.Time, error) {
	v := cfg.Get(varName)
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(os.ExpandEnv(s))
		if s == "" {
			return time.Time{}, fmt.Errorf("chemiss: you need to specify the %s configuration variable", varName)
		}
		if t, err := time.Parse(chemiss.TimeFormat, s); err == nil {
			return t, nil
		}
		for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		v = s
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("chemiss: parsing %s: %v", varName, err)
	}
	return t.UTC(), nil
}

// checkOutputDir makes sure that the output directory is specified and
// exists, and expands any environment variables.
func checkOutputDir(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("chemiss: you need to specify the Output.Dir configuration variable")
	}
	dir = os.ExpandEnv(dir)
	if cloud.IsBlob(dir) {
		if _, err := cloud.OpenBucket(ctx, dir); err != nil {
			return dir, fmt.Errorf("chemiss: error when checking Output.Dir location: %v", err)
		}
		return dir, nil
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return dir, fmt.Errorf("chemiss: the Output.Dir directory doesn't exist: %v", err)
	}
	if !fi.IsDir() {
		return dir, fmt.Errorf("chemiss: Output.Dir %s is not a directory", dir)
	}
	return dir, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument or an environment variable.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]string{}, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("chemiss: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("chemiss: invalid type for %s: %#v", varName, i)
	}
}
