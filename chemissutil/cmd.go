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

// Package chemissutil contains the chemiss command-line interface and the
// configuration handling that supports it.
package chemissutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/chemiss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log receives the log messages of all commands.
var Log = logrus.StandardLogger()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to chemiss.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Input.WRFInput",
			usage: `
              Input.WRFInput is the path to the wrfinput file that defines
              the WRF domain. It can be a local path, an http(s) URL, or
              a blob storage location (gs://, s3://, or file://).`,
			defaultVal: "wrfinput_d01",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zerosCmd.Flags()},
		},
		{
			name: "Input.EmissionFile",
			usage: `
              Input.EmissionFile is the path to the local emission table.
              Files ending in .xlsx are read as Excel workbooks; other files
              are read as delimited text.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.Nx",
			usage: `
              Emissions.Nx is the number of longitude points in the emission
              table grid.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.Ny",
			usage: `
              Emissions.Ny is the number of latitude points in the emission
              table grid.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.StartDate",
			usage: `
              Emissions.StartDate is the first hour of emissions, for example
              "2019-01-01 00:00".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zerosCmd.Flags()},
		},
		{
			name: "Emissions.EndDate",
			usage: `
              Emissions.EndDate is the last hour of emissions (inclusive).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zerosCmd.Flags()},
		},
		{
			name: "Emissions.Header",
			usage: `
              Emissions.Header specifies whether the first line of the
              emission table holds the column names.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.Sep",
			usage: `
              Emissions.Sep is the column separator of the emission table.
              A space, a tab, or "\s+" split columns on any run of whitespace.`,
			defaultVal: " ",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.ColNames",
			usage: `
              Emissions.ColNames are the column names of the emission table:
              the index, longitude, and latitude columns followed by the
              species names. If Emissions.Header is true they replace the
              names in the file.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.Sheet",
			usage: `
              Emissions.Sheet is the name of the worksheet to read from
              Excel emission files. The first sheet is used if it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Emissions.CellArea",
			usage: `
              Emissions.CellArea is the area of each emission grid cell [km²].
              If it is 0, cell areas are calculated from the grid coordinates.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Regridding.Method",
			usage: `
              Regridding.Method is the method used to move emissions onto the
              WRF grid: nearest_s2d or conservative.`,
			defaultVal: string(chemiss.NearestS2D),
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Regridding.WeightsDir",
			usage: `
              Regridding.WeightsDir is a directory where regridding weights
              are stored and reused by later runs with the same grids.
              If it is empty, weights are calculated for every run.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Species.Mechanism",
			usage: `
              Species.Mechanism is the path to a TOML file with the molecular
              masses and units of emitted species. The built-in RADM2 species
              are used for species it does not list.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zerosCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Species.Derived",
			usage: `
              Species.Derived maps the names of species to create to expressions
              of the species in the emission table, for example
              {"E_PM25J": "0.8 * E_PM25", "E_PM25I": "0.2 * E_PM25"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Output.Dir",
			usage: `
              Output.Dir is the directory where wrfchemi files are written.
              It can be a blob storage location.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zerosCmd.Flags()},
		},
		{
			name: "Output.Namelist",
			usage: `
              Output.Namelist is the path to the WRF namelist.input file. If it
              is given, its io_style_emissions, frames_per_auxinput5, and
              nocolons settings control how output files are split and named.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), zerosCmd.Flags()},
		},
		{
			name: "Output.GridShapefiles",
			usage: `
              Output.GridShapefiles is a directory where shapefiles of the
              emission and WRF grids are written. No shapefiles are written if
              it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Output.TotalsPlot",
			usage: `
              Output.TotalsPlot is the path of a PNG plot of the hourly domain
              totals of the species in Output.PlotSpecies. No plot is made if
              it is empty.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Output.PlotSpecies",
			usage: `
              Output.PlotSpecies are the species shown in Output.TotalsPlot.`,
			defaultVal: []string{"E_CO", "E_NO"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Zeros.Species",
			usage: `
              Zeros.Species are the species written by the zeros command.`,
			defaultVal: chemiss.RADM2Species(),
			flagsets:   []*pflag.FlagSet{zerosCmd.Flags()},
		},
	}

	Cfg = viper.New()
	setEnv(Cfg)

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

// setEnv makes every option of cfg settable by an environment variable
// named CHEMISS_ followed by the upper-case option name, with periods
// replaced by underscores (e.g. CHEMISS_EMISSIONS_NX).
func setEnv(cfg *viper.Viper) {
	cfg.SetEnvPrefix("CHEMISS")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(zerosCmd)
	Root.AddCommand(checkCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("chemiss: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("chemiss: LogLevel: %v", err)
	}
	Log.SetLevel(lvl)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "chemiss",
	Short: "A WRF-Chem emission preprocessor.",
	Long: `chemiss converts gridded local emission inventories into WRF-Chem
emission input (wrfchemi) files. Use the subcommands specified below to
access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CHEMISS_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of chemiss.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("chemiss v%s\n", chemiss.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd converts an emission table into wrfchemi files.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create wrfchemi files from an emission table.",
	Long: `run reads the emission table, regrids it onto the WRF domain defined
by the wrfinput file, checks that emitted mass is conserved, and writes
wrfchemi files. Exactly 24 hourly time steps are split into the files
wrfchemi_00z_<domain> and wrfchemi_12z_<domain>; other numbers of time steps
are written to wrfchemi_<domain>_<first time>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := RunConfigFromViper(ctx, Cfg)
		if err != nil {
			return err
		}
		_, err = Run(ctx, Log, cfg)
		return err
	},
	DisableAutoGenTag: true,
}

// zerosCmd writes wrfchemi files where all emissions are zero.
var zerosCmd = &cobra.Command{
	Use:   "zeros",
	Short: "Create wrfchemi files with zero emissions.",
	Long: `zeros writes wrfchemi files for the domain defined by the wrfinput file
where every species in Zeros.Species is zero for every hour from
Emissions.StartDate to Emissions.EndDate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := ZerosConfigFromViper(ctx, Cfg)
		if err != nil {
			return err
		}
		_, err = Zeros(ctx, Log, cfg)
		return err
	},
	DisableAutoGenTag: true,
}

// checkCmd summarizes existing wrfchemi files.
var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Summarize wrfchemi files.",
	Long: `check reads the given wrfchemi files and logs their time range and
the total emissions of each species.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		m, err := mechanism(ctx, Cfg)
		if err != nil {
			return err
		}
		for _, f := range args {
			if _, err := Check(ctx, Log, f, m); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}
