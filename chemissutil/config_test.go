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
	"context"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/chemiss"
)

func TestConfigExample(t *testing.T) {
	cfg := viper.New()
	cfg.SetConfigFile("../cmd/chemiss/configExample.toml")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	derived, err := GetStringMapString("Species.Derived", cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"E_PM25J": "0.8 * E_PM25", "E_PM25I": "0.2 * E_PM25"}
	if !reflect.DeepEqual(derived, want) {
		t.Errorf("Species.Derived: have %v, want %v", derived, want)
	}
	start, err := configTime(cfg, "Emissions.StartDate")
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date: %v", start)
	}
	if _, err := chemiss.ParseMethod(cfg.GetString("Regridding.Method")); err != nil {
		t.Error(err)
	}

	Cfg.Set("config", "../cmd/chemiss/configExample.toml")
	defer Cfg.Set("config", "")
	if err := setConfig(); err != nil {
		t.Fatal(err)
	}
}

func lowerKeys(m map[string]string) map[string]string {
	o := make(map[string]string)
	for k, v := range m {
		o[strings.ToLower(k)] = v
	}
	return o
}

func TestConfigTime(t *testing.T) {
	want := time.Date(2019, 3, 4, 5, 0, 0, 0, time.UTC)
	cfg := viper.New()
	for _, s := range []string{"2019-03-04_05:00:00", "2019-03-04 05:00", "2019-03-04 05", "2019-03-04T05:00:00Z"} {
		cfg.Set("Emissions.StartDate", s)
		have, err := configTime(cfg, "Emissions.StartDate")
		if err != nil {
			t.Errorf("%s: %v", s, err)
			continue
		}
		if !have.Equal(want) {
			t.Errorf("%s: have %v, want %v", s, have, want)
		}
	}
	for _, s := range []string{"", "yesterday"} {
		cfg.Set("Emissions.StartDate", s)
		if _, err := configTime(cfg, "Emissions.StartDate"); err == nil {
			t.Errorf("expected an error for %q", s)
		}
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	tests := []struct {
		in   interface{}
		want map[string]string
	}{
		{in: nil, want: map[string]string{}},
		{in: `{"E_A": "2 * E_B"}`, want: map[string]string{"E_A": "2 * E_B"}},
		{in: " ", want: map[string]string{}},
		{in: map[string]interface{}{"E_A": "E_B"}, want: map[string]string{"E_A": "E_B"}},
	}
	for _, test := range tests {
		cfg.Set("Species.Derived", test.in)
		have, err := GetStringMapString("Species.Derived", cfg)
		if err != nil {
			t.Errorf("%v: %v", test.in, err)
			continue
		}
		if !reflect.DeepEqual(lowerKeys(have), lowerKeys(test.want)) {
			t.Errorf("%v: have %v, want %v", test.in, have, test.want)
		}
	}
	cfg.Set("Species.Derived", "{not json")
	if _, err := GetStringMapString("Species.Derived", cfg); err == nil {
		t.Errorf("expected an error for invalid JSON")
	}
}

func TestRunConfigFromViper_errors(t *testing.T) {
	dir := testInputs(t, 1)
	defer os.RemoveAll(dir)
	tests := []struct {
		name, key string
		val       interface{}
	}{
		{name: "small grid", key: "Emissions.Nx", val: 1},
		{name: "empty grid", key: "Emissions.Ny", val: 0},
		{name: "method", key: "Regridding.Method", val: "bilinear"},
		{name: "output dir", key: "Output.Dir", val: dir + "/does/not/exist"},
		{name: "cell area", key: "Emissions.CellArea", val: -1.0},
		{name: "missing input", key: "Input.EmissionFile", val: ""},
		{name: "weights dir", key: "Regridding.WeightsDir", val: dir + "/emissions.txt"},
		{name: "namelist", key: "Output.Namelist", val: dir + "/namelist.input"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			setTestConfig(dir, 1)
			Cfg.Set(test.key, test.val)
			if _, err := RunConfigFromViper(context.Background(), Cfg); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestRunConfigFromViper_singleRow(t *testing.T) {
	dir := testInputs(t, 1)
	defer os.RemoveAll(dir)
	setTestConfig(dir, 1)
	Cfg.Set("Emissions.Ny", 1)
	Cfg.Set("Regridding.Method", "nearest_s2d")
	if _, err := RunConfigFromViper(context.Background(), Cfg); err == nil {
		t.Errorf("expected an error for a single row without Emissions.CellArea")
	}
	Cfg.Set("Emissions.CellArea", 100.0)
	cfg, err := RunConfigFromViper(context.Background(), Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reshape.Ny != 1 || cfg.Method != chemiss.NearestS2D {
		t.Errorf("have ny=%d and method %s", cfg.Reshape.Ny, cfg.Method)
	}
	setTestConfig(dir, 1)
}

func TestZerosConfigFromViper(t *testing.T) {
	dir := testInputs(t, 1)
	defer os.RemoveAll(dir)
	setTestConfig(dir, 48)
	cfg, err := ZerosConfigFromViper(context.Background(), Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.End.Sub(cfg.Start) != 47*time.Hour {
		t.Errorf("time range: %v to %v", cfg.Start, cfg.End)
	}
	Cfg.Set("Zeros.Species", []string{})
	if _, err := ZerosConfigFromViper(context.Background(), Cfg); err == nil {
		t.Errorf("expected an error for no species")
	}
}

func TestEnvironmentVariables(t *testing.T) {
	os.Setenv("CHEMISS_EMISSIONS_NX", "7")
	os.Setenv("CHEMISS_LOGLEVEL", "debug")
	defer os.Unsetenv("CHEMISS_EMISSIONS_NX")
	defer os.Unsetenv("CHEMISS_LOGLEVEL")

	cfg := viper.New()
	setEnv(cfg)
	cfg.SetDefault("Emissions.Nx", 0)
	cfg.SetDefault("LogLevel", "info")
	if have := cfg.GetInt("Emissions.Nx"); have != 7 {
		t.Errorf("Emissions.Nx: have %d, want 7", have)
	}
	if have := cfg.GetString("LogLevel"); have != "debug" {
		t.Errorf("LogLevel: have %q, want debug", have)
	}

	os.Setenv("CHEMISS_EMISSIONS_SHEET", "Sheet2")
	defer os.Unsetenv("CHEMISS_EMISSIONS_SHEET")
	if have := Cfg.GetString("Emissions.Sheet"); have != "Sheet2" {
		t.Errorf("Emissions.Sheet: have %q, want Sheet2", have)
	}
}
