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
	"reflect"
	"testing"
	"time"
)

func hours(start time.Time, n int) []time.Time {
	o := make([]time.Time, n)
	for i := range o {
		o[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return o
}

func TestOutputFiles(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		nt    int
		opts  NamingOptions
		files []OutputFile
	}{
		{
			name: "24 steps",
			nt:   24,
			files: []OutputFile{
				{Name: "wrfchemi_00z_d01", Begin: 0, End: 12},
				{Name: "wrfchemi_12z_d01", Begin: 12, End: 24},
			},
		},
		{
			name:  "48 steps",
			nt:    48,
			files: []OutputFile{{Name: "wrfchemi_d01_2019-01-01_00:00:00", Begin: 0, End: 48}},
		},
		{
			name:  "24 steps dated",
			nt:    24,
			opts:  NamingOptions{IOStyle: StyleDated, Nocolons: true},
			files: []OutputFile{{Name: "wrfchemi_d01_2019-01-01_00_00_00", Begin: 0, End: 24}},
		},
		{
			name: "frames per file",
			nt:   30,
			opts: NamingOptions{IOStyle: StyleDated, FramesPerFile: 12},
			files: []OutputFile{
				{Name: "wrfchemi_d01_2019-01-01_00:00:00", Begin: 0, End: 12},
				{Name: "wrfchemi_d01_2019-01-01_12:00:00", Begin: 12, End: 24},
				{Name: "wrfchemi_d01_2019-01-02_00:00:00", Begin: 24, End: 30},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			files, err := OutputFiles(hours(start, test.nt), "d01", test.opts)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(files, test.files) {
				t.Errorf("have %+v, want %+v", files, test.files)
			}
		})
	}
}

func TestOutputFiles_errors(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := OutputFiles(nil, "d01", NamingOptions{}); err == nil {
		t.Errorf("expected an error for no time steps")
	}
	if _, err := OutputFiles(hours(start, 12), "d01", NamingOptions{IOStyle: StyleTwelveHour}); err == nil {
		t.Errorf("expected an error for 12 steps with io_style_emissions = 1")
	}
	if _, err := OutputFiles(hours(start, 12), "d01", NamingOptions{IOStyle: 3}); err == nil {
		t.Errorf("expected an error for an unsupported style")
	}
}
