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
	"strings"
	"time"
)

// WRF-Chem emission input styles (io_style_emissions).
const (
	// StyleAuto chooses StyleTwelveHour for exactly 24 time steps and
	// StyleDated otherwise.
	StyleAuto = 0

	// StyleTwelveHour writes two files, wrfchemi_00z_<domain> and
	// wrfchemi_12z_<domain>, holding 12 hourly steps each.
	StyleTwelveHour = 1

	// StyleDated writes files named by the time of their first step.
	StyleDated = 2
)

// NamingOptions control how emissions are split into files.
type NamingOptions struct {
	// IOStyle is one of StyleAuto, StyleTwelveHour or StyleDated.
	IOStyle int

	// FramesPerFile is the number of time steps per file for
	// StyleDated. Zero puts all steps into one file.
	FramesPerFile int

	// Nocolons replaces the colons in dated file names with
	// underscores.
	Nocolons bool
}

// OutputFile is one output file, holding time steps [Begin, End).
type OutputFile struct {
	Name       string
	Begin, End int
}

// OutputFiles returns the names and time ranges of the files that the
// emissions with the given time steps are written to for domain
// (e.g. "d01").
func OutputFiles(times []time.Time, domain string, o NamingOptions) ([]OutputFile, error) {
	nt := len(times)
	if nt == 0 {
		return nil, fmt.Errorf("chemiss: there are no time steps to write")
	}
	style := o.IOStyle
	if style == StyleAuto {
		style = StyleDated
		if nt == 24 {
			style = StyleTwelveHour
		}
	}
	switch style {
	case StyleTwelveHour:
		if nt != 24 {
			return nil, fmt.Errorf("chemiss: io_style_emissions = 1 requires 24 hourly time steps but there are %d", nt)
		}
		return []OutputFile{
			{Name: "wrfchemi_00z_" + domain, Begin: 0, End: 12},
			{Name: "wrfchemi_12z_" + domain, Begin: 12, End: 24},
		}, nil
	case StyleDated:
		step := o.FramesPerFile
		if step <= 0 {
			step = nt
		}
		var files []OutputFile
		for b := 0; b < nt; b += step {
			e := b + step
			if e > nt {
				e = nt
			}
			files = append(files, OutputFile{Name: datedName(domain, times[b], o.Nocolons), Begin: b, End: e})
		}
		return files, nil
	}
	return nil, fmt.Errorf("chemiss: unsupported io_style_emissions %d", style)
}

func datedName(domain string, t time.Time, nocolons bool) string {
	s := t.Format(TimeFormat)
	if nocolons {
		s = strings.Replace(s, ":", "_", -1)
	}
	return "wrfchemi_" + domain + "_" + s
}
