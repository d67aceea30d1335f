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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Namelist holds the emission settings of a WRF namelist.input file.
type Namelist struct {
	MaxDom int

	// IOStyleEmissions is the io_style_emissions setting of the &chem
	// section, or 0 if it is not set.
	IOStyleEmissions int

	// Kemit is the number of emission levels.
	Kemit int

	// FramesPerAuxInput5 and AuxInput5IntervalM hold the per-domain
	// number of time steps per emission file and the emission input
	// interval [minutes].
	FramesPerAuxInput5 []int
	AuxInput5IntervalM []int

	Nocolons bool
}

// OpenNamelist reads the namelist file at path.
func OpenNamelist(path string) (*Namelist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chemiss: opening namelist: %v", err)
	}
	defer f.Close()
	return ParseNamelist(f)
}

// ParseNamelist reads the emission settings from a WRF namelist.
// Settings that are not related to emissions are ignored. All malformed
// settings are reported together.
func ParseNamelist(r io.Reader) (*Namelist, error) {
	n := &Namelist{MaxDom: 1, Kemit: 1}
	var e errCat
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if i := strings.Index(line, "!"); i >= 0 {
			line = line[:i]
		}
		i := strings.Index(line, "=")
		if i == -1 {
			continue
		}
		name := strings.ToLower(strings.Trim(line[:i], " \t,"))
		val := strings.Trim(line[i+1:], " \t,")
		switch name {
		case "max_dom":
			n.MaxDom = e.int(name, val)
		case "io_style_emissions":
			n.IOStyleEmissions = e.int(name, val)
		case "kemit":
			n.Kemit = e.int(name, val)
		case "frames_per_auxinput5":
			n.FramesPerAuxInput5 = e.intList(name, val)
		case "auxinput5_interval_m":
			n.AuxInput5IntervalM = e.intList(name, val)
		case "nocolons":
			n.Nocolons = e.bool(name, val)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("chemiss: reading namelist: %v", err)
	}
	if n.Kemit > 1 {
		e.add(fmt.Errorf("kemit = %d, but only surface emissions (kemit = 1) are supported", n.Kemit))
	}
	switch n.IOStyleEmissions {
	case 0, 1, 2:
	default:
		e.add(fmt.Errorf("io_style_emissions = %d is not supported; valid values are 1 and 2", n.IOStyleEmissions))
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	return n, nil
}

// domainValue returns the value for domain gridID (starting at 1) of a
// per-domain setting. Domains beyond the end of the list take the
// last value.
func domainValue(v []int, gridID int) (int, bool) {
	if len(v) == 0 {
		return 0, false
	}
	if gridID > len(v) {
		return v[len(v)-1], true
	}
	if gridID < 1 {
		gridID = 1
	}
	return v[gridID-1], true
}

// NamingOptions returns the file naming options for domain gridID.
func (n *Namelist) NamingOptions(gridID int) (NamingOptions, error) {
	if gridID > n.MaxDom {
		return NamingOptions{}, fmt.Errorf("chemiss: domain %d is outside max_dom = %d", gridID, n.MaxDom)
	}
	if iv, ok := domainValue(n.AuxInput5IntervalM, gridID); ok && iv != 60 && iv != 0 {
		return NamingOptions{}, fmt.Errorf("chemiss: auxinput5_interval_m = %d for domain %d, but emissions are hourly", iv, gridID)
	}
	o := NamingOptions{IOStyle: n.IOStyleEmissions, Nocolons: n.Nocolons}
	if f, ok := domainValue(n.FramesPerAuxInput5, gridID); ok {
		o.FramesPerFile = f
	}
	return o, nil
}

// errCat collects errors so that they can all be reported at once.
type errCat struct {
	msgs []string
}

func (e *errCat) add(err error) {
	if err != nil {
		e.msgs = append(e.msgs, err.Error())
	}
}

func (e *errCat) err() error {
	if len(e.msgs) == 0 {
		return nil
	}
	return errors.New("chemiss: invalid namelist:\n" + strings.Join(e.msgs, "\n"))
}

func (e *errCat) int(name, val string) int {
	v, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		e.add(fmt.Errorf("%s: %v", name, err))
	}
	return v
}

func (e *errCat) intList(name, val string) []int {
	var o []int
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		o = append(o, e.int(name, s))
	}
	return o
}

func (e *errCat) bool(name, val string) bool {
	switch strings.ToLower(strings.Trim(val, " .")) {
	case "true", "t":
		return true
	case "false", "f":
		return false
	}
	e.add(fmt.Errorf("%s: invalid logical value %q", name, val))
	return false
}
