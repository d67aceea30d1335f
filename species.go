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

	"github.com/BurntSushi/toml"
)

// Units of emission rates in wrfchemi files.
const (
	GasUnits     = "mol km^-2 hr^-1"
	AerosolUnits = "ug m^-2 s^-1"
)

// Species holds properties of an emitted species.
type Species struct {
	// MolecularMass is the molar mass [g/mol]. It is only needed for
	// gas-phase species.
	MolecularMass float64

	// Units is the units of the emission rate, either GasUnits or
	// AerosolUnits.
	Units string

	Description string
}

// Mechanism maps emitted species names to their properties.
type Mechanism map[string]Species

// radm2Species are the RADM2/MADE-SORGAM emitted species, in the order
// WRF-Chem lists them.
var radm2Species = []string{"E_CO", "E_HCHO", "E_C2H5OH", "E_KET", "E_NH3", "E_XYL",
	"E_TOL", "E_ISO", "E_OLI", "E_OLT", "E_OL2", "E_HC8", "E_HC5",
	"E_ORA2", "E_ETH", "E_ALD", "E_CSL", "E_SO2", "E_HC3", "E_NO2",
	"E_NO", "E_CH3OH", "E_PM25I", "E_PM25J", "E_SO4I", "E_SO4J",
	"E_NO3I", "E_NO3J", "E_ORGI", "E_ORGJ", "E_ECI", "E_ECJ",
	"E_SO4C", "E_NO3C", "E_ORGC", "E_ECC"}

// RADM2Species returns the names of the RADM2/MADE-SORGAM emitted species.
func RADM2Species() []string { return append([]string{}, radm2Species...) }

// DefaultMechanism returns the properties of the RADM2/MADE-SORGAM
// emitted species.
func DefaultMechanism() Mechanism {
	gas := func(mw float64, desc string) Species {
		return Species{MolecularMass: mw, Units: GasUnits, Description: desc}
	}
	aer := func(desc string) Species {
		return Species{Units: AerosolUnits, Description: desc}
	}
	return Mechanism{
		"E_CO":     gas(28, "carbon monoxide"),
		"E_HCHO":   gas(30, "formaldehyde"),
		"E_C2H5OH": gas(46, "ethanol"),
		"E_KET":    gas(72, "ketones"),
		"E_NH3":    gas(17, "ammonia"),
		"E_XYL":    gas(106, "xylene"),
		"E_TOL":    gas(92, "toluene"),
		"E_ISO":    gas(68, "isoprene"),
		"E_OLI":    gas(68, "internal alkenes"),
		"E_OLT":    gas(42, "terminal alkenes"),
		"E_OL2":    gas(28, "ethene"),
		"E_HC8":    gas(114, "alkanes, OH rate constant > 6.8e-12"),
		"E_HC5":    gas(72, "alkanes, OH rate constant 3.4e-12 to 6.8e-12"),
		"E_ORA2":   gas(60, "acetic acid and higher acids"),
		"E_ETH":    gas(30, "ethane"),
		"E_ALD":    gas(44, "acetaldehyde and higher aldehydes"),
		"E_CSL":    gas(108, "cresol"),
		"E_SO2":    gas(64, "sulfur dioxide"),
		"E_HC3":    gas(44, "alkanes, OH rate constant < 3.4e-12"),
		"E_NO2":    gas(46, "nitrogen dioxide"),
		"E_NO":     gas(30, "nitric oxide"),
		"E_CH3OH":  gas(32, "methanol"),
		"E_PM25I":  aer("unspeciated PM2.5, Aitken mode"),
		"E_PM25J":  aer("unspeciated PM2.5, accumulation mode"),
		"E_SO4I":   aer("sulfate, Aitken mode"),
		"E_SO4J":   aer("sulfate, accumulation mode"),
		"E_NO3I":   aer("nitrate, Aitken mode"),
		"E_NO3J":   aer("nitrate, accumulation mode"),
		"E_ORGI":   aer("organic carbon, Aitken mode"),
		"E_ORGJ":   aer("organic carbon, accumulation mode"),
		"E_ECI":    aer("elemental carbon, Aitken mode"),
		"E_ECJ":    aer("elemental carbon, accumulation mode"),
		"E_SO4C":   aer("sulfate, coarse mode"),
		"E_NO3C":   aer("nitrate, coarse mode"),
		"E_ORGC":   aer("organic carbon, coarse mode"),
		"E_ECC":    aer("elemental carbon, coarse mode"),
	}
}

// ReadMechanism reads species properties in TOML format from r,
// for example:
//
//	[E_CO]
//	MolecularMass = 28.0
//	Units = "mol km^-2 hr^-1"
//
// The species are merged over DefaultMechanism.
func ReadMechanism(r io.Reader) (Mechanism, error) {
	in := make(map[string]Species)
	if _, err := toml.DecodeReader(r, &in); err != nil {
		return nil, fmt.Errorf("chemiss: reading mechanism: %v", err)
	}
	m := DefaultMechanism()
	for name, sp := range in {
		if sp.Units == "" {
			sp.Units = GasUnits
		}
		if err := sp.check(name); err != nil {
			return nil, err
		}
		m[name] = sp
	}
	return m, nil
}

func (sp Species) check(name string) error {
	switch sp.Units {
	case GasUnits:
		if !(sp.MolecularMass > 0) {
			return fmt.Errorf("chemiss: gas-phase species %s needs a positive MolecularMass but has %g", name, sp.MolecularMass)
		}
	case AerosolUnits:
	default:
		return fmt.Errorf("chemiss: species %s has units %q; valid units are %q and %q", name, sp.Units, GasUnits, AerosolUnits)
	}
	return nil
}

// Units returns the emission units of species name. Species not in
// m are assumed to be gases.
func (m Mechanism) Units(name string) string {
	if sp, ok := m[name]; ok && sp.Units != "" {
		return sp.Units
	}
	return GasUnits
}

// kgPerUnit returns the factor that converts an emission rate of
// species name, multiplied by an area [km²] and one hour, to a mass [kg].
func (m Mechanism) kgPerUnit(name string) (float64, error) {
	sp, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("chemiss: species %s is not in the mechanism", name)
	}
	switch sp.Units {
	case GasUnits, "":
		if !(sp.MolecularMass > 0) {
			return 0, fmt.Errorf("chemiss: species %s has no molecular mass", name)
		}
		// mol/km²/hr × km² × hr × g/mol → kg
		return sp.MolecularMass / 1000, nil
	case AerosolUnits:
		// μg/m²/s × 1e6 m²/km² × 3600 s/hr × 1e-9 kg/μg
		return 1e6 * 3600 * 1e-9, nil
	}
	return 0, fmt.Errorf("chemiss: species %s has unsupported units %q", name, sp.Units)
}
