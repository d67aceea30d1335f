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
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

var derivedFunctions = map[string]govaluate.ExpressionFunction{
	"max": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("chemiss: got %d arguments for function 'max', but needs 2", len(args))
		}
		return math.Max(args[0].(float64), args[1].(float64)), nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("chemiss: got %d arguments for function 'min', but needs 2", len(args))
		}
		return math.Min(args[0].(float64), args[1].(float64)), nil
	},
}

// DeriveSpecies adds to g the species defined by exprs, which maps new
// species names to arithmetic expressions of other species, for example
// {"E_PM25J": "0.8 * E_PM25", "E_PM25I": "0.2 * E_PM25"}. Expressions
// are evaluated cell by cell and may refer to other derived species.
func DeriveSpecies(g *EmissionGrid, exprs map[string]string) error {
	parsed := make(map[string]*govaluate.EvaluableExpression)
	deps := make(map[string][]string)
	for name, e := range exprs {
		if _, ok := g.Data[name]; ok {
			return fmt.Errorf("chemiss: derived species %s is already in the emissions", name)
		}
		ex, err := govaluate.NewEvaluableExpressionWithFunctions(e, derivedFunctions)
		if err != nil {
			return fmt.Errorf("chemiss: derived species %s: %v", name, err)
		}
		parsed[name] = ex
		deps[name] = uniqueStrings(ex.Vars())
	}
	order, err := derivedOrder(g, deps)
	if err != nil {
		return err
	}
	for _, name := range order {
		ex, vars := parsed[name], deps[name]
		out := sparse.ZerosDense(g.Nt(), g.Ny(), g.Nx())
		params := make(map[string]interface{}, len(vars))
		for i := range out.Elements {
			for _, v := range vars {
				params[v] = g.Data[v].Elements[i]
			}
			r, err := ex.Evaluate(params)
			if err != nil {
				return fmt.Errorf("chemiss: evaluating derived species %s: %v", name, err)
			}
			f, ok := r.(float64)
			if !ok {
				return fmt.Errorf("chemiss: derived species %s evaluates to %v, which is not a number", name, r)
			}
			out.Elements[i] = f
		}
		if err := g.AddSpecies(name, out); err != nil {
			return err
		}
	}
	return nil
}

// derivedOrder returns the derived species in an order where every
// species comes after the species it depends on.
func derivedOrder(g *EmissionGrid, deps map[string][]string) ([]string, error) {
	names := make([]string, 0, len(deps))
	for n := range deps {
		names = append(names, n)
	}
	sort.Strings(names)

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var order []string
	var visit func(n string, path []string) error
	visit = func(n string, path []string) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("chemiss: derived species have a circular definition: %v", append(path, n))
		}
		state[n] = visiting
		for _, d := range deps[n] {
			if _, ok := deps[d]; ok {
				if err := visit(d, append(path, n)); err != nil {
					return err
				}
			} else if _, ok := g.Data[d]; !ok {
				return fmt.Errorf("chemiss: derived species %s refers to unknown species %s", n, d)
			}
		}
		state[n] = done
		order = append(order, n)
		return nil
	}
	for _, n := range names {
		if err := visit(n, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func uniqueStrings(s []string) []string {
	o := make([]string, 0, len(s))
	seen := make(map[string]bool)
	for _, v := range s {
		if !seen[v] {
			o = append(o, v)
			seen[v] = true
		}
	}
	return o
}
