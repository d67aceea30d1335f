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

import "fmt"

// CellBounds returns the n+1 cell edges for n cell centers.
// Interior edges are halfway between neighboring centers, and the
// outer edges are extrapolated by half of the first and last spacing.
func CellBounds(centers []float64) ([]float64, error) {
	n := len(centers)
	if n < 2 {
		return nil, fmt.Errorf("chemiss: at least 2 cell centers are needed to calculate cell bounds, but there are %d", n)
	}
	b := make([]float64, n+1)
	for i := 1; i < n; i++ {
		b[i] = (centers[i-1] + centers[i]) / 2
	}
	b[0] = centers[0] - (centers[1]-centers[0])/2
	b[n] = centers[n-1] + (centers[n-1]-centers[n-2])/2
	return b, nil
}
