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
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/chemiss/internal/hash"
)

// weightsFile is the stored form of a weightRegridder.
type weightsFile struct {
	SrcNx, SrcNy, DstNx, DstNy int
	Src                        [][]int
	W                          [][]float64
}

// WeightsFileName returns the name of the file that regridding weights
// from src to dst with method m are cached in. The name changes when the
// method or the coordinates of either grid change.
func WeightsFileName(m Method, src *EmissionGrid, dst *WRFInput) string {
	key := hash.Key(string(m), src.Lon, src.Lat, dst.XLong.Elements, dst.XLat.Elements,
		elements(dst.XLongU), elements(dst.XLatV))
	return fmt.Sprintf("weights_%s_%s.gob", m, key)
}

// NewCachedRegridder is like NewRegridder, but reuses weights stored in
// directory dir when they exist and stores newly calculated weights
// there otherwise. loaded reports whether the weights were read from dir.
func NewCachedRegridder(m Method, src *EmissionGrid, dst *WRFInput, dir string) (r Regridder, loaded bool, err error) {
	path := filepath.Join(dir, WeightsFileName(m, src, dst))
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		wr, err := readWeights(f)
		if err != nil {
			return nil, false, fmt.Errorf("chemiss: reading regridding weights %s: %v", path, err)
		}
		if wr.srcNx != src.Nx() || wr.srcNy != src.Ny() || wr.dstNx != dst.Nx() || wr.dstNy != dst.Ny() {
			return nil, false, fmt.Errorf("chemiss: regridding weights %s do not match the grids", path)
		}
		return wr, true, nil
	} else if !os.IsNotExist(err) {
		return nil, false, err
	}

	r, err = NewRegridder(m, src, dst)
	if err != nil {
		return nil, false, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, false, fmt.Errorf("chemiss: storing regridding weights: %v", err)
	}
	if err := r.(*weightRegridder).write(f); err != nil {
		f.Close()
		return nil, false, fmt.Errorf("chemiss: storing regridding weights: %v", err)
	}
	return r, false, f.Close()
}

func elements(a *sparse.DenseArray) []float64 {
	if a == nil {
		return []float64{}
	}
	return a.Elements
}

func (r *weightRegridder) write(f *os.File) error {
	wf := weightsFile{
		SrcNx: r.srcNx, SrcNy: r.srcNy, DstNx: r.dstNx, DstNy: r.dstNy,
		Src: make([][]int, len(r.weights)),
		W:   make([][]float64, len(r.weights)),
	}
	for d, ws := range r.weights {
		wf.Src[d] = make([]int, len(ws))
		wf.W[d] = make([]float64, len(ws))
		for i, w := range ws {
			wf.Src[d][i] = w.src
			wf.W[d][i] = w.w
		}
	}
	return gob.NewEncoder(f).Encode(wf)
}

func readWeights(f *os.File) (*weightRegridder, error) {
	var wf weightsFile
	if err := gob.NewDecoder(f).Decode(&wf); err != nil {
		return nil, err
	}
	if len(wf.Src) != wf.DstNx*wf.DstNy || len(wf.W) != len(wf.Src) {
		return nil, fmt.Errorf("%d weight rows for %d destination cells", len(wf.Src), wf.DstNx*wf.DstNy)
	}
	r := &weightRegridder{
		srcNx: wf.SrcNx, srcNy: wf.SrcNy, dstNx: wf.DstNx, dstNy: wf.DstNy,
		weights: make([][]weight, len(wf.Src)),
	}
	nSrc := r.srcNx * r.srcNy
	for d, src := range wf.Src {
		if len(wf.W[d]) != len(src) {
			return nil, fmt.Errorf("destination cell %d has %d sources but %d weights", d, len(src), len(wf.W[d]))
		}
		for i, s := range src {
			if s < 0 || s >= nSrc {
				return nil, fmt.Errorf("source index %d out of range", s)
			}
			r.weights[d] = append(r.weights[d], weight{src: s, w: wf.W[d][i]})
		}
	}
	return r, nil
}
