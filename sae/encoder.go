// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sae

import (
	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
	"github.com/emer/etable/etensor"
	"github.com/emer/saeval/etorch"
	"github.com/emer/saeval/setbatch"
	"gonum.org/v1/gonum/floats"
)

// SumEncoder embeds each point of a set with one hidden layer and sums the
// embeddings, giving a permutation invariant set embedding.
type SumEncoder struct {
	Elem *etorch.Layer `desc:"input layer, one point"`
	Enc  *etorch.Layer `desc:"point embedding layer"`
}

// ConfigSumEncoder adds the encoder layers to net.
func ConfigSumEncoder(net *etorch.Network, cfg Config) *SumEncoder {
	se := &SumEncoder{}
	se.Elem = net.AddLayer1D("Elem", cfg.Dim, emer.Input, nil)
	se.Enc = net.AddLayer1D("Enc", cfg.HiddenDim, emer.Hidden, etorch.ReLU{})
	net.ConnectLayers(se.Elem, se.Enc, prjn.NewFull(), emer.Forward)
	net.ConnectBias(se.Enc)
	return se
}

// Encode returns the set embedding of st, a [n, dim] set.  An empty set
// embeds to all zeros.
func (se *SumEncoder) Encode(st *etensor.Float64) []float64 {
	z := make([]float64, se.Enc.Shp.Len())
	if st.Len() == 0 {
		return z
	}
	dim := st.Dim(1)
	emb := make([]float64, 0, len(z))
	for i := 0; i < st.Dim(0); i++ {
		se.Elem.SetActs(st.Values[i*dim : (i+1)*dim])
		se.Enc.Forward()
		emb = se.Enc.ActsFloat64(emb[:0])
		floats.Add(z, emb)
	}
	return z
}

// outSet collects the points a decoder emits for one set.
type outSet struct {
	dim  int
	vals []float64
}

func (ot *outSet) add(ly *etorch.Layer) {
	ot.vals = ly.ActsFloat64(ot.vals)
}

func (ot *outSet) tensor() *etensor.Float64 {
	st := setbatch.NewSet(len(ot.vals)/ot.dim, ot.dim)
	copy(st.Values, ot.vals)
	return st
}
