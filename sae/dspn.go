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

// DSPN is the deep set prediction baseline: a learned initial set of MaxN
// points is refined for a fixed number of steps, each point moving against
// an update predicted from the point and the set embedding.  The first n
// refined points are emitted, n being the input cardinality.
type DSPN struct {
	Base
	Iters   int           `desc:"number of refinement steps"`
	Rate    float64       `desc:"step size of each refinement"`
	Encoder *SumEncoder   `desc:"set encoder"`
	Pos     *etorch.Layer `desc:"one-hot initial point index"`
	Init    *etorch.Layer `desc:"initial point, a learned template"`
	Pt      *etorch.Layer `desc:"current point being refined"`
	Latent  *etorch.Layer `desc:"set embedding"`
	Upd     *etorch.Layer `desc:"update hidden layer"`
	Delta   *etorch.Layer `desc:"predicted update for the point"`
}

// NewDSPN is the New constructor of the "dspn" variant.  Extra options:
// "iters" (default 3) and "lr" (default 0.5).
func NewDSPN(cfg Config, extra map[string]string) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ex := Extras(extra)
	if err := ex.Check("dspn", InitSeedKey, "iters", "lr"); err != nil {
		return nil, err
	}
	seed, err := ex.initSeed()
	if err != nil {
		return nil, err
	}
	ds := &DSPN{}
	if ds.Iters, err = ex.Int("iters", 3); err != nil {
		return nil, err
	}
	if ds.Rate, err = ex.Float("lr", 0.5); err != nil {
		return nil, err
	}
	ds.InitBase("dspn", cfg)
	net := ds.Network
	ds.Encoder = ConfigSumEncoder(net, cfg)
	ds.Pos = net.AddLayer1D("Pos", cfg.MaxN, emer.Input, nil)
	ds.Init = net.AddLayer1D("Init", cfg.Dim, emer.Hidden, nil)
	ds.Pt = net.AddLayer1D("Pt", cfg.Dim, emer.Input, nil)
	ds.Latent = net.AddLayer1D("Latent", cfg.HiddenDim, emer.Input, nil)
	ds.Upd = net.AddLayer1D("Upd", cfg.HiddenDim, emer.Hidden, etorch.Tanh{})
	ds.Delta = net.AddLayer1D("Delta", cfg.Dim, emer.Target, nil)
	full := prjn.NewFull()
	net.ConnectLayers(ds.Pos, ds.Init, full, emer.Forward)
	net.ConnectLayers(ds.Pt, ds.Upd, full, emer.Forward)
	net.ConnectLayers(ds.Latent, ds.Upd, full, emer.Forward)
	net.ConnectLayers(ds.Upd, ds.Delta, full, emer.Forward)
	net.ConnectBias(ds.Upd)
	net.ConnectBias(ds.Delta)
	if err := ds.BuildNet(seed); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *DSPN) Forward(in *setbatch.Batch) (*setbatch.Batch, error) {
	sets, err := ds.Sets(in)
	if err != nil {
		return nil, err
	}
	dim := ds.Cfg.Dim
	outs := make([]*etensor.Float64, len(sets))
	pt := make([]float64, 0, dim)
	delta := make([]float64, 0, dim)
	for si, st := range sets {
		n := 0
		if st.Len() > 0 {
			n = st.Dim(0)
		}
		z := ds.Encoder.Encode(st)
		ds.Latent.SetActs(z)
		ot := outSet{dim: dim}
		for j := 0; j < n; j++ {
			ds.Pos.SetOneHot(j)
			ds.Init.Forward()
			pt = ds.Init.ActsFloat64(pt[:0])
			for it := 0; it < ds.Iters; it++ {
				ds.Pt.SetActs(pt)
				ds.Upd.Forward()
				ds.Delta.Forward()
				delta = ds.Delta.ActsFloat64(delta[:0])
				floats.AddScaled(pt, -ds.Rate, delta)
			}
			ot.vals = append(ot.vals, pt...)
		}
		outs[si] = ot.tensor()
	}
	return setbatch.Encode(outs), nil
}
