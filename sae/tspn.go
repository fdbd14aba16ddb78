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
)

// TSPN is the template set prediction baseline: each output point starts
// from one of MaxN learned template embeddings, which is mixed with the set
// embedding and decoded.  The first n templates are used.
type TSPN struct {
	Base
	Encoder *SumEncoder   `desc:"set encoder"`
	Pos     *etorch.Layer `desc:"one-hot template index"`
	Tmpl    *etorch.Layer `desc:"template embedding"`
	Latent  *etorch.Layer `desc:"set embedding"`
	Mix     *etorch.Layer `desc:"template and set embedding mixing layer"`
	Out     *etorch.Layer `desc:"decoded point"`
}

// NewTSPN is the New constructor of the "tspn" variant.
func NewTSPN(cfg Config, extra map[string]string) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ex := Extras(extra)
	if err := ex.Check("tspn", InitSeedKey); err != nil {
		return nil, err
	}
	seed, err := ex.initSeed()
	if err != nil {
		return nil, err
	}
	ts := &TSPN{}
	ts.InitBase("tspn", cfg)
	net := ts.Network
	ts.Encoder = ConfigSumEncoder(net, cfg)
	ts.Pos = net.AddLayer1D("Pos", cfg.MaxN, emer.Input, nil)
	ts.Tmpl = net.AddLayer1D("Tmpl", cfg.HiddenDim, emer.Hidden, nil)
	ts.Latent = net.AddLayer1D("Latent", cfg.HiddenDim, emer.Input, nil)
	ts.Mix = net.AddLayer1D("Mix", cfg.HiddenDim, emer.Hidden, etorch.ReLU{})
	ts.Out = net.AddLayer1D("Out", cfg.Dim, emer.Target, nil)
	full := prjn.NewFull()
	net.ConnectLayers(ts.Pos, ts.Tmpl, full, emer.Forward)
	net.ConnectLayers(ts.Tmpl, ts.Mix, full, emer.Forward)
	net.ConnectLayers(ts.Latent, ts.Mix, full, emer.Forward)
	net.ConnectLayers(ts.Mix, ts.Out, full, emer.Forward)
	net.ConnectBias(ts.Mix)
	net.ConnectBias(ts.Out)
	if err := ts.BuildNet(seed); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TSPN) Forward(in *setbatch.Batch) (*setbatch.Batch, error) {
	sets, err := ts.Sets(in)
	if err != nil {
		return nil, err
	}
	outs := make([]*etensor.Float64, len(sets))
	for si, st := range sets {
		n := 0
		if st.Len() > 0 {
			n = st.Dim(0)
		}
		ts.Latent.SetActs(ts.Encoder.Encode(st))
		ot := outSet{dim: ts.Cfg.Dim}
		for j := 0; j < n; j++ {
			ts.Pos.SetOneHot(j)
			ts.Tmpl.Forward()
			ts.Mix.Forward()
			ts.Out.Forward()
			ot.add(ts.Out)
		}
		outs[si] = ot.tensor()
	}
	return setbatch.Encode(outs), nil
}
