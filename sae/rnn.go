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

// RNN is the recurrent baseline: the points of a set are read in batch
// order by a tanh recurrent encoder, and the final state is unrolled by a
// recurrent decoder for as many steps as the set had points.  Unlike the
// other variants its embedding depends on point order.
type RNN struct {
	Base
	Elem   *etorch.Layer `desc:"input point"`
	Ctx    *etorch.Layer `desc:"previous encoder state"`
	EncH   *etorch.Layer `desc:"encoder state"`
	DecCtx *etorch.Layer `desc:"previous decoder state"`
	DecH   *etorch.Layer `desc:"decoder state"`
	Out    *etorch.Layer `desc:"decoded point"`
}

// NewRNN is the New constructor of the "rnn" variant.
func NewRNN(cfg Config, extra map[string]string) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ex := Extras(extra)
	if err := ex.Check("rnn", InitSeedKey); err != nil {
		return nil, err
	}
	seed, err := ex.initSeed()
	if err != nil {
		return nil, err
	}
	rn := &RNN{}
	rn.InitBase("rnn", cfg)
	net := rn.Network
	rn.Elem = net.AddLayer1D("Elem", cfg.Dim, emer.Input, nil)
	rn.Ctx = net.AddLayer1D("Ctx", cfg.HiddenDim, emer.Input, nil)
	rn.EncH = net.AddLayer1D("EncH", cfg.HiddenDim, emer.Hidden, etorch.Tanh{})
	rn.DecCtx = net.AddLayer1D("DecCtx", cfg.HiddenDim, emer.Input, nil)
	rn.DecH = net.AddLayer1D("DecH", cfg.HiddenDim, emer.Hidden, etorch.Tanh{})
	rn.Out = net.AddLayer1D("Out", cfg.Dim, emer.Target, nil)
	full := prjn.NewFull()
	net.ConnectLayers(rn.Elem, rn.EncH, full, emer.Forward)
	net.ConnectLayers(rn.Ctx, rn.EncH, full, emer.Forward)
	net.ConnectLayers(rn.DecCtx, rn.DecH, full, emer.Forward)
	net.ConnectLayers(rn.DecH, rn.Out, full, emer.Forward)
	net.ConnectBias(rn.EncH)
	net.ConnectBias(rn.DecH)
	net.ConnectBias(rn.Out)
	if err := rn.BuildNet(seed); err != nil {
		return nil, err
	}
	return rn, nil
}

func (rn *RNN) Forward(in *setbatch.Batch) (*setbatch.Batch, error) {
	sets, err := rn.Sets(in)
	if err != nil {
		return nil, err
	}
	dim := rn.Cfg.Dim
	outs := make([]*etensor.Float64, len(sets))
	for si, st := range sets {
		n := 0
		if st.Len() > 0 {
			n = st.Dim(0)
		}
		rn.Ctx.SetActs(nil)
		for i := 0; i < n; i++ {
			rn.Elem.SetActs(st.Values[i*dim : (i+1)*dim])
			rn.EncH.Forward()
			rn.Ctx.SetActs32(rn.EncH.Acts())
		}
		ot := outSet{dim: dim}
		for j := 0; j < n; j++ {
			rn.DecCtx.SetActs32(rn.Ctx.Acts())
			rn.DecH.Forward()
			rn.Out.Forward()
			ot.add(rn.Out)
			rn.Ctx.SetActs32(rn.DecH.Acts())
		}
		outs[si] = ot.tensor()
	}
	return setbatch.Encode(outs), nil
}
