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

// AutoEncoder is the primary set autoencoder.  Points are embedded and
// summed into a set embedding, which is decoded together with a one-hot
// cardinality code and a one-hot output position into one point per
// position, emitting as many points as the input set held.
type AutoEncoder struct {
	Base
	Encoder *SumEncoder   `desc:"set encoder"`
	Latent  *etorch.Layer `desc:"set embedding input to the decoder"`
	Card    *etorch.Layer `desc:"one-hot cardinality, 0..MaxN"`
	Pos     *etorch.Layer `desc:"one-hot output position, 0..MaxN-1"`
	Dec     *etorch.Layer `desc:"decoder hidden layer"`
	Out     *etorch.Layer `desc:"decoded point"`
}

// NewAutoEncoder is the New constructor of the "sae" variant.
func NewAutoEncoder(cfg Config, extra map[string]string) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ex := Extras(extra)
	if err := ex.Check("sae", InitSeedKey); err != nil {
		return nil, err
	}
	seed, err := ex.initSeed()
	if err != nil {
		return nil, err
	}
	ae := &AutoEncoder{}
	ae.InitBase("sae", cfg)
	net := ae.Network
	ae.Encoder = ConfigSumEncoder(net, cfg)
	ae.Latent = net.AddLayer1D("Latent", cfg.HiddenDim, emer.Input, nil)
	ae.Card = net.AddLayer1D("Card", cfg.MaxN+1, emer.Input, nil)
	ae.Pos = net.AddLayer1D("Pos", cfg.MaxN, emer.Input, nil)
	ae.Dec = net.AddLayer1D("Dec", cfg.HiddenDim, emer.Hidden, etorch.ReLU{})
	ae.Out = net.AddLayer1D("Out", cfg.Dim, emer.Target, nil)
	full := prjn.NewFull()
	net.ConnectLayers(ae.Latent, ae.Dec, full, emer.Forward)
	net.ConnectLayers(ae.Card, ae.Dec, full, emer.Forward)
	net.ConnectLayers(ae.Pos, ae.Dec, full, emer.Forward)
	net.ConnectLayers(ae.Dec, ae.Out, full, emer.Forward)
	net.ConnectBias(ae.Dec)
	net.ConnectBias(ae.Out)
	if err := ae.BuildNet(seed); err != nil {
		return nil, err
	}
	return ae, nil
}

func (ae *AutoEncoder) Forward(in *setbatch.Batch) (*setbatch.Batch, error) {
	sets, err := ae.Sets(in)
	if err != nil {
		return nil, err
	}
	outs := make([]*etensor.Float64, len(sets))
	for si, st := range sets {
		n := 0
		if st.Len() > 0 {
			n = st.Dim(0)
		}
		z := ae.Encoder.Encode(st)
		ot := outSet{dim: ae.Cfg.Dim}
		for j := 0; j < n; j++ {
			ae.Latent.SetActs(z)
			ae.Card.SetOneHot(n)
			ae.Pos.SetOneHot(j)
			ae.Dec.Forward()
			ae.Out.Forward()
			ot.add(ae.Out)
		}
		outs[si] = ot.tensor()
	}
	return setbatch.Encode(outs), nil
}
