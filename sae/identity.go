// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sae

import (
	"fmt"
	"strings"

	"github.com/emer/saeval/setbatch"
)

// IdentityModel returns a copy of its input.  It has no parameters and
// applies no cardinality limit.
type IdentityModel struct {
	Base
}

// NewIdentity is the New constructor of the "identity" variant.
func NewIdentity(cfg Config, extra map[string]string) (Model, error) {
	if err := Extras(extra).Check("identity"); err != nil {
		return nil, err
	}
	id := &IdentityModel{}
	id.InitBase("identity", cfg)
	if err := id.Network.Build(); err != nil {
		return nil, err
	}
	return id, nil
}

func (id *IdentityModel) Forward(in *setbatch.Batch) (*setbatch.Batch, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out := setbatch.New(in.Len(), in.Dim())
	copy(out.Vals.Values, in.Vals.Values)
	copy(out.Membership.Values, in.Membership.Values)
	return out, nil
}

// Variant binds a variant name to its constructor.
type Variant struct {
	Name string
	New  New
}

// Variants are the registered variants, primary first.
var Variants = []Variant{
	{"sae", NewAutoEncoder},
	{"rnn", NewRNN},
	{"dspn", NewDSPN},
	{"tspn", NewTSPN},
	{"identity", NewIdentity},
}

// Lookup returns the constructor of the named variant.
func Lookup(name string) (New, error) {
	for _, v := range Variants {
		if v.Name == name {
			return v.New, nil
		}
	}
	nms := make([]string, len(Variants))
	for i, v := range Variants {
		nms[i] = v.Name
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknown, name, strings.Join(nms, ", "))
}
