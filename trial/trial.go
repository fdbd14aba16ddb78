// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trial holds the configuration of one evaluation trial, built by
// applying emergent params onto the defaults of the evaluation driver.
package trial

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emer/emergent/params"
	"github.com/emer/saeval/sae"
)

// ExtraPrefix marks param paths that go into Trial.Extra rather than onto a
// Trial field, e.g., "Trial.Extra.iters".
const ExtraPrefix = "Trial.Extra."

// Trial is the configuration of one (variant, configuration) evaluation.
// It is used as a value and not changed after Merge.
type Trial struct {
	Nm        string            `desc:"variant name"`
	HiddenDim int               `desc:"hidden size of the model"`
	N         int               `desc:"cardinality of each generated set"`
	Dim       int               `desc:"dimensionality of each point"`
	MaxN      int               `desc:"maximum set cardinality of the model"`
	NSets     int               `desc:"number of sets generated"`
	Seed      int64             `desc:"seed of the sample generator"`
	Log       bool              `desc:"report to the tracking service"`
	Extra     map[string]string `desc:"variant specific model options"`
}

// Defaults returns the evaluation defaults, before any sweep defaults or
// variant overrides are applied.
func Defaults() Trial {
	return Trial{
		HiddenDim: 96,
		N:         16,
		Dim:       6,
		MaxN:      16,
		NSets:     64,
		Seed:      5,
		Log:       true,
	}
}

// params.Styler interface, so params Sheets can select trials by variant.
func (tr *Trial) TypeName() string { return "Trial" }
func (tr *Trial) Class() string    { return "Variant" }
func (tr *Trial) Name() string     { return tr.Nm }

// ModelConfig returns the model construction configuration.
func (tr *Trial) ModelConfig() sae.Config {
	return sae.Config{Dim: tr.Dim, HiddenDim: tr.HiddenDim, MaxN: tr.MaxN}
}

// Validate checks that the sizes are usable.
func (tr *Trial) Validate() error {
	if tr.Nm == "" {
		return fmt.Errorf("trial: variant name is empty")
	}
	if tr.N < 0 || tr.NSets < 0 {
		return fmt.Errorf("trial %s: N and NSets must not be negative", tr.Nm)
	}
	return tr.ModelConfig().Validate()
}

// Merge returns the trial of the named variant: Defaults, then the sweep
// defaults, then each override in turn.  Keys with ExtraPrefix set Extra;
// all others are params paths onto Trial fields, e.g., "Trial.HiddenDim".
func Merge(name string, defaults params.Params, overrides ...params.Params) (Trial, error) {
	tr := Defaults()
	tr.Nm = name
	tr.Extra = make(map[string]string)
	sheet := &params.Sheet{}
	add := func(sel, desc string, pars params.Params) {
		fields := params.Params{}
		for k, v := range pars {
			if strings.HasPrefix(k, ExtraPrefix) {
				tr.Extra[strings.TrimPrefix(k, ExtraPrefix)] = v
				continue
			}
			fields[k] = v
		}
		if len(fields) > 0 {
			*sheet = append(*sheet, &params.Sel{Sel: sel, Desc: desc, Params: fields})
		}
	}
	add("Trial", "sweep defaults", defaults)
	for i, ov := range overrides {
		add("#"+name, "override "+strconv.Itoa(i), ov)
	}
	if _, err := sheet.Apply(&tr, false); err != nil {
		return tr, fmt.Errorf("trial %s: %w", name, err)
	}
	return tr, tr.Validate()
}

// ConfigMap returns the configuration reported to the tracking service:
// the extra model options plus the model sizes.
func (tr *Trial) ConfigMap() map[string]interface{} {
	cfg := make(map[string]interface{}, len(tr.Extra)+3)
	for k, v := range tr.Extra {
		cfg[k] = v
	}
	cfg["dim"] = tr.Dim
	cfg["hidden_dim"] = tr.HiddenDim
	cfg["max_n"] = tr.MaxN
	return cfg
}

// String summarizes the trial, extra options in key order.
func (tr *Trial) String() string {
	str := fmt.Sprintf("%s hidden_dim=%d n=%d dim=%d max_n=%d sets=%d seed=%d log=%v",
		tr.Nm, tr.HiddenDim, tr.N, tr.Dim, tr.MaxN, tr.NSets, tr.Seed, tr.Log)
	keys := make([]string, 0, len(tr.Extra))
	for k := range tr.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		str += " " + k + "=" + tr.Extra[k]
	}
	return str
}
