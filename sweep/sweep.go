// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sweep runs a fixed list of evaluation trials, one after another.
package sweep

import (
	"fmt"
	"log"

	"github.com/emer/emergent/params"
	"github.com/emer/saeval/driver"
	"github.com/emer/saeval/sae"
)

// Entry is one variant of a sweep.  A trial is run for each override, or a
// single trial with the defaults if there are none.
type Entry struct {
	Name      string          `desc:"variant name"`
	New       sae.New         `desc:"model constructor"`
	Overrides []params.Params `desc:"per-trial overrides of the sweep defaults"`
}

// Defaults are the sweep-wide trial settings, applied over trial.Defaults.
var Defaults = params.Params{
	"Trial.HiddenDim": "96",
	"Trial.N":         "8",
	"Trial.Log":       "false",
}

// Experiments returns the default sweep: the primary model, then each
// baseline.
func Experiments() []Entry {
	return []Entry{
		{Name: "sae", New: sae.NewAutoEncoder},
		{Name: "rnn", New: sae.NewRNN},
		{Name: "dspn", New: sae.NewDSPN},
		{Name: "tspn", New: sae.NewTSPN},
	}
}

// Select returns the entries named in names, in sweep order.  Empty names
// selects all of them.
func Select(ents []Entry, names []string) ([]Entry, error) {
	if len(names) == 0 {
		return ents, nil
	}
	want := make(map[string]bool, len(names))
	for _, nm := range names {
		want[nm] = true
	}
	var sel []Entry
	for _, en := range ents {
		if want[en.Name] {
			sel = append(sel, en)
			delete(want, en.Name)
		}
	}
	for nm := range want {
		return nil, fmt.Errorf("sweep: %w: %q", sae.ErrUnknown, nm)
	}
	return sel, nil
}

// Run runs every trial of ents in order, with defaults applied under each
// entry's overrides.  opts.New and opts.Model are set per entry.  The first
// error stops the sweep; the results of the trials run are returned with it.
func Run(ents []Entry, defaults params.Params, opts driver.Options) ([]*driver.Result, error) {
	var res []*driver.Result
	for _, en := range ents {
		ovs := en.Overrides
		if len(ovs) == 0 {
			ovs = []params.Params{nil}
		}
		for _, ov := range ovs {
			op := opts
			op.New = en.New
			op.Model = nil
			var pars []params.Params
			if ov != nil {
				pars = append(pars, ov)
			}
			rs, err := driver.Eval(en.Name, defaults, pars, op)
			res = append(res, rs)
			if err != nil {
				return res, err
			}
			log.Printf("sweep: %v done\n", &rs.Trial)
		}
	}
	return res, nil
}
