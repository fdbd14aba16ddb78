// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sae

import (
	"errors"
	"math"
	"testing"

	"github.com/emer/saeval/sampgen"
	"github.com/emer/saeval/setbatch"
)

var testCfg = Config{Dim: 6, HiddenDim: 12, MaxN: 16}

func TestVariantsContract(t *testing.T) {
	in := sampgen.GenerateSizes(nil, []int{5, 0, 16, 1}, 6, 5)
	for _, v := range Variants {
		t.Run(v.Name, func(t *testing.T) {
			m, err := v.New(testCfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			if m.Name() != v.Name {
				t.Errorf("Name = %q", m.Name())
			}
			if m.Config() != testCfg {
				t.Errorf("Config = %+v", m.Config())
			}
			m.SetEval()
			if !m.IsEval() {
				t.Error("SetEval did not set eval mode")
			}
			out, err := m.Forward(in)
			if err != nil {
				t.Fatal(err)
			}
			if err := out.Validate(); err != nil {
				t.Fatal(err)
			}
			if out.Len() > 0 && out.Dim() != 6 {
				t.Errorf("output dim %d", out.Dim())
			}
			got := out.Sizes()
			want := in.Sizes()
			if len(got) != len(want) {
				t.Fatalf("output sizes %v, input %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("set %d: %d output points, want %d", i, got[i], want[i])
				}
			}
			for _, v := range out.Vals.Values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatal("non-finite output")
				}
			}
			if _, err := setbatch.Select(out, 1); !errors.Is(err, setbatch.ErrNoSet) {
				t.Errorf("empty set 1: err = %v, want ErrNoSet", err)
			}
		})
	}
}

func TestVariantsDeterministic(t *testing.T) {
	in := sampgen.Generate(nil, 4, 8, 6, 5)
	for _, v := range Variants {
		a, _ := v.New(testCfg, nil)
		b, _ := v.New(testCfg, nil)
		oa, err := a.Forward(in)
		if err != nil {
			t.Fatal(err)
		}
		ob, err := b.Forward(in)
		if err != nil {
			t.Fatal(err)
		}
		for i := range oa.Vals.Values {
			if oa.Vals.Values[i] != ob.Vals.Values[i] {
				t.Fatalf("%s: output %d differs between identical instances", v.Name, i)
			}
		}
	}
}

func TestInitSeed(t *testing.T) {
	a, _ := NewAutoEncoder(testCfg, map[string]string{InitSeedKey: "1"})
	b, _ := NewAutoEncoder(testCfg, map[string]string{InitSeedKey: "2"})
	wa := a.Net().LayerByName("Out").RecvPrjnFrom("Dec").States["Wt"].Values
	wb := b.Net().LayerByName("Out").RecvPrjnFrom("Dec").States["Wt"].Values
	same := true
	for i := range wa {
		if wa[i] != wb[i] {
			same = false
		}
	}
	if same {
		t.Error("different init seeds gave identical weights")
	}
}

func TestAutoEncoderPermutationInvariant(t *testing.T) {
	in := sampgen.Generate(nil, 1, 4, 6, 3)
	rev := setbatch.New(4, 6)
	for k := 0; k < 4; k++ {
		copy(rev.Point(k), in.Point(3-k))
	}
	m, _ := NewAutoEncoder(testCfg, nil)
	oa, err := m.Forward(in)
	if err != nil {
		t.Fatal(err)
	}
	ob, err := m.Forward(rev)
	if err != nil {
		t.Fatal(err)
	}
	for i := range oa.Vals.Values {
		if math.Abs(oa.Vals.Values[i]-ob.Vals.Values[i]) > 1e-4 {
			t.Fatalf("output %d: %v vs %v", i, oa.Vals.Values[i], ob.Vals.Values[i])
		}
	}
}

func TestForwardErrors(t *testing.T) {
	big := sampgen.Generate(nil, 2, 17, 6, 1)
	wrongDim := sampgen.Generate(nil, 2, 3, 4, 1)
	for _, v := range Variants {
		if v.Name == "identity" {
			continue
		}
		m, _ := v.New(testCfg, nil)
		if _, err := m.Forward(big); !errors.Is(err, ErrTooMany) {
			t.Errorf("%s: err = %v, want ErrTooMany", v.Name, err)
		}
		if _, err := m.Forward(wrongDim); !errors.Is(err, ErrDim) {
			t.Errorf("%s: err = %v, want ErrDim", v.Name, err)
		}
	}
}

func TestConstructorErrors(t *testing.T) {
	if _, err := NewDSPN(testCfg, map[string]string{"bogus": "1"}); !errors.Is(err, ErrExtra) {
		t.Errorf("unknown extra: err = %v, want ErrExtra", err)
	}
	if _, err := NewDSPN(testCfg, map[string]string{"iters": "x"}); err == nil {
		t.Error("bad iters value accepted")
	}
	if _, err := NewRNN(Config{Dim: 6}, nil); err == nil {
		t.Error("zero HiddenDim accepted")
	}
	if _, err := Lookup("nope"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Lookup: err = %v, want ErrUnknown", err)
	}
	if nw, err := Lookup("tspn"); err != nil || nw == nil {
		t.Errorf("Lookup tspn: %v", err)
	}
}

func TestDSPNNoRefinement(t *testing.T) {
	m, err := NewDSPN(testCfg, map[string]string{"iters": "0"})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := m.Forward(sampgen.Generate(nil, 1, 3, 6, 1))
	b, _ := m.Forward(sampgen.Generate(nil, 1, 3, 6, 2))
	// without refinement the output is the learned template, whatever the input
	for i := range a.Vals.Values {
		if a.Vals.Values[i] != b.Vals.Values[i] {
			t.Fatalf("output %d depends on input without refinement", i)
		}
	}
}
