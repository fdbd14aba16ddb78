// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etorch

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
	"github.com/emer/emergent/weights"
	"github.com/goki/gi/gi"
)

func testNet(t *testing.T, nhid int) *Network {
	t.Helper()
	net := &Network{}
	net.InitName("test")
	inp := net.AddLayer1D("Input", 3, emer.Input, nil)
	hid := net.AddLayer1D("Hidden", nhid, emer.Hidden, ReLU{})
	out := net.AddLayer1D("Output", 2, emer.Target, nil)
	net.ConnectLayers(inp, hid, prjn.NewFull(), emer.Forward)
	net.ConnectLayers(hid, out, prjn.NewFull(), emer.Forward)
	net.ConnectBias(hid)
	net.ConnectBias(out)
	if err := net.Build(); err != nil {
		t.Fatal(err)
	}
	return net
}

func TestForward(t *testing.T) {
	net := testNet(t, 2)
	hid := net.LayerByName("Hidden")
	out := net.LayerByName("Output")
	inp := net.LayerByName("Input")

	// hidden = relu(identity-ish weights), output sums hidden
	for ri := 0; ri < 2; ri++ {
		for si := 0; si < 3; si++ {
			wt := float32(0)
			if si == ri {
				wt = 1
			}
			if err := hid.RecvPrjnFrom("Input").SetSynVal("Wt", si, ri, wt); err != nil {
				t.Fatal(err)
			}
		}
		for si := 0; si < 2; si++ {
			out.RecvPrjnFrom("Hidden").SetSynVal("Wt", si, ri, 1)
		}
	}
	hid.RecvPrjnFrom(BiasName).SetSynVal("Wt", 0, 0, 0.5)

	inp.SetActs([]float64{2, -3, 7})
	hid.Forward()
	out.Forward()

	if a := hid.Acts(); a[0] != 2.5 || a[1] != 0 {
		t.Errorf("hidden acts = %v, want [2.5 0]", a)
	}
	if a := out.Acts(); a[0] != 2.5 || a[1] != 2.5 {
		t.Errorf("output acts = %v, want [2.5 2.5]", a)
	}
	if net.NParams() != 3*2+2*2+2+2 {
		t.Errorf("NParams = %d", net.NParams())
	}
}

func TestWtsRoundTrip(t *testing.T) {
	for _, fn := range []string{"net.wts", "net.wts.gz"} {
		t.Run(fn, func(t *testing.T) {
			src := testNet(t, 4)
			src.InitWts(rand.New(rand.NewSource(1)))
			src.SetMetaData("variant", "test")
			path := filepath.Join(t.TempDir(), fn)
			if err := src.SaveWtsJSON(gi.FileName(path)); err != nil {
				t.Fatal(err)
			}
			dst := testNet(t, 4)
			if err := dst.OpenWtsJSON(gi.FileName(path)); err != nil {
				t.Fatal(err)
			}
			for li, ly := range src.Layers {
				for pi, pj := range ly.RcvPrjns {
					want := pj.States["Wt"].Values
					got := dst.Layers[li].RcvPrjns[pi].States["Wt"].Values
					for i := range want {
						if got[i] != want[i] {
							t.Fatalf("%v wt %d = %v, want %v", pj, i, got[i], want[i])
						}
					}
				}
			}
			if dst.MetaData["variant"] != "test" {
				t.Errorf("metadata not restored: %v", dst.MetaData)
			}
		})
	}
}

func TestSetWtsShapeMismatch(t *testing.T) {
	src := testNet(t, 4)
	src.InitWts(rand.New(rand.NewSource(1)))
	var buf bytes.Buffer
	if err := src.WriteWtsJSON(&buf); err != nil {
		t.Fatal(err)
	}
	dst := testNet(t, 5)
	before := append([]float32(nil), dst.LayerByName("Output").RecvPrjnFrom("Hidden").States["Wt"].Values...)
	err := dst.ReadWtsJSON(&buf)
	if !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	after := dst.LayerByName("Output").RecvPrjnFrom("Hidden").States["Wt"].Values
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("weights changed after a failed load")
		}
	}
}

func TestReadWtsCorrupt(t *testing.T) {
	net := testNet(t, 2)
	for _, in := range []string{"", "{\"Network\": ", "not json at all"} {
		err := net.ReadWtsJSON(strings.NewReader(in))
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("input %q: err = %v, want ErrCorrupt", in, err)
		}
	}
}

func TestSetWtsPrjnSet(t *testing.T) {
	src := testNet(t, 4)
	src.InitWts(rand.New(rand.NewSource(1)))
	tests := []struct {
		name string
		edit func(prjns []weights.Prjn) []weights.Prjn
	}{
		{"duplicated", func(ps []weights.Prjn) []weights.Prjn {
			ps[1] = ps[0]
			return ps
		}},
		{"missing", func(ps []weights.Prjn) []weights.Prjn {
			return ps[:1]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nw := src.Wts()
			ow := &nw.Layers[2]
			if ow.Layer != "Output" || len(ow.Prjns) != 2 {
				t.Fatalf("unexpected Output weights: %+v", ow)
			}
			ow.Prjns = tt.edit(ow.Prjns)
			dst := testNet(t, 4)
			bias := dst.LayerByName("Output").RecvPrjnFrom(BiasName).States["Wt"].Values
			before := append([]float32(nil), bias...)
			if err := dst.SetWts(nw); !errors.Is(err, ErrShape) {
				t.Fatalf("err = %v, want ErrShape", err)
			}
			for i := range before {
				if bias[i] != before[i] {
					t.Fatal("weights changed after a failed load")
				}
			}
		})
	}
}

func TestVarRange(t *testing.T) {
	net := testNet(t, 2)
	hid := net.LayerByName("Hidden")
	hid.RecvPrjnFrom("Input").SetSynVal("Wt", 1, 0, -2)
	net.LayerByName("Output").RecvPrjnFrom("Hidden").SetSynVal("Wt", 0, 1, 3)
	mn, mx, err := net.VarRange("Wt")
	if err != nil || mn != -2 || mx != 3 {
		t.Errorf("Wt range = [%v, %v], %v; want [-2, 3]", mn, mx, err)
	}
	net.LayerByName("Input").SetActs([]float64{1, 4, -1})
	mn, mx, err = net.VarRange("Act")
	if err != nil || mn != -1 || mx != 4 {
		t.Errorf("Act range = [%v, %v], %v; want [-1, 4]", mn, mx, err)
	}
	if _, _, err := net.VarRange("Bogus"); err == nil {
		t.Error("unknown variable accepted")
	}
}

func TestSaveWtsWriteError(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	net := testNet(t, 200)
	if err := net.SaveWtsJSON(gi.FileName("/dev/full")); err == nil {
		t.Error("write to a full device reported no error")
	}
}
