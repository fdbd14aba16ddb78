// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/emer/emergent/params"
	"github.com/emer/etable/etensor"
	"github.com/emer/saeval/ckpt"
	"github.com/emer/saeval/sae"
	"github.com/emer/saeval/setbatch"
	"github.com/emer/saeval/track"
	"github.com/emer/saeval/trial"
	"github.com/emer/saeval/vis"
)

func testOpts(t *testing.T, nw sae.New) Options {
	dir := t.TempDir()
	opts := Options{}
	opts.Defaults()
	opts.New = nw
	opts.CkptDir = filepath.Join(dir, "saved")
	opts.PlotDir = filepath.Join(dir, "plots")
	opts.FigExt = ".png"
	return opts
}

func testTrial(name string) trial.Trial {
	tr := trial.Defaults()
	tr.Nm = name
	tr.Log = false
	return tr
}

func sameSet(t *testing.T, a, b *etensor.Float64) {
	t.Helper()
	if a.Len() != b.Len() {
		t.Fatalf("set sizes %d and %d differ", a.Len(), b.Len())
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("value %d: %v != %v", i, a.Values[i], b.Values[i])
		}
	}
}

func TestIdentity(t *testing.T) {
	opts := testOpts(t, sae.NewIdentity)
	opts.Table = true
	rs, err := Run(testTrial("identity"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Stage != Save {
		t.Errorf("Stage = %v, want Save", rs.Stage)
	}
	sameSet(t, rs.InSet, rs.OutSet)
	dt := rs.Figure.Table()
	if dt.Rows != 32 {
		t.Fatalf("table rows = %d, want 32", dt.Rows)
	}
	for i := 0; i < 16; i++ {
		for d := 0; d < 6; d++ {
			col := vis.ColName(d)
			if dt.CellFloat(col, i) != dt.CellFloat(col, i+16) {
				t.Fatalf("point %d coord %d differs between input and output", i, d)
			}
		}
	}
	if rs.FigPath != filepath.Join(opts.PlotDir, "sae_rand-identity-96-16.png") {
		t.Errorf("FigPath = %s", rs.FigPath)
	}
	for _, fn := range []string{rs.FigPath, rs.TablePath} {
		if _, err := os.Stat(fn); err != nil {
			t.Error(err)
		}
	}
}

func TestMissingCheckpoint(t *testing.T) {
	opts := testOpts(t, sae.NewAutoEncoder)
	tr := testTrial("sae")
	tr.N = 8
	rs, err := Run(tr, opts)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Ckpt.Status != ckpt.NotFound {
		t.Errorf("checkpoint status = %v, want NotFound", rs.Ckpt.Status)
	}
	if rs.Stage < Render {
		t.Errorf("Stage = %v, did not reach Render", rs.Stage)
	}
	if rs.OutSet.Dim(0) != 8 || rs.OutSet.Dim(1) != 6 {
		t.Errorf("output set shape %v", rs.OutSet.Shapes())
	}
}

func TestCheckpointLoaded(t *testing.T) {
	opts := testOpts(t, sae.NewTSPN)
	tr := testTrial("tspn")
	m, err := sae.NewTSPN(tr.ModelConfig(), map[string]string{sae.InitSeedKey: "7"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ckpt.Save(m, ckpt.Path(opts.CkptDir, "tspn", tr.HiddenDim)); err != nil {
		t.Fatal(err)
	}
	rs, err := Run(tr, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !rs.Ckpt.OK() {
		t.Fatalf("checkpoint: %v", rs.Ckpt)
	}
	want, _ := m.Forward(rs.Input)
	ws, _ := setbatch.Select(want, 0)
	sameSet(t, ws, rs.OutSet)
}

// dropFirst is a model that loses set 0.
type dropFirst struct {
	sae.Model
}

func (df dropFirst) Forward(in *setbatch.Batch) (*setbatch.Batch, error) {
	sets := setbatch.Split(in)
	sets[0] = setbatch.NewSet(0, in.Dim())
	return setbatch.Encode(sets), nil
}

func TestAbsentOutputSet(t *testing.T) {
	tr := testTrial("drop")
	id, _ := sae.NewIdentity(tr.ModelConfig(), nil)
	opts := testOpts(t, nil)
	opts.Model = dropFirst{id}
	rs, err := Run(tr, opts)
	if err != nil {
		t.Fatal(err)
	}
	if rs.OutSet.Len() != 0 {
		t.Errorf("output set has %d values, want none", rs.OutSet.Len())
	}
	if rs.InSet.Dim(0) != 16 {
		t.Errorf("input set has %d points", rs.InSet.Dim(0))
	}
	if _, err := os.Stat(rs.FigPath); err != nil {
		t.Error(err)
	}
}

func TestEndToEndTracked(t *testing.T) {
	opts := testOpts(t, sae.NewIdentity)
	root := t.TempDir()
	dr := track.NewDir(root)
	opts.Tracker = dr
	tr, err := trial.Merge("identity", params.Params{"Trial.Log": "true"})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := Run(tr, opts)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Stage != CloseTracking {
		t.Errorf("Stage = %v, want CloseTracking", rs.Stage)
	}
	if rs.Input.NSets() != 64 || rs.Input.Len() != 64*16 || rs.Input.Dim() != 6 {
		t.Errorf("input batch: %d sets, %d points, dim %d", rs.Input.NSets(), rs.Input.Len(), rs.Input.Dim())
	}
	sameSet(t, rs.InSet, rs.OutSet)
	run := filepath.Join(root, Project, "identity", rs.RunID)
	for _, fn := range []string{"config.json", "log.jsonl", "vis-0.png"} {
		if _, err := os.Stat(filepath.Join(run, fn)); err != nil {
			t.Error(err)
		}
	}
}

func TestErrors(t *testing.T) {
	opts := testOpts(t, nil)
	rs, err := Run(testTrial("none"), opts)
	if err == nil || rs.Stage != Instantiate {
		t.Errorf("no constructor: stage %v, err %v", rs.Stage, err)
	}

	opts.New = sae.NewAutoEncoder
	tr := testTrial("sae")
	tr.N = 20
	rs, err = Run(tr, opts)
	if !errors.Is(err, sae.ErrTooMany) || rs.Stage != Infer {
		t.Errorf("too many points: stage %v, err %v", rs.Stage, err)
	}

	rs, err = Eval("sae", params.Params{"Trial.HiddenDim": "0"}, nil, opts)
	if err == nil || rs.Stage != Configure {
		t.Errorf("bad config: stage %v, err %v", rs.Stage, err)
	}
}

func TestStageString(t *testing.T) {
	if LoadCheckpoint.String() != "LoadCheckpoint" || CloseTracking.String() != "CloseTracking" {
		t.Error("Stage String")
	}
	var st Stage
	if err := st.FromString("Render"); err != nil || st != Render {
		t.Errorf("FromString: %v, %v", st, err)
	}
}

func TestFigPath(t *testing.T) {
	if got := FigPath("plots", "sae", 96, 8, "pdf"); got != filepath.Join("plots", "sae_rand-sae-96-8.pdf") {
		t.Errorf("FigPath = %s", got)
	}
}
