// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package driver runs one evaluation trial: it builds (or accepts) a model,
restores its checkpoint if one is present, feeds it a generated sample
batch, and renders the representative input set against the set the model
returned for the same index.

The stages always run in Stage order.  Checkpoint loading never fails the
run.  The tracking stages are skipped when the trial does not log.
*/
package driver

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/emer/emergent/params"
	"github.com/emer/etable/etensor"
	"github.com/emer/saeval/ckpt"
	"github.com/emer/saeval/sae"
	"github.com/emer/saeval/sampgen"
	"github.com/emer/saeval/setbatch"
	"github.com/emer/saeval/track"
	"github.com/emer/saeval/trial"
	"github.com/emer/saeval/vis"
)

// Project is the default tracking project.
const Project = "sae-rand-eval"

// Options are the run settings that do not vary per trial.
type Options struct {
	New     sae.New       `desc:"model constructor, used when Model is nil"`
	Model   sae.Model     `desc:"prebuilt model, used as is"`
	CkptDir string        `desc:"directory of checkpoint files"`
	PlotDir string        `desc:"directory figures are saved to"`
	FigExt  string        `desc:"figure file extension, selecting its format"`
	Table   bool          `desc:"also save the drawn points as a .tsv table next to the figure"`
	Index   int           `desc:"index of the representative set"`
	Tracker track.Tracker `desc:"tracking session, Nop if nil"`
	Entity  string        `desc:"tracking entity"`
	Project string        `desc:"tracking project"`
	Rand    *rand.Rand    `desc:"random source of the sample generator, re-seeded by each run"`
}

// Defaults sets the directories, extension and project to their defaults.
func (op *Options) Defaults() {
	op.CkptDir = "saved"
	op.PlotDir = "plots"
	op.FigExt = ".pdf"
	op.Project = Project
}

// Result records what a run did.
type Result struct {
	Trial     trial.Trial      `desc:"merged trial configuration"`
	Stage     Stage            `desc:"last stage run; the failing stage if the run returned an error"`
	Device    string           `desc:"compute device label"`
	Ckpt      ckpt.Result      `desc:"checkpoint load outcome"`
	RunID     string           `desc:"tracking run id"`
	Input     *setbatch.Batch  `desc:"generated sample batch"`
	Output    *setbatch.Batch  `desc:"model output batch"`
	InSet     *etensor.Float64 `desc:"representative input set"`
	OutSet    *etensor.Float64 `desc:"representative output set, possibly empty"`
	Figure    *vis.Figure      `desc:"rendered figure"`
	FigPath   string           `desc:"file the figure was saved to"`
	TablePath string           `desc:"file the point table was saved to, if any"`
}

// FigPath returns <dir>/sae_rand-<name>-<hidden>-<n><ext>.
func FigPath(dir, name string, hidden, n int, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s-%d-%d%s", ckpt.Prefix, name, hidden, n, ext))
}

// Eval merges the trial of the named variant from defaults and overrides,
// then runs it.
func Eval(name string, defaults params.Params, overrides []params.Params, opts Options) (*Result, error) {
	tr, err := trial.Merge(name, defaults, overrides...)
	if err != nil {
		return &Result{Trial: tr, Stage: Configure}, err
	}
	return Run(tr, opts)
}

// Run runs one trial through all stages.  Any error other than a failed
// checkpoint load ends the run, and is returned with the Result so far.
func Run(tr trial.Trial, opts Options) (*Result, error) {
	rs := &Result{Trial: tr, Stage: Configure}
	fail := func(err error) (*Result, error) {
		return rs, fmt.Errorf("driver: %s: %v: %w", tr.Nm, rs.Stage, err)
	}
	if err := tr.Validate(); err != nil {
		return fail(err)
	}

	rs.Stage = ResolveDevice
	rs.Device = Device()

	rs.Stage = Instantiate
	m := opts.Model
	if m == nil {
		if opts.New == nil {
			return fail(errors.New("no model or constructor given"))
		}
		var err error
		m, err = opts.New(tr.ModelConfig(), tr.Extra)
		if err != nil {
			return fail(err)
		}
	}

	rs.Stage = LoadCheckpoint
	rs.Ckpt = ckpt.Load(m, ckpt.Path(opts.CkptDir, tr.Nm, tr.HiddenDim))

	tracker := opts.Tracker
	if tracker == nil {
		tracker = track.Nop{}
	}
	if tr.Log {
		rs.Stage = OpenTracking
		id, err := tracker.Init(track.Run{
			Entity:  opts.Entity,
			Project: opts.Project,
			Group:   tr.Nm,
			Config:  tr.ConfigMap(),
		})
		if err != nil {
			return fail(err)
		}
		rs.RunID = id
	}
	res, err := run(rs, m, tracker, opts)
	if err != nil && tr.Log && rs.Stage < CloseTracking {
		if ferr := tracker.Finish(); ferr != nil {
			log.Println(ferr)
		}
	}
	return res, err
}

// run does the stages from Generate on.
func run(rs *Result, m sae.Model, tracker track.Tracker, opts Options) (*Result, error) {
	tr := &rs.Trial
	fail := func(err error) (*Result, error) {
		return rs, fmt.Errorf("driver: %s: %v: %w", tr.Nm, rs.Stage, err)
	}

	rs.Stage = Generate
	rs.Input = sampgen.Generate(opts.Rand, tr.NSets, tr.N, tr.Dim, tr.Seed)

	rs.Stage = Infer
	m.SetEval()
	out, err := m.Forward(rs.Input)
	if err != nil {
		return fail(err)
	}
	if err := out.Validate(); err != nil {
		return fail(err)
	}
	rs.Output = out

	rs.Stage = Extract
	if rs.InSet, err = selectSet(rs.Input, opts.Index, "input"); err != nil {
		return fail(err)
	}
	if rs.OutSet, err = selectSet(rs.Output, opts.Index, "output"); err != nil {
		return fail(err)
	}

	rs.Stage = Render
	rs.Figure = vis.New(fmt.Sprintf("%s hidden_dim=%d n=%d", tr.Nm, tr.HiddenDim, tr.N))
	rs.Figure.Show(rs.InSet, vis.Style{Alpha: 0.3, Dashed: true})
	rs.Figure.Show(rs.OutSet, vis.Style{})

	rs.Stage = Save
	rs.FigPath = FigPath(opts.PlotDir, tr.Nm, tr.HiddenDim, tr.N, opts.FigExt)
	if err := rs.Figure.Save(rs.FigPath); err != nil {
		return fail(err)
	}
	if opts.Table {
		rs.TablePath = strings.TrimSuffix(rs.FigPath, filepath.Ext(rs.FigPath)) + ".tsv"
		if err := rs.Figure.SaveTable(rs.TablePath); err != nil {
			return fail(err)
		}
	}
	log.Printf("%s: saved %s (device %s, checkpoint %v)\n", tr.Nm, rs.FigPath, rs.Device, rs.Ckpt.Status)

	if !tr.Log {
		return rs, nil
	}
	rs.Stage = Report
	var buf bytes.Buffer
	if err := rs.Figure.Encode(&buf, "png"); err != nil {
		return fail(err)
	}
	if err := tracker.Log(map[string]interface{}{"vis": track.Image{Format: "png", Data: buf.Bytes()}}); err != nil {
		return fail(err)
	}

	rs.Stage = CloseTracking
	if err := tracker.Finish(); err != nil {
		return fail(err)
	}
	return rs, nil
}

// selectSet returns set idx of b; an absent set is empty, not an error.
func selectSet(b *setbatch.Batch, idx int, which string) (*etensor.Float64, error) {
	st, err := setbatch.Select(b, idx)
	if errors.Is(err, setbatch.ErrNoSet) {
		log.Printf("%s set %d is empty\n", which, idx)
		return st, nil
	}
	return st, err
}

// DeviceEnv names the environment variable that overrides Device.
const DeviceEnv = "SAEVAL_DEVICE"

// Device returns the compute device label: DeviceEnv if set, "cuda:0" if
// an NVIDIA device is present, else "cpu".  Computation itself always runs
// on the CPU, so the label only shows in logs and results.
func Device() string {
	if dev := os.Getenv(DeviceEnv); dev != "" {
		return dev
	}
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return "cuda:0"
	}
	return "cpu"
}
