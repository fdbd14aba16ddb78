// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ckpt saves and restores model parameters as emergent weights
// files.  Restoring is best-effort: Load never fails, it reports what
// happened so the caller can carry on with the initial parameters.
package ckpt

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/emer/saeval/etorch"
	"github.com/emer/saeval/sae"
	"github.com/goki/gi/gi"
	"github.com/goki/ki/kit"
)

// Prefix starts every checkpoint and figure file name.
const Prefix = "sae_rand"

// Ext is the checkpoint file extension.
const Ext = ".wts"

// Status is the outcome of a Load.
type Status int32

//go:generate stringer -type=Status

var KiT_Status = kit.Enums.AddEnum(StatusN, kit.NotBitFlag, nil)

const (
	// Loaded means the parameters were restored.
	Loaded Status = iota

	// NotFound means there is no checkpoint at the path.  Expected for
	// variants that were never trained.
	NotFound

	// ShapeMismatch means the checkpoint exists but was saved from a model
	// of a different structure, e.g., another hidden size.
	ShapeMismatch

	// Corrupt means the checkpoint could not be read or decoded.
	Corrupt

	StatusN
)

// Result reports the outcome of a Load.
type Result struct {
	Path   string `desc:"checkpoint path"`
	Status Status `desc:"outcome"`
	Err    error  `desc:"underlying error, nil if Loaded"`
}

// OK reports whether the parameters were restored.
func (r Result) OK() bool {
	return r.Status == Loaded
}

func (r Result) String() string {
	if r.Err == nil {
		return fmt.Sprintf("%s: %v", r.Path, r.Status)
	}
	return fmt.Sprintf("%s: %v: %v", r.Path, r.Status, r.Err)
}

// Path returns the checkpoint path of a variant with given hidden size,
// <dir>/sae_rand-<name>-<hidden>.wts
func Path(dir, name string, hidden int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s-%d%s", Prefix, name, hidden, Ext))
}

// Load restores the parameters of m from path.  Any failure leaves m with
// the parameters it had, is logged, and is classified in the result.
func Load(m sae.Model, path string) Result {
	res := Result{Path: path}
	err := m.Net().OpenWtsJSON(gi.FileName(path))
	switch {
	case err == nil:
		res.Status = Loaded
		if mn, mx, rerr := m.Net().VarRange("Wt"); rerr == nil {
			log.Printf("%s: loaded, Wt range [%g, %g]\n", path, mn, mx)
		}
		return res
	case errors.Is(err, fs.ErrNotExist):
		res.Status = NotFound
	case errors.Is(err, etorch.ErrShape):
		res.Status = ShapeMismatch
	default:
		res.Status = Corrupt
	}
	res.Err = err
	log.Println(res.String())
	return res
}

// Save writes the parameters of m to path, creating its directory.
func Save(m sae.Model, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return m.Net().SaveWtsJSON(gi.FileName(path))
}
