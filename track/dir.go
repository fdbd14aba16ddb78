// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package track

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// Dir records runs offline, each in <Root>/<project>/<group>/<id>, holding
// config.json, one log.jsonl line per Log call, and the logged images as
// <key>-<step>.<format>.
type Dir struct {
	Root string `desc:"root directory of all runs"`
	Path string `desc:"directory of the current run, set by Init"`
	ID   xid.ID `desc:"id of the current run"`
	Step int    `desc:"number of Log calls so far"`
	logf *os.File
}

// NewDir returns a Dir tracker recording under root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

func (dr *Dir) Init(run Run) (string, error) {
	if dr.logf != nil {
		return "", ErrState
	}
	dr.ID = xid.New()
	dr.Step = 0
	dr.Path = filepath.Join(dr.Root, run.Project, run.Group, dr.ID.String())
	if err := os.MkdirAll(dr.Path, 0755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", err
	}
	if err := ioutil.WriteFile(filepath.Join(dr.Path, "config.json"), b, 0644); err != nil {
		return "", err
	}
	dr.logf, err = os.Create(filepath.Join(dr.Path, "log.jsonl"))
	if err != nil {
		return "", err
	}
	return dr.ID.String(), nil
}

// Log writes images to their own files and records their file names in
// place of the image data.
func (dr *Dir) Log(vals map[string]interface{}) error {
	if dr.logf == nil {
		return ErrState
	}
	rec := make(map[string]interface{}, len(vals)+1)
	for k, v := range vals {
		switch im := v.(type) {
		case Image:
			fn := fmt.Sprintf("%s-%d.%s", k, dr.Step, im.Format)
			if err := ioutil.WriteFile(filepath.Join(dr.Path, fn), im.Data, 0644); err != nil {
				return err
			}
			rec[k] = fn
		default:
			rec[k] = v
		}
	}
	rec["_step"] = dr.Step
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := dr.logf.Write(append(b, '\n')); err != nil {
		return err
	}
	dr.Step++
	return nil
}

func (dr *Dir) Finish() error {
	if dr.logf == nil {
		return ErrState
	}
	err := dr.logf.Close()
	dr.logf = nil
	return err
}
