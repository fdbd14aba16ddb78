// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package track reports evaluation runs to an experiment tracking service.

A Tracker is used for one run: Init, any number of Log calls, then Finish.
Nop discards everything, Dir records runs under a local directory, and HTTP
posts them as JSON to a tracking server.
*/
package track

import (
	"errors"
	"fmt"
	"strings"
)

// ErrState is returned when Log or Finish is called on a run that was not
// initialized, or Init is called twice.
var ErrState = errors.New("track: run not in a valid state for this call")

// Run describes one tracked run.
type Run struct {
	Entity  string                 `json:"entity"`
	Project string                 `json:"project"`
	Group   string                 `json:"group"`
	Config  map[string]interface{} `json:"config"`
}

// Image is a rendered figure logged as a value.
type Image struct {
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// Tracker is a tracking service session for a single run.
type Tracker interface {
	// Init starts the run and returns its id.
	Init(run Run) (string, error)

	// Log records one step of values.  Values may be Image.
	Log(vals map[string]interface{}) error

	// Finish ends the run.
	Finish() error
}

// Nop is a Tracker that records nothing.
type Nop struct{}

func (Nop) Init(run Run) (string, error)          { return "", nil }
func (Nop) Log(vals map[string]interface{}) error { return nil }
func (Nop) Finish() error                         { return nil }

// Modes are the names accepted by Open.
var Modes = []string{"none", "dir", "http"}

// Open returns a new Tracker for mode: "none" (target ignored), "dir"
// (target is the root directory) or "http" (target is the server base URL).
func Open(mode, target string) (Tracker, error) {
	switch mode {
	case "", "none":
		return Nop{}, nil
	case "dir":
		if target == "" {
			return nil, fmt.Errorf("track: dir mode needs a root directory")
		}
		return NewDir(target), nil
	case "http":
		if target == "" {
			return nil, fmt.Errorf("track: http mode needs a server url")
		}
		return NewHTTP(target, nil), nil
	}
	return nil, fmt.Errorf("track: unknown mode %q, must be one of %s", mode, strings.Join(Modes, ", "))
}
