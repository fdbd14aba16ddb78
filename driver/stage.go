// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"github.com/goki/ki/kit"
)

// Stage is a step of one evaluation run, in the order they are run.
type Stage int32

//go:generate stringer -type=Stage

var KiT_Stage = kit.Enums.AddEnum(StageN, kit.NotBitFlag, nil)

const (
	// Configure merges the trial defaults and overrides and validates them.
	Configure Stage = iota

	// ResolveDevice selects the compute device label.
	ResolveDevice

	// Instantiate builds the model, or accepts a prebuilt one.
	Instantiate

	// LoadCheckpoint restores saved weights, best effort.
	LoadCheckpoint

	// OpenTracking starts the tracking run, if the trial logs.
	OpenTracking

	// Generate makes the input sample batch.
	Generate

	// Infer runs the model in eval mode.
	Infer

	// Extract selects the representative input and output sets.
	Extract

	// Render draws the representative sets.
	Render

	// Save writes the figure.
	Save

	// Report logs the figure to the tracking run, if the trial logs.
	Report

	// CloseTracking finishes the tracking run, if the trial logs.
	CloseTracking

	StageN
)
