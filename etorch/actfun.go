// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etorch

import "math"

// ActFun computes a unit's activation from its net input.
type ActFun interface {
	Sigma(x float32) float32
}

type Identity struct{}

func (Identity) Sigma(x float32) float32 { return x }

type ReLU struct{}

func (ReLU) Sigma(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

type Tanh struct{}

func (Tanh) Sigma(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
