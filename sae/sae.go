// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package sae defines the Model interface shared by every set autoencoder
variant, and the variants themselves: the primary "sae" model and the
"rnn", "dspn" and "tspn" baselines, plus an "identity" reference model.

All variants take and return a flat setbatch.Batch.  The number of points a
variant emits for a set need not match the number it received, so callers
must always use the returned membership to recover sets.

Each variant's parameters live in an etorch.Network, so they can be saved to
and restored from emergent weights files.
*/
package sae

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/emer/etable/etensor"
	"github.com/emer/saeval/etorch"
	"github.com/emer/saeval/setbatch"
)

var (
	// ErrTooMany is returned by Forward when a set has more than MaxN points.
	ErrTooMany = errors.New("sae: set cardinality exceeds MaxN")

	// ErrDim is returned by Forward when points do not have Dim coordinates.
	ErrDim = errors.New("sae: point dimensionality does not match model")

	// ErrExtra is returned by constructors given an extra option they do not take.
	ErrExtra = errors.New("sae: unknown extra option")

	// ErrUnknown is returned by Lookup for an unregistered variant name.
	ErrUnknown = errors.New("sae: unknown variant")
)

// Config is the fixed configuration of a model instance, set at construction.
type Config struct {
	Dim       int `desc:"dimensionality of each point"`
	HiddenDim int `desc:"size of the set embedding and hidden layers"`
	MaxN      int `desc:"maximum number of points in a set"`
}

// Validate returns an error if any size is not positive.
func (cf Config) Validate() error {
	if cf.Dim <= 0 || cf.HiddenDim <= 0 || cf.MaxN <= 0 {
		return fmt.Errorf("sae: Dim, HiddenDim and MaxN must be positive: %+v", cf)
	}
	return nil
}

// Model is the call contract shared by all variants.
type Model interface {
	// Name returns the variant name.
	Name() string

	// Config returns the configuration the model was constructed with.
	Config() Config

	// Net returns the network holding the model parameters, for saving and
	// loading weights.
	Net() *etorch.Network

	// SetEval switches the model to inference-only mode.
	SetEval()

	// IsEval reports whether SetEval has been called.
	IsEval() bool

	// Forward reconstructs the sets of the batch.  The returned batch uses
	// the same set indexes as the input, but may hold a different number of
	// points for each.
	Forward(in *setbatch.Batch) (*setbatch.Batch, error)
}

// New constructs a model of one variant.  extra holds variant-specific
// options; unknown keys are an ErrExtra error.
type New func(cfg Config, extra map[string]string) (Model, error)

// Base holds the state common to the variants.
type Base struct {
	Nm      string          `desc:"variant name"`
	Cfg     Config          `desc:"construction-time configuration"`
	Network *etorch.Network `desc:"parameters"`
	Eval    bool            `desc:"inference-only mode"`
}

func (b *Base) Name() string         { return b.Nm }
func (b *Base) Config() Config       { return b.Cfg }
func (b *Base) Net() *etorch.Network { return b.Network }
func (b *Base) SetEval()             { b.Eval = true }
func (b *Base) IsEval() bool         { return b.Eval }

// InitBase sets the name and config and starts a new network.
func (b *Base) InitBase(name string, cfg Config) {
	b.Nm = name
	b.Cfg = cfg
	b.Network = &etorch.Network{}
	b.Network.InitName(name)
	b.Network.SetMetaData("variant", name)
	b.Network.SetMetaData("dim", strconv.Itoa(cfg.Dim))
	b.Network.SetMetaData("hidden_dim", strconv.Itoa(cfg.HiddenDim))
	b.Network.SetMetaData("max_n", strconv.Itoa(cfg.MaxN))
}

// BuildNet builds the network and draws initial weights from seed.
func (b *Base) BuildNet(seed int64) error {
	if err := b.Network.Build(); err != nil {
		return err
	}
	b.Network.InitWts(rand.New(rand.NewSource(seed)))
	return nil
}

// Sets checks the input batch against the config and splits it into sets.
func (b *Base) Sets(in *setbatch.Batch) ([]*etensor.Float64, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Len() > 0 && in.Dim() != b.Cfg.Dim {
		return nil, fmt.Errorf("%w: %s got dim %d, has %d", ErrDim, b.Nm, in.Dim(), b.Cfg.Dim)
	}
	for si, n := range in.Sizes() {
		if n > b.Cfg.MaxN {
			return nil, fmt.Errorf("%w: %s set %d has %d points, MaxN %d", ErrTooMany, b.Nm, si, n, b.Cfg.MaxN)
		}
	}
	return setbatch.Split(in), nil
}

// Extras wraps the extra constructor options.
type Extras map[string]string

// Check returns an ErrExtra error for any key not in allowed.
func (ex Extras) Check(name string, allowed ...string) error {
	for k := range ex {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: %s does not take %q", ErrExtra, name, k)
		}
	}
	return nil
}

// Int returns the integer option key, or def if not set.
func (ex Extras) Int(key string, def int) (int, error) {
	s, ok := ex[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("sae: option %q: %w", key, err)
	}
	return v, nil
}

// Float returns the float option key, or def if not set.
func (ex Extras) Float(key string, def float64) (float64, error) {
	s, ok := ex[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def, fmt.Errorf("sae: option %q: %w", key, err)
	}
	return v, nil
}

// InitSeedKey is the extra option, taken by every network variant, that
// seeds the initial weights.
const InitSeedKey = "init_seed"

// initSeed returns the initial-weights seed option, default 1.
func (ex Extras) initSeed() (int64, error) {
	s, err := ex.Int(InitSeedKey, 1)
	return int64(s), err
}
