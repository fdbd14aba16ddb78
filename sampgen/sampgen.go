// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sampgen generates reproducible batches of random point sets.
package sampgen

import (
	"math/rand"

	"github.com/emer/etable/etensor"
	"github.com/emer/saeval/setbatch"
)

// Generate returns numSets independent sets of card points each, every
// coordinate drawn from a standard normal distribution, encoded as one flat
// batch.  rnd is re-seeded with seed exactly once before drawing, so
// repeated calls with the same arguments give identical batches regardless
// of how rnd was used before.  A nil rnd uses a fresh source.
func Generate(rnd *rand.Rand, numSets, card, dim int, seed int64) *setbatch.Batch {
	sizes := make([]int, numSets)
	for i := range sizes {
		sizes[i] = card
	}
	return GenerateSizes(rnd, sizes, dim, seed)
}

// GenerateSizes is Generate with a separate cardinality for each set.
func GenerateSizes(rnd *rand.Rand, sizes []int, dim int, seed int64) *setbatch.Batch {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(seed))
	} else {
		rnd.Seed(seed)
	}
	sets := make([]*etensor.Float64, len(sizes))
	for si, n := range sizes {
		st := setbatch.NewSet(n, dim)
		for i := range st.Values {
			st.Values[i] = rnd.NormFloat64()
		}
		sets[si] = st
	}
	return setbatch.Encode(sets)
}
