// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package setbatch

import (
	"errors"
	"fmt"

	"github.com/emer/etable/etensor"
)

// ErrNoSet is returned by Select when the requested set index never
// appears in the membership index.
var ErrNoSet = errors.New("setbatch: set index not present in membership")

// Batch is the flat transport form of a collection of point sets:
// all points concatenated row-wise in Vals, with Membership[k] holding
// the index of the set that row k belongs to.
type Batch struct {
	Vals       *etensor.Float64 `desc:"points, shape [N, Dim] -- one row per point"`
	Membership *etensor.Int     `desc:"set index for each row of Vals, shape [N]"`
}

// PointDimNames are the dimension names used for Vals and for point sets.
var PointDimNames = []string{"Point", "Dim"}

// NewSet returns an empty point set of given cardinality and dimensionality.
func NewSet(n, dim int) *etensor.Float64 {
	return etensor.NewFloat64([]int{n, dim}, nil, PointDimNames)
}

// New returns a batch with room for n points of dimensionality dim.
// All membership entries are zero.
func New(n, dim int) *Batch {
	return &Batch{
		Vals:       NewSet(n, dim),
		Membership: etensor.NewInt([]int{n}, nil, []string{"Point"}),
	}
}

// Len returns the total number of points in the batch.
func (b *Batch) Len() int {
	return len(b.Membership.Values)
}

// Dim returns the dimensionality of the points.
func (b *Batch) Dim() int {
	if b.Vals.NumDims() < 2 {
		return 0
	}
	return b.Vals.Dim(1)
}

// Point returns the k'th point as a slice into Vals (not a copy).
func (b *Batch) Point(k int) []float64 {
	dim := b.Dim()
	return b.Vals.Values[k*dim : (k+1)*dim]
}

// NSets returns one more than the largest set index in the batch,
// which is the number of sets for batches built by Encode.
func (b *Batch) NSets() int {
	ns := 0
	for _, si := range b.Membership.Values {
		if si+1 > ns {
			ns = si + 1
		}
	}
	return ns
}

// Sizes returns the cardinality of each set index 0..NSets()-1,
// i.e., n_i = count(membership == i).
func (b *Batch) Sizes() []int {
	sz := make([]int, b.NSets())
	for _, si := range b.Membership.Values {
		sz[si]++
	}
	return sz
}

// Validate checks that values and membership agree in length and that
// no set index is negative.
func (b *Batch) Validate() error {
	if b.Vals == nil || b.Membership == nil {
		return fmt.Errorf("setbatch: Vals or Membership is nil")
	}
	dim := b.Dim()
	if dim == 0 && b.Vals.Len() > 0 {
		return fmt.Errorf("setbatch: Vals must be 2D [N, Dim], has shape %v", b.Vals.Shp)
	}
	n := b.Len()
	if b.Vals.Len() != n*dim {
		return fmt.Errorf("setbatch: %d membership entries for %d values of dim %d", n, b.Vals.Len(), dim)
	}
	for k, si := range b.Membership.Values {
		if si < 0 {
			return fmt.Errorf("setbatch: negative set index %d at point %d", si, k)
		}
	}
	return nil
}

// Encode concatenates the given point sets, in order, into one flat batch.
// Each set is a [n, dim] tensor and n may be 0.  The membership entry of
// each point is the index of its set within sets.  Empty input yields an
// empty batch.
func Encode(sets []*etensor.Float64) *Batch {
	dim := 0
	tot := 0
	for _, st := range sets {
		if st.NumDims() == 2 && dim == 0 {
			dim = st.Dim(1)
		}
		tot += setLen(st)
	}
	b := New(tot, dim)
	k := 0
	for si, st := range sets {
		n := setLen(st)
		copy(b.Vals.Values[k*dim:(k+n)*dim], st.Values)
		for i := 0; i < n; i++ {
			b.Membership.Values[k+i] = si
		}
		k += n
	}
	return b
}

func setLen(st *etensor.Float64) int {
	if st.NumDims() < 2 {
		return 0
	}
	return st.Dim(0)
}

// Select returns the points whose membership equals idx, preserving their
// relative order, as a new [n, dim] set.  If idx never appears in the
// membership index, the returned set is empty and err is ErrNoSet: a model
// may legitimately emit no points for a set, so callers that only render
// or inspect should treat that as an empty set.
func Select(b *Batch, idx int) (*etensor.Float64, error) {
	dim := b.Dim()
	n := 0
	for _, si := range b.Membership.Values {
		if si == idx {
			n++
		}
	}
	st := NewSet(n, dim)
	if n == 0 {
		return st, fmt.Errorf("%w: %d", ErrNoSet, idx)
	}
	i := 0
	for k, si := range b.Membership.Values {
		if si != idx {
			continue
		}
		copy(st.Values[i*dim:(i+1)*dim], b.Point(k))
		i++
	}
	return st, nil
}

// Split returns every set 0..NSets()-1 of the batch, in set-index order,
// including empty sets for indexes with no points.  Membership need not
// be sorted.
func Split(b *Batch) []*etensor.Float64 {
	dim := b.Dim()
	sz := b.Sizes()
	sets := make([]*etensor.Float64, len(sz))
	for si, n := range sz {
		sets[si] = NewSet(n, dim)
	}
	fill := make([]int, len(sz))
	for k, si := range b.Membership.Values {
		i := fill[si]
		copy(sets[si].Values[i*dim:(i+1)*dim], b.Point(k))
		fill[si]++
	}
	return sets
}
