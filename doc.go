// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
saeval compares set autoencoder models on random point sets, drawing each
model's reconstruction of a set over the set itself.

Sets of possibly different sizes travel through every model as one flat
batch: a [N, dim] tensor of all points plus a parallel membership tensor
giving the set index of each point (package setbatch).  Models may return
a different number of points per set than they were given, so the
representative set is always selected from each batch's own membership.

The model parameters live in `etorch.Network`s, a minimal feed-forward
network of `etensor.Float32` layer and projection state, saved and loaded
in the emergent weights file format.

Packages:

  - setbatch: the flat batch codec (Encode, Select, Split).
  - sampgen: deterministic random point sets.
  - etorch: networks, forward computation and weights files.
  - sae: the Model interface and the sae, rnn, dspn, tspn and identity variants.
  - ckpt: best-effort checkpoint loading with a typed outcome.
  - trial: trial configuration, merged from emergent params.
  - vis: figures (gonum/plot) and point tables (etable).
  - track: experiment tracking (none, local directory, http).
  - driver: runs one trial.
  - sweep: runs the default list of trials.

See examples/randeval for the command.
*/
package saeval
