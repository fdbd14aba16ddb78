// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etorch

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emer/emergent/weights"
	"github.com/goki/gi/gi"
)

// ErrShape is wrapped by errors from SetWts when the decoded weights do not
// fit the structure of the network: missing or extra layers or projections,
// or different connection counts.
var ErrShape = errors.New("etorch: weights do not match network structure")

// ErrCorrupt is wrapped by errors from ReadWtsJSON when the input is not
// valid JSON.
var ErrCorrupt = errors.New("etorch: weights file is not valid JSON")

// Wts returns the weights of the whole network in the emergent weights
// file structure.
func (nt *Network) Wts() *weights.Network {
	nw := &weights.Network{Network: nt.Nm, MetaData: nt.MetaData}
	nw.Layers = make([]weights.Layer, len(nt.Layers))
	for li, ly := range nt.Layers {
		lw := weights.Layer{Layer: ly.Nm}
		for _, pj := range ly.RcvPrjns {
			lw.Prjns = append(lw.Prjns, pj.Wts())
		}
		nw.Layers[li] = lw
	}
	return nw
}

// WriteWtsJSON writes network weights to JSON-formatted output.
func (nt *Network) WriteWtsJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(nt.Wts())
}

// ReadWtsJSON reads network weights from JSON-formatted input.  Reads into a
// temporary weights.Network structure that is then passed to SetWts to
// actually set the weights.
func (nt *Network) ReadWtsJSON(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if !json.Valid(b) {
		return fmt.Errorf("%w: %d bytes", ErrCorrupt, len(b))
	}
	nw, err := weights.NetReadJSON(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if nw == nil {
		return fmt.Errorf("%w: no network in weights", ErrCorrupt)
	}
	return nt.SetWts(nw)
}

// SetWts sets the weights for this network from weights.Network decoded values.
// Every layer and projection of the weights must exist in the network and
// every projection of the network must be present in the weights, with
// the same connectivity.  The structure is checked completely before any
// weight is set, so on error the network is unchanged.
func (nt *Network) SetWts(nw *weights.Network) error {
	type pair struct {
		pj *Prjn
		pw *weights.Prjn
	}
	var pairs []pair
	seen := make(map[*Prjn]bool)
	for li := range nw.Layers {
		lw := &nw.Layers[li]
		ly := nt.LayerByName(lw.Layer)
		if ly == nil {
			return fmt.Errorf("%w: layer %q not in network %q", ErrShape, lw.Layer, nt.Nm)
		}
		for pi := range lw.Prjns {
			pw := &lw.Prjns[pi]
			pj := ly.RecvPrjnFrom(pw.From)
			if pj == nil {
				return fmt.Errorf("%w: no projection from %q to %q in network %q", ErrShape, pw.From, lw.Layer, nt.Nm)
			}
			if seen[pj] {
				return fmt.Errorf("%w: projection %v listed twice in weights", ErrShape, pj.String())
			}
			seen[pj] = true
			if err := pj.CheckWts(pw); err != nil {
				return err
			}
			pairs = append(pairs, pair{pj, pw})
		}
	}
	for _, ly := range nt.Layers {
		for _, pj := range ly.RcvPrjns {
			if !seen[pj] {
				return fmt.Errorf("%w: projection %v missing from weights", ErrShape, pj.String())
			}
		}
	}
	for _, p := range pairs {
		if err := p.pj.SetWts(p.pw); err != nil {
			return err
		}
	}
	for k, v := range nw.MetaData {
		nt.SetMetaData(k, v)
	}
	return nil
}

// SaveWtsJSON saves network weights to a JSON-formatted file.
// If filename has .gz extension, then file is gzip compressed.
func (nt *Network) SaveWtsJSON(filename gi.FileName) (err error) {
	fp, err := os.Create(string(filename))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fp.Close(); err == nil {
			err = cerr
		}
	}()
	ext := filepath.Ext(string(filename))
	if ext == ".gz" {
		gzr := gzip.NewWriter(fp)
		err = nt.WriteWtsJSON(gzr)
		if cerr := gzr.Close(); err == nil {
			err = cerr
		}
		return err
	}
	bw := bufio.NewWriter(fp)
	err = nt.WriteWtsJSON(bw)
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	return err
}

// OpenWtsJSON opens network weights from a JSON-formatted file.
// If filename has .gz extension, then file is gzip uncompressed.
func (nt *Network) OpenWtsJSON(filename gi.FileName) error {
	fp, err := os.Open(string(filename))
	if err != nil {
		return err
	}
	defer fp.Close()
	ext := filepath.Ext(string(filename))
	if ext == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			return err
		}
		defer gzr.Close()
		return nt.ReadWtsJSON(gzr)
	}
	return nt.ReadWtsJSON(bufio.NewReader(fp))
}
