// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etorch

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
)

// BiasName is the name of the single-unit layer that supplies the bias
// input to every layer connected to it with ConnectBias.
const BiasName = "Bias"

// etorch.Network holds the layers of the network
type Network struct {
	Nm              string            `desc:"overall name of network -- helps discriminate if there are multiple"`
	Layers          []*Layer          `desc:"list of layers"`
	LayMap          map[string]*Layer `view:"-" desc:"map of name to layers -- layer names must be unique"`
	MetaData        map[string]string `desc:"optional metadata that is saved in network weights files -- e.g., the variant and configuration the weights were trained with"`
	LayVarNamesMap  map[string]int    `view:"-" desc:"map of variable names accumulated across layers, with index into the LayVarNames list"`
	LayVarNames     []string          `view:"-" desc:"list of variable names accumulated across layers, alpha order"`
	PrjnVarNamesMap map[string]int    `view:"-" desc:"map of variable names accumulated across prjns, with index into the LayVarNames list"`
	PrjnVarNames    []string          `view:"-" desc:"list of variable names accumulated across prjns, alpha order"`
}

// InitName sets the name of the network.
func (nt *Network) InitName(name string) {
	nt.Nm = name
}

// SetMetaData sets a key / value that is saved in the weights file.
func (nt *Network) SetMetaData(key, val string) {
	if nt.MetaData == nil {
		nt.MetaData = make(map[string]string)
	}
	nt.MetaData[key] = val
}

// LayerByName returns a layer by looking it up by name in the layer map (nil if not found).
// Will create the layer map if it is nil or a different size than layers slice,
// but otherwise needs to be updated manually.
func (nt *Network) LayerByName(name string) *Layer {
	if nt.LayMap == nil || len(nt.LayMap) != len(nt.Layers) {
		nt.MakeLayMap()
	}
	ly := nt.LayMap[name]
	return ly
}

// MakeLayMap updates layer map based on current layers
func (nt *Network) MakeLayMap() {
	nt.LayMap = make(map[string]*Layer, len(nt.Layers))
	for _, ly := range nt.Layers {
		nt.LayMap[ly.Name()] = ly
	}
}

// AddLayerInit is implementation routine that takes a given layer and
// adds it to the network, and initializes and configures it properly.
func (nt *Network) AddLayerInit(ly *Layer, name string, shape []int, typ emer.LayerType) {
	ly.Nm = name
	ly.Network = nt
	ly.Config(shape, typ)
	nt.Layers = append(nt.Layers, ly)
	nt.MakeLayMap()
}

// AddLayer adds a new layer with given name, shape and activation function
// to the network.  A nil act means Identity.
func (nt *Network) AddLayer(name string, shape []int, typ emer.LayerType, act ActFun) *Layer {
	ly := &Layer{Act: act}
	nt.AddLayerInit(ly, name, shape, typ)
	return ly
}

// AddLayer1D adds a new vector layer of n units.
func (nt *Network) AddLayer1D(name string, n int, typ emer.LayerType, act ActFun) *Layer {
	return nt.AddLayer(name, []int{n}, typ, act)
}

// AddBias adds the single-unit Bias layer, whose activation is held at 1.
func (nt *Network) AddBias() *Layer {
	return nt.AddLayer1D(BiasName, 1, emer.Input, nil)
}

// ConnectBias connects the Bias layer to recv, adding it first if needed.
func (nt *Network) ConnectBias(recv *Layer) *Prjn {
	bias := nt.LayerByName(BiasName)
	if bias == nil {
		bias = nt.AddBias()
	}
	return nt.ConnectLayers(bias, recv, prjn.NewFull(), emer.Forward)
}

// ConnectLayers establishes a projection between two layers,
// adding to the recv and send projection lists on each side of the connection.
// Does not yet actually connect the units within the layers -- that
// requires Build.
func (nt *Network) ConnectLayers(send, recv *Layer, pat prjn.Pattern, typ emer.PrjnType) *Prjn {
	pj := &Prjn{}
	pj.Init()
	pj.Connect(send, recv, pat, typ)
	recv.RcvPrjns = append(recv.RcvPrjns, pj)
	send.SndPrjns = append(send.SndPrjns, pj)
	return pj
}

// Build constructs the layer and projection state based on the layer shapes
// and patterns of interconnectivity
func (nt *Network) Build() error {
	emsg := ""
	for li, ly := range nt.Layers {
		ly.Idx = li
		err := ly.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
	}
	nt.BuildVarNames()
	if emsg != "" {
		return errors.New(emsg)
	}
	if bias := nt.LayerByName(BiasName); bias != nil {
		bias.SetActs([]float64{1})
	}
	return nil
}

// InitWts initializes all projection weights from rnd.
func (nt *Network) InitWts(rnd *rand.Rand) {
	for _, ly := range nt.Layers {
		for _, pj := range ly.RcvPrjns {
			pj.InitWts(rnd)
		}
	}
}

// NParams returns the total number of synaptic weights in the network.
func (nt *Network) NParams() int {
	n := 0
	for _, ly := range nt.Layers {
		for _, pj := range ly.RcvPrjns {
			n += pj.Syn1DNum()
		}
	}
	return n
}

// VarRange returns the min / max values for given variable across the
// network: over all projections for a synaptic variable (e.g., "Wt"),
// else over all layers.
func (nt *Network) VarRange(varNm string) (min, max float32, err error) {
	first := true
	upd := func(lmin, lmax float32) {
		if first || lmin < min {
			min = lmin
		}
		if first || lmax > max {
			max = lmax
		}
		first = false
	}
	if _, syn := nt.PrjnVarNamesMap[varNm]; syn {
		for _, ly := range nt.Layers {
			for _, pj := range ly.RcvPrjns {
				pmin, pmax, ok, perr := pj.VarRange(varNm)
				if perr != nil {
					err = perr
					return
				}
				if ok {
					upd(pmin, pmax)
				}
			}
		}
		return
	}
	for _, ly := range nt.Layers {
		lmin, lmax, lerr := ly.VarRange(varNm)
		if lerr != nil {
			err = lerr
			return
		}
		upd(lmin, lmax)
	}
	return
}

// BuildVarNames makes the var names from states of network
func (nt *Network) BuildVarNames() {
	nt.LayVarNamesMap = make(map[string]int)
	nt.PrjnVarNamesMap = make(map[string]int)
	for _, ly := range nt.Layers {
		for nm := range ly.States {
			nt.LayVarNamesMap[nm] = 0
		}
		for _, pj := range ly.RcvPrjns {
			for nm := range pj.States {
				nt.PrjnVarNamesMap[nm] = 0
			}
		}
	}
	nt.LayVarNames = sortedNames(nt.LayVarNamesMap)
	nt.PrjnVarNames = sortedNames(nt.PrjnVarNamesMap)
}

// sortedNames returns the keys of mp in alpha order and sets each
// map value to the key's index in that order.
func sortedNames(mp map[string]int) []string {
	nms := make([]string, 0, len(mp))
	for nm := range mp {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	for i, nm := range nms {
		mp[nm] = i
	}
	return nms
}
