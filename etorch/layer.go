// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etorch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emer/emergent/emer"
	"github.com/emer/etable/etensor"
)

// etorch.Layer manages the structural elements of the layer and its
// unit-level state
type Layer struct {
	Network     *Network                    `copy:"-" json:"-" xml:"-" view:"-" desc:"our parent network, in case we need to use it to find other layers etc -- set when added by network"`
	Nm          string                      `desc:"Name of the layer -- this must be unique within the network, which has a map for quick lookup and layers are typically accessed directly by name"`
	Off         bool                        `desc:"inactivate this layer -- its acts stay at zero and it sends nothing"`
	Shp         etensor.Shape               `desc:"shape of the layer -- 1D for vector layers, 2D for Y, X unit arrangements"`
	Typ         emer.LayerType              `desc:"type of layer -- Input layers are clamped with SetActs, Hidden and Target layers are computed by Forward"`
	Act         ActFun                      `view:"-" desc:"activation function applied to Net to get Act"`
	Idx         int                         `desc:"a 0..n-1 index of the position of the layer within list of layers in the network."`
	RcvPrjns    []*Prjn                     `desc:"list of receiving projections into this layer from other layers"`
	SndPrjns    []*Prjn                     `desc:"list of sending projections from this layer to other layers"`
	States      map[string]*etensor.Float32 `desc:"map of states of the layer (Net, Act) -- name is variable name, tensor holds the data"`
	VarNamesMap map[string]int              `view:"-" desc:"map of variable names with index into the VarNames list"`
	VarNames    []string                    `view:"-" desc:"list of variable names alpha order"`
}

func (ly *Layer) Name() string          { return ly.Nm }
func (ly *Layer) IsOff() bool           { return ly.Off }
func (ly *Layer) Shape() *etensor.Shape { return &ly.Shp }

// SetShape sets the layer shape and also uses default dim names
func (ly *Layer) SetShape(shape []int) {
	var dnms []string
	if len(shape) == 2 {
		dnms = emer.LayerDimNames2D
	}
	ly.Shp.SetShape(shape, nil, dnms) // row major default
}

// AddVar adds a variable to record in this layer.  Each variable is recorded in
// a separate etensor.Float32.
func (ly *Layer) AddVar(varNm string) {
	if ly.VarNamesMap == nil {
		ly.VarNamesMap = make(map[string]int)
	}
	ly.VarNamesMap[varNm] = 0
}

// AddVars adds variables to record in this layer.
func (ly *Layer) AddVars(varNms []string) {
	for _, nm := range varNms {
		ly.AddVar(nm)
	}
}

// AddNetActVars adds standard Net, Act variables
func (ly *Layer) AddNetActVars() {
	ly.AddVars([]string{"Net", "Act"})
}

// Config configures the basic properties of the layer
func (ly *Layer) Config(shape []int, typ emer.LayerType) {
	ly.SetShape(shape)
	ly.Typ = typ
	if ly.Act == nil {
		ly.Act = Identity{}
	}
	ly.AddNetActVars() // default
}

// BuildVarNames makes the var names from VarNamesMap added previously
func (ly *Layer) BuildVarNames() {
	ly.VarNames = make([]string, len(ly.VarNamesMap))
	i := 0
	for nm := range ly.VarNamesMap {
		ly.VarNames[i] = nm
		i++
	}
	sort.Strings(ly.VarNames)
	for i := range ly.VarNames {
		ly.VarNamesMap[ly.VarNames[i]] = i
	}
}

// UnitVarIdx returns the index of given variable within the unit state,
// according to *this layer's* UnitVarNames() list (using a map to lookup index),
// or -1 and error message if not found.
func (ly *Layer) UnitVarIdx(varNm string) (int, error) {
	vi, ok := ly.VarNamesMap[varNm]
	if !ok {
		return -1, fmt.Errorf("variable name not found: %s in layer: %s", varNm, ly.Nm)
	}
	return vi, nil
}

// Acts returns the activation values of the layer (not a copy).
func (ly *Layer) Acts() []float32 {
	return ly.States["Act"].Values
}

// SetActs clamps the activations of the layer to given values, converting
// from float64.  Extra values are ignored and missing ones are zeroed.
func (ly *Layer) SetActs(vals []float64) {
	act := ly.States["Act"].Values
	for i := range act {
		if i < len(vals) {
			act[i] = float32(vals[i])
		} else {
			act[i] = 0
		}
	}
}

// SetActs32 is SetActs for float32 values.
func (ly *Layer) SetActs32(vals []float32) {
	act := ly.States["Act"].Values
	n := copy(act, vals)
	for i := n; i < len(act); i++ {
		act[i] = 0
	}
}

// SetOneHot clamps the activations to a one-hot code for unit idx.
// An idx outside the layer leaves all units at zero.
func (ly *Layer) SetOneHot(idx int) {
	act := ly.States["Act"].Values
	for i := range act {
		act[i] = 0
	}
	if idx >= 0 && idx < len(act) {
		act[idx] = 1
	}
}

// ActsFloat64 appends the activations of the layer as float64 to dst.
func (ly *Layer) ActsFloat64(dst []float64) []float64 {
	for _, a := range ly.Acts() {
		dst = append(dst, float64(a))
	}
	return dst
}

// Forward computes Net as the sum over receiving projections of weighted
// sending activations, and Act from Net via the activation function.
// Layers that are off are left at zero.
func (ly *Layer) Forward() {
	net := ly.States["Net"].Values
	act := ly.States["Act"].Values
	for i := range net {
		net[i] = 0
	}
	if ly.Off {
		for i := range act {
			act[i] = 0
		}
		return
	}
	for _, pj := range ly.RcvPrjns {
		if pj.IsOff() {
			continue
		}
		pj.SendNet(net)
	}
	for i, nv := range net {
		act[i] = ly.Act.Sigma(nv)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Build

// BuildPrjns builds the projections, recv-side
func (ly *Layer) BuildPrjns() error {
	emsg := ""
	for _, pj := range ly.RcvPrjns {
		err := pj.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
	}
	if emsg != "" {
		return errors.New(emsg)
	}
	return nil
}

// Build constructs the layer state, including calling Build on the projections
func (ly *Layer) Build() error {
	nu := ly.Shp.Len()
	if nu == 0 {
		return fmt.Errorf("Build Layer %v: no units specified in Shape", ly.Nm)
	}
	ly.BuildVarNames()
	ly.States = make(map[string]*etensor.Float32, len(ly.VarNamesMap))
	for vn := range ly.VarNamesMap {
		st := etensor.NewFloat32Shape(&ly.Shp, nil)
		ly.States[vn] = st
	}
	err := ly.BuildPrjns()
	return err
}

// VarRange returns the min / max values for given variable
func (ly *Layer) VarRange(varNm string) (min, max float32, err error) {
	sz := ly.Shp.Len()
	if sz == 0 {
		return
	}
	_, err = ly.UnitVarIdx(varNm)
	if err != nil {
		return
	}
	st := ly.States[varNm]
	v0 := st.Value1D(0)
	min = v0
	max = v0
	for i := 1; i < sz; i++ {
		vl := st.Value1D(i)
		if vl < min {
			min = vl
		}
		if vl > max {
			max = vl
		}
	}
	return
}

// RecvPrjnFrom returns the receiving projection from the sending layer of
// given name, or nil if none.
func (ly *Layer) RecvPrjnFrom(send string) *Prjn {
	for _, pj := range ly.RcvPrjns {
		if pj.Send.Nm == send {
			return pj
		}
	}
	return nil
}
