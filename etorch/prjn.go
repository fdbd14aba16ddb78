// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etorch

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"github.com/emer/emergent/emer"
	"github.com/emer/emergent/prjn"
	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"github.com/goki/mat32"
)

// Prjn contains the basic structural information for specifying a projection of synaptic
// connections between two layers, and maintaining all the synaptic connection-level data.
// The exact same struct object is added to the Recv and Send layers, and it manages everything
// about the connectivity, and methods on the Prjn handle all the relevant computation.
type Prjn struct {
	Off         bool                        `desc:"inactivate this projection -- allows for easy experimentation"`
	Send        *Layer                      `desc:"sending layer for this projection"`
	Recv        *Layer                      `desc:"receiving layer for this projection"`
	Pat         prjn.Pattern                `desc:"pattern of connectivity"`
	Typ         emer.PrjnType               `desc:"type of projection -- Forward, Back, Lateral"`
	RConN       []int32                     `view:"-" desc:"number of recv connections for each neuron in the receiving layer, as a flat list"`
	RConNAvgMax minmax.AvgMax32             `inactive:"+" desc:"average and maximum number of recv connections in the receiving layer"`
	RConIdxSt   []int32                     `view:"-" desc:"starting index into ConIdx list for each neuron in receiving layer -- just a list incremented by ConN"`
	RConIdx     []int32                     `view:"-" desc:"index of other neuron on sending side of projection, ordered by the receiving layer's order of units as the outer loop (each start is in ConIdxSt), and then by the sending layer's units within that"`
	SConN       []int32                     `view:"-" desc:"number of sending connections for each neuron in the sending layer, as a flat list"`
	SConNAvgMax minmax.AvgMax32             `inactive:"+" desc:"average and maximum number of sending connections in the sending layer"`
	SConIdxSt   []int32                     `view:"-" desc:"starting index into ConIdx list for each neuron in sending layer -- just a list incremented by ConN"`
	States      map[string]*etensor.Float32 `desc:"map of states of the projection (Wt) -- name is variable name, tensor holds the data, in recv-ordered synapse order"`
	VarNamesMap map[string]int              `view:"-" desc:"map of variable names with index into the VarNames list"`
	VarNames    []string                    `view:"-" desc:"list of variable names alpha order"`
}

// Init adds the standard synaptic variables
func (pj *Prjn) Init() {
	pj.AddVar("Wt")
}

func (pj *Prjn) Name() string {
	return pj.Send.Name() + "To" + pj.Recv.Name()
}

func (pj *Prjn) IsOff() bool {
	return pj.Off || pj.Recv.IsOff() || pj.Send.IsOff()
}

// Connect sets the connectivity between two layers and the pattern to use in interconnecting them
func (pj *Prjn) Connect(slay, rlay *Layer, pat prjn.Pattern, typ emer.PrjnType) {
	pj.Send = slay
	pj.Recv = rlay
	pj.Pat = pat
	pj.Typ = typ
}

// Validate tests for non-nil settings for the projection -- returns error
// message or nil if no problems (and logs them if logmsg = true)
func (pj *Prjn) Validate(logmsg bool) error {
	emsg := ""
	if pj.Pat == nil {
		emsg += "Pat is nil; "
	}
	if pj.Recv == nil {
		emsg += "Recv is nil; "
	}
	if pj.Send == nil {
		emsg += "Send is nil; "
	}
	if emsg != "" {
		err := errors.New(emsg)
		if logmsg {
			log.Println(emsg)
		}
		return err
	}
	return nil
}

// AddVar adds a synaptic variable, recorded in a separate etensor.Float32
func (pj *Prjn) AddVar(varNm string) {
	if pj.VarNamesMap == nil {
		pj.VarNamesMap = make(map[string]int)
	}
	pj.VarNamesMap[varNm] = 0
}

// BuildStru constructs the full connectivity among the layers as specified in this projection.
// Calls Validate and returns false if invalid.
// Pat.Connect is called to get the pattern of the connection.
// Then the connection indexes are configured according to that pattern.
func (pj *Prjn) BuildStru() error {
	err := pj.Validate(true)
	if err != nil {
		return err
	}
	ssh := pj.Send.Shape()
	rsh := pj.Recv.Shape()
	sendn, recvn, cons := pj.Pat.Connect(ssh, rsh, pj.Recv == pj.Send)
	slen := ssh.Len()
	rlen := rsh.Len()
	tcons := pj.SetNIdxSt(&pj.SConN, &pj.SConNAvgMax, &pj.SConIdxSt, sendn)
	tconr := pj.SetNIdxSt(&pj.RConN, &pj.RConNAvgMax, &pj.RConIdxSt, recvn)
	if tconr != tcons {
		log.Printf("%v programmer error: total recv cons %v != total send cons %v\n", pj.String(), tconr, tcons)
	}
	pj.RConIdx = make([]int32, tconr)

	cbits := cons.Values
	for ri := 0; ri < rlen; ri++ {
		rbi := ri * slen     // recv bit index
		rtcn := pj.RConN[ri] // number of cons
		rst := pj.RConIdxSt[ri]
		rci := int32(0)
		for si := 0; si < slen; si++ {
			if !cbits.Index(rbi + si) { // no connection
				continue
			}
			if rci >= rtcn {
				log.Printf("%v programmer error: recv target total con number: %v exceeded at recv idx: %v, send idx: %v\n", pj.String(), rtcn, ri, si)
				break
			}
			pj.RConIdx[rst+rci] = int32(si)
			rci++
		}
	}
	return nil
}

// SetNIdxSt sets the *ConN and *ConIdxSt values given n tensor from Pat.
// Returns total number of connections for this direction.
func (pj *Prjn) SetNIdxSt(n *[]int32, avgmax *minmax.AvgMax32, idxst *[]int32, tn *etensor.Int32) int32 {
	ln := tn.Len()
	tnv := tn.Values
	*n = make([]int32, ln)
	*idxst = make([]int32, ln)
	idx := int32(0)
	avgmax.Init()
	for i := 0; i < ln; i++ {
		nv := tnv[i]
		(*n)[i] = nv
		(*idxst)[i] = idx
		idx += nv
		avgmax.UpdateVal(float32(nv), i)
	}
	avgmax.CalcAvg()
	return idx
}

// String satisfies fmt.Stringer for prjn
func (pj *Prjn) String() string {
	str := ""
	if pj.Recv == nil {
		str += "recv=nil; "
	} else {
		str += pj.Recv.Name() + " <- "
	}
	if pj.Send == nil {
		str += "send=nil"
	} else {
		str += pj.Send.Name()
	}
	if pj.Pat == nil {
		str += " Pat=nil"
	} else {
		str += " Pat=" + pj.Pat.Name()
	}
	return str
}

// BuildVarNames makes the var names from VarNamesMap added previously
func (pj *Prjn) BuildVarNames() {
	pj.VarNames = make([]string, len(pj.VarNamesMap))
	i := 0
	for nm := range pj.VarNamesMap {
		pj.VarNames[i] = nm
		i++
	}
	sort.Strings(pj.VarNames)
	for i := range pj.VarNames {
		pj.VarNamesMap[pj.VarNames[i]] = i
	}
}

// SynIdx returns the index of the synapse between given send, recv unit indexes
// (1D, flat indexes). Returns -1 if synapse not found between these two neurons.
func (pj *Prjn) SynIdx(sidx, ridx int) int {
	if ridx < 0 || ridx >= len(pj.RConN) {
		return -1
	}
	nc := int(pj.RConN[ridx])
	st := int(pj.RConIdxSt[ridx])
	for ci := 0; ci < nc; ci++ {
		si := int(pj.RConIdx[st+ci])
		if si != sidx {
			continue
		}
		return int(st + ci)
	}
	return -1
}

// SynVarIdx returns the index of given variable within the synapse,
// according to *this prjn's* SynVarNames() list (using a map to lookup index),
// or -1 and error message if not found.
func (pj *Prjn) SynVarIdx(varNm string) (int, error) {
	vi, ok := pj.VarNamesMap[varNm]
	if !ok {
		return -1, fmt.Errorf("variable name not found: %s in Prjn: %s", varNm, pj.Name())
	}
	return vi, nil
}

// Syn1DNum returns the number of synapses for this prjn as a 1D array.
func (pj *Prjn) Syn1DNum() int {
	return len(pj.RConIdx)
}

// VarRange returns the min / max values for given synaptic variable.
// ok is false if the projection has no synapses.
func (pj *Prjn) VarRange(varNm string) (min, max float32, ok bool, err error) {
	if _, err = pj.SynVarIdx(varNm); err != nil {
		return
	}
	vals := pj.States[varNm].Values
	if len(vals) == 0 {
		return
	}
	min, max, ok = vals[0], vals[0], true
	for _, vl := range vals[1:] {
		if vl < min {
			min = vl
		}
		if vl > max {
			max = vl
		}
	}
	return
}

// SetSynVal sets value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes)
// returns error for access errors.
func (pj *Prjn) SetSynVal(varNm string, sidx, ridx int, val float32) error {
	_, err := pj.SynVarIdx(varNm)
	if err != nil {
		return err
	}
	st := pj.States[varNm]
	synIdx := pj.SynIdx(sidx, ridx)
	if synIdx < 0 {
		return fmt.Errorf("no synapse from %d to %d in Prjn: %s", sidx, ridx, pj.Name())
	}
	st.Values[synIdx] = val
	return nil
}

// Build constructs the full connectivity among the layers as specified in this projection.
// Calls BuildStru and then allocates the synaptic values in States accordingly.
func (pj *Prjn) Build() error {
	if err := pj.BuildStru(); err != nil {
		return err
	}
	pj.BuildVarNames()
	pj.States = make(map[string]*etensor.Float32, len(pj.VarNamesMap))
	ncons := len(pj.RConIdx)
	for vn := range pj.VarNamesMap {
		st := etensor.NewFloat32([]int{ncons}, nil, nil)
		pj.States[vn] = st
	}
	return nil
}

// InitWts draws each weight uniformly from +/- 1/sqrt(fan-in) of its
// receiving unit, using rnd.
func (pj *Prjn) InitWts(rnd *rand.Rand) {
	wt := pj.States["Wt"].Values
	for ri, nc := range pj.RConN {
		if nc == 0 {
			continue
		}
		sc := 1 / mat32.Sqrt(float32(nc))
		st := pj.RConIdxSt[ri]
		for ci := int32(0); ci < nc; ci++ {
			wt[st+ci] = sc * (2*rnd.Float32() - 1)
		}
	}
}

// SendNet adds the weighted sending activations into net, which holds
// one value per receiving unit.
func (pj *Prjn) SendNet(net []float32) {
	sact := pj.Send.Acts()
	wt := pj.States["Wt"].Values
	for ri := range net {
		st := pj.RConIdxSt[ri]
		nc := pj.RConN[ri]
		sum := float32(0)
		for ci := st; ci < st+nc; ci++ {
			sum += wt[ci] * sact[pj.RConIdx[ci]]
		}
		net[ri] += sum
	}
}

///////////////////////////////////////////////////////////////////////
//  Weights File

// Wts returns the weights of this projection from the receiver-side
// perspective, in the emergent weights file structure.
func (pj *Prjn) Wts() weights.Prjn {
	wt := pj.States["Wt"].Values
	pw := weights.Prjn{From: pj.Send.Name()}
	pw.Rs = make([]weights.Recv, len(pj.RConN))
	for ri, nc := range pj.RConN {
		st := pj.RConIdxSt[ri]
		rw := weights.Recv{Ri: ri, N: int(nc)}
		rw.Si = make([]int, nc)
		rw.Wt = make([]float32, nc)
		for ci := int32(0); ci < nc; ci++ {
			rw.Si[ci] = int(pj.RConIdx[st+ci])
			rw.Wt[ci] = wt[st+ci]
		}
		pw.Rs[ri] = rw
	}
	return pw
}

// CheckWts returns an ErrShape error if the decoded weights do not match
// the connectivity of this projection exactly.
func (pj *Prjn) CheckWts(pw *weights.Prjn) error {
	rlen := len(pj.RConN)
	if len(pw.Rs) != rlen {
		return fmt.Errorf("%w: prjn %v: %d receiving units in weights, %d in network", ErrShape, pj.String(), len(pw.Rs), rlen)
	}
	for _, rw := range pw.Rs {
		if rw.Ri < 0 || rw.Ri >= rlen {
			return fmt.Errorf("%w: prjn %v: recv index %d out of range", ErrShape, pj.String(), rw.Ri)
		}
		nc := int(pj.RConN[rw.Ri])
		if rw.N != nc || len(rw.Si) != nc || len(rw.Wt) != nc {
			return fmt.Errorf("%w: prjn %v: recv %d has %d connections in weights, %d in network", ErrShape, pj.String(), rw.Ri, rw.N, nc)
		}
		for _, si := range rw.Si {
			if pj.SynIdx(si, rw.Ri) < 0 {
				return fmt.Errorf("%w: prjn %v: no synapse from %d to %d", ErrShape, pj.String(), si, rw.Ri)
			}
		}
	}
	return nil
}

// SetWts sets the weights for this projection from weights.Prjn decoded values.
// Nothing is changed if the weights do not match (see CheckWts).
func (pj *Prjn) SetWts(pw *weights.Prjn) error {
	if err := pj.CheckWts(pw); err != nil {
		return err
	}
	wt := pj.States["Wt"].Values
	for _, rw := range pw.Rs {
		for ci, si := range rw.Si {
			wt[pj.SynIdx(si, rw.Ri)] = rw.Wt[ci]
		}
	}
	return nil
}
