// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package track

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"
)

// RunMsg is the body of a POST to /runs.
type RunMsg struct {
	ID string `json:"id"`
	Run
}

// LogMsg is the body of a POST to /runs/{id}/log.  Images are sent base64
// encoded by encoding/json.
type LogMsg struct {
	Step int                    `json:"step"`
	Vals map[string]interface{} `json:"vals"`
}

// HTTP posts runs to a tracking server at Base:
//
//	POST /runs               RunMsg
//	POST /runs/{id}/log      LogMsg
//	POST /runs/{id}/finish   empty
//
// Every call is synchronous; any non 2xx status is an error.
type HTTP struct {
	Base   string       `desc:"server base url, without trailing slash"`
	Client *http.Client `desc:"client used for all requests"`
	ID     string       `desc:"id of the current run, set by Init"`
	Step   int          `desc:"number of Log calls so far"`
}

// NewHTTP returns an HTTP tracker for the server at base.  A nil client
// uses one with a 30 second timeout.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{Base: strings.TrimSuffix(base, "/"), Client: client}
}

func (ht *HTTP) post(path string, msg interface{}) error {
	var body []byte
	if msg != nil {
		var err error
		body, err = json.Marshal(msg)
		if err != nil {
			return err
		}
	}
	resp, err := ht.Client.Post(ht.Base+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("track: POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

func (ht *HTTP) Init(run Run) (string, error) {
	if ht.ID != "" {
		return "", ErrState
	}
	id := xid.New().String()
	if err := ht.post("/runs", RunMsg{ID: id, Run: run}); err != nil {
		return "", err
	}
	ht.ID = id
	ht.Step = 0
	return id, nil
}

func (ht *HTTP) Log(vals map[string]interface{}) error {
	if ht.ID == "" {
		return ErrState
	}
	if err := ht.post("/runs/"+ht.ID+"/log", LogMsg{Step: ht.Step, Vals: vals}); err != nil {
		return err
	}
	ht.Step++
	return nil
}

func (ht *HTTP) Finish() error {
	if ht.ID == "" {
		return ErrState
	}
	err := ht.post("/runs/"+ht.ID+"/finish", nil)
	ht.ID = ""
	return err
}
