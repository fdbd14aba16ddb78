// Copyright (c) 2020, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package track

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

var testRun = Run{
	Entity:  "lab",
	Project: "sae-rand-eval",
	Group:   "sae",
	Config:  map[string]interface{}{"dim": 6, "hidden_dim": 96},
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	dr := NewDir(root)
	if err := dr.Log(nil); !errors.Is(err, ErrState) {
		t.Errorf("Log before Init: err = %v", err)
	}
	id, err := dr.Init(testRun)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "sae-rand-eval", "sae", id)
	if dr.Path != want {
		t.Errorf("Path = %s, want %s", dr.Path, want)
	}
	if err := dr.Log(map[string]interface{}{"sae": Image{Format: "png", Data: []byte("img")}}); err != nil {
		t.Fatal(err)
	}
	if err := dr.Log(map[string]interface{}{"loss": 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := dr.Finish(); err != nil {
		t.Fatal(err)
	}

	b, err := ioutil.ReadFile(filepath.Join(want, "sae-0.png"))
	if err != nil || string(b) != "img" {
		t.Errorf("image file: %q, %v", b, err)
	}
	var cfg Run
	b, _ = ioutil.ReadFile(filepath.Join(want, "config.json"))
	if err := json.Unmarshal(b, &cfg); err != nil || cfg.Group != "sae" || cfg.Config["dim"] != 6.0 {
		t.Errorf("config.json = %s, %v", b, err)
	}
	f, err := os.Open(filepath.Join(want, "log.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatal(err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("%d log lines, want 2", len(lines))
	}
	if lines[0]["sae"] != "sae-0.png" || lines[1]["_step"] != 1.0 {
		t.Errorf("log lines = %v", lines)
	}
}

// server is a minimal tracking service recording what it receives.
type server struct {
	mu       sync.Mutex
	runs     map[string]RunMsg
	logs     map[string][]LogMsg
	finished map[string]bool
}

func newServer() (*server, *httptest.Server) {
	sv := &server{runs: map[string]RunMsg{}, logs: map[string][]LogMsg{}, finished: map[string]bool{}}
	r := mux.NewRouter()
	r.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		var msg RunMsg
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.ID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sv.mu.Lock()
		sv.runs[msg.ID] = msg
		sv.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}).Methods(http.MethodPost)
	r.HandleFunc("/runs/{id}/log", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		var msg LogMsg
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sv.mu.Lock()
		defer sv.mu.Unlock()
		if _, ok := sv.runs[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("no such run"))
			return
		}
		sv.logs[id] = append(sv.logs[id], msg)
	}).Methods(http.MethodPost)
	r.HandleFunc("/runs/{id}/finish", func(w http.ResponseWriter, r *http.Request) {
		sv.mu.Lock()
		sv.finished[mux.Vars(r)["id"]] = true
		sv.mu.Unlock()
	}).Methods(http.MethodPost)
	return sv, httptest.NewServer(r)
}

func TestHTTP(t *testing.T) {
	sv, ts := newServer()
	defer ts.Close()
	ht := NewHTTP(ts.URL+"/", ts.Client())
	id, err := ht.Init(testRun)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ht.Init(testRun); !errors.Is(err, ErrState) {
		t.Errorf("second Init: err = %v", err)
	}
	if err := ht.Log(map[string]interface{}{"sae": Image{Format: "png", Data: []byte{1, 2, 3}}}); err != nil {
		t.Fatal(err)
	}
	if err := ht.Finish(); err != nil {
		t.Fatal(err)
	}

	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.runs[id].Project != "sae-rand-eval" {
		t.Errorf("run = %+v", sv.runs[id])
	}
	lg := sv.logs[id]
	if len(lg) != 1 || lg[0].Step != 0 {
		t.Fatalf("logs = %+v", lg)
	}
	im, _ := lg[0].Vals["sae"].(map[string]interface{})
	if im["format"] != "png" || im["data"] != "AQID" {
		t.Errorf("logged image = %v", lg[0].Vals["sae"])
	}
	if !sv.finished[id] {
		t.Error("run not finished")
	}
}

func TestHTTPError(t *testing.T) {
	_, ts := newServer()
	defer ts.Close()
	ht := NewHTTP(ts.URL, ts.Client())
	ht.ID = "unknown"
	if err := ht.Log(map[string]interface{}{"x": 1}); err == nil {
		t.Error("log to unknown run accepted")
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		mode, target string
		ok           bool
	}{
		{"none", "", true},
		{"", "", true},
		{"dir", t.TempDir(), true},
		{"dir", "", false},
		{"http", "http://localhost:1", true},
		{"http", "", false},
		{"wandb", "", false},
	}
	for _, tt := range tests {
		_, err := Open(tt.mode, tt.target)
		if (err == nil) != tt.ok {
			t.Errorf("Open(%q, %q): err = %v", tt.mode, tt.target, err)
		}
	}
}
