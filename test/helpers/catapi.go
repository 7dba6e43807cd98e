package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"vinivici/internal/models"
)

// FakeCatAPI serves /images/search from scripted batches, repeating the
// last one once the script runs out.
type FakeCatAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	batches  [][]models.Candidate
	status   int
	requests []*http.Request
}

func NewFakeCatAPI(t *testing.T, batches ...[]models.Candidate) *FakeCatAPI {
	t.Helper()
	f := &FakeCatAPI{batches: batches}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// FailWith makes every following request answer with status.
func (f *FakeCatAPI) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Requests returns a copy of the requests seen so far
func (f *FakeCatAPI) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func (f *FakeCatAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	n := len(f.requests)
	status := f.status
	var batch []models.Candidate
	if len(f.batches) > 0 {
		batch = f.batches[min(n, len(f.batches))-1]
	}
	f.mu.Unlock()

	if r.URL.Path != "/images/search" {
		http.NotFound(w, r)
		return
	}
	if status != 0 {
		http.Error(w, `{"message":"`+strconv.Itoa(status)+`"}`, status)
		return
	}
	if batch == nil {
		batch = []models.Candidate{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(batch)
}

// Cat builds a candidate with one breed
func Cat(id, breed, temperament, origin string) models.Candidate {
	return models.Candidate{
		ID:     id,
		URL:    "https://cdn2.thecatapi.com/images/" + id + ".jpg",
		Width:  800,
		Height: 600,
		Breeds: []models.Breed{{ID: id, Name: breed, Temperament: temperament, Origin: origin}},
	}
}
