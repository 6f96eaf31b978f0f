// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GoogleCloudPlatform/tallyauthority/authority"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/tally"
	"github.com/GoogleCloudPlatform/tallyauthority/constants"
	glog "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

// RequestIDHeader carries the ID assigned to each tally request.
const RequestIDHeader = "X-Request-Id"

// Decrypter turns a ciphertext into a tally. *authority.DecryptionAuthority
// implements it.
type Decrypter interface {
	Decrypt(ctx context.Context, ct elgamal.Ciphertext) (tally.Tally, error)
}

// VoteRequest is the body of a receive-votes request. Integers may be JSON
// numbers or decimal strings.
type VoteRequest struct {
	Vote *Vote `json:"vote"`
}

// Vote is an encrypted tally.
type Vote struct {
	C1 *authority.Number `json:"c1"`
	C2 *authority.Number `json:"c2"`
}

// VoteResponse is returned on success. DecryptedVote is the signed
// differential votes(A) - votes(B).
type VoteResponse struct {
	DecryptedVote json.Number `json:"decryptedVote"`
	Result        string      `json:"result"`
}

// ErrorResponse is returned on failure.
type ErrorResponse struct {
	Error   autherr.Category `json:"error"`
	Details string           `json:"details,omitempty"`
}

// TallyService is the HTTP front end of a decryption authority.
type TallyService struct {
	authority Decrypter
	handler   http.Handler
}

// NewTallyService serves a. An empty allowedOrigins allows requests
// from any origin.
func NewTallyService(a Decrypter, allowedOrigins []string) *TallyService {
	s := &TallyService{authority: a}
	mux := http.NewServeMux()
	mux.HandleFunc(constants.ReceiveVotesPath, s.handleReceiveVotes)
	mux.HandleFunc(constants.HealthPath, s.handleHealth)
	s.handler = cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *TallyService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, reqID string, err error) {
	kind := autherr.KindOf(err)
	status := http.StatusInternalServerError
	if kind == autherr.BadInput {
		status = http.StatusBadRequest
		glog.Warningf("Request %v: rejected: %v", reqID, err)
	} else {
		glog.Errorf("Request %v: processing failed (%v): %v", reqID, kind, err)
	}
	writeJSON(w, status, ErrorResponse{Error: kind.Category(), Details: err.Error()})
}

// parseVote decodes the request body into a ciphertext. Every failure is
// reported as BadInput.
func parseVote(w http.ResponseWriter, r *http.Request) (elgamal.Ciphertext, error) {
	defer r.Body.Close()
	var req VoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBytes)).Decode(&req); err != nil {
		return elgamal.Ciphertext{}, autherr.Wrap(autherr.BadInput, err, "unable to parse request body")
	}
	if req.Vote == nil {
		return elgamal.Ciphertext{}, autherr.New(autherr.BadInput, "request has no vote")
	}
	if req.Vote.C1 == nil || !req.Vote.C1.IsSet() || req.Vote.C2 == nil || !req.Vote.C2.IsSet() {
		return elgamal.Ciphertext{}, autherr.New(autherr.BadInput, "vote must contain integers c1 and c2")
	}
	return elgamal.Ciphertext{C1: req.Vote.C1.Int(), C2: req.Vote.C2.Int()}, nil
}

func (s *TallyService) handleReceiveVotes(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	w.Header().Set(RequestIDHeader, reqID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: autherr.CategoryBadInput, Details: "method not allowed"})
		return
	}

	ct, err := parseVote(w, r)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	glog.Infof("Request %v: decrypting %v", reqID, ct)

	t, err := s.authority.Decrypt(r.Context(), ct)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	glog.Infof("Request %v: %v", reqID, t.Verdict())
	writeJSON(w, http.StatusOK, VoteResponse{
		DecryptedVote: json.Number(t.Differential.String()),
		Result:        t.Verdict(),
	})
}

func (s *TallyService) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
