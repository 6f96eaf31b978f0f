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

// Binary to run against a tally server running the reference deployment
// (p = 23, g = 5, private key 15) to validate protocol conformance.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"flag"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/constants"
	"github.com/alecthomas/colour"
)

var (
	serverURL = flag.String("server-url", fmt.Sprintf("http://localhost:%d", constants.HTTPPort), "Base URL of the tally server")
)

type receiveVotesTest struct {
	testName     string
	body         string
	wantStatus   int
	wantCategory autherr.Category
	wantVote     string
	wantResult   string
}

type response struct {
	DecryptedVote json.Number      `json:"decryptedVote"`
	Result        string           `json:"result"`
	Error         autherr.Category `json:"error"`
	Details       string           `json:"details"`
}

func runReceiveVotesTestCase(tc receiveVotesTest) error {
	resp, err := http.Post(*serverURL+constants.ReceiveVotesPath, "application/json", strings.NewReader(tc.body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != tc.wantStatus {
		return fmt.Errorf("got status %d, want %d", resp.StatusCode, tc.wantStatus)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("undecodable response: %v", err)
	}

	if tc.wantCategory != "" {
		if r.Error != tc.wantCategory {
			return fmt.Errorf("got error category %q, want %q", r.Error, tc.wantCategory)
		}
		if r.Details == "" {
			return fmt.Errorf("error response has no details")
		}
		return nil
	}

	if r.DecryptedVote.String() != tc.wantVote {
		return fmt.Errorf("got decryptedVote %v, want %v", r.DecryptedVote, tc.wantVote)
	}
	if r.Result != tc.wantResult {
		return fmt.Errorf("got result %q, want %q", r.Result, tc.wantResult)
	}
	return nil
}

func main() {
	flag.Parse()

	fmt.Println("Running receive-votes tests...")

	testCases := []receiveVotesTest{
		{
			testName:   "Ciphertext of 5 decrypts to a win for Party A",
			body:       `{"vote": {"c1": 10, "c2": 2}}`,
			wantStatus: http.StatusOK,
			wantVote:   "5",
			wantResult: "Party A wins by 5 votes",
		},
		{
			testName:   "Decimal string components are accepted",
			body:       `{"vote": {"c1": "10", "c2": "2"}}`,
			wantStatus: http.StatusOK,
			wantVote:   "5",
			wantResult: "Party A wins by 5 votes",
		},
		{
			testName:   "Residues above p/2 are negative differentials",
			body:       `{"vote": {"c1": 1, "c2": 20}}`,
			wantStatus: http.StatusOK,
			wantVote:   "-3",
			wantResult: "Party B wins by 3 votes",
		},
		{
			testName:   "Zero differential is a tie",
			body:       `{"vote": {"c1": 1, "c2": 0}}`,
			wantStatus: http.StatusOK,
			wantVote:   "0",
			wantResult: "The vote is tied!",
		},
		{
			testName:     "Missing vote is rejected as bad input",
			body:         `{}`,
			wantStatus:   http.StatusBadRequest,
			wantCategory: autherr.CategoryBadInput,
		},
		{
			testName:     "Missing c2 is rejected as bad input",
			body:         `{"vote": {"c1": 10}}`,
			wantStatus:   http.StatusBadRequest,
			wantCategory: autherr.CategoryBadInput,
		},
		{
			testName:     "Non-integer component is rejected as bad input",
			body:         `{"vote": {"c1": "ten", "c2": 2}}`,
			wantStatus:   http.StatusBadRequest,
			wantCategory: autherr.CategoryBadInput,
		},
		{
			testName:     "c1 = 0 is a processing failure",
			body:         `{"vote": {"c1": 0, "c2": 5}}`,
			wantStatus:   http.StatusInternalServerError,
			wantCategory: autherr.CategoryProcessingFailure,
		},
	}

	failed := 0
	for _, testCase := range testCases {
		err := runReceiveVotesTestCase(testCase)
		if err == nil {
			colour.Printf("^2 - %v^R\n", testCase.testName)
		} else {
			failed++
			colour.Printf("^1 - %v: %v^R\n", testCase.testName, err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
