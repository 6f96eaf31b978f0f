// Copyright 2024 Google LLC
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

package threshold

import (
	"context"
	"errors"
	"testing"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

func TestStatusErrorRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		kind autherr.Kind
		code codes.Code
	}{
		{kind: autherr.BadInput, code: codes.InvalidArgument},
		{kind: autherr.Decryption, code: codes.InvalidArgument},
		{kind: autherr.NoInverse, code: codes.FailedPrecondition},
		{kind: autherr.InvalidParameters, code: codes.FailedPrecondition},
	} {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := StatusError(autherr.New(tc.kind, "boom"))
			require.Equal(t, tc.code, status.Code(err))
			back := FromStatus(err)
			require.Equal(t, tc.kind, autherr.KindOf(back))
			require.Contains(t, back.Error(), "boom")
		})
	}
}

func TestStatusErrorForeignErrors(t *testing.T) {
	require.Nil(t, StatusError(nil))
	require.Equal(t, codes.Internal, status.Code(StatusError(errors.New("boom"))))
	require.Equal(t, codes.Canceled, status.Code(StatusError(context.Canceled)))

	st := status.Error(codes.Unavailable, "down")
	require.Equal(t, st, StatusError(st))
	require.Equal(t, st, FromStatus(st))
}

func TestFromStatusWithoutDetails(t *testing.T) {
	err := FromStatus(status.Error(codes.InvalidArgument, "bad"))
	require.Equal(t, autherr.BadInput, autherr.KindOf(err))
	err = FromStatus(status.Error(codes.FailedPrecondition, "bad"))
	require.Equal(t, autherr.InvalidParameters, autherr.KindOf(err))
}

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	b, err := c.Marshal(&PartialDecryptResponse{X: 2, Value: "17"})
	require.NoError(t, err)
	require.JSONEq(t, `{"x": 2, "value": "17"}`, string(b))

	var req PartialDecryptRequest
	require.NoError(t, c.Unmarshal([]byte(`{"c1": "4"}`), &req))
	require.Equal(t, "4", req.C1)
}
