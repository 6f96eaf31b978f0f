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
	"encoding/json"
	"errors"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// CodecName is the gRPC content subtype the authority service speaks:
// messages travel as JSON (application/grpc+json).
const CodecName = "json"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tallyauthority.AuthorityService"

// PartialDecryptMethod is the full method name of PartialDecrypt.
const PartialDecryptMethod = "/" + ServiceName + "/PartialDecrypt"

const errorDomain = "tallyauthority"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// PartialDecryptRequest asks an authority for c1^y. C1 is a decimal string.
type PartialDecryptRequest struct {
	C1 string `json:"c1"`
}

// PartialDecryptResponse carries one partial decryption. Value is a decimal
// string.
type PartialDecryptResponse struct {
	X     int    `json:"x"`
	Value string `json:"value"`
}

// AuthorityServiceServer is the server API for the authority service.
type AuthorityServiceServer interface {
	PartialDecrypt(context.Context, *PartialDecryptRequest) (*PartialDecryptResponse, error)
}

// RegisterAuthorityServiceServer registers srv with s.
func RegisterAuthorityServiceServer(s grpc.ServiceRegistrar, srv AuthorityServiceServer) {
	s.RegisterService(&authorityServiceDesc, srv)
}

func partialDecryptHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PartialDecryptRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorityServiceServer).PartialDecrypt(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PartialDecryptMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorityServiceServer).PartialDecrypt(ctx, req.(*PartialDecryptRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var authorityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthorityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PartialDecrypt",
			Handler:    partialDecryptHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// StatusError converts an authority error into a gRPC status error. The kind
// travels in an ErrorInfo detail so the client can restore it.
func StatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	kind := autherr.KindOf(err)
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	var code codes.Code
	switch kind {
	case autherr.BadInput, autherr.Decryption:
		code = codes.InvalidArgument
	case autherr.NoInverse, autherr.InvalidParameters:
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}
	st := status.New(code, err.Error())
	if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: kind.String(), Domain: errorDomain}); derr == nil {
		st = detailed
	}
	return st.Err()
}

// FromStatus restores the authority error kind from a gRPC status error.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			if kind := autherr.ParseKind(info.GetReason()); kind != autherr.Unknown {
				return autherr.New(kind, "%s", st.Message())
			}
		}
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return autherr.New(autherr.BadInput, "%s", st.Message())
	case codes.FailedPrecondition:
		return autherr.New(autherr.InvalidParameters, "%s", st.Message())
	default:
		return err
	}
}
