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
	"math/big"
	"net"
	"path/filepath"
	"testing"

	"github.com/GoogleCloudPlatform/tallyauthority/authority"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/elgamal"
	"github.com/GoogleCloudPlatform/tallyauthority/authority/threshold"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func testGroup(t *testing.T) threshold.Group {
	t.Helper()
	grp, err := threshold.NewGroup(big.NewInt(23), big.NewInt(2), big.NewInt(11))
	require.NoError(t, err)
	return grp
}

var testKey = big.NewInt(7)

func dealAuthorities(t *testing.T) (threshold.Group, []*threshold.Authority) {
	t.Helper()
	grp := testGroup(t)
	auths, err := threshold.Deal(testKey, 5, 3, grp)
	require.NoError(t, err)
	return grp, auths
}

// serveBufconn serves a on an in-memory listener and returns a client
// connection to it.
func serveBufconn(t *testing.T, a *threshold.Authority) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(a)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func encrypt(t *testing.T, grp threshold.Group, m, k int64) elgamal.Ciphertext {
	t.Helper()
	pub := elgamal.PublicKey{P: grp.P, G: grp.G, H: grp.PublicKey(testKey)}
	ct, err := elgamal.Encrypt(big.NewInt(m), pub, big.NewInt(k))
	require.NoError(t, err)
	return ct
}

func TestRemoteCombinerOverBufconn(t *testing.T) {
	grp, auths := dealAuthorities(t)
	var ds []threshold.Decrypter
	for _, a := range auths {
		ds = append(ds, threshold.NewRemoteAuthority(a.Index(), serveBufconn(t, a)))
	}
	c := &threshold.Combiner{Group: grp, Threshold: 3, Authorities: ds}

	ctx := context.Background()
	for m := int64(0); m < 23; m += 5 {
		got, err := c.Decrypt(ctx, encrypt(t, grp, m, 4))
		require.NoError(t, err)
		require.Equal(t, m, got.Int64())
	}
}

func TestPartialDecryptOverGRPCMatchesLocal(t *testing.T) {
	grp, auths := dealAuthorities(t)
	remote := threshold.NewRemoteAuthority(auths[2].Index(), serveBufconn(t, auths[2]))
	ct := encrypt(t, grp, 8, 9)

	ctx := context.Background()
	want, err := auths[2].PartialDecrypt(ctx, ct.C1)
	require.NoError(t, err)
	got, err := remote.PartialDecrypt(ctx, ct.C1)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestPartialDecryptErrorKindSurvivesTransport(t *testing.T) {
	_, auths := dealAuthorities(t)
	remote := threshold.NewRemoteAuthority(auths[0].Index(), serveBufconn(t, auths[0]))
	ctx := context.Background()

	_, err := remote.PartialDecrypt(ctx, big.NewInt(5))
	require.Equal(t, autherr.Decryption, autherr.KindOf(err), "err = %v", err)
	_, err = remote.PartialDecrypt(ctx, big.NewInt(0))
	require.Equal(t, autherr.Decryption, autherr.KindOf(err), "err = %v", err)
}

func TestPartialDecryptRejectsMalformedRequest(t *testing.T) {
	_, auths := dealAuthorities(t)
	s := NewAuthorityService(auths[0])
	_, err := s.PartialDecrypt(context.Background(), &threshold.PartialDecryptRequest{C1: "four"})
	require.Error(t, err)
	require.Equal(t, autherr.BadInput, autherr.KindOf(threshold.FromStatus(err)))
}

func TestHealthService(t *testing.T) {
	_, auths := dealAuthorities(t)
	conn := serveBufconn(t, auths[0])
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: threshold.ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

// TestThresholdDeploymentFromRoster runs every authority on a TCP port, writes
// the roster and drives a DecryptionAuthority configured from it.
func TestThresholdDeploymentFromRoster(t *testing.T) {
	grp, auths := dealAuthorities(t)
	var addresses []string
	for _, a := range auths {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv := NewGRPCServer(a)
		go srv.Serve(lis)
		t.Cleanup(srv.Stop)
		addresses = append(addresses, lis.Addr().String())
	}
	roster, err := threshold.NewRoster(auths, 3, addresses)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "roster.toml")
	require.NoError(t, threshold.SaveTOML(path, roster))

	cfg := authority.DefaultConfig()
	cfg.Mode = authority.ModeThreshold
	cfg.Generator = authority.NumberOf(2)
	cfg.GroupOrder = authority.NumberOf(11)
	cfg.PrivateKey = authority.Number{}
	cfg.Roster = path
	a, err := authority.New(cfg)
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Decrypt(context.Background(), encrypt(t, grp, 20, 3))
	require.NoError(t, err)
	require.Equal(t, "Party B wins by 3 votes", got.Verdict())
}
