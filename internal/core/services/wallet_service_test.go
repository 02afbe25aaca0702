package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppn-chip-sales/internal/core/domain"
)

func sampleProof() domain.ChallengeProof {
	return domain.ChallengeProof{
		Timestamp: 1700000000,
		Domain:    domain.ProofDomain{LengthBytes: 21, Value: "club.example.com"},
		Signature: "c2lnbmF0dXJl",
		Payload:   "challenge-1",
	}
}

func TestRequestConnectionHappyPath(t *testing.T) {
	api := &stubAPI{}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	challenge, err := svc.RequestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "challenge-1", challenge)
	assert.Equal(t, "challenge-1", connector.lastChallenge)
	assert.Equal(t, domain.WalletAwaitingSignature, svc.Binding().Status)
}

func TestRequestConnectionChallengeFailureClearsRequest(t *testing.T) {
	api := &stubAPI{
		payloadFn: func(ctx context.Context) (string, error) {
			return "", errors.New("boom")
		},
	}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	_, err := svc.RequestConnection(context.Background())
	assert.ErrorIs(t, err, domain.ErrChallengeUnavailable)
	assert.Equal(t, 1, connector.clearedCount, "pending connect request must be cleared")
	assert.Equal(t, domain.WalletDisconnected, svc.Binding().Status)
}

func TestOnWalletReportedVerifies(t *testing.T) {
	api := &stubAPI{}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	err := svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof())
	require.NoError(t, err)

	binding := svc.Binding()
	assert.Equal(t, domain.WalletVerified, binding.Status)
	assert.Equal(t, "EQAddr", binding.Address)
	assert.NotNil(t, binding.VerifiedAt)
	assert.True(t, svc.Verified())
}

// A proof identical to the last processed one must not trigger a second
// server round-trip.
func TestOnWalletReportedDeduplicatesProof(t *testing.T) {
	api := &stubAPI{}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))
	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))
	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))

	assert.Equal(t, 1, api.verifyCalls, "same proof must verify at most once")
}

func TestOnWalletReportedNewProofVerifiesAgain(t *testing.T) {
	api := &stubAPI{}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))

	second := sampleProof()
	second.Payload = "challenge-2"
	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", second))

	assert.Equal(t, 2, api.verifyCalls)
}

// A failed verification must tear the external connection down, not leave a
// half-trusted wallet attached.
func TestOnWalletReportedFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		verifyFn func(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error)
	}{
		{
			"server rejects proof",
			func(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error) {
				return false, nil
			},
		},
		{
			"verification errors",
			func(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error) {
				return false, errors.New("verify endpoint down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{verifyProofFn: tt.verifyFn}
			connector := &stubConnector{}
			svc := NewWalletService(api, connector)

			err := svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof())
			assert.ErrorIs(t, err, domain.ErrProofRejected)
			assert.Equal(t, 1, connector.disconnects, "teardown must run")
			assert.Equal(t, domain.WalletRejected, svc.Binding().Status)
			assert.False(t, svc.Verified())

			// Replaying the same bad proof stays a no-op.
			require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))
			assert.Equal(t, 1, api.verifyCalls)
		})
	}
}

// A verification still in flight for an old proof must not override the
// outcome of a newer one. Here proof A's verification hangs while proof B
// arrives and is rejected; A's late success must leave the binding rejected.
func TestStaleVerificationSuccessDoesNotOverrideRejection(t *testing.T) {
	releaseA := make(chan struct{})
	api := &stubAPI{
		verifyProofFn: func(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error) {
			if proof.Payload == "challenge-A" {
				<-releaseA
				return true, nil
			}
			return false, nil
		},
	}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	proofA := sampleProof()
	proofA.Payload = "challenge-A"
	done := make(chan error, 1)
	go func() {
		done <- svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", proofA)
	}()
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.verifyCalls == 1
	}, time.Second, 5*time.Millisecond)

	proofB := sampleProof()
	proofB.Payload = "challenge-B"
	err := svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", proofB)
	require.ErrorIs(t, err, domain.ErrProofRejected)
	require.Equal(t, domain.WalletRejected, svc.Binding().Status)
	require.Equal(t, 1, connector.disconnects)

	close(releaseA)
	require.NoError(t, <-done)

	assert.Equal(t, domain.WalletRejected, svc.Binding().Status, "stale success must not revive a rejected binding")
	assert.False(t, svc.Verified())
}

// The mirror case: a late failure for a superseded proof must neither tear
// down nor reject a binding a newer proof already verified.
func TestStaleVerificationFailureDoesNotTearDownVerified(t *testing.T) {
	releaseA := make(chan struct{})
	api := &stubAPI{
		verifyProofFn: func(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error) {
			if proof.Payload == "challenge-A" {
				<-releaseA
				return false, nil
			}
			return true, nil
		},
	}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	proofA := sampleProof()
	proofA.Payload = "challenge-A"
	done := make(chan error, 1)
	go func() {
		done <- svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", proofA)
	}()
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.verifyCalls == 1
	}, time.Second, 5*time.Millisecond)

	proofB := sampleProof()
	proofB.Payload = "challenge-B"
	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", proofB))
	require.True(t, svc.Verified())

	close(releaseA)
	require.Error(t, <-done)

	assert.True(t, svc.Verified(), "stale failure must not clobber the verified binding")
	assert.Zero(t, connector.disconnects, "no teardown for a superseded proof")
}

func TestDisconnectResetsProtocol(t *testing.T) {
	api := &stubAPI{}
	connector := &stubConnector{}
	svc := NewWalletService(api, connector)

	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))
	require.True(t, svc.Verified())

	require.NoError(t, svc.Disconnect(context.Background()))
	assert.Equal(t, domain.WalletDisconnected, svc.Binding().Status)

	// After an explicit disconnect the same proof may verify again.
	require.NoError(t, svc.OnWalletReported(context.Background(), "EQAddr", "pubkey", sampleProof()))
	assert.Equal(t, 2, api.verifyCalls)
}
