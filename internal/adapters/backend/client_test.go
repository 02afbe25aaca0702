package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppn-chip-sales/internal/core/domain"
)

func TestAuthenticateNormalizesShapes(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedTok  string
		expectedRole domain.Role
		expectedClub *int64
	}{
		{
			"current shape",
			`{"access_token":"tok-1","role":"admin","club_id":123}`,
			"tok-1", domain.RoleAdmin, ptr(int64(123)),
		},
		{
			"legacy token and is_admin",
			`{"token":"tok-2","is_admin":true}`,
			"tok-2", domain.RoleAdmin, nil,
		},
		{
			"legacy string club id",
			`{"access_token":"tok-3","role":"user","club_short_id":"456"}`,
			"tok-3", domain.RoleUser, ptr(int64(456)),
		},
		{
			"plain user",
			`{"access_token":"tok-4"}`,
			"tok-4", domain.RoleUser, nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth", r.URL.Path)
				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "init-data", req["init_data"])
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			result, err := client.Authenticate(context.Background(), "init-data")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTok, result.AccessToken)
			assert.Equal(t, tt.expectedRole, result.Role)
			if tt.expectedClub == nil {
				assert.Nil(t, result.BoundClubID)
			} else {
				require.NotNil(t, result.BoundClubID)
				assert.Equal(t, *tt.expectedClub, *result.BoundClubID)
			}
		})
	}
}

func TestAuthenticateNoTokenFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"role":"user"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Authenticate(context.Background(), "init-data")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCredentialAttachedOnceSet(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"allowed":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Preview(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, seenAuth, "no header before the credential is installed")

	client.SetCredential("tok-1")
	_, err = client.Preview(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", seenAuth)

	client.ClearCredential()
	_, err = client.Preview(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, seenAuth, "header gone after the credential is cleared")
}

func TestPreviewDecodesFullAnswer(t *testing.T) {
	body := `{
		"allowed": true,
		"club": {
			"title": "Night Club",
			"short_id": "87654321",
			"contacts": [{"label": "Support", "link": "https://t.me/support"}]
		},
		"sale": {
			"price_per_chip": "0.01",
			"quick_packages": [500, 1000, 5000],
			"allow_custom_amount": true,
			"min_custom_amount": 100
		},
		"member_balance": "42.5"
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/preview", r.URL.Path)
		assert.Equal(t, "12345678", r.URL.Query().Get("account_short_id"))
		assert.Equal(t, "87654321", r.URL.Query().Get("club_short_id"))
		w.Write([]byte(body))
	}))
	defer server.Close()

	preview, err := NewClient(server.URL).Preview(context.Background(), 12345678, 87654321)
	require.NoError(t, err)

	assert.True(t, preview.Allowed)
	require.NotNil(t, preview.Club)
	assert.Equal(t, int64(87654321), preview.Club.ShortID)
	require.Len(t, preview.Club.Contacts, 1)
	require.NotNil(t, preview.Sale)
	assert.True(t, preview.Sale.PricePerChip.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, []int64{500, 1000, 5000}, preview.Sale.QuickPackages)
	require.NotNil(t, preview.Sale.MinCustomAmount)
	assert.Equal(t, int64(100), *preview.Sale.MinCustomAmount)
	require.NotNil(t, preview.MemberBalance)
	assert.True(t, preview.MemberBalance.Equal(decimal.RequireFromString("42.5")))
}

func TestVerifyProofAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected bool
	}{
		{"current valid", `{"address":"EQAddr","valid":true}`, true},
		{"current invalid", `{"address":"EQAddr","valid":false}`, false},
		{"legacy success", `{"success":true}`, true},
		{"legacy failure", `{"success":false}`, false},
		{"empty answer", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/proof", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			valid, err := NewClient(server.URL).VerifyProof(context.Background(), "EQAddr", "pubkey", domain.ChallengeProof{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, valid)
		})
	}
}

func TestNonOKStatusIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GeneratePayload(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestWithdrawRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"insufficient balance"}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).Withdraw(context.Background(), WithdrawInput{
		UserID:      "user-1",
		Amount:      decimal.NewFromInt(10),
		ClubShortID: 87654321,
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestOwnerClubsNotAllowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"allowed":false,"reason":"not an owner"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).OwnerClubs(context.Background(), "auth-data")
	var notAllowed *domain.NotAllowedError
	require.ErrorAs(t, err, &notAllowed)
	assert.Equal(t, "not an owner", notAllowed.Reason)
}

func ptr[T any](v T) *T { return &v }
