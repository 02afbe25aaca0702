package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Resolver resolves a wallet owner's jetton sub-account address against the
// token's master contract.
type Resolver interface {
	ResolveJettonWallet(ctx context.Context, ownerAddress string) (string, error)
}

// HTTPResolver asks a TON HTTP API to run get_wallet_address on the jetton
// master contract.
type HTTPResolver struct {
	baseURL       string
	masterAddress string
	httpClient    *http.Client
}

// NewHTTPResolver creates a resolver bound to one jetton master contract
func NewHTTPResolver(baseURL, masterAddress string) *HTTPResolver {
	return &HTTPResolver{
		baseURL:       baseURL,
		masterAddress: masterAddress,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

type getMethodResponse struct {
	Success bool `json:"success"`
	Decoded struct {
		JettonWalletAddress string `json:"jetton_wallet_address"`
	} `json:"decoded"`
}

// ResolveJettonWallet returns the owner's sub-account address for the
// configured jetton master.
func (r *HTTPResolver) ResolveJettonWallet(ctx context.Context, ownerAddress string) (string, error) {
	endpoint := fmt.Sprintf("%s/blockchain/accounts/%s/methods/get_wallet_address?args=%s",
		r.baseURL,
		url.PathEscape(r.masterAddress),
		url.QueryEscape(ownerAddress),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("registry lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("registry lookup failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry lookup returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed getMethodResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse registry response: %w", err)
	}
	if !parsed.Success || parsed.Decoded.JettonWalletAddress == "" {
		return "", fmt.Errorf("registry returned no wallet address for %s", ownerAddress)
	}
	return parsed.Decoded.JettonWalletAddress, nil
}
