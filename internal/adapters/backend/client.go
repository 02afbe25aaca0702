package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/core/domain"
)

// Client talks to the club backend API. The access credential is installed
// once after the auth exchange and attached to every request until cleared.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu         sync.RWMutex
	credential string
}

// AuthResult is the normalized answer of the auth exchange
type AuthResult struct {
	AccessToken string
	Role        domain.Role
	BoundClubID *int64
}

// WithdrawInput carries a withdrawal order
type WithdrawInput struct {
	UserID      string
	Amount      decimal.Decimal
	ClubShortID int64
}

// NewClient creates a new club backend client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetCredential installs the access credential for all subsequent requests
func (c *Client) SetCredential(credential string) {
	c.mu.Lock()
	c.credential = credential
	c.mu.Unlock()
}

// ClearCredential removes the installed access credential
func (c *Client) ClearCredential() {
	c.mu.Lock()
	c.credential = ""
	c.mu.Unlock()
}

// Credential returns the currently installed credential
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// Authenticate exchanges the host attestation string for an access credential
func (c *Client) Authenticate(ctx context.Context, initData string) (*AuthResult, error) {
	var resp authResponse
	if err := c.postJSON(ctx, "/auth", map[string]string{"init_data": initData}, &resp); err != nil {
		return nil, err
	}
	if resp.credential() == "" {
		return nil, fmt.Errorf("%w: auth response carries no token", domain.ErrUnauthorized)
	}
	return &AuthResult{
		AccessToken: resp.credential(),
		Role:        resp.role(),
		BoundClubID: resp.boundClub(),
	}, nil
}

// Preview fetches eligibility and pricing for an (account, club) pair
func (c *Client) Preview(ctx context.Context, accountShortID, clubShortID int64) (*domain.Preview, error) {
	query := url.Values{}
	query.Set("account_short_id", strconv.FormatInt(accountShortID, 10))
	query.Set("club_short_id", strconv.FormatInt(clubShortID, 10))

	var resp previewResponse
	if err := c.getJSON(ctx, "/preview?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// DepositData requests a single-use deposit instruction for a confirmed intent
func (c *Client) DepositData(ctx context.Context, accountShortID, clubShortID, chipsAmount int64) (*domain.DepositInstruction, error) {
	req := depositDataRequest{
		AccountShortID: accountShortID,
		ClubShortID:    clubShortID,
		ChipsAmount:    chipsAmount,
	}
	var resp depositDataResponse
	if err := c.postJSON(ctx, "/deposit-data", req, &resp); err != nil {
		return nil, err
	}
	return &domain.DepositInstruction{
		DestinationAddress: resp.Address,
		Memo:               resp.Memo,
	}, nil
}

// GeneratePayload requests a one-time wallet challenge
func (c *Client) GeneratePayload(ctx context.Context) (string, error) {
	var resp generatePayloadResponse
	if err := c.postJSON(ctx, "/generate-payload", struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Payload, nil
}

// VerifyProof submits a wallet proof for server-side verification
func (c *Client) VerifyProof(ctx context.Context, address, publicKey string, proof domain.ChallengeProof) (bool, error) {
	req := proofRequest{
		Address:   address,
		PublicKey: publicKey,
		Proof:     proof,
	}
	var resp proofResponse
	if err := c.postJSON(ctx, "/proof", req, &resp); err != nil {
		return false, err
	}
	return resp.ok(), nil
}

// ClubBalance fetches the club's current stablecoin balance
func (c *Client) ClubBalance(ctx context.Context, clubShortID int64) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("club_short_id", strconv.FormatInt(clubShortID, 10))

	var resp clubBalanceResponse
	if err := c.getJSON(ctx, "/club-balance?"+query.Encode(), &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.USDTBalance, nil
}

// Withdraw submits a withdrawal order
func (c *Client) Withdraw(ctx context.Context, input WithdrawInput) error {
	req := withdrawRequest{
		UserID:      input.UserID,
		Amount:      input.Amount,
		ClubShortID: input.ClubShortID,
	}
	var resp withdrawResponse
	if err := c.postJSON(ctx, "/withdraw", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message != "" {
			return fmt.Errorf("%w: %s", domain.ErrForbidden, resp.Message)
		}
		return fmt.Errorf("%w: withdrawal refused", domain.ErrForbidden)
	}
	return nil
}

// OwnerClubs lists the clubs available to the owner behind authData
func (c *Client) OwnerClubs(ctx context.Context, authData string) ([]domain.OwnerClub, error) {
	var resp ownerClubsResponse
	if err := c.postJSON(ctx, "/tg-club-chip-sales/owner-clubs", ownerClubsRequest{AuthData: authData}, &resp); err != nil {
		return nil, err
	}
	if !resp.Allowed {
		return nil, &domain.NotAllowedError{Reason: resp.Reason}
	}
	clubs := make([]domain.OwnerClub, 0, len(resp.Clubs))
	for _, club := range resp.Clubs {
		clubs = append(clubs, domain.OwnerClub{
			ShortID: int64(club.ShortID),
			Title:   club.Title,
			Logo:    club.Logo,
		})
	}
	return clubs, nil
}

// OwnerInsights fetches per-club owner stats
func (c *Client) OwnerInsights(ctx context.Context, authData string, clubShortID int64) (*domain.OwnerStats, error) {
	req := ownerInsightsRequest{
		AuthData:    authData,
		ClubShortID: clubShortID,
	}
	var resp ownerInsightsResponse
	if err := c.postJSON(ctx, "/tg-club-chip-sales/owner-insights", req, &resp); err != nil {
		return nil, err
	}

	stats := &domain.OwnerStats{
		Allowed:     resp.Allowed,
		Reason:      resp.Reason,
		ClubShortID: int64(resp.ClubShortID),
		ClubTitle:   resp.ClubTitle,
		ClubLogo:    resp.ClubLogo,
		XTRBalance:  resp.XTRBalance,
	}
	for _, p := range resp.Payments {
		createdOn, _ := time.Parse(time.RFC3339, p.CreatedOn)
		stats.Payments = append(stats.Payments, domain.OwnerPayment{
			Amount:         p.Amount,
			AccountShortID: int64(p.AccountShortID),
			CreatedOn:      createdOn,
		})
	}
	return stats, nil
}

// getJSON performs an authenticated GET and decodes the JSON answer
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// postJSON performs an authenticated POST and decodes the JSON answer
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if credential := c.Credential(); credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrNetwork, req.URL.Path, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: parse %s response: %v", domain.ErrNetwork, req.URL.Path, err)
	}
	return nil
}
