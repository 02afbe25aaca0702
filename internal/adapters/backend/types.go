package backend

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/core/domain"
)

// The club backend went through several revisions and some deployments still
// answer with older field names. Every endpoint gets exactly one wire type
// here and is normalized to the domain model before anything else sees it.

// flexInt64 accepts both numeric and string-encoded ids
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt64(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexInt64(v)
	return nil
}

// authResponse covers both the current and the legacy auth answer
type authResponse struct {
	AccessToken string    `json:"access_token"`
	Token       string    `json:"token"` // legacy
	Role        string    `json:"role"`
	IsAdmin     *bool     `json:"is_admin"` // legacy
	ClubID      flexInt64 `json:"club_id"`
	ClubShortID flexInt64 `json:"club_short_id"` // legacy
}

func (r *authResponse) credential() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

func (r *authResponse) role() domain.Role {
	if r.Role != "" {
		if r.Role == "admin" || r.Role == string(domain.RoleAdmin) {
			return domain.RoleAdmin
		}
		return domain.RoleUser
	}
	if r.IsAdmin != nil && *r.IsAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func (r *authResponse) boundClub() *int64 {
	id := int64(r.ClubID)
	if id == 0 {
		id = int64(r.ClubShortID)
	}
	if id == 0 {
		return nil
	}
	return &id
}

type contactWire struct {
	Channel string `json:"channel"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Link    string `json:"link"`
}

type clubInfoWire struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	ShortID    flexInt64     `json:"short_id"`
	Logo       string        `json:"logo"`
	UnionTitle string        `json:"union_title"`
	Contacts   []contactWire `json:"contacts"`
}

func (w *clubInfoWire) toDomain() *domain.ClubInfo {
	if w == nil {
		return nil
	}
	info := &domain.ClubInfo{
		ID:         w.ID,
		Title:      w.Title,
		ShortID:    int64(w.ShortID),
		Logo:       w.Logo,
		UnionTitle: w.UnionTitle,
	}
	for _, c := range w.Contacts {
		info.Contacts = append(info.Contacts, domain.Contact{
			Channel: c.Channel,
			Label:   c.Label,
			Value:   c.Value,
			Link:    c.Link,
		})
	}
	return info
}

type saleWire struct {
	PricePerChip      decimal.Decimal `json:"price_per_chip"`
	CurrencyCode      string          `json:"currency_code"`
	QuickPackages     []int64         `json:"quick_packages"`
	AllowCustomAmount bool            `json:"allow_custom_amount"`
	MinCustomAmount   *int64          `json:"min_custom_amount"`
	MaxCustomAmount   *int64          `json:"max_custom_amount"`
	CustomStep        *int64          `json:"custom_step"`
	CustomMessage     string          `json:"custom_message"`
}

func (w *saleWire) toDomain() *domain.SaleTerms {
	if w == nil {
		return nil
	}
	return &domain.SaleTerms{
		PricePerChip:      w.PricePerChip,
		CurrencyCode:      w.CurrencyCode,
		QuickPackages:     w.QuickPackages,
		AllowCustomAmount: w.AllowCustomAmount,
		MinCustomAmount:   w.MinCustomAmount,
		MaxCustomAmount:   w.MaxCustomAmount,
		CustomStep:        w.CustomStep,
		CustomMessage:     w.CustomMessage,
	}
}

type previewResponse struct {
	Allowed       bool             `json:"allowed"`
	Reason        string           `json:"reason"`
	Club          *clubInfoWire    `json:"club"`
	Sale          *saleWire        `json:"sale"`
	MemberBalance *decimal.Decimal `json:"member_balance"`
}

func (r *previewResponse) toDomain() *domain.Preview {
	return &domain.Preview{
		Allowed:       r.Allowed,
		Reason:        r.Reason,
		Club:          r.Club.toDomain(),
		Sale:          r.Sale.toDomain(),
		MemberBalance: r.MemberBalance,
	}
}

type depositDataRequest struct {
	AccountShortID int64 `json:"account_short_id"`
	ClubShortID    int64 `json:"club_short_id"`
	ChipsAmount    int64 `json:"chips_amount"`
}

type depositDataResponse struct {
	Address string `json:"address"`
	Memo    string `json:"memo"`
}

type generatePayloadResponse struct {
	Payload string `json:"payload"`
}

type proofRequest struct {
	Address   string                `json:"address"`
	PublicKey string                `json:"public_key"`
	Proof     domain.ChallengeProof `json:"proof"`
}

// proofResponse covers {address, valid} and the legacy {success} shape
type proofResponse struct {
	Address string `json:"address"`
	Valid   *bool  `json:"valid"`
	Success *bool  `json:"success"` // legacy
}

func (r *proofResponse) ok() bool {
	if r.Valid != nil {
		return *r.Valid
	}
	if r.Success != nil {
		return *r.Success
	}
	return false
}

type clubBalanceResponse struct {
	USDTBalance decimal.Decimal `json:"usdt_balance"`
}

type withdrawRequest struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	ClubShortID int64           `json:"club_short_id"`
}

type withdrawResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ownerClubsRequest struct {
	AuthData string `json:"authData"`
}

type ownerClubWire struct {
	ShortID flexInt64 `json:"short_id"`
	Title   string    `json:"title"`
	Logo    string    `json:"logo"`
}

type ownerClubsResponse struct {
	Allowed bool            `json:"allowed"`
	Reason  string          `json:"reason"`
	Clubs   []ownerClubWire `json:"clubs"`
}

type ownerInsightsRequest struct {
	AuthData    string `json:"authData"`
	ClubShortID int64  `json:"club_short_id"`
}

type ownerPaymentWire struct {
	Amount         decimal.Decimal `json:"amount"`
	AccountShortID flexInt64       `json:"account_short_id"`
	CreatedOn      string          `json:"created_on"`
}

type ownerInsightsResponse struct {
	Allowed     bool               `json:"allowed"`
	Reason      string             `json:"reason"`
	ClubShortID flexInt64          `json:"club_short_id"`
	ClubTitle   string             `json:"club_title"`
	ClubLogo    string             `json:"club_logo"`
	XTRBalance  decimal.Decimal    `json:"xtr_balance"`
	Payments    []ownerPaymentWire `json:"payments"`
}
