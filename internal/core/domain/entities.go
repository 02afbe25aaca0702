package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Session represents an authenticated mini-app session. Created once by the
// auth exchange; the credential is attached to every backend call until the
// session is cleared.
type Session struct {
	ID          string
	Role        Role
	BoundClubID *int64 // non-nil when the deployment locks the club selector
	TgUserID    int64  // 0 when the attestation carried no user id
	Credential  string
	CreatedAt   time.Time
}

// IsAdmin returns true if the session carries the admin role
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// ClubLocked returns true if the club selector is fixed by the session
func (s *Session) ClubLocked() bool {
	return s != nil && s.BoundClubID != nil
}

// Contact represents a support contact attached to a club
type Contact struct {
	Channel string `json:"channel,omitempty"`
	Label   string `json:"label"`
	Value   string `json:"value,omitempty"`
	Link    string `json:"link,omitempty"`
}

// ClubInfo represents club display data returned with a preview
type ClubInfo struct {
	ID         string    `json:"id,omitempty"`
	Title      string    `json:"title,omitempty"`
	ShortID    int64     `json:"short_id,omitempty"`
	Logo       string    `json:"logo,omitempty"`
	UnionTitle string    `json:"union_title,omitempty"`
	Contacts   []Contact `json:"contacts,omitempty"`
}

// SaleTerms represents server-authoritative pricing for a club.
// Read-only once fetched.
type SaleTerms struct {
	PricePerChip      decimal.Decimal `json:"price_per_chip"`
	CurrencyCode      string          `json:"currency_code,omitempty"`
	QuickPackages     []int64         `json:"quick_packages"`
	AllowCustomAmount bool            `json:"allow_custom_amount"`
	MinCustomAmount   *int64          `json:"min_custom_amount,omitempty"`
	MaxCustomAmount   *int64          `json:"max_custom_amount,omitempty"`
	CustomStep        *int64          `json:"custom_step,omitempty"`
	CustomMessage     string          `json:"custom_message,omitempty"`
}

// Preview represents the eligibility and pricing answer for an
// (account, club) pair. Immutable until the next lookup.
// When Allowed is false, Sale must not be used to price anything.
type Preview struct {
	Allowed       bool             `json:"allowed"`
	Reason        string           `json:"reason,omitempty"`
	Club          *ClubInfo        `json:"club,omitempty"`
	Sale          *SaleTerms       `json:"sale,omitempty"`
	MemberBalance *decimal.Decimal `json:"member_balance,omitempty"`
}

// WalletStatus represents the wallet binding protocol state
type WalletStatus string

const (
	WalletDisconnected       WalletStatus = "DISCONNECTED"
	WalletChallengeRequested WalletStatus = "CHALLENGE_REQUESTED"
	WalletAwaitingSignature  WalletStatus = "AWAITING_SIGNATURE"
	WalletVerifying          WalletStatus = "VERIFYING"
	WalletVerified           WalletStatus = "VERIFIED"
	WalletRejected           WalletStatus = "REJECTED"
)

// WalletBinding represents a wallet reported by the external wallet layer.
// Trusted for payment only after the proof passed server-side verification.
type WalletBinding struct {
	Address    string
	PublicKey  string
	Proof      ChallengeProof
	Status     WalletStatus
	VerifiedAt *time.Time
}

// ProofDomain is the signed domain part of a wallet challenge proof
type ProofDomain struct {
	LengthBytes int    `json:"lengthBytes"`
	Value       string `json:"value"`
}

// ChallengeProof is the wallet-signed proof over a server-issued challenge
type ChallengeProof struct {
	Timestamp int64       `json:"timestamp"`
	Domain    ProofDomain `json:"domain"`
	Signature string      `json:"signature"`
	Payload   string      `json:"payload"`
}

// PurchaseIntent represents a confirmed selection, consumed exactly once by
// payment submission and discarded afterwards.
type PurchaseIntent struct {
	ID               string
	AccountShortID   int64
	ClubShortID      int64
	ChipsAmount      int64
	StablecoinAmount decimal.Decimal
	CreatedAt        time.Time
}

// DepositInstruction is the server-issued destination for one transfer.
// Single-use; never reused for a different amount.
type DepositInstruction struct {
	DestinationAddress string
	Memo               string
}

// FlowStep represents the purchase flow state machine states
type FlowStep string

const (
	StepForm     FlowStep = "FORM"
	StepPackages FlowStep = "PACKAGES"
	StepSummary  FlowStep = "SUMMARY"
	StepSuccess  FlowStep = "SUCCESS"
	StepError    FlowStep = "ERROR"
	StepWithdraw FlowStep = "WITHDRAW"
)

// OwnerClub represents one club available to an owner
type OwnerClub struct {
	ShortID int64  `json:"short_id"`
	Title   string `json:"title,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

// OwnerPayment represents one chip sale shown in owner insights
type OwnerPayment struct {
	Amount         decimal.Decimal `json:"amount"`
	AccountShortID int64           `json:"account_short_id,omitempty"`
	CreatedOn      time.Time       `json:"created_on"`
}

// OwnerStats represents per-club owner insights
type OwnerStats struct {
	Allowed     bool            `json:"allowed"`
	Reason      string          `json:"reason,omitempty"`
	ClubShortID int64           `json:"club_short_id,omitempty"`
	ClubTitle   string          `json:"club_title,omitempty"`
	ClubLogo    string          `json:"club_logo,omitempty"`
	XTRBalance  decimal.Decimal `json:"xtr_balance"`
	Payments    []OwnerPayment  `json:"payments,omitempty"`
}
