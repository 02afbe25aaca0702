package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/adapters/persistence/models"
	"ppn-chip-sales/internal/adapters/persistence/repositories"
	"ppn-chip-sales/internal/adapters/wallet"
	"ppn-chip-sales/internal/core/domain"
)

// ErrOperationInFlight guards against duplicate submissions while a backend
// or wallet call is still running (double-click protection).
var ErrOperationInFlight = errors.New("another operation is still in flight")

// SuccessMessage is the fixed confirmation shown after a dispatched payment.
// Crediting is asynchronous; this does not mean on-chain settlement.
const SuccessMessage = "Payment accepted. Chips will appear on your balance shortly."

// WalletNeededMessage is shown when confirm runs without a verified wallet
const WalletNeededMessage = "Connect a wallet to pay."

// SelectOutcome reports whether a selection advanced the flow or was deferred
// behind a wallet connection request.
type SelectOutcome struct {
	Deferred  bool   `json:"deferred"`
	Challenge string `json:"challenge,omitempty"`
}

// PackageQuote is a quick package with its display price
type PackageQuote struct {
	Chips int64           `json:"chips"`
	Price decimal.Decimal `json:"price"`
}

// FlowSnapshot is the state the surface renders from
type FlowSnapshot struct {
	Step           domain.FlowStep     `json:"step"`
	AccountShortID int64               `json:"account_short_id,omitempty"`
	ClubShortID    int64               `json:"club_short_id,omitempty"`
	ClubLocked     bool                `json:"club_locked"`
	Preview        *domain.Preview     `json:"preview,omitempty"`
	Quotes         []PackageQuote      `json:"quotes,omitempty"`
	SelectedChips  int64               `json:"selected_chips,omitempty"`
	SelectedAmount decimal.Decimal     `json:"selected_amount"`
	WalletStatus   domain.WalletStatus `json:"wallet_status"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	ErrorContacts  []domain.Contact    `json:"error_contacts,omitempty"`
	SuccessMessage string              `json:"success_message,omitempty"`
}

// Flow drives one user through lookup -> selection -> confirmation ->
// payment. One Flow per mini-app session; operations are serialized and every
// slow call releases the lock, so completions are checked against the flow
// epoch and dropped when the user has since moved elsewhere.
type Flow struct {
	session   *domain.Session
	api       BackendAPI
	wallet    *WalletService
	connector wallet.Connector
	payments  *PaymentService
	prefills  repositories.PrefillRepository

	mu             sync.Mutex
	epoch          uint64
	busy           bool
	step           domain.FlowStep
	accountShortID int64
	clubShortID    int64
	preview        *domain.Preview
	selectedChips  int64
	selectedAmount decimal.Decimal
	intent         *domain.PurchaseIntent
	errorMessage   string
	errorContacts  []domain.Contact
	successMessage string
}

// NewFlow creates a flow at the Form step. initialAccount/initialClub come
// from the prefill store and may be zero.
func NewFlow(
	session *domain.Session,
	api BackendAPI,
	walletSvc *WalletService,
	connector wallet.Connector,
	payments *PaymentService,
	prefills repositories.PrefillRepository,
	initialAccount, initialClub int64,
) *Flow {
	flow := &Flow{
		session:        session,
		api:            api,
		wallet:         walletSvc,
		connector:      connector,
		payments:       payments,
		prefills:       prefills,
		step:           domain.StepForm,
		accountShortID: initialAccount,
		clubShortID:    initialClub,
	}
	if session.ClubLocked() {
		flow.clubShortID = *session.BoundClubID
	}
	return flow
}

// Submit handles the Form step: fetch the preview for (account, club) and
// advance to Packages, or surface the refusal.
func (f *Flow) Submit(ctx context.Context, accountShortID, clubShortID int64) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrOperationInFlight
	}
	if f.step != domain.StepForm {
		f.mu.Unlock()
		return domain.ErrWrongStep
	}
	if f.session.ClubLocked() {
		clubShortID = *f.session.BoundClubID
	}
	if accountShortID == 0 || clubShortID == 0 {
		// No request goes out on missing input; the form stays put.
		f.mu.Unlock()
		return domain.ErrMissingField
	}
	f.busy = true
	epoch := f.epoch
	f.mu.Unlock()

	preview, err := f.api.Preview(ctx, accountShortID, clubShortID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.epoch != epoch {
		// The user abandoned this lookup; drop the stale result.
		return nil
	}

	if err != nil {
		f.toError(err.Error(), nil)
		return err
	}

	if !preview.Allowed {
		reason := preview.Reason
		if reason == "" {
			reason = "Top-up is temporarily unavailable."
		}
		var contacts []domain.Contact
		if preview.Club != nil {
			contacts = preview.Club.Contacts
		}
		f.toError(reason, contacts)
		return &domain.NotAllowedError{Reason: reason, Contacts: contacts}
	}

	f.accountShortID = accountShortID
	f.clubShortID = clubShortID
	f.preview = preview
	f.persistPrefill(ctx, accountShortID, clubShortID)
	f.step = domain.StepPackages
	return nil
}

// Select stores the chosen chip amount and advances to Summary. Without a
// verified wallet the selection is deferred and a connection is requested
// instead; the user stays on Packages.
func (f *Flow) Select(ctx context.Context, chips int64) (*SelectOutcome, error) {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return nil, ErrOperationInFlight
	}
	if f.step != domain.StepPackages || f.preview == nil || f.preview.Sale == nil {
		f.mu.Unlock()
		return nil, domain.ErrWrongStep
	}
	if chips <= 0 {
		f.mu.Unlock()
		return nil, domain.ErrInvalidAmount
	}
	// Range limits on custom amounts are advisory UX only; the backend is
	// the authority and the client never blocks beyond positivity.
	sale := f.preview.Sale

	if !f.wallet.Verified() {
		f.busy = true
		f.mu.Unlock()

		challenge, err := f.wallet.RequestConnection(ctx)

		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return &SelectOutcome{Deferred: true, Challenge: challenge}, nil
	}

	f.selectedChips = chips
	f.selectedAmount = ChipsToStablecoin(chips, sale.PricePerChip)
	f.step = domain.StepSummary
	f.mu.Unlock()
	return &SelectOutcome{}, nil
}

// Confirm consumes the selection as a purchase intent and delegates to
// payment submission.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrOperationInFlight
	}
	if f.step != domain.StepSummary || f.preview == nil || f.preview.Sale == nil {
		f.mu.Unlock()
		return domain.ErrWrongStep
	}
	if !f.wallet.Verified() {
		f.toError(WalletNeededMessage, nil)
		f.mu.Unlock()
		return domain.ErrWalletNotConnected
	}

	intent := &domain.PurchaseIntent{
		ID:               uuid.New().String(),
		AccountShortID:   f.accountShortID,
		ClubShortID:      f.clubShortID,
		ChipsAmount:      f.selectedChips,
		StablecoinAmount: f.selectedAmount,
		CreatedAt:        time.Now(),
	}
	f.intent = intent
	pricePerChip := f.preview.Sale.PricePerChip
	binding := f.wallet.Binding()
	f.busy = true
	epoch := f.epoch
	f.mu.Unlock()

	err := f.payments.Submit(ctx, f.api, f.connector, binding, intent, pricePerChip)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	// The intent is consumed exactly once, success or not.
	f.intent = nil
	if f.epoch != epoch {
		return nil
	}

	if err != nil {
		f.toError(err.Error(), nil)
		return err
	}

	f.successMessage = SuccessMessage
	f.step = domain.StepSuccess
	return nil
}

// Back returns from Summary to Packages without discarding the preview
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != domain.StepSummary {
		return domain.ErrWrongStep
	}
	f.selectedChips = 0
	f.selectedAmount = decimal.Zero
	f.step = domain.StepPackages
	return nil
}

// Retry returns from Error to Form. Preview, selection and any in-flight
// intent are discarded; a Verified wallet binding survives.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != domain.StepError {
		return domain.ErrWrongStep
	}
	f.reset()
	return nil
}

// Close restarts everything after Success, equivalent to a fresh load
func (f *Flow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != domain.StepSuccess {
		return domain.ErrWrongStep
	}
	f.reset()
	return nil
}

// RaiseError escalates a failure from an independent surface (withdraw) into
// the shared error state.
func (f *Flow) RaiseError(message string, contacts []domain.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toError(message, contacts)
}

// Snapshot returns the state the surface renders from
func (f *Flow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := FlowSnapshot{
		Step:           f.step,
		AccountShortID: f.accountShortID,
		ClubShortID:    f.clubShortID,
		ClubLocked:     f.session.ClubLocked(),
		Preview:        f.preview,
		SelectedChips:  f.selectedChips,
		SelectedAmount: f.selectedAmount,
		WalletStatus:   f.wallet.Binding().Status,
		ErrorMessage:   f.errorMessage,
		ErrorContacts:  f.errorContacts,
		SuccessMessage: f.successMessage,
	}
	if f.preview != nil && f.preview.Sale != nil {
		for _, chips := range f.preview.Sale.QuickPackages {
			snapshot.Quotes = append(snapshot.Quotes, PackageQuote{
				Chips: chips,
				Price: ChipsToStablecoin(chips, f.preview.Sale.PricePerChip),
			})
		}
	}
	return snapshot
}

// toError moves to the shared error state. Callers hold f.mu.
func (f *Flow) toError(message string, contacts []domain.Contact) {
	f.epoch++
	f.step = domain.StepError
	f.errorMessage = message
	f.errorContacts = contacts
	f.successMessage = ""
}

// reset clears everything except the wallet binding and returns to Form.
// Callers hold f.mu.
func (f *Flow) reset() {
	f.epoch++
	f.step = domain.StepForm
	f.preview = nil
	f.selectedChips = 0
	f.selectedAmount = decimal.Zero
	f.intent = nil
	f.errorMessage = ""
	f.errorContacts = nil
	f.successMessage = ""
	if f.session.ClubLocked() {
		f.clubShortID = *f.session.BoundClubID
	}
}

// persistPrefill saves the last-used ids for the next visit. Best effort:
// failures are logged and swallowed, never surfaced. Callers hold f.mu.
func (f *Flow) persistPrefill(ctx context.Context, accountShortID, clubShortID int64) {
	if f.prefills == nil || f.session.TgUserID == 0 {
		return
	}
	prefill := &models.Prefill{
		TgUserID:       f.session.TgUserID,
		AccountShortID: accountShortID,
		ClubShortID:    clubShortID,
	}
	if err := f.prefills.Save(ctx, prefill); err != nil {
		log.Printf("prefill save failed: %v", err)
	}
}
