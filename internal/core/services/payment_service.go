package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ppn-chip-sales/internal/adapters/persistence/models"
	"ppn-chip-sales/internal/adapters/persistence/repositories"
	"ppn-chip-sales/internal/adapters/ton"
	"ppn-chip-sales/internal/adapters/wallet"
	"ppn-chip-sales/internal/core/domain"
)

// Transfer construction constants. The forward reserve is the nanoton amount
// carried with the transfer notification; the gas budget is the fixed value
// allowance attached to the message.
const (
	forwardReserveNano = 1
	gasBudgetNano      = 50_000_000 // 0.05 TON

	// defaultTransferValidity applies when no window is configured.
	defaultTransferValidity = 5 * time.Minute
)

// declinePatterns are substrings of wallet failure texts that mean the user
// declined rather than the transfer breaking.
var declinePatterns = []string{
	"declin",
	"reject",
	"cancel",
	"denied",
	"user closed",
}

// DeclinedMessage is the fixed user-facing text for a declined payment
const DeclinedMessage = "payment declined in the wallet"

// PaymentService turns a confirmed purchase intent into an on-chain transfer
// request. Success here does not confirm settlement; crediting happens
// asynchronously on the backend.
type PaymentService struct {
	registry ton.Resolver
	attempts repositories.AttemptRepository
	validity time.Duration
}

// NewPaymentService creates a new payment service. validity bounds how long a
// dispatched transfer request stays executable; zero means the default window.
func NewPaymentService(registry ton.Resolver, attempts repositories.AttemptRepository, validity time.Duration) *PaymentService {
	if validity <= 0 {
		validity = defaultTransferValidity
	}
	return &PaymentService{
		registry: registry,
		attempts: attempts,
		validity: validity,
	}
}

// Submit executes the payment steps for one intent, strictly in order:
// validate, fetch the deposit instruction, resolve the payer's jetton wallet,
// dispatch the transfer, classify the outcome. The intent is consumed whether
// or not this succeeds.
func (s *PaymentService) Submit(
	ctx context.Context,
	api BackendAPI,
	connector wallet.Connector,
	binding domain.WalletBinding,
	intent *domain.PurchaseIntent,
	pricePerChip decimal.Decimal,
) error {
	// 1. Validate the intent before touching the network
	if intent == nil || intent.AccountShortID == 0 || intent.ClubShortID == 0 || intent.ChipsAmount <= 0 {
		return domain.ErrMissingData
	}
	if binding.Status != domain.WalletVerified || binding.Address == "" {
		return domain.ErrWalletNotConnected
	}

	// 2. Request a single-use deposit instruction
	instruction, err := api.DepositData(ctx, intent.AccountShortID, intent.ClubShortID, intent.ChipsAmount)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInstructionUnavailable, err)
	}
	if instruction.DestinationAddress == "" || instruction.Memo == "" {
		return domain.ErrInstructionUnavailable
	}

	// Amount is recomputed from the confirmed chips count, never taken from
	// the originally selected value.
	amount := ChipsToStablecoin(intent.ChipsAmount, pricePerChip)
	minorUnits := ToMinorUnits(amount, USDTDecimals)

	s.recordAttempt(ctx, intent, amount)

	// 3. Resolve the payer's stablecoin sub-account
	jettonWallet, err := s.registry.ResolveJettonWallet(ctx, binding.Address)
	if err != nil {
		s.recordOutcome(ctx, intent.ID, models.AttemptFailed, err.Error())
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	// 4. Dispatch to the external wallet and wait for its verdict
	req := wallet.TransferRequest{
		ID:                  intent.ID,
		JettonWalletAddress: jettonWallet,
		RecipientAddress:    instruction.DestinationAddress,
		AmountMinorUnits:    minorUnits,
		ForwardReserveNano:  forwardReserveNano,
		Comment:             instruction.Memo,
		GasBudgetNano:       gasBudgetNano,
		ValidUntil:          time.Now().Add(s.validity),
	}

	if err := connector.SendTransfer(ctx, req); err != nil {
		// 5. Classify the failure
		if isDecline(err) {
			s.recordOutcome(ctx, intent.ID, models.AttemptRejected, err.Error())
			return fmt.Errorf("%w: %s", domain.ErrTransferRejected, DeclinedMessage)
		}
		s.recordOutcome(ctx, intent.ID, models.AttemptFailed, err.Error())
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	log.Printf("✅ Transfer dispatched [intent=%s chips=%d minor_units=%d]", intent.ID, intent.ChipsAmount, minorUnits)
	return nil
}

func isDecline(err error) bool {
	text := strings.ToLower(err.Error())
	for _, pattern := range declinePatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

// recordAttempt writes the audit row for a submission; failures are logged
// and swallowed because auditing must never block a payment.
func (s *PaymentService) recordAttempt(ctx context.Context, intent *domain.PurchaseIntent, amount decimal.Decimal) {
	if s.attempts == nil {
		return
	}
	attempt := &models.PurchaseAttempt{
		IntentID:       intent.ID,
		AccountShortID: intent.AccountShortID,
		ClubShortID:    intent.ClubShortID,
		ChipsAmount:    intent.ChipsAmount,
		AmountUSDT:     amount,
		Status:         models.AttemptSubmitted,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Printf("attempt audit write failed: %v", err)
	}
}

func (s *PaymentService) recordOutcome(ctx context.Context, intentID, status, reason string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.UpdateStatus(ctx, intentID, status, reason); err != nil {
		log.Printf("attempt audit update failed: %v", err)
	}
}
