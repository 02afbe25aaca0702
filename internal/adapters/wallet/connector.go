package wallet

import (
	"context"
	"time"
)

// TransferRequest carries everything the external wallet needs to execute one
// jetton transfer. The request becomes invalid after ValidUntil; a wallet must
// not broadcast it later.
type TransferRequest struct {
	ID string `json:"id"`
	// JettonWalletAddress is the user's stablecoin sub-account, the contract
	// that actually receives the transfer message.
	JettonWalletAddress string `json:"jetton_wallet_address"`
	// RecipientAddress is the deposit destination from the instruction.
	RecipientAddress string `json:"recipient_address"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	// ForwardReserveNano is the nanoton amount forwarded with the transfer
	// notification.
	ForwardReserveNano int64  `json:"forward_reserve_nano"`
	Comment            string `json:"comment"`
	// GasBudgetNano is the fixed nanoton allowance attached for gas.
	GasBudgetNano int64     `json:"gas_budget_nano"`
	ValidUntil    time.Time `json:"valid_until"`
}

// Connector is the boundary to the external wallet layer. The wallet is an
// untrusted actor; nothing reported by it is taken at face value until the
// binding protocol has verified its proof server-side.
type Connector interface {
	// RequestConnect attaches the server-issued challenge to the wallet
	// connection request and triggers the external wallet UI.
	RequestConnect(ctx context.Context, challenge string) error

	// ClearConnectRequest drops a pending connection request so the external
	// UI does not hang in a loading state.
	ClearConnectRequest()

	// SendTransfer dispatches a transfer request and returns only after the
	// external wallet accepts or rejects it, the context is cancelled, or the
	// request expires.
	SendTransfer(ctx context.Context, req TransferRequest) error

	// Disconnect tears the external wallet connection down.
	Disconnect(ctx context.Context) error
}
