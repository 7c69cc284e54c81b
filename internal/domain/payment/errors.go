package payment

import "github.com/rentnest/backend/internal/domain/shared"

var (
	ErrPaymentNotFound    = shared.NewDomainError("NOT_FOUND", "Payment not found")
	ErrEscrowNotFound     = shared.NewDomainError("NOT_FOUND", "Escrow transaction not found")
	ErrReceiptUnavailable = shared.NewDomainError("INVALID_STATE", "Receipts are only issued for succeeded payments")
)
