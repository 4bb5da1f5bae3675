// Package payment integrates the external invoice provider: invoice
// creation, status polling and crediting confirmed deposits exactly once.
package payment

import (
	"context"
	"errors"
)

// Invoice statuses reported by the provider.
const (
	StatusActive  = "active"
	StatusPaid    = "paid"
	StatusExpired = "expired"
)

// ErrProvider wraps any network, auth or validation failure from the
// payment API. Never fatal: logged and surfaced as a generic failure.
var ErrProvider = errors.New("payment provider error")

// Invoice is a provider-side payment request.
type Invoice struct {
	InvoiceID string
	Status    string
	PayURL    string
	Amount    int64
	Asset     string
}

// Provider abstracts the payment backend so the demo shortcut is a
// configuration choice instead of a conditional in business logic.
type Provider interface {
	CreateInvoice(ctx context.Context, playerID, amount int64, asset string) (*Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}
