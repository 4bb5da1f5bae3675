package payment

import (
	"context"
	"fmt"
	"sync"
)

// Demo is a synthetic provider whose invoices are paid the moment they are
// created. Selected by configuration for local runs without a payment
// account.
type Demo struct {
	mu       sync.Mutex
	nextID   int64
	invoices map[string]*Invoice
}

// NewDemo creates an empty demo provider.
func NewDemo() *Demo {
	return &Demo{invoices: make(map[string]*Invoice)}
}

// CreateInvoice implements Provider.
func (d *Demo) CreateInvoice(_ context.Context, playerID, amount int64, asset string) (*Invoice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := fmt.Sprintf("demo-%d", d.nextID)
	inv := &Invoice{
		InvoiceID: id,
		Status:    StatusPaid,
		PayURL:    fmt.Sprintf("https://t.me/CryptoBot?start=invoice_%d_%d", playerID, amount),
		Amount:    amount,
		Asset:     asset,
	}
	d.invoices[id] = inv
	return inv, nil
}

// GetInvoice implements Provider.
func (d *Demo) GetInvoice(_ context.Context, invoiceID string) (*Invoice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inv, ok := d.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %s not found", ErrProvider, invoiceID)
	}
	return inv, nil
}
