package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geohunter-bot/internal/economy"
	"geohunter-bot/internal/ledger"
	"geohunter-bot/internal/model"
)

func TestDemoProvider(t *testing.T) {
	d := NewDemo()
	ctx := context.Background()

	inv, err := d.CreateInvoice(ctx, 42, 100, "USDT")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, int64(100), inv.Amount)
	assert.NotEmpty(t, inv.PayURL)

	got, err := d.GetInvoice(ctx, inv.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceID, got.InvoiceID)

	_, err = d.GetInvoice(ctx, "missing")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestCryptoBotGetInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-123", r.Header.Get("Crypto-Pay-API-Token"))
		assert.Equal(t, "/getInvoices", r.URL.Path)
		assert.Equal(t, "77", r.URL.Query().Get("invoice_ids"))

		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"items": []map[string]any{
					{"invoice_id": 77, "status": "paid", "pay_url": "https://t.me/x", "amount": "150", "asset": "USDT"},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewCryptoBot("token-123", false)
	c.baseURL = srv.URL

	inv, err := c.GetInvoice(context.Background(), "77")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)
	assert.Equal(t, int64(150), inv.Amount)
	assert.Equal(t, "77", inv.InvoiceID)
}

func TestCryptoBotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": map[string]any{"code": 401, "name": "UNAUTHORIZED"},
		})
	}))
	defer srv.Close()

	c := NewCryptoBot("bad", false)
	c.baseURL = srv.URL

	_, err := c.GetInvoice(context.Background(), "1")
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

type fakePendingStore struct {
	mu        sync.Mutex
	pending   []*model.Transaction
	completed map[int64]bool
	listErr   error
}

func newFakePendingStore(txs ...*model.Transaction) *fakePendingStore {
	return &fakePendingStore{pending: txs, completed: make(map[int64]bool)}
}

func (f *fakePendingStore) PendingDeposits(_ context.Context, _ string) ([]*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*model.Transaction
	for _, tx := range f.pending {
		if !f.completed[tx.TransactionID] {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakePendingStore) CompleteDeposit(_ context.Context, transactionID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed[transactionID] {
		return false, nil
	}
	f.completed[transactionID] = true
	return true, nil
}

func strptr(s string) *string { return &s }

func TestPollerCreditsPaidDeposit(t *testing.T) {
	ctx := context.Background()
	provider := NewDemo()

	inv, err := provider.CreateInvoice(ctx, 7, 200, "USDT")
	require.NoError(t, err)

	store := newFakePendingStore(&model.Transaction{
		TransactionID:         1,
		UserID:                7,
		Amount:                200,
		Type:                  model.TxTypeDeposit,
		Status:                model.TxStatusPending,
		Provider:              model.ProviderCryptoBot,
		ProviderTransactionID: strptr(inv.InvoiceID),
	})

	sampler := economy.NewSamplerWithDraw(func() float64 { return 0.5 })
	ledgerSvc := ledger.NewService(ledger.NewMemStore(), sampler, ledger.Options{})

	var notifications int
	p := NewPoller(provider, model.ProviderCryptoBot, store, ledgerSvc, func(playerID, amount int64) {
		notifications++
		assert.Equal(t, int64(7), playerID)
		assert.Equal(t, int64(200), amount)
	}, 0)

	p.CheckPending(ctx)

	balance, err := ledgerSvc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)
	assert.Equal(t, 1, notifications)

	// Repeated polls must not double-credit or re-notify.
	p.CheckPending(ctx)
	p.CheckPending(ctx)

	balance, err = ledgerSvc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)
	assert.Equal(t, 1, notifications)
}

func TestPollerSkipsUnpaidInvoices(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"items": []map[string]any{
					{"invoice_id": 5, "status": "active", "pay_url": "", "amount": "50", "asset": "USDT"},
				},
			},
		})
	}))
	defer srv.Close()

	provider := NewCryptoBot("t", false)
	provider.baseURL = srv.URL

	store := newFakePendingStore(&model.Transaction{
		TransactionID:         1,
		UserID:                9,
		Amount:                50,
		Status:                model.TxStatusPending,
		ProviderTransactionID: strptr("5"),
	})

	sampler := economy.NewSamplerWithDraw(func() float64 { return 0.5 })
	ledgerSvc := ledger.NewService(ledger.NewMemStore(), sampler, ledger.Options{})
	p := NewPoller(provider, model.ProviderCryptoBot, store, ledgerSvc, nil, 0)

	p.CheckPending(ctx)

	balance, err := ledgerSvc.Balance(ctx, 9)
	require.NoError(t, err)
	assert.Zero(t, balance)
	assert.False(t, store.completed[1])
}

func TestPollerIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	provider := NewDemo()

	paid, err := provider.CreateInvoice(ctx, 3, 80, "USDT")
	require.NoError(t, err)

	store := newFakePendingStore(
		&model.Transaction{
			TransactionID:         1,
			UserID:                2,
			Amount:                40,
			Status:                model.TxStatusPending,
			ProviderTransactionID: strptr("missing"), // provider lookup fails
		},
		&model.Transaction{
			TransactionID: 2,
			UserID:        2,
			Amount:        40,
			Status:        model.TxStatusPending,
			// no provider id at all
		},
		&model.Transaction{
			TransactionID:         3,
			UserID:                3,
			Amount:                80,
			Status:                model.TxStatusPending,
			ProviderTransactionID: strptr(paid.InvoiceID),
		},
	)

	sampler := economy.NewSamplerWithDraw(func() float64 { return 0.5 })
	ledgerSvc := ledger.NewService(ledger.NewMemStore(), sampler, ledger.Options{})
	p := NewPoller(provider, model.ProviderCryptoBot, store, ledgerSvc, nil, 0)

	p.CheckPending(ctx)

	balance, err := ledgerSvc.Balance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(80), balance)
}

func TestPollerListError(t *testing.T) {
	store := newFakePendingStore()
	store.listErr = errors.New("db down")

	sampler := economy.NewSamplerWithDraw(func() float64 { return 0.5 })
	ledgerSvc := ledger.NewService(ledger.NewMemStore(), sampler, ledger.Options{})
	p := NewPoller(NewDemo(), model.ProviderDemo, store, ledgerSvc, nil, 0)

	// Must not panic; nothing to assert beyond a clean return.
	p.CheckPending(context.Background())
}
