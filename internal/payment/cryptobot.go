package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Crypto Pay API hosts.
const (
	mainnetBaseURL = "https://pay.crypt.bot/api"
	testnetBaseURL = "https://testnet-pay.crypt.bot/api"
)

// CryptoBot is the Crypto Pay API client.
type CryptoBot struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewCryptoBot creates a client for the given API token. The testnet flag
// switches the API host.
func NewCryptoBot(token string, testnet bool) *CryptoBot {
	baseURL := mainnetBaseURL
	if testnet {
		baseURL = testnetBaseURL
	}
	return &CryptoBot{
		token:   token,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type apiInvoice struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	PayURL    string `json:"pay_url"`
	Amount    string `json:"amount"`
	Asset     string `json:"asset"`
}

func (a *apiInvoice) toInvoice() *Invoice {
	amount, _ := strconv.ParseFloat(a.Amount, 64)
	return &Invoice{
		InvoiceID: strconv.FormatInt(a.InvoiceID, 10),
		Status:    a.Status,
		PayURL:    a.PayURL,
		Amount:    int64(amount),
		Asset:     a.Asset,
	}
}

func (c *CryptoBot) call(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Crypto-Pay-API-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	if !body.OK {
		if body.Error != nil {
			return fmt.Errorf("%w: %s (code %d)", ErrProvider, body.Error.Name, body.Error.Code)
		}
		return fmt.Errorf("%w: request rejected", ErrProvider)
	}

	if err := json.Unmarshal(body.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrProvider, err)
	}
	return nil
}

// CreateInvoice implements Provider.
func (c *CryptoBot) CreateInvoice(ctx context.Context, playerID, amount int64, asset string) (*Invoice, error) {
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("description", fmt.Sprintf("GeoHunter deposit for player %d", playerID))
	params.Set("payload", strconv.FormatInt(playerID, 10))

	var inv apiInvoice
	if err := c.call(ctx, "createInvoice", params, &inv); err != nil {
		return nil, err
	}
	return inv.toInvoice(), nil
}

// GetInvoice implements Provider.
func (c *CryptoBot) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	params := url.Values{}
	params.Set("invoice_ids", invoiceID)

	var result struct {
		Items []apiInvoice `json:"items"`
	}
	if err := c.call(ctx, "getInvoices", params, &result); err != nil {
		return nil, err
	}

	for _, item := range result.Items {
		if strconv.FormatInt(item.InvoiceID, 10) == strings.TrimSpace(invoiceID) {
			return item.toInvoice(), nil
		}
	}
	return nil, fmt.Errorf("%w: invoice %s not found", ErrProvider, invoiceID)
}
