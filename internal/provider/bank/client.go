// Package bank implements the provider port against the bank's
// paginated JSON REST API.
package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"centsplit/internal/core"
	"centsplit/internal/provider"
)

const requestTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// apiTransaction mirrors the provider wire format. Amounts arrive as
// decimal strings.
type apiTransaction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    struct {
		ID       string `json:"id"`
		ParentID string `json:"parent_id"`
	} `json:"category"`
	TransferAccountID string    `json:"transfer_account_id"`
	RoundUpAmount     string    `json:"round_up_amount"`
	TransactionType   string    `json:"transaction_type"`
	CreatedAt         time.Time `json:"created_at"`
}

type listResponse struct {
	Transactions []apiTransaction `json:"transactions"`
	NextCursor   string           `json:"next_cursor"`
}

func (c *Client) ListTransactions(ctx context.Context, cursor string, pageSize int) (*provider.Page, error) {
	endpoint, err := url.Parse(c.baseURL + "/transactions")
	if err != nil {
		return nil, fmt.Errorf("parse provider URL: %w", err)
	}

	query := endpoint.Query()
	query.Set("page_size", strconv.Itoa(pageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list transactions: provider returned %d: %s", resp.StatusCode, body)
	}

	var decoded listResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	page := &provider.Page{
		Transactions: make([]provider.Transaction, 0, len(decoded.Transactions)),
		NextCursor:   decoded.NextCursor,
	}
	for _, raw := range decoded.Transactions {
		tx, err := convertTransaction(raw)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed provider transaction",
				"transaction_id", raw.ID,
				"error", err)
			continue
		}
		page.Transactions = append(page.Transactions, tx)
	}

	return page, nil
}

func convertTransaction(raw apiTransaction) (provider.Transaction, error) {
	amountCents, err := core.ParseDecimalToCents(raw.Amount)
	if err != nil {
		return provider.Transaction{}, fmt.Errorf("parse amount %q: %w", raw.Amount, err)
	}

	var roundUpCents int64
	if raw.RoundUpAmount != "" {
		roundUpCents, err = core.ParseDecimalToCents(raw.RoundUpAmount)
		if err != nil {
			return provider.Transaction{}, fmt.Errorf("parse round-up amount %q: %w", raw.RoundUpAmount, err)
		}
	}

	return provider.Transaction{
		ID:                raw.ID,
		Description:       raw.Description,
		AmountCents:       amountCents,
		CategoryID:        raw.Category.ID,
		ParentCategoryID:  raw.Category.ParentID,
		TransferAccountID: raw.TransferAccountID,
		RoundUpCents:      roundUpCents,
		TransactionType:   raw.TransactionType,
		CreatedAt:         raw.CreatedAt,
	}, nil
}
