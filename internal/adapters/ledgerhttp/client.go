// Package ledgerhttp implements the ledger platform API client consumed by
// the sync engine.
package ledgerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds the platform connection settings. When OAuth client
// credentials are present they take precedence over the static API key.
type Config struct {
	APIURL       string
	AppURL       string // base of user-facing book links
	APIKey       string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Client talks to the ledger platform REST API.
type Client struct {
	apiURL     string
	appURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new platform client.
func NewClient(cfg Config) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		oauth := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		httpClient = oauth.Client(context.Background())
		httpClient.Timeout = 30 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimSuffix(cfg.APIURL, "/"),
		appURL:     strings.TrimSuffix(cfg.AppURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

var _ clients.LedgerClient = (*Client)(nil)

// Wire payloads. Amounts travel as decimal strings.

type bookPayload struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	FractionDigits   int32             `json:"fractionDigits"`
	DatePattern      string            `json:"datePattern"`
	DecimalSeparator string            `json:"decimalSeparator"`
	TimeZone         string            `json:"timeZone"`
	Properties       map[string]string `json:"properties"`
}

type accountPayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
	GroupIDs   []string          `json:"groupIds,omitempty"`
}

type groupPayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties,omitempty"`
}

type transactionPayload struct {
	ID            string            `json:"id"`
	Date          string            `json:"date"`
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	CreditAccount string            `json:"creditAccount,omitempty"`
	DebitAccount  string            `json:"debitAccount,omitempty"`
	Description   string            `json:"description"`
	Properties    map[string]string `json:"properties,omitempty"`
	RemoteIDs     []string          `json:"remoteIds,omitempty"`
	Posted        bool              `json:"posted"`
	Checked       bool              `json:"checked"`
}

type balancePayload struct {
	Balance decimal.Decimal `json:"balance"`
}

// GetBook implements clients.LedgerClient.
func (c *Client) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	var payload bookPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s", bookID), nil, nil, &payload); err != nil {
		return nil, err
	}
	return toBook(payload), nil
}

// UpdateBook implements clients.LedgerClient.
func (c *Client) UpdateBook(ctx context.Context, book domain.Book) error {
	payload := bookPayload{
		ID:               book.BookID,
		Name:             book.Name,
		FractionDigits:   book.FractionDigits,
		DatePattern:      book.DatePattern,
		DecimalSeparator: book.DecimalSeparator,
		TimeZone:         book.TimeZone,
		Properties:       book.Properties,
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/books/%s", book.BookID), nil, payload, nil)
}

// BookLink implements clients.LedgerClient.
func (c *Client) BookLink(bookID string) string {
	return fmt.Sprintf("%s/b/#transactions:bookId=%s", c.appURL, bookID)
}

// GetAccountByID implements clients.LedgerClient.
func (c *Client) GetAccountByID(ctx context.Context, bookID, accountID string) (*domain.Account, error) {
	var payload accountPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/accounts/%s", bookID, accountID), nil, nil, &payload); err != nil {
		return nil, err
	}
	return toAccount(payload), nil
}

// GetAccountByName implements clients.LedgerClient.
func (c *Client) GetAccountByName(ctx context.Context, bookID, name string) (*domain.Account, error) {
	var payloads []accountPayload
	query := url.Values{"name": []string{name}}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/accounts", bookID), query, nil, &payloads); err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return toAccount(payloads[0]), nil
}

// CreateAccount implements clients.LedgerClient.
func (c *Client) CreateAccount(ctx context.Context, bookID string, account domain.Account, groupIDs []string) (*domain.Account, error) {
	payload := accountPayload{
		Name:       account.Name,
		Type:       string(account.AccountType),
		Properties: account.Properties,
		GroupIDs:   groupIDs,
	}
	var created accountPayload
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/books/%s/accounts", bookID), nil, payload, &created); err != nil {
		return nil, err
	}
	return toAccount(created), nil
}

// AccountGroups implements clients.LedgerClient.
func (c *Client) AccountGroups(ctx context.Context, bookID, accountID string) ([]domain.Group, error) {
	var payloads []groupPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/accounts/%s/groups", bookID, accountID), nil, nil, &payloads); err != nil {
		return nil, err
	}
	groups := make([]domain.Group, len(payloads))
	for i, payload := range payloads {
		groups[i] = *toGroup(payload)
	}
	return groups, nil
}

// GetBalance implements clients.LedgerClient.
func (c *Client) GetBalance(ctx context.Context, bookID, accountID string) (decimal.Decimal, error) {
	var payload balancePayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/accounts/%s/balance", bookID, accountID), nil, nil, &payload); err != nil {
		return decimal.Zero, err
	}
	return payload.Balance, nil
}

// GetGroupByName implements clients.LedgerClient.
func (c *Client) GetGroupByName(ctx context.Context, bookID, name string) (*domain.Group, error) {
	var payloads []groupPayload
	query := url.Values{"name": []string{name}}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/groups", bookID), query, nil, &payloads); err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return toGroup(payloads[0]), nil
}

// CreateGroup implements clients.LedgerClient.
func (c *Client) CreateGroup(ctx context.Context, bookID string, group domain.Group) (*domain.Group, error) {
	payload := groupPayload{Name: group.Name, Properties: group.Properties}
	var created groupPayload
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/books/%s/groups", bookID), nil, payload, &created); err != nil {
		return nil, err
	}
	return toGroup(created), nil
}

// UpdateGroup implements clients.LedgerClient.
func (c *Client) UpdateGroup(ctx context.Context, bookID string, group domain.Group) error {
	payload := groupPayload{ID: group.GroupID, Name: group.Name, Properties: group.Properties}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/books/%s/groups/%s", bookID, group.GroupID), nil, payload, nil)
}

// GroupAccounts implements clients.LedgerClient.
func (c *Client) GroupAccounts(ctx context.Context, bookID, groupID string) ([]domain.Account, error) {
	var payloads []accountPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/groups/%s/accounts", bookID, groupID), nil, nil, &payloads); err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, len(payloads))
	for i, payload := range payloads {
		accounts[i] = *toAccount(payload)
	}
	return accounts, nil
}

// FindTransactionByRemoteID implements clients.LedgerClient.
func (c *Client) FindTransactionByRemoteID(ctx context.Context, bookID, remoteID string) (*domain.Transaction, error) {
	var payloads []transactionPayload
	query := url.Values{"remoteId": []string{remoteID}}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/books/%s/transactions", bookID), query, nil, &payloads); err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return toTransaction(payloads[0]), nil
}

// CreateTransaction implements clients.LedgerClient.
func (c *Client) CreateTransaction(ctx context.Context, bookID string, txn domain.Transaction) (*domain.Transaction, error) {
	payload := transactionPayload{
		Date:          txn.Date,
		Amount:        txn.Amount,
		CreditAccount: txn.CreditAccount,
		DebitAccount:  txn.DebitAccount,
		Description:   txn.Description,
		Properties:    txn.Properties,
		RemoteIDs:     txn.RemoteIDs,
	}
	var created transactionPayload
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/books/%s/transactions", bookID), nil, payload, &created); err != nil {
		return nil, err
	}
	return toTransaction(created), nil
}

// PostTransaction implements clients.LedgerClient.
func (c *Client) PostTransaction(ctx context.Context, bookID, transactionID string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/books/%s/transactions/%s/post", bookID, transactionID), nil, nil, nil)
}

// CheckTransaction implements clients.LedgerClient.
func (c *Client) CheckTransaction(ctx context.Context, bookID, transactionID string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/v1/books/%s/transactions/%s/check", bookID, transactionID), nil, nil, nil)
}

// do performs one API call, mapping 404 to apperrors.ErrNotFound and 409 to
// apperrors.ErrDuplicate so callers can branch on them.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.apiURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger API request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return apperrors.ErrDuplicate
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ledger API %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ledger API response: %w", err)
	}
	return nil
}

func toBook(payload bookPayload) *domain.Book {
	return &domain.Book{
		BookID:           payload.ID,
		Name:             payload.Name,
		FractionDigits:   payload.FractionDigits,
		DatePattern:      payload.DatePattern,
		DecimalSeparator: payload.DecimalSeparator,
		TimeZone:         payload.TimeZone,
		Properties:       payload.Properties,
	}
}

func toAccount(payload accountPayload) *domain.Account {
	return &domain.Account{
		AccountID:   payload.ID,
		Name:        payload.Name,
		AccountType: domain.AccountType(payload.Type),
		Properties:  payload.Properties,
	}
}

func toGroup(payload groupPayload) *domain.Group {
	return &domain.Group{
		GroupID:    payload.ID,
		Name:       payload.Name,
		Properties: payload.Properties,
	}
}

func toTransaction(payload transactionPayload) *domain.Transaction {
	status := domain.Draft
	if payload.Checked {
		status = domain.Checked
	} else if payload.Posted {
		status = domain.Posted
	}
	return &domain.Transaction{
		TransactionID: payload.ID,
		Date:          payload.Date,
		Amount:        payload.Amount,
		CreditAccount: payload.CreditAccount,
		DebitAccount:  payload.DebitAccount,
		Description:   payload.Description,
		Properties:    payload.Properties,
		RemoteIDs:     payload.RemoteIDs,
		Status:        status,
	}
}
