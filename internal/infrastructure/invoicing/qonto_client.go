// Package invoicing is the Qonto client used to issue, edit and finalize
// customer invoices and quotes.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024
	// maxPDFSize bounds downloaded invoice PDFs
	maxPDFSize = 50 * 1024 * 1024

	clientsPageSize = 100
	idempotencyHdr  = "X-Qonto-Idempotency-Key"
)

// ErrNoActiveBankAccount is returned when the organization has no active account
var ErrNoActiveBankAccount = &ProviderError{Code: ErrCodeNotFound, Detail: "no active bank account"}

// Client talks to the Qonto third-party API
type Client struct {
	config     QontoConfig
	httpClient *http.Client
	logger     *zap.Logger
	group      singleflight.Group
}

// NewClient creates a Qonto client with the given configuration
func NewClient(config QontoConfig, logger *zap.Logger) (*Client, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("qonto"),
	}, nil
}

// GetBankAccounts lists the organization's bank accounts
func (c *Client) GetBankAccounts(ctx context.Context) ([]BankAccount, error) {
	var out bankAccountsEnvelope
	if err := c.do(ctx, http.MethodGet, "/v2/bank_accounts", nil, "", &out); err != nil {
		return nil, err
	}
	return out.BankAccounts, nil
}

// ActiveBankAccount returns the first active account. Concurrent callers
// share one in-flight request.
func (c *Client) ActiveBankAccount(ctx context.Context) (*BankAccount, error) {
	v, err, _ := c.group.Do("active-bank-account", func() (any, error) {
		accounts, err := c.GetBankAccounts(ctx)
		if err != nil {
			return nil, err
		}
		for i := range accounts {
			if accounts[i].IsActive() {
				return &accounts[i], nil
			}
		}
		return nil, ErrNoActiveBankAccount
	})
	if err != nil {
		return nil, err
	}
	return v.(*BankAccount), nil
}

// FindClientByEmail returns the client with the given email, or nil. Emails
// are compared case-insensitively across every page of clients.
func (c *Client) FindClientByEmail(ctx context.Context, email string) (*Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	page := 1
	for {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(clientsPageSize))
		q.Set("page", strconv.Itoa(page))

		var out clientsEnvelope
		if err := c.do(ctx, http.MethodGet, "/v2/clients?"+q.Encode(), nil, "", &out); err != nil {
			return nil, err
		}
		for i := range out.Clients {
			if strings.EqualFold(out.Clients[i].Email, email) {
				return &out.Clients[i], nil
			}
		}
		if out.Meta.NextPage == nil || len(out.Clients) == 0 {
			return nil, nil
		}
		page = *out.Meta.NextPage
	}
}

// CreateClient creates a Qonto client. Currency and locale default to EUR and fr.
func (c *Client) CreateClient(ctx context.Context, in CustomerInput) (*Customer, error) {
	if in.Currency == "" {
		in.Currency = CurrencyEUR
	}
	if in.Locale == "" {
		in.Locale = "fr"
	}
	var out clientEnvelope
	if err := c.do(ctx, http.MethodPost, "/v2/clients", in, "", &out); err != nil {
		return nil, err
	}
	return &out.Client, nil
}

// UpdateClient patches an existing client
func (c *Client) UpdateClient(ctx context.Context, clientID string, in CustomerInput) (*Customer, error) {
	var out clientEnvelope
	if err := c.do(ctx, http.MethodPatch, "/v2/clients/"+url.PathEscape(clientID), in, "", &out); err != nil {
		return nil, err
	}
	return &out.Client, nil
}

// CreateInvoice creates a draft client invoice. idempotencyKey is forwarded so
// that a retried call does not create a second invoice.
func (c *Client) CreateInvoice(ctx context.Context, in InvoiceInput, idempotencyKey string) (*Invoice, error) {
	if in.Currency == "" {
		in.Currency = CurrencyEUR
	}
	var out invoiceEnvelope
	if err := c.do(ctx, http.MethodPost, "/v2/client_invoices", in, idempotencyKey, &out); err != nil {
		return nil, err
	}
	return &out.ClientInvoice, nil
}

// UpdateInvoice patches a draft client invoice
func (c *Client) UpdateInvoice(ctx context.Context, invoiceID string, in InvoiceInput) (*Invoice, error) {
	var out invoiceEnvelope
	if err := c.do(ctx, http.MethodPatch, "/v2/client_invoices/"+url.PathEscape(invoiceID), in, "", &out); err != nil {
		return nil, err
	}
	return &out.ClientInvoice, nil
}

// FinalizeInvoice turns a draft into a numbered, immutable invoice
func (c *Client) FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var out invoiceEnvelope
	if err := c.do(ctx, http.MethodPost, "/v2/client_invoices/"+url.PathEscape(invoiceID)+"/finalize", nil, "", &out); err != nil {
		return nil, err
	}
	return &out.ClientInvoice, nil
}

// CreateQuote creates a draft quote
func (c *Client) CreateQuote(ctx context.Context, in QuoteInput, idempotencyKey string) (*Quote, error) {
	if in.Currency == "" {
		in.Currency = CurrencyEUR
	}
	var out quoteEnvelope
	if err := c.do(ctx, http.MethodPost, "/v2/quotes", in, idempotencyKey, &out); err != nil {
		return nil, err
	}
	return &out.Quote, nil
}

// FinalizeQuote finalizes a draft quote
func (c *Client) FinalizeQuote(ctx context.Context, quoteID string) (*Quote, error) {
	var out quoteEnvelope
	if err := c.do(ctx, http.MethodPost, "/v2/quotes/"+url.PathEscape(quoteID)+"/finalize", nil, "", &out); err != nil {
		return nil, err
	}
	return &out.Quote, nil
}

// DownloadPDF fetches a document PDF from the URL returned by Qonto. The
// caller must close the returned reader.
func (c *Client) DownloadPDF(ctx context.Context, pdfURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("qonto: failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &ProviderError{Code: ErrCodeNetwork, Detail: err.Error()}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, 0, &ProviderError{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Detail: "pdf download failed"}
	}
	body := struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxPDFSize), resp.Body}
	return body, resp.ContentLength, nil
}

// replayable reports whether a request can be sent again without risking a
// second write at the provider.
func replayable(method, idempotencyKey string) bool {
	return method == http.MethodGet || idempotencyKey != ""
}

// do sends one JSON request and decodes the response into out. Replayable
// requests are retried on network failures, 5xx and 429 with exponential
// backoff; any other request is sent exactly once.
func (c *Client) do(ctx context.Context, method, path string, in any, idempotencyKey string, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("qonto: failed to marshal request: %w", err)
		}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.config.RetryDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0.1

	maxTries := uint(1)
	if replayable(method, idempotencyKey) {
		maxTries += uint(c.config.MaxRetries)
	}

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		body, err := c.send(ctx, method, path, payload, idempotencyKey)
		if err == nil {
			return body, nil
		}
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Retryable() && uint(attempt) < maxTries {
			c.logger.Warn("qonto request failed, retrying",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, backoff.WithBackOff(expo), backoff.WithMaxTries(maxTries))
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("qonto: failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, idempotencyKey string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("qonto: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.config.authorization())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHdr, idempotencyKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Code: ErrCodeNetwork, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ProviderError{Status: resp.StatusCode, Code: ErrCodeNetwork, Detail: err.Error()}
	}

	c.logger.Debug("qonto request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newProviderError(resp.StatusCode, body)
	}
	return body, nil
}

func newProviderError(status int, body []byte) *ProviderError {
	pe := &ProviderError{Status: status, Code: codeForStatus(status), Body: string(body)}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Message != "":
			pe.Detail = env.Message
		case env.Error != "":
			pe.Detail = env.Error
		case len(env.Errors) > 0:
			pe.Detail = env.Errors[0].Detail
		}
	}
	if status == http.StatusUnauthorized {
		pe.Detail = "invalid Qonto credentials"
	}
	if pe.Detail == "" {
		pe.Detail = fmt.Sprintf("Qonto API error (%d)", status)
	}
	return pe
}
