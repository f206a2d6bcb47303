// Package http implements the authority and payment-gateway ports over
// the platform's JSON API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openmeet/ticketgate/internal/authority"
	"github.com/openmeet/ticketgate/internal/models"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type implClient struct {
	baseURL string
	cli     *http.Client
	l       pkgLog.Logger
}

// NewClient returns an implementation of both authority.Client and
// authority.PaymentGateway against the same API. Timeouts belong to
// the transport; a timeout surfaces as a TransportError like any other
// network failure.
func NewClient(cfg Config, l pkgLog.Logger) (*implClient, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid authority base URL: %w", err)
	}

	return &implClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cli:     &http.Client{Timeout: cfg.Timeout},
		l:       l,
	}, nil
}

var _ authority.Client = (*implClient)(nil)
var _ authority.PaymentGateway = (*implClient)(nil)

func (c *implClient) GetEvent(ctx context.Context, eventID string) (*models.EventRecord, error) {
	var ev models.EventRecord
	path := fmt.Sprintf("/events/%s", url.PathEscape(eventID))
	if err := c.do(ctx, http.MethodGet, path, nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *implClient) ValidatePassword(ctx context.Context, eventID, candidate string) (bool, error) {
	req := map[string]string{"candidate_password": candidate}
	var resp struct {
		Valid bool `json:"valid"`
	}

	path := fmt.Sprintf("/events/%s/access", url.PathEscape(eventID))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

func (c *implClient) RegisterParticipants(ctx context.Context, req authority.RegisterRequest) error {
	path := fmt.Sprintf("/events/%s/participants", url.PathEscape(req.EventID))
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *implClient) SubmitCheckin(ctx context.Context, receipt authority.CheckinReceipt) (int64, error) {
	var resp struct {
		CheckedInCount int64 `json:"checked_in_count"`
	}

	path := fmt.Sprintf("/events/%s/checkins", url.PathEscape(receipt.EventID))
	if err := c.do(ctx, http.MethodPost, path, receipt, &resp); err != nil {
		return 0, err
	}
	return resp.CheckedInCount, nil
}

func (c *implClient) CheckedInCount(ctx context.Context, eventID string) (int64, error) {
	var resp struct {
		CheckedInCount int64 `json:"checked_in_count"`
	}

	path := fmt.Sprintf("/events/%s/checkins/count", url.PathEscape(eventID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.CheckedInCount, nil
}

func (c *implClient) UpdateGatekeepers(ctx context.Context, eventID string, emails []string) error {
	req := map[string][]string{"gatekeepers": emails}
	path := fmt.Sprintf("/events/%s/gatekeepers", url.PathEscape(eventID))
	return c.do(ctx, http.MethodPut, path, req, nil)
}

func (c *implClient) CreateCheckoutSession(ctx context.Context, req authority.CheckoutRequest) (string, error) {
	var resp struct {
		RedirectURL string `json:"redirect_url"`
	}

	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", req, &resp); err != nil {
		return "", err
	}
	return resp.RedirectURL, nil
}

// rejection is the authority's error envelope.
type rejection struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (c *implClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		c.l.Errorf(ctx, "authority.http.implClient.do: %s %s: %v", method, path, err)
		return &authority.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var rej rejection
		if err := json.NewDecoder(resp.Body).Decode(&rej); err != nil || rej.ErrorCode == "" {
			return &authority.Error{
				Code:    fmt.Sprintf("http_%d", resp.StatusCode),
				Message: http.StatusText(resp.StatusCode),
			}
		}
		return &authority.Error{Code: rej.ErrorCode, Message: rej.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &authority.TransportError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
