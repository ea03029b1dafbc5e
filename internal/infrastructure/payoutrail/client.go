package payoutrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"settleline.backend/internal/domain/entities"
	"settleline.backend/internal/usecases"
)

// Client talks to the external payout rail over HTTP. Every submission
// carries an idempotency key the rail de-duplicates on, so resubmitting
// after an indeterminate outcome cannot double-pay a vendor.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a payout rail client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Method         string `json:"method"`
	Destination    string `json:"destination"`
	Amount         int64  `json:"amount"`
}

type submitResponse struct {
	Status        string `json:"status"` // accepted | rejected
	RailReference string `json:"railReference"`
	Reason        string `json:"reason,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"` // pending | settled | failed
}

// SubmitPayout submits one payout. A transport error or timeout is
// returned as-is: the caller must treat it as indeterminate, not failed.
func (c *Client) SubmitPayout(ctx context.Context, idempotencyKey string, method entities.PayoutMethod, destination string, amount int64) (*usecases.PayoutSubmission, error) {
	body, err := json.Marshal(submitRequest{
		IdempotencyKey: idempotencyKey,
		Method:         string(method),
		Destination:    destination,
		Amount:         amount,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("payout rail returned %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	switch strings.ToLower(out.Status) {
	case "accepted":
		return &usecases.PayoutSubmission{State: usecases.PayoutStateAccepted, RailReference: out.RailReference}, nil
	case "rejected":
		return &usecases.PayoutSubmission{State: usecases.PayoutStateRejected, Reason: out.Reason}, nil
	default:
		return nil, fmt.Errorf("payout rail returned unknown status %q", out.Status)
	}
}

// QueryPayoutStatus polls the rail for the outcome of a prior submission
func (c *Client) QueryPayoutStatus(ctx context.Context, railReference string) (usecases.PayoutState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payouts/"+railReference, nil)
	if err != nil {
		return "", err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payout rail returned %d", resp.StatusCode)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	switch strings.ToLower(out.Status) {
	case "settled":
		return usecases.PayoutStateSettled, nil
	case "failed":
		return usecases.PayoutStateFailed, nil
	case "pending":
		return usecases.PayoutStatePending, nil
	default:
		return "", fmt.Errorf("payout rail returned unknown status %q", out.Status)
	}
}
