package fraud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client queries the external fraud-detection service. The predicate is a
// black box: the engine only sees the boolean.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a fraud predicate client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type trustResponse struct {
	Trusted bool `json:"trusted"`
}

// IsVendorTrusted asks the fraud service about one vendor
func (c *Client) IsVendorTrusted(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/vendors/"+vendorID.String()+"/trust", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fraud service returned %d", resp.StatusCode)
	}

	var out trustResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Trusted, nil
}

// StaticPredicate trusts every vendor. Used when no fraud service is
// configured; the vendor-level fraud_flag still gates approval.
type StaticPredicate struct{}

// IsVendorTrusted always reports trusted
func (StaticPredicate) IsVendorTrusted(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	return true, nil
}
