package mollie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JorisBrandt/PayImport/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.mollie.com/v2"

// Client talks to the Mollie v2 API. The mode (test/live) follows from the
// API key the client is constructed with.
type Client struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// CustomerRequest is the payload for creating a remote customer.
type CustomerRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Customer is a remote gateway customer record.
type Customer struct {
	ID    string `json:"id"`
	Mode  string `json:"mode"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MandateRequest is the payload for requesting a payment mandate.
type MandateRequest struct {
	Method          string `json:"method"`
	ConsumerName    string `json:"consumerName"`
	ConsumerAccount string `json:"consumerAccount"`
}

// Mandate is a granted payment mandate.
type Mandate struct {
	ID     string `json:"id"`
	Mode   string `json:"mode"`
	Status string `json:"status"`
	Method string `json:"method"`
}

type customerList struct {
	Embedded struct {
		Customers []Customer `json:"customers"`
	} `json:"_embedded"`
	Links struct {
		Next *struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     strings.TrimSpace(apiKey),
		APIBaseURL: defaultAPIBaseURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientFromEnv creates a client configured from environment variables.
func NewClientFromEnv() *Client {
	c := NewClient(env.GetEnv("MOLLIE_API_KEY", ""))
	if base := strings.TrimSpace(env.GetEnv("MOLLIE_API_BASE_URL", "")); base != "" {
		c.APIBaseURL = strings.TrimRight(base, "/")
	}
	return c
}

// Mode reports the gateway mode the API key operates in.
func (c *Client) Mode() string {
	if strings.HasPrefix(c.APIKey, "test_") {
		return "test"
	}
	return "live"
}

// CreateCustomer creates a remote customer record and returns it with its
// assigned identifier.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPost, "/customers", req, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("mollie returned a customer without an id")
	}
	return &out, nil
}

// CreateMandate requests a payment mandate for an existing customer using the
// supplied bank details.
func (c *Client) CreateMandate(ctx context.Context, customerID string, req MandateRequest) (*Mandate, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.New("customer id is required")
	}
	if req.Method == "" {
		req.Method = "directdebit"
	}
	var out Mandate
	if err := c.do(ctx, http.MethodPost, "/customers/"+customerID+"/mandates", req, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("mollie returned a mandate without an id")
	}
	return &out, nil
}

// ListCustomers retrieves all remote customers, following pagination.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var all []Customer
	next := c.APIBaseURL + "/customers?limit=250"

	for next != "" {
		var page customerList
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Embedded.Customers...)
		next = ""
		if page.Links.Next != nil {
			next = page.Links.Next.Href
		}
	}
	return all, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("MOLLIE_API_KEY is not configured")
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mollie %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("MOLLIE_API_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mollie GET %s failed: status=%d body=%s", url, resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}
