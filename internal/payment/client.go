// Package payment talks to the Razorpay REST API and verifies its signatures.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hope-foundation/apiserver/config"
)

const defaultHTTPTimeout = 10 * time.Second

// ErrNotConfigured is returned when no provider credentials are set.
var ErrNotConfigured = errors.New("payment provider not configured")

// Client is a minimal Razorpay API client using key id/secret basic auth.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	apiURL        string
	httpClient    *http.Client
}

// NewClient builds a client from cfg. It returns ErrNotConfigured when the
// key pair is missing so callers can run with payments disabled.
func NewClient(cfg config.PaymentConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.razorpay.com/v1"
	}
	return &Client{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		apiURL:        apiURL,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

// KeyID is the public key id handed to the checkout widget.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("razorpay %s %s: %s (%s)", req.Method, req.URL.Path, apiErr.Error.Description, apiErr.Error.Code)
		}
		return fmt.Errorf("razorpay %s %s: unexpected status %s", req.Method, req.URL.Path, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateOrder creates an order for amount minor units.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderRequest) (Order, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/orders", params)
	if err != nil {
		return Order{}, err
	}
	var order Order
	if err := c.do(req, &order); err != nil {
		return Order{}, err
	}
	if order.ID == "" {
		return Order{}, errors.New("razorpay returned an order without id")
	}
	return order, nil
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return Order{}, err
	}
	var order Order
	if err := c.do(req, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return Payment{}, err
	}
	var payment Payment
	if err := c.do(req, &payment); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// FetchOrderPayments lists every payment attempt made against orderID.
func (c *Client) FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payments", nil)
	if err != nil {
		return nil, err
	}
	var collection paymentCollection
	if err := c.do(req, &collection); err != nil {
		return nil, err
	}
	return collection.Items, nil
}

// VerifyPaymentSignature checks the checkout callback signature,
// hex(HMAC_SHA256(orderID + "|" + paymentID, keySecret)).
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHexHMAC(c.keySecret, []byte(orderID+"|"+paymentID), signature)
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body.
// It always fails when no webhook secret is configured.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.webhookSecret == "" {
		return false
	}
	return verifyHexHMAC(c.webhookSecret, body, signature)
}

// Sign computes the hex HMAC used by both signature schemes.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHexHMAC(secret string, payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
