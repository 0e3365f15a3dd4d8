package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Config holds the connection settings for a Proxmox VE cluster. Values
// normally come from valves; the defaults match a fresh, unconfigured
// install so misconfiguration fails loudly at the API instead of
// panicking here.
type Config struct {
	Host        string
	User        string
	TokenID     string
	TokenSecret string
	VerifySSL   bool
	CacheTTL    time.Duration
	Timeout     time.Duration
}

// DefaultConfig returns the stock settings used when no valves are set.
func DefaultConfig() Config {
	return Config{
		Host:        "https://example.com",
		User:        "root@pam",
		TokenID:     "default-token",
		TokenSecret: "default-secret",
		VerifySSL:   false,
		CacheTTL:    10 * time.Minute,
		Timeout:     10 * time.Second,
	}
}

// APIError is a non-2xx response from the Proxmox API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("proxmox API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("proxmox API error: status %d: %s", e.StatusCode, e.Message)
}

// Client wraps the Proxmox VE REST API with token auth and a fixed
// timeout. One GET per call, no retries.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	log        hclog.Logger
}

// NewClient creates a Proxmox API client from the given config.
func NewClient(cfg Config, log hclog.Logger) *Client {
	if log == nil {
		log = hclog.Default()
	}

	transport := &http.Transport{}
	if !cfg.VerifySSL {
		// Proxmox installs commonly run on self-signed certs.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		log.Debug("proxmox: TLS verification disabled")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.Host, "/"),
		authHeader: fmt.Sprintf("PVEAPIToken=%s!%s=%s",
			cfg.User, cfg.TokenID, cfg.TokenSecret),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log,
	}
}

// Get performs a GET against an /api2/json path and returns the raw body.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	url := c.baseURL + path
	reqID := uuid.NewString()
	started := time.Now()
	c.log.Debug("proxmox: GET", "path", path, "request_id", reqID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	c.log.Debug("proxmox: GET completed",
		"path", path,
		"request_id", reqID,
		"status", resp.StatusCode,
		"duration", time.Since(started),
		"bytes", len(body))
	return json.RawMessage(body), nil
}

// GetData performs a GET and decodes the Proxmox {"data": ...} envelope
// into out.
func (c *Client) GetData(ctx context.Context, path string, out interface{}) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if envelope.Data == nil {
		// Some endpoints return {"data": null} for empty sets.
		return nil
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}
