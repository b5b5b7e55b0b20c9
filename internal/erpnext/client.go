// Package erpnext is the REST client that pushes rendered print formats to an
// ERPNext instance.
package erpnext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rogerboy38/amb-print-app/internal/export"
)

const (
	printFormatResource = "Print Format"

	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
)

// Config carries the target environment and retry policy. Credentials are
// passed in explicitly; the client never reads the environment.
type Config struct {
	BaseURL     string
	APIKey      string
	APISecret   string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client talks to one ERPNext instance.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit throttles outgoing requests to r per second. Useful for batch
// runs against shared instances. Values <= 0 leave the client unthrottled.
func WithRateLimit(r float64) ClientOption {
	return func(c *Client) {
		if r > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(r), 1)
		}
	}
}

// NewClient creates a Client for the given environment.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("erpnext: base URL cannot be empty")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("erpnext: API key and secret are required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// printFormatPayload is the resource body for create/update calls.
type printFormatPayload struct {
	Name            string `json:"name"`
	DocType         string `json:"doc_type"`
	Module          string `json:"module"`
	PrintFormatType string `json:"print_format_type"`
	Standard        string `json:"standard"`
	HTML            string `json:"html"`
}

// UploadPrintFormat creates or updates the named print format from the
// rendered artifact. Re-uploading the same name overwrites the prior version
// (last-write-wins). Transient failures are retried; a 4xx response surfaces
// immediately as *UploadError with the response body attached.
func (c *Client) UploadPrintFormat(ctx context.Context, a *export.Artifact) error {
	payload := printFormatPayload{
		Name:            a.Name,
		DocType:         a.DocType,
		Module:          "Custom",
		PrintFormatType: "Jinja",
		Standard:        "No",
		HTML:            a.Content,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erpnext: marshal print format %q: %w", a.Name, err)
	}

	// Upsert: update the named resource, create it when it does not exist.
	updateURL := c.resourceURL(printFormatResource, a.Name)
	status, respBody, err := c.do(ctx, http.MethodPut, updateURL, body)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		createURL := c.resourceURL(printFormatResource, "")
		status, respBody, err = c.do(ctx, http.MethodPost, createURL, body)
		if err != nil {
			return err
		}
	}
	if status < 200 || status > 299 {
		return &UploadError{Resource: a.Name, StatusCode: status, Body: respBody}
	}

	c.logger.Info("uploaded print format", "name", a.Name, "doc_type", a.DocType)
	return nil
}

// GetPrintFormat fetches the named print format, typically to verify an
// upload landed.
func (c *Client) GetPrintFormat(ctx context.Context, name string) (map[string]any, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.resourceURL(printFormatResource, name), nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &UploadError{Resource: name, StatusCode: status, Body: body}
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("erpnext: decode print format %q: %w", name, err)
	}
	return envelope.Data, nil
}

func (c *Client) resourceURL(resource, name string) string {
	u := c.cfg.BaseURL + "/api/resource/" + url.PathEscape(resource)
	if name != "" {
		u += "/" + url.PathEscape(name)
	}
	return u
}
