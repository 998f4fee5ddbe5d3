// Package client talks to the contact book HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"contactbook/internal/data/contacts"
)

// Client calls the contact book API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type messageResponse struct {
	Message   string   `json:"message"`
	Error     string   `json:"error"`
	Imported  int      `json:"imported"`
	RowErrors []string `json:"row_errors"`
}

// List returns all contacts, or those matching query when it is not empty.
func (c *Client) List(ctx context.Context, query string) ([]contacts.Contact, error) {
	path := "/contacts"
	if query != "" {
		path += "?" + url.Values{"query": {query}}.Encode()
	}
	var list []contacts.Contact
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Add creates a contact and returns the server confirmation.
func (c *Client) Add(ctx context.Context, contact contacts.Contact) (string, error) {
	return c.message(ctx, http.MethodPost, "/contacts", contact)
}

// Update changes the phone and/or address of the contact called name.
func (c *Client) Update(ctx context.Context, name string, in contacts.UpdateInput) (string, error) {
	return c.message(ctx, http.MethodPut, "/contacts/"+url.PathEscape(name), in)
}

// Delete removes the contact called name.
func (c *Client) Delete(ctx context.Context, name string) (string, error) {
	return c.message(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(name), nil)
}

// SendMessage forwards a free-text report to the server operator log.
func (c *Client) SendMessage(ctx context.Context, text string) (string, error) {
	return c.message(ctx, http.MethodPost, "/messages", map[string]string{"message": text})
}

// Shutdown asks the server to stop.
func (c *Client) Shutdown(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodPost, "/shutdown", nil)
}

// Health returns the number of stored contacts reported by the server.
func (c *Client) Health(ctx context.Context) (int, error) {
	var resp struct {
		Contacts int `json:"contacts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Contacts, nil
}

// Export downloads the CSV export.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/export", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, connectionError(c.baseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// Import uploads csvData. On partial failure the returned *APIError lists
// every rejected row; rows without errors were stored regardless.
func (c *Client) Import(ctx context.Context, csvData []byte) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/import", "text/csv", bytes.NewReader(csvData))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out messageResponse
	if err := readJSON(resp, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) message(ctx context.Context, method, path string, body any) (string, error) {
	var out messageResponse
	if err := c.doJSON(ctx, method, path, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var (
		rd          io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		rd = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, method, path, contentType, rd)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return readJSON(resp, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s %s request", method, path)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, connectionError(c.baseURL, err)
	}
	return resp, nil
}

// readJSON decodes a success body into out or turns an error status into *APIError.
func readJSON(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "failed to decode response")
}

func decodeAPIError(status int, data []byte) *APIError {
	var payload messageResponse
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &APIError{Status: status, Message: msg}
	}
	return &APIError{Status: status, Message: payload.Error, RowErrors: payload.RowErrors}
}
