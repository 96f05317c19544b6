// Package dummyjson is a small client for the DummyJSON user directory API
// (https://dummyjson.com). It covers the two calls the sync service needs:
// fetching a single user and creating a user.
package dummyjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public DummyJSON endpoint.
const DefaultBaseURL = "https://dummyjson.com"

// maxResponseSize caps how much of a directory response we are willing to
// read into memory (1MB).
const maxResponseSize = 1 * 1024 * 1024

// ErrMalformedResponse indicates that the directory answered with a success
// status but a body that could not be decoded as a user record.
var ErrMalformedResponse = errors.New("dummyjson: malformed response body")

// StatusError is returned when the directory answers with a non-success HTTP
// status. It carries the status code and the response body for logging.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dummyjson: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client calls the DummyJSON directory API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a directory client. The timeout bounds every request
// including reading the response body.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchUser retrieves the user with the given id via GET /users/{id}. The id
// is passed through opaquely; the directory decides whether it is valid. A
// non-200 answer is returned as a *StatusError, a 200 answer with an
// undecodable body as an error wrapping ErrMalformedResponse.
func (c *Client) FetchUser(ctx context.Context, id string) (*User, error) {
	requestURL := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: res.StatusCode, Body: string(body)}
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &user, nil
}

// CreateUser submits the payload via POST /users/add. Any status in the 2xx
// range counts as success and the echoed user record is returned. Other
// statuses are returned as a *StatusError.
func (c *Client) CreateUser(ctx context.Context, payload UserPayload) (*User, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	requestURL := c.baseURL + "/users/add"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", payload.Id, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("create user %d: %w", payload.Id, err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: res.StatusCode, Body: string(body)}
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &user, nil
}
