// Package eventsapi talks to the external events service that owns event records,
// capacity and registrations.
package eventsapi

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

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
)

const apiKeyHeader = "x-api-key"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError is a non-2xx answer from the events service.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("events API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("events API error %d", e.StatusCode)
}

type ListFilter struct {
	Category string
	Search   string
	Status   string
	Limit    int
	LastKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) ListEvents(ctx context.Context, filter ListFilter) (*entity.EventsPage, error) {
	params := url.Values{}
	if filter.Category != "" {
		params.Add("category", filter.Category)
	}
	if filter.Search != "" {
		params.Add("search", filter.Search)
	}
	if filter.Status != "" {
		params.Add("status", filter.Status)
	}
	if filter.Limit > 0 {
		params.Add("limit", strconv.Itoa(filter.Limit))
	}
	if filter.LastKey != "" {
		params.Add("lastKey", filter.LastKey)
	}

	endpoint := "/events"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var page entity.EventsPage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*entity.Event, error) {
	var result struct {
		Event entity.Event `json:"event"`
	}
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result.Event, nil
}

func (c *Client) Register(ctx context.Context, id string, registration *entity.Registration) (*entity.RegistrationResult, error) {
	var result entity.RegistrationResult
	if err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(id)+"/register", registration, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	if !c.Configured() {
		return entity.ErrEventsUnavailable
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrEventsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		json.NewDecoder(resp.Body).Decode(apiErr)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", entity.ErrEventNotFound, apiErr.Error())
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode events API response: %w", err)
	}
	return nil
}

// AsAPIError unwraps an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
