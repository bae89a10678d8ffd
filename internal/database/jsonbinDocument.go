package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
)

const jsonbinKeyHeader = "X-Master-Key"

// JSONBinDocument stores the table as a JSONBin bin.
type JSONBinDocument struct {
	baseURL    string
	apiKey     string
	binID      string
	httpClient *http.Client
}

// NewJSONBinDocument returns nil when apiKey or binID is missing, which RemoteStore treats
// as an unconfigured backend.
func NewJSONBinDocument(baseURL, apiKey, binID string, timeout time.Duration) *JSONBinDocument {
	if apiKey == "" || binID == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &JSONBinDocument{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		binID:      binID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (d *JSONBinDocument) endpoint() string {
	return d.baseURL + "/b/" + d.binID
}

func (d *JSONBinDocument) Fetch(ctx context.Context) (entity.WaitlistTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(jsonbinKeyHeader, d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkJSONBinStatus(resp); err != nil {
		return nil, err
	}

	var result struct {
		Record json.RawMessage `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnexpectedBackend, err)
	}

	return decodeTable(result.Record)
}

func (d *JSONBinDocument) Replace(ctx context.Context, table entity.WaitlistTable) error {
	body, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode waitlist: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, d.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(jsonbinKeyHeader, d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return checkJSONBinStatus(resp)
}

func checkJSONBinStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return entity.ErrDocumentNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return entity.ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("jsonbin API error: %s", resp.Status)
	}
	return nil
}
