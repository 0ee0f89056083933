package probe

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
	"time"
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// StatusError carries the status and error code of a rejected request.
type StatusError struct {
	Status int
	Code   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", ErrStatus, e.Status, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// client wraps http.Client with the API base URL.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: base, http: &http.Client{Timeout: timeout}}
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *client) leaderboard(ctx context.Context, clientID, typ string, limit int) (leaderboard, error) {
	q := url.Values{"type": {typ}, "mode": {"transparent"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var lb leaderboard
	err := c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(clientID)+"/leaderboard?"+q.Encode(), nil, &lb)
	return lb, err
}

func (c *client) credit(ctx context.Context, clientID string) (credit, error) {
	var cr credit
	err := c.do(ctx, http.MethodGet, "/clients/"+url.PathEscape(clientID)+"/credit", nil, &cr)
	return cr, err
}

func (c *client) recalculate(ctx context.Context, clientIDs []string) (batchResult, error) {
	var res batchResult
	err := c.do(ctx, http.MethodPost, "/recalculate", map[string][]string{"clientIds": clientIDs}, &res)
	return res, err
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Code string `json:"code"`
		}
		_ = json.Unmarshal(data, &e)
		return &StatusError{Status: resp.StatusCode, Code: e.Code}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// skippable reports rejections that describe the data rather than a fault.
func skippable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == "client_not_ranked" || se.Code == "population_too_small"
}
