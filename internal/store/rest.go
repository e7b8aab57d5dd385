package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the connection settings for the hosted store's REST dialect.
type Config struct {
	BaseURL        string
	AuthToken      string
	RequestTimeout time.Duration
}

// RESTGateway talks to the realtime database over its REST dialect:
// GET/PUT/PATCH/DELETE on {base}/{path}.json, range queries via orderBy,
// startAt, endAt, equalTo and limitToFirst/limitToLast query parameters.
type RESTGateway struct {
	baseURL    string
	authToken  string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewRESTGateway(cfg Config, logger *slog.Logger) *RESTGateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RESTGateway{
		baseURL:    cfg.BaseURL,
		authToken:  cfg.AuthToken,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (g *RESTGateway) Get(ctx context.Context, path string, dest any) (bool, error) {
	raw, err := g.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return false, err
	}
	if isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (g *RESTGateway) GetRange(ctx context.Context, path string, q Query) ([]Entry, error) {
	params := url.Values{}
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = OrderByKey
	}
	params.Set("orderBy", strconv.Quote(orderBy))
	if q.StartAt != nil {
		params.Set("startAt", strconv.Quote(*q.StartAt))
	}
	if q.EndAt != nil {
		params.Set("endAt", strconv.Quote(*q.EndAt))
	}
	if q.EqualTo != nil {
		params.Set("equalTo", strconv.Quote(*q.EqualTo))
	}
	if q.LimitToFirst > 0 {
		params.Set("limitToFirst", strconv.Itoa(q.LimitToFirst))
	}
	if q.LimitToLast > 0 {
		params.Set("limitToLast", strconv.Itoa(q.LimitToLast))
	}

	raw, err := g.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		return nil, fmt.Errorf("decode range %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(children))
	for key, value := range children {
		entries = append(entries, Entry{Key: key, Value: value})
	}
	// The wire format is a JSON object, so the server's ordering is lost in
	// transit and has to be reapplied here.
	sortEntries(entries, orderBy)

	return entries, nil
}

func (g *RESTGateway) Set(ctx context.Context, path string, value any) error {
	_, err := g.do(ctx, http.MethodPut, path, nil, value)
	return err
}

func (g *RESTGateway) Patch(ctx context.Context, path string, fields map[string]any) error {
	_, err := g.do(ctx, http.MethodPatch, path, nil, fields)
	return err
}

func (g *RESTGateway) Delete(ctx context.Context, path string) error {
	_, err := g.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (g *RESTGateway) Push(ctx context.Context, path string, value any) (string, error) {
	key := NewPushID()
	if err := g.Set(ctx, Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (g *RESTGateway) do(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	if g.authToken != "" {
		params.Set("auth", g.authToken)
	}

	endpoint := fmt.Sprintf("%s/%s.json", g.baseURL, path)
	if path == "" {
		endpoint = g.baseURL + "/.json"
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("store request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Error("store request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	return json.RawMessage(data), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
