// Package api is the HTTP client for the cinema backend. It attaches the
// caller's credential to every request and accepts both enveloped
// ({"data": ...}) and bare JSON responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/metrics"
)

var (
	// ErrNotFound matches any *Error with status 404.
	ErrNotFound = errors.New("api: not found")
	// ErrUnauthorized matches any *Error with status 401 or 419.
	ErrUnauthorized = errors.New("api: unauthorized")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string              // server supplied message, may be empty
	Fields  map[string][]string // validation errors keyed by field
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d", e.Status)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == 419
	}
	return false
}

// MessageOr returns the server message carried by err, or fallback when err
// carries none.
func MessageOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Credential authenticates a browser session against the backend: a bearer
// token, session cookies, or both.
type Credential struct {
	Token   string            `json:"token,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

// Empty reports whether c carries nothing to authenticate with.
func (c Credential) Empty() bool { return c.Token == "" && len(c.Cookies) == 0 }

// Client talks to the backend. The zero credential makes anonymous calls;
// WithCredential derives a client bound to one browser session.
type Client struct {
	baseURL string
	cred    Credential
	hc      *http.Client
	log     *zap.Logger
}

// New creates a client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		log:     log.Named("api"),
	}
}

// WithCredential returns a copy of c that authenticates with cred.
func (c *Client) WithCredential(cred Credential) *Client {
	cp := *c
	cp.cred = cred
	return &cp
}

// Credential returns the credential attached to c.
func (c *Client) Credential() Credential { return c.cred }

// call performs one request. body is JSON encoded when non-nil; out, when
// non-nil, receives the "data" member of an enveloped response or the whole
// body otherwise. The returned response headers are used by login to collect
// cookies.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.Backend(method, path, 0, time.Since(start))
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Header, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	metrics.Backend(method, path, resp.StatusCode, time.Since(start))
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.Header, nil
	}
	if err := decodeEnvelope(raw, out); err != nil {
		return resp.Header, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.Header, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cred.Token)
	}
	for name, value := range c.cred.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	// Laravel Sanctum expects the XSRF cookie echoed back as a header.
	if xsrf, ok := c.cred.Cookies["XSRF-TOKEN"]; ok {
		if v, err := url.QueryUnescape(xsrf); err == nil {
			req.Header.Set("X-XSRF-TOKEN", v)
		}
	}
}

// decodeEnvelope unwraps {"data": ...} when present.
func decodeEnvelope(raw []byte, out any) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil {
		if data, ok := env["data"]; ok {
			if string(data) == "null" {
				return nil
			}
			return json.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(raw, out)
}

func decodeError(status int, raw []byte) error {
	e := &Error{Status: status}
	var body struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if json.Unmarshal(raw, &body) == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
		e.Fields = body.Errors
	}
	return e
}

func idPath(format string, id uint64) string {
	return fmt.Sprintf(format, id)
}
