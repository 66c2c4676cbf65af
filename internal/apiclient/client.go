package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/flowerstore/internal/events"
	"github.com/safar/flowerstore/internal/models"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/auth/refresh-token"

// TokenStore is the session persistence the client reads and rotates.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
}

// LanguageSource supplies the Accept-Language header.
type LanguageSource interface {
	Language(ctx context.Context) string
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenStore
	Language   LanguageSource
	Bus        *events.Bus
}

// Client sends requests to the storefront API. A 401 triggers at most one
// token refresh and one re-issue of the original request; concurrent 401s
// share a single refresh exchange.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenStore
	language       LanguageSource
	bus            *events.Bus
	refreshes      singleflight.Group
	refreshTimeout time.Duration
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	if opts.Tokens == nil {
		return nil, errors.New("token store is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	return &Client{
		baseURL:        base,
		http:           httpClient,
		tokens:         opts.Tokens,
		language:       opts.Language,
		bus:            bus,
		refreshTimeout: timeout,
	}, nil
}

// Request describes one API call. Body is JSON-encoded unless RawBody is set.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     []byte
	ContentType string

	// Anonymous requests carry no bearer token and are never refreshed.
	Anonymous bool
}

// Do sends req and decodes the envelope's data into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	payload, contentType, err := req.encode()
	if err != nil {
		return err
	}

	access := ""
	if !req.Anonymous {
		access, err = c.tokens.AccessToken(ctx)
		if err != nil {
			return newTransportError(err)
		}
	}

	data, err := c.send(ctx, req, payload, contentType, access)
	if err != nil && access != "" && StatusOf(err) == http.StatusUnauthorized {
		data, err = c.retryAfterRefresh(ctx, req, payload, contentType, access)
	}
	if err != nil {
		return err
	}
	return decodeData(data, out)
}

// retryAfterRefresh re-issues a request once with a rotated token. A second
// 401 ends the session instead of refreshing again.
func (c *Client) retryAfterRefresh(ctx context.Context, req Request, payload []byte, contentType, staleAccess string) (json.RawMessage, error) {
	if err := c.refresh(ctx, staleAccess); err != nil {
		return nil, err
	}

	access, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, newTransportError(err)
	}

	data, err := c.send(ctx, req, payload, contentType, access)
	if StatusOf(err) == http.StatusUnauthorized {
		return nil, c.expireSession(ctx, Message(err))
	}
	return data, err
}

// refresh joins the in-flight exchange or starts one. The exchange is detached
// from the caller that started it, so a cancelled caller does not fail the
// others waiting on it; each caller still stops waiting when its own ctx ends.
func (c *Client) refresh(ctx context.Context, staleAccess string) error {
	results := c.refreshes.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		current, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, newTransportError(err)
		}
		if current != "" && current != staleAccess {
			return nil, nil
		}

		refreshToken, err := c.tokens.RefreshToken(ctx)
		if err != nil {
			return nil, newTransportError(err)
		}
		if refreshToken == "" {
			return nil, c.expireSession(ctx, "")
		}

		var pair models.Tokens
		err = c.exchange(ctx, refreshToken, &pair)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) && apiErr.Status == 0 {
				// Network failure: the refresh token may still be good.
				return nil, err
			}
			return nil, c.expireSession(ctx, Message(err))
		}
		if pair.AccessToken == "" {
			return nil, c.expireSession(ctx, "")
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = refreshToken
		}

		if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
			return nil, newTransportError(err)
		}
		return nil, nil
	})

	select {
	case res := <-results:
		return res.Err
	case <-ctx.Done():
		return newTransportError(ctx.Err())
	}
}

func (c *Client) exchange(ctx context.Context, refreshToken string, out *models.Tokens) error {
	req := Request{
		Method:    http.MethodPost,
		Path:      refreshPath,
		Body:      map[string]string{"refreshToken": refreshToken},
		Anonymous: true,
	}
	payload, contentType, err := req.encode()
	if err != nil {
		return err
	}
	data, err := c.send(ctx, req, payload, contentType, "")
	if err != nil {
		return err
	}
	return decodeData(data, out)
}

func (c *Client) expireSession(ctx context.Context, message string) error {
	if err := c.tokens.ClearTokens(ctx); err != nil {
		log.Printf("Warning: clear tokens after failed refresh: %v", err)
	}
	apiErr := sessionExpiredError(message)
	c.bus.AuthError.Publish(events.AuthError{Message: apiErr.Message})
	return apiErr
}

func (c *Client) send(ctx context.Context, req Request, payload []byte, contentType, access string) (json.RawMessage, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("build request: %w", err))
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}
	if c.language != nil {
		httpReq.Header.Set("Accept-Language", c.language.Language(ctx))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, newTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("read response: %w", err))
	}

	var envelope Envelope[json.RawMessage]
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &envelope)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(resp.StatusCode, envelope.Message, envelope.Errors)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if decodeErr != nil {
		return nil, &Error{Message: "malformed response", Status: resp.StatusCode, cause: decodeErr}
	}
	if !envelope.Success {
		return nil, newStatusError(resp.StatusCode, envelope.Message, envelope.Errors)
	}
	return envelope.Data, nil
}

func (r Request) encode() ([]byte, string, error) {
	if r.RawBody != nil {
		return r.RawBody, r.ContentType, nil
	}
	if r.Body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return payload, "application/json", nil
}

func decodeData(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &Error{Message: "malformed response data", cause: err}
	}
	return nil
}

// Get, Post, Put, Patch and Delete are typed shorthands over Do.

func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, &out)
	return out, err
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, &out)
	return out, err
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, &out)
	return out, err
}

func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, &out)
	return out, err
}

func Delete(ctx context.Context, c *Client, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}
