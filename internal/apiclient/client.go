// Package apiclient is the thin HTTP client the console uses to talk to
// the upstream REST backend. It attaches the bearer token carried in the
// request context, unwraps the uniform {code, message, data} envelope, and
// classifies failures so each failed call produces exactly one
// user-visible message.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CodeSuccess is the envelope code signalling a successful operation.
// Anything else is a business failure, even on HTTP 200.
const CodeSuccess = 200

// Envelope is the uniform wrapper every backend response uses.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Page is the paginated list shape inside an envelope's data field. List
// stays raw so callers decode into their own element type.
type Page struct {
	List     json.RawMessage `json:"list"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// Client wraps an HTTP client for one upstream base URL.
type Client struct {
	base string
	http *http.Client

	// onUnauthorized fires when an upstream call comes back 401, letting
	// the session layer invalidate itself. At most once per failed call.
	onUnauthorized func(context.Context)
}

// New creates a client for the given base URL. Every call is bounded by
// the given timeout on top of whatever deadline the context carries.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// OnUnauthorized registers the hook invoked when an upstream call is
// rejected with 401.
func (c *Client) OnUnauthorized(fn func(context.Context)) {
	c.onUnauthorized = fn
}

// --- Bearer token plumbing ---

type ctxKey int

const bearerKey ctxKey = iota

// WithBearer returns a context carrying the session token for outgoing
// calls. An empty token is fine: requests simply go out unauthenticated,
// which is not an error at this layer.
func WithBearer(ctx context.Context, tok string) context.Context {
	if tok == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey, tok)
}

// BearerFrom extracts the session token from the context, or "".
func BearerFrom(ctx context.Context) string {
	tok, _ := ctx.Value(bearerKey).(string)
	return tok
}

// --- Enveloped calls ---

// Get performs a GET and decodes the envelope's data field into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST with a JSON body and decodes data into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, in, out)
}

// Put performs a PUT with a JSON body and decodes data into out.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, http.MethodPut, path, nil, in, out)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, nil)
}

// call runs one enveloped request/response cycle.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.classify(ctx, resp); err != nil {
		return err
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode,
			Message: "The server returned an unreadable response.", cause: err}
	}

	// A non-success envelope code is a business failure even on HTTP 200.
	if env.Code != CodeSuccess {
		msg := env.Message
		if msg == "" {
			msg = "The request failed."
		}
		return &Error{Kind: KindBusiness, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode,
			Message: "The server returned an unexpected payload.", cause: err}
	}
	return nil
}

// --- Raw (non-envelope) calls ---

// Raw performs a request against an endpoint outside the envelope
// convention (the auth contract: /auth/login, /auth/logout) and decodes
// the body directly into out. Failure classification matches call.
func (c *Client) Raw(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, nil, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.classify(ctx, resp); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode,
			Message: "The server returned an unreadable response.", cause: err}
	}
	return nil
}

// send builds and executes the request, attaching the bearer token when
// the context carries one. Transport failures come back as KindNetwork.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := BearerFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork,
			Message: "Network error. Please check your connection and try again.", cause: err}
	}
	return resp, nil
}

// classify maps HTTP-layer failures to exactly one user-visible message.
// 401 additionally fires the session invalidation hook. The response body
// is consulted for an envelope message where one helps (5xx).
func (c *Client) classify(ctx context.Context, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode,
			Message: "Your session has expired. Please sign in again."}

	case resp.StatusCode == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: resp.StatusCode,
			Message: "You don't have permission to access this resource."}

	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: resp.StatusCode,
			Message: "The requested resource does not exist."}

	case resp.StatusCode >= 500:
		msg := envelopeMessage(resp.Body)
		if msg == "" {
			msg = "Server error. Please try again later."
		}
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: msg}

	default:
		msg := envelopeMessage(resp.Body)
		if msg == "" {
			msg = "The request failed."
		}
		return &Error{Kind: KindBusiness, Status: resp.StatusCode, Message: msg}
	}
}

// envelopeMessage best-effort extracts the message field from an error
// response body.
func envelopeMessage(body io.Reader) string {
	var env Envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return ""
	}
	return env.Message
}
