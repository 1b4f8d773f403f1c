// Package transport is the authenticated request facade: every call to the
// API goes through Facade.Send, which attaches the bearer token and recovers
// from exactly one expired-token rejection.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/metrics"
)

// Session is the slice of the session manager the facade relies on. The
// facade reads the token and asks for refresh or clear; it never writes the
// token itself.
type Session interface {
	CurrentToken() string
	Refresh(ctx context.Context) (string, error)
	Clear(ctx context.Context)
}

type attempt int

const (
	attemptInitial attempt = iota
	attemptRetry
)

func (a attempt) String() string {
	if a == attemptRetry {
		return "retry"
	}
	return "initial"
}

// Facade sends authenticated requests.
type Facade struct {
	http    *http.Client
	session Session
	log     zerolog.Logger
}

// NewFacade returns a Facade reading tokens from session. A nil client means
// http.DefaultClient.
func NewFacade(client *http.Client, session Session, log zerolog.Logger) *Facade {
	if client == nil {
		client = http.DefaultClient
	}
	return &Facade{http: client, session: session, log: log}
}

// Send submits req with the current token. On 401 it refreshes once and
// resubmits once with the new token; that second outcome is final. When the
// refresh fails the session is cleared and an *domain.AuthError is returned.
// Every other non-2xx or transport failure comes back as a
// *domain.RequestError and never touches the session.
func (f *Facade) Send(ctx context.Context, req *Request) (*Response, error) {
	resp, err := f.submit(ctx, req, f.session.CurrentToken(), attemptInitial)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return f.settle(req, resp)
	}

	metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeUnauthorized).Inc()
	f.log.Debug().Str("method", req.Method).Str("url", req.URL).Msg("unauthorized, refreshing token")

	token, err := f.session.Refresh(ctx)
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeRefreshFailed).Inc()
		f.session.Clear(ctx)
		f.log.Warn().Err(err).Str("url", req.URL).Msg("refresh failed, session cleared")
		return nil, &domain.AuthError{Op: "request", Err: err}
	}

	resp, err = f.submit(ctx, req, token, attemptRetry)
	if err != nil {
		return nil, err
	}
	metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeRetried).Inc()
	return f.settle(req, resp)
}

// submit performs one round trip. Only transport failures are returned as
// errors; every HTTP status comes back as a response.
func (f *Facade) submit(ctx context.Context, req *Request, token string, n attempt) (*Response, error) {
	httpReq, err := f.build(ctx, req, token)
	if err != nil {
		return nil, &domain.RequestError{Method: req.Method, URL: req.URL, Err: err}
	}

	start := time.Now()
	httpResp, err := f.http.Do(httpReq)
	metrics.ClientRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeTransport).Inc()
		f.log.Debug().Err(err).Str("attempt", n.String()).Str("url", req.URL).Msg("request failed")
		return nil, &domain.RequestError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeTransport).Inc()
		return nil, &domain.RequestError{Method: req.Method, URL: req.URL, StatusCode: httpResp.StatusCode, Err: err}
	}

	f.log.Trace().
		Str("attempt", n.String()).
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", httpResp.StatusCode).
		Msg("request completed")

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

// build copies caller headers, fills defaults the caller did not set and sets
// Authorization last. The facade owns Authorization: without a token the
// header is removed.
func (f *Facade) build(ctx context.Context, req *Request, token string) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if req.ContentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	} else {
		httpReq.Header.Del("Authorization")
	}
	return httpReq, nil
}

func (f *Facade) settle(req *Request, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeOK).Inc()
		return resp, nil
	}
	metrics.ClientRequestsTotal.WithLabelValues(req.Method, metrics.OutcomeStatus).Inc()
	return nil, &domain.RequestError{
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		Message:    domain.MessageFromBody(resp.Body),
		Body:       resp.Body,
	}
}
