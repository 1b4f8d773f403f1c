package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/shop-admin/internal/client/session"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/infrastructure/tokenstore"
	"github.com/99minutos/shop-admin/internal/metrics"
)

// fakeAPI accepts one valid access token at a time. Login hands out
// loginToken, refresh hands out refreshToken and makes it the valid one.
type fakeAPI struct {
	mu           sync.Mutex
	valid        string
	loginToken   string
	refreshToken string
	refreshFails bool
	rejectAll    bool
	refreshDelay time.Duration
	hold401      int // when > 0, /secure withholds 401s until this many are pending

	refreshCalls atomic.Int32
	secureCalls  atomic.Int32

	seenMu  sync.Mutex
	headers []http.Header
	bodies  [][]byte

	pending  atomic.Int32
	released chan struct{}
	once     sync.Once
}

func (f *fakeAPI) start(t *testing.T) *httptest.Server {
	t.Helper()
	f.released = make(chan struct{})
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, domain.AuthResult{
			User:        domain.User{ID: "u-1", Username: "root", Role: domain.RoleAdmin},
			AccessToken: f.loginToken,
		})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, _ *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)
		if f.refreshFails {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh token expired"})
			return
		}
		f.mu.Lock()
		f.valid = f.refreshToken
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": f.refreshToken})
	})
	mux.HandleFunc("/secure", func(w http.ResponseWriter, r *http.Request) {
		f.secureCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.seenMu.Lock()
		f.headers = append(f.headers, r.Header.Clone())
		f.bodies = append(f.bodies, body)
		f.seenMu.Unlock()

		f.mu.Lock()
		ok := !f.rejectAll && r.Header.Get("Authorization") == "Bearer "+f.valid
		f.mu.Unlock()
		if !ok {
			f.holdUnauthorized()
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		f.seenMu.Lock()
		f.headers = append(f.headers, r.Header.Clone())
		f.bodies = append(f.bodies, nil)
		f.seenMu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "order not found"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) holdUnauthorized() {
	if f.hold401 <= 0 {
		return
	}
	if int(f.pending.Add(1)) >= f.hold401 {
		f.once.Do(func() { close(f.released) })
	}
	select {
	case <-f.released:
	case <-time.After(2 * time.Second):
	}
}

func (f *fakeAPI) seen(i int) (http.Header, []byte) {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()
	return f.headers[i], f.bodies[i]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	api     *fakeAPI
	srv     *httptest.Server
	session *session.Manager
	store   *tokenstore.MemoryStore
	facade  *Facade
}

func newHarness(t *testing.T, api *fakeAPI) *harness {
	t.Helper()
	srv := api.start(t)
	store := tokenstore.NewMemoryStore("")
	mgr := session.NewManager(srv.URL, srv.Client(), store, zerolog.Nop())
	return &harness{
		api:     api,
		srv:     srv,
		session: mgr,
		store:   store,
		facade:  NewFacade(srv.Client(), mgr, zerolog.Nop()),
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.session.Login(context.Background(), "root@shop.test", "secret")
	require.NoError(t, err)
}

func TestSend_AttachesBearerAfterLogin(t *testing.T) {
	h := newHarness(t, &fakeAPI{valid: "T1", loginToken: "T1"})
	h.login(t)

	resp, err := h.facade.Send(context.Background(), NewRequest(http.MethodGet, h.srv.URL+"/secure"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	hdr, _ := h.api.seen(0)
	assert.Equal(t, "Bearer T1", hdr.Get("Authorization"))
	assert.Zero(t, h.api.refreshCalls.Load())
}

func TestSend_OmitsAuthorizationWithoutToken(t *testing.T) {
	h := newHarness(t, &fakeAPI{})

	req := NewRequest(http.MethodGet, h.srv.URL+"/missing")
	req.Header.Set("Authorization", "Bearer forged")
	_, err := h.facade.Send(context.Background(), req)

	assert.True(t, domain.IsStatus(err, http.StatusNotFound))
	hdr, _ := h.api.seen(0)
	assert.Empty(t, hdr.Values("Authorization"))
}

func TestSend_RefreshesOnceAndRetriesWithNewToken(t *testing.T) {
	h := newHarness(t, &fakeAPI{valid: "T2", loginToken: "T1", refreshToken: "T2"})
	h.login(t)

	before := testutil.ToFloat64(metrics.ClientRequestsTotal.WithLabelValues(http.MethodPost, metrics.OutcomeRetried))

	req, err := NewJSONRequest(http.MethodPost, h.srv.URL+"/secure", map[string]string{"name": "Shoes"})
	require.NoError(t, err)
	resp, err := h.facade.Send(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), h.api.refreshCalls.Load())
	assert.Equal(t, int32(2), h.api.secureCalls.Load())

	first, firstBody := h.api.seen(0)
	second, secondBody := h.api.seen(1)
	assert.Equal(t, "Bearer T1", first.Get("Authorization"))
	assert.Equal(t, "Bearer T2", second.Get("Authorization"))
	assert.JSONEq(t, `{"name":"Shoes"}`, string(firstBody))
	assert.Equal(t, firstBody, secondBody)

	assert.Equal(t, "T2", h.session.CurrentToken())
	assert.Equal(t, "T2", h.store.Peek())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClientRequestsTotal.WithLabelValues(http.MethodPost, metrics.OutcomeRetried)))
}

func TestSend_SecondUnauthorizedIsFinal(t *testing.T) {
	// refresh succeeds but the new token is still rejected
	h := newHarness(t, &fakeAPI{loginToken: "T1", refreshToken: "T2", rejectAll: true})
	h.login(t)

	resp, err := h.facade.Send(context.Background(), NewRequest(http.MethodGet, h.srv.URL+"/secure"))

	assert.Nil(t, resp)
	assert.True(t, domain.IsStatus(err, http.StatusUnauthorized))
	assert.NotErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Equal(t, int32(1), h.api.refreshCalls.Load())
	assert.Equal(t, int32(2), h.api.secureCalls.Load())
	assert.True(t, h.session.IsAuthenticated())
}

func TestSend_FailedRefreshClearsSession(t *testing.T) {
	h := newHarness(t, &fakeAPI{valid: "T2", loginToken: "T1", refreshFails: true})
	h.login(t)

	resp, err := h.facade.Send(context.Background(), NewRequest(http.MethodGet, h.srv.URL+"/secure"))

	assert.Nil(t, resp)
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "request", authErr.Op)
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.EqualError(t, err, "authentication failed")

	assert.False(t, h.session.IsAuthenticated())
	assert.Empty(t, h.store.Peek())
	assert.Equal(t, domain.SessionAnonymous, h.session.State())
	assert.Equal(t, int32(1), h.api.secureCalls.Load())
}

func TestSend_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const callers = 6
	h := newHarness(t, &fakeAPI{
		valid:        "T2",
		loginToken:   "T1",
		refreshToken: "T2",
		refreshDelay: 50 * time.Millisecond,
		hold401:      callers,
	})
	h.login(t)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.facade.Send(context.Background(), NewRequest(http.MethodGet, h.srv.URL+"/secure"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), h.api.refreshCalls.Load())
	assert.Equal(t, "T2", h.session.CurrentToken())
	assert.Equal(t, "T2", h.store.Peek())
}

func TestSend_PreservesCallerHeaders(t *testing.T) {
	h := newHarness(t, &fakeAPI{valid: "T1", loginToken: "T1"})
	h.login(t)

	req := NewRequest(http.MethodGet, h.srv.URL+"/secure")
	req.Header.Set("X-Request-Id", "abc-123")
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

	_, err := h.facade.Send(context.Background(), req)
	require.NoError(t, err)

	hdr, _ := h.api.seen(0)
	assert.Equal(t, "abc-123", hdr.Get("X-Request-Id"))
	assert.Equal(t, "text/csv", hdr.Get("Accept"))
	assert.Equal(t, "Bearer T1", hdr.Get("Authorization"))
}

func TestSend_StatusErrorLeavesSessionAlone(t *testing.T) {
	h := newHarness(t, &fakeAPI{valid: "T1", loginToken: "T1"})
	h.login(t)

	_, err := h.facade.Send(context.Background(), NewRequest(http.MethodGet, h.srv.URL+"/missing"))

	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "order not found", reqErr.Message)
	assert.True(t, h.session.IsAuthenticated())
	assert.Zero(t, h.api.refreshCalls.Load())
}

func TestSend_TransportFailure(t *testing.T) {
	h := newHarness(t, &fakeAPI{valid: "T1", loginToken: "T1"})
	h.login(t)
	url := h.srv.URL + "/secure"
	h.srv.Close()

	_, err := h.facade.Send(context.Background(), NewRequest(http.MethodGet, url))

	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Zero(t, reqErr.StatusCode)
	assert.Error(t, reqErr.Err)
	assert.True(t, h.session.IsAuthenticated())
}

func TestNewMultipartRequest_RepeatsFieldsAndFiles(t *testing.T) {
	req, err := NewMultipartRequest(http.MethodPost, "http://api.test/products",
		map[string][]string{"title": {"Tee"}, "colours": {"red", "blue"}},
		[]string{"title", "colours"},
		[]FormFile{{Field: "images", Filename: "a.png", ContentType: "image/png", Data: []byte("png")}},
	)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(req.Method, req.URL, nil)
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.Body = io.NopCloser(bytes.NewReader(req.Body))
	require.NoError(t, httpReq.ParseMultipartForm(1<<20))

	assert.Equal(t, []string{"Tee"}, httpReq.MultipartForm.Value["title"])
	assert.Equal(t, []string{"red", "blue"}, httpReq.MultipartForm.Value["colours"])
	require.Len(t, httpReq.MultipartForm.File["images"], 1)
	assert.Equal(t, "a.png", httpReq.MultipartForm.File["images"][0].Filename)
	assert.Equal(t, "image/png", httpReq.MultipartForm.File["images"][0].Header.Get("Content-Type"))
}

func TestNewMultipartRequest_QuotesFilenameLikeMultipartWriter(t *testing.T) {
	name := "summer \"sale\"\u00a0résumé.png"
	req, err := NewMultipartRequest(http.MethodPost, "http://api.test/products", nil, nil,
		[]FormFile{{Field: "images", Filename: name, Data: []byte("png")}},
	)
	require.NoError(t, err)
	assert.Contains(t, string(req.Body), `filename="summer \"sale\"`+"\u00a0résumé.png\"")

	httpReq, err := http.NewRequest(req.Method, req.URL, nil)
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.Body = io.NopCloser(bytes.NewReader(req.Body))
	require.NoError(t, httpReq.ParseMultipartForm(1<<20))

	require.Len(t, httpReq.MultipartForm.File["images"], 1)
	assert.Equal(t, name, httpReq.MultipartForm.File["images"][0].Filename)
	assert.Equal(t, "application/octet-stream", httpReq.MultipartForm.File["images"][0].Header.Get("Content-Type"))
}
