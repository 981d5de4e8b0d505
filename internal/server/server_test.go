package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"libraryql/internal/author"
	"libraryql/internal/book"
	"libraryql/internal/clients"
	"libraryql/internal/config"
	"libraryql/internal/docstore"
	"libraryql/internal/graph"
	"libraryql/internal/rental"
	"libraryql/internal/repository"
	"libraryql/internal/telemetry"
	"libraryql/internal/user"
)

type fakeStore struct {
	err  error
	name string
}

func (s fakeStore) Ping(context.Context) error { return s.err }
func (s fakeStore) DatabaseName() string       { return s.name }

func testConfig() *config.Config {
	return &config.Config{
		Env:      config.Test,
		Port:     3001,
		Debug:    true,
		Database: config.Database{URI: "mongodb://localhost:27017", Name: "graphQL_test", MaxPoolSize: 10},
		CORS:     config.CORS{AllowedOrigins: []string{"http://localhost:4200"}},
		Security: config.Security{CSRFSecret: "test-secret", JSONLimit: 1 << 20},
		Throttle: config.Throttle{TTL: time.Minute, Limit: 100},
	}
}

func testServices(t *testing.T) graph.Services {
	t.Helper()
	opts := repository.DefaultOptions()
	authors := author.NewService(docstore.NewMemoryCollection[author.Author](), opts)
	books := book.NewService(docstore.NewMemoryCollection[book.Book](), authors, opts)
	users := user.NewService(docstore.NewMemoryCollection[user.User](), opts)
	rentals := rental.NewService(docstore.NewMemoryCollection[rental.Rental](), users, books, opts)
	return graph.Services{Authors: authors, Books: books, Users: users, Rentals: rentals}
}

type testServer struct {
	*httptest.Server
	registry *prometheus.Registry
	logs     *observer.ObservedLogs
}

func newTestServer(t *testing.T, cfg *config.Config, store Pinger) testServer {
	t.Helper()
	schema, err := graph.NewSchema(graph.NewResolver(testServices(t), cfg.Debug))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	core, logs := observer.New(zap.InfoLevel)
	h, err := NewRouter(cfg, Deps{
		Schema:   schema,
		Store:    store,
		Logger:   zap.New(core),
		Metrics:  telemetry.NewMetrics(reg),
		Gatherer: reg,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return testServer{Server: srv, registry: reg, logs: logs}
}

func (s testServer) client(t *testing.T) *clients.GraphQLClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return clients.NewGraphQLClient(s.URL, &http.Client{Jar: jar, Timeout: 5 * time.Second})
}

func TestNewRouterRequiresSchema(t *testing.T) {
	_, err := NewRouter(testConfig(), Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ctx := context.Background()

	up := newTestServer(t, testConfig(), fakeStore{name: "graphQL_test"})
	h, err := up.client(t).Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "up", h.Services["database"].Status)
	assert.Equal(t, "graphQL_test", h.Services["database"].Details["name"])

	down := newTestServer(t, testConfig(), fakeStore{err: errors.New("server selection timeout")})
	h, err = down.client(t).Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "error", h.Status)
	assert.Equal(t, "down", h.Services["database"].Status)
	assert.Equal(t, "server selection timeout", h.Services["database"].Details["message"])

	resp, err := http.Get(down.URL + "/health/database")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var db struct{ Status string }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&db))
	assert.Equal(t, "down", db.Status)
}

func TestHealthWithoutStore(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGraphQLOverHTTP(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t, testConfig(), fakeStore{}).client(t)

	a, err := c.CreateAuthor(ctx, clients.AuthorInput{Name: "A", Email: "a@example.com", Phone: "1", Country: "NZ"})
	require.NoError(t, err)
	assert.False(t, a.CreatedAt.IsZero())

	b, err := c.CreateBook(ctx, clients.BookInput{Title: "B", AuthorIDs: []string{a.ID}})
	require.NoError(t, err)

	gotAuthor, err := c.Author(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []clients.Ref{{ID: b.ID}}, gotAuthor.Books)

	u, err := c.CreateUser(ctx, clients.UserInput{Name: "u", Email: "u@example.com", Phone: "2"})
	require.NoError(t, err)
	r, err := c.CreateRental(ctx, clients.RentalInput{UserID: u.ID, BookIDs: []string{b.ID}})
	require.NoError(t, err)

	gotRental, err := c.Rental(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, gotRental.User)
	assert.Equal(t, u.ID, gotRental.User.ID)
	assert.Equal(t, []clients.Ref{{ID: b.ID}}, gotRental.Books)

	gotBook, err := c.Book(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []clients.Ref{{ID: a.ID}}, gotBook.Authors)
	assert.Equal(t, []clients.Ref{{ID: r.ID}}, gotBook.Rentals)

	gotUser, err := c.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []clients.Ref{{ID: r.ID}}, gotUser.Rentals)

	_, err = c.Author(ctx, "nope")
	var gqlErrs clients.Errors
	require.ErrorAs(t, err, &gqlErrs)
	assert.Equal(t, "VALIDATION_ERROR", gqlErrs.Code())
}

func TestCSRF(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, testConfig(), fakeStore{})
	c := srv.client(t)

	token, err := c.CSRFToken(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	resp, err := http.Post(srv.URL+"/health", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// /graphql is reachable without a token.
	_, err = c.CreateUser(ctx, clients.UserInput{Name: "u", Email: "u@example.com", Phone: "1"})
	assert.NoError(t, err)
}

func TestThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.Throttle = config.Throttle{TTL: time.Hour, Limit: 2}
	srv := newTestServer(t, cfg, fakeStore{})

	codes := make([]int, 3)
	for i := range codes {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes[i] = resp.StatusCode
		if i == 2 {
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestThrottleForgetsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	th := newThrottle(1, time.Minute, nil)
	th.now = func() time.Time { return now }

	assert.True(t, th.allow("a"))
	assert.False(t, th.allow("a"))
	assert.True(t, th.allow("b"))

	now = now.Add(2 * time.Minute)
	assert.True(t, th.allow("b"))
	assert.NotContains(t, th.clients, "a")
	assert.Equal(t, "60", retryAfter(time.Minute, 1))
}

func TestSecurityHeaders(t *testing.T) {
	dev := newTestServer(t, testConfig(), fakeStore{})
	resp, err := http.Get(dev.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	assert.Empty(t, resp.Header.Get("Content-Security-Policy"))

	cfg := testConfig()
	cfg.Env = config.Production
	prod := newTestServer(t, cfg, fakeStore{})
	resp, err = http.Get(prod.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestCORSOrigins(t *testing.T) {
	preflight := func(t *testing.T, url, origin string) string {
		t.Helper()
		req, err := http.NewRequest(http.MethodOptions, url+"/graphql", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.Header.Get("Access-Control-Allow-Origin")
	}

	dev := newTestServer(t, testConfig(), fakeStore{})
	assert.Equal(t, "http://localhost:4200", preflight(t, dev.URL, "http://localhost:4200"))
	assert.Empty(t, preflight(t, dev.URL, "https://evil.example.com"))

	cfg := testConfig()
	cfg.Env = config.Production
	cfg.CORS.AllowedOrigins = nil
	prod := newTestServer(t, cfg, fakeStore{})
	assert.Empty(t, preflight(t, prod.URL, "http://localhost:4200"))
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.JSONLimit = 64
	srv := newTestServer(t, cfg, fakeStore{})

	body := `{"query":"{ authors { id } }","variables":{"pad":"` + strings.Repeat("x", 128) + `"}}`
	resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, testConfig(), fakeStore{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assigned := resp.Header.Get(requestIDHeader)
	assert.Len(t, assigned, 36)

	const given = "3f1c9a64-5a0b-4f65-9d53-0f5b5f7d2a11"
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, given)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, given, resp.Header.Get(requestIDHeader))

	req.Header.Set(requestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(requestIDHeader))

	entries := srv.logs.FilterMessage("request").FilterField(zap.String("request_id", given)).All()
	assert.Len(t, entries, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), fakeStore{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	families, err := srv.registry.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "libraryql_http_requests_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCSRFKeyIsStable(t *testing.T) {
	k1, err := csrfKey("secret")
	require.NoError(t, err)
	k2, err := csrfKey("secret")
	require.NoError(t, err)
	k3, err := csrfKey("other")
	require.NoError(t, err)
	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, []string{"localhost:4200"}, trustedOrigins([]string{"http://localhost:4200", "*"}))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second, zap.NewNop())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
