package devserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldsync/internal/kv"
	"github.com/roach88/fieldsync/internal/record"
	"github.com/roach88/fieldsync/internal/remote"
	"github.com/roach88/fieldsync/internal/store"
)

type fixture struct {
	srv    *Server
	store  *store.Store
	mem    *kv.Memory
	client *remote.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := kv.NewMemory()
	st := store.New(mem, store.WithKeyPrefix(KeyPrefix), store.WithLogger(logger))
	srv := New(st, logger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &fixture{
		srv:    srv,
		store:  st,
		mem:    mem,
		client: remote.NewClient(ts.URL, remote.WithLogger(logger)),
	}
}

func post(t *testing.T, h http.Handler, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRegisterAggregator_Created(t *testing.T) {
	f := newFixture(t)

	res := f.client.Submit(context.Background(), store.Aggregator, record.Record{
		"aggregatorName": record.String("Acme"),
		"submissionId":   record.String("id-1"),
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	n, err := f.store.Count(context.Background(), store.Aggregator)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok := f.mem.Raw("server:aggregator")
	assert.True(t, ok, "server logs live under the server prefix")
}

func TestRegisterAggregator_DuplicateNameConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.client.Submit(ctx, store.Aggregator, record.Record{"aggregatorName": record.String("Acme"), "submissionId": record.String("id-1")})
	require.True(t, first.Success)

	second := f.client.Submit(ctx, store.Aggregator, record.Record{"aggregatorName": record.String("Acme"), "submissionId": record.String("id-2")})
	assert.False(t, second.Success)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	assert.Equal(t, MsgDuplicateAggregator, second.Error)

	n, err := f.store.Count(ctx, store.Aggregator)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmit_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := record.Record{"name": record.String("Achieng"), "submissionId": record.String("id-7")}

	first := f.client.Submit(ctx, store.Farmer, rec)
	require.True(t, first.Success)
	second := f.client.Submit(ctx, store.Farmer, rec)
	require.True(t, second.Success)
	assert.JSONEq(t, string(first.Data), string(second.Data))

	n, err := f.store.Count(ctx, store.Farmer)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmit_ReplayedAggregatorIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := record.Record{"aggregatorName": record.String("Acme"), "submissionId": record.String("id-1")}

	require.True(t, f.client.Submit(ctx, store.Aggregator, rec).Success)
	again := f.client.Submit(ctx, store.Aggregator, rec)
	assert.True(t, again.Success)
	assert.Equal(t, http.StatusCreated, again.StatusCode)
}

func TestSubmit_BadBodies(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`not json`, `[1,2]`, `"str"`, `{"a":1} {}`} {
		rr := post(t, f.srv, "/farmers/register", body, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
		assert.NotEmpty(t, payload["error"])
	}

	n, err := f.store.Count(context.Background(), store.Farmer)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmit_OtherRoutes(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/farmer-group/create", "/farmers/register", "/training"} {
		rr := post(t, f.srv, path, `{"x":1}`, nil)
		assert.Equal(t, http.StatusCreated, rr.Code, path)
		assert.JSONEq(t, `{"x":1}`, rr.Body.String())
	}
}

func TestSubmit_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.mem.FailSets(assert.AnError)

	rr := post(t, f.srv, "/training", `{"x":1}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestListAggregators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := f.client.ListAggregators(ctx)
	require.True(t, empty.Success)
	assert.JSONEq(t, `[]`, string(empty.Data))

	for _, name := range []string{"Acme", "Beta"} {
		require.True(t, f.client.Submit(ctx, store.Aggregator, record.Record{"aggregatorName": record.String(name)}).Success)
	}

	res := f.client.ListAggregators(ctx)
	require.True(t, res.Success)
	assert.JSONEq(t, `[{"aggregatorName":"Acme"},{"aggregatorName":"Beta"}]`, string(res.Data))
}

func TestRoutes_MethodAndPath(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/aggregator/register", nil)
	rr := httptest.NewRecorder()
	f.srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr = httptest.NewRecorder()
	f.srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	f.srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}
