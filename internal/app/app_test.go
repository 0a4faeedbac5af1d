package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/lnk/internal/config"
)

func newTestApp(t *testing.T, connectors string) (*App, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(connectors), 0o644))

	out := &bytes.Buffer{}
	a, err := New(&config.Config{
		AppName:        "lnk",
		ConnectorsFile: path,
		HTTPTimeout:    5 * time.Second,
	}, nil, out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, out
}

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			_, _ = w.Write([]byte(`{"this":"is","json":true}`))
		case "/xml":
			_, _ = w.Write([]byte(`<feed><entry><title>first</title></entry></feed>`))
		case "/html":
			_, _ = w.Write([]byte(`<html><head><title> Whoops </title></head><body></body></html>`))
		case "/echo":
			body := new(bytes.Buffer)
			_, _ = body.ReadFrom(r.Body)
			_, _ = w.Write([]byte(r.Method + " " + body.String()))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRejectsBadConnectorsFile(t *testing.T) {
	_, err := New(&config.Config{ConnectorsFile: filepath.Join(t.TempDir(), "missing.yaml")}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load connectors")

	_, err = New(nil, nil, nil)
	require.Error(t, err)
}

func TestListPrintsEveryEntry(t *testing.T) {
	a, out := newTestApp(t, `
apis:
  tracker:
    wrapper: api
    base_url: https://example.com
dbs:
  cache:
    wrapper: BoltDB
    path: `+filepath.Join(t.TempDir(), "cache.db")+`
    enabled: false
`)

	require.NoError(t, a.List())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "apis/tracker")
	assert.Contains(t, lines[0], "api")
	assert.Contains(t, lines[1], "dbs/cache")
	assert.Contains(t, lines[1], "bbolt")
	assert.Contains(t, lines[1], "(disabled)")
}

func TestCallFormats(t *testing.T) {
	srv := apiServer(t)
	a, out := newTestApp(t, `
apis:
  svc:
    wrapper: api
    base_url: `+srv.URL+`
`)
	ctx := context.Background()

	require.NoError(t, a.Call(ctx, "svc", "GET", "/json", "", "json"))
	assert.Contains(t, out.String(), `"this": "is"`)

	out.Reset()
	require.NoError(t, a.Call(ctx, "svc", "get", "/xml", "", "xml"))
	assert.Equal(t, "feed\n  entry\n    title: first\n", out.String())

	out.Reset()
	require.NoError(t, a.Call(ctx, "svc", "get", "/html", "", "html"))
	assert.Equal(t, "Whoops\n", out.String())

	out.Reset()
	require.NoError(t, a.Call(ctx, "svc", "put", "/echo", "payload", "raw"))
	assert.Equal(t, "PUT payload\n", out.String())
}

func TestCallErrors(t *testing.T) {
	srv := apiServer(t)
	a, out := newTestApp(t, `
apis:
  svc:
    wrapper: api
    base_url: `+srv.URL+`
`)
	ctx := context.Background()

	err := a.Call(ctx, "svc", "get", "/missing", "", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, out.String(), "not found")

	require.Error(t, a.Call(ctx, "svc", "delete", "/json", "", "json"))
	require.Error(t, a.Call(ctx, "svc", "get", "/json", "", "yaml"))
	require.Error(t, a.Call(ctx, "svc", "get", "/html", "", "json"))
	require.Error(t, a.Call(ctx, "nope", "get", "/json", "", "json"))
}

func TestQueryAndExec(t *testing.T) {
	a, out := newTestApp(t, `
dbs:
  local:
    wrapper: sqlite
    path: `+filepath.Join(t.TempDir(), "local.db")+`
  kv:
    wrapper: bbolt
    path: `+filepath.Join(t.TempDir(), "kv.db")+`
`)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, "local", "CREATE TABLE users (id INTEGER, name TEXT)"))
	out.Reset()
	require.NoError(t, a.Exec(ctx, "local", "INSERT INTO users VALUES (?, ?), (?, ?)", 1, "ada", 2, "bob"))
	assert.Equal(t, "2 rows affected\n", out.String())

	out.Reset()
	require.NoError(t, a.Query(ctx, "local", "SELECT id, name FROM users ORDER BY id"))
	assert.Equal(t, "{\"id\":1,\"name\":\"ada\"}\n{\"id\":2,\"name\":\"bob\"}\n", out.String())

	err := a.Query(ctx, "kv", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not accept SQL")
}

func TestSendThroughPubSub(t *testing.T) {
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	require.NoError(t, err)
	defer client.Close()
	_, err = client.CreateTopic(ctx, "events")
	require.NoError(t, err)

	a, out := newTestApp(t, `
queues:
  events:
    wrapper: pubsub
    project_id: test-project
    topic: events
`)

	require.NoError(t, a.Send(ctx, "events", "hello", map[string]string{"source": "test"}))
	assert.NotEmpty(t, strings.TrimSpace(out.String()))

	msgs := server.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", string(msgs[0].Data))
	assert.Equal(t, "test", msgs[0].Attributes["source"])

	require.Error(t, a.Send(ctx, "missing", "hello", nil))
}
