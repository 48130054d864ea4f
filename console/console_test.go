package console

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dracory/flatbridge/remote"
	"github.com/dracory/flatbridge/shared/types"
)

func TestProfileWithCopies(t *testing.T) {
	base := DefaultProfile()
	edited := base.WithHost("ch.internal").WithPort(8443).WithProtocol(" HTTPS ").WithSecret("s").WithToken("t")

	assert.Equal(t, "localhost", base.Host)
	assert.Equal(t, 8123, base.Port)
	assert.Equal(t, "ch.internal", edited.Host)
	assert.Equal(t, ProtocolHTTPS, edited.Protocol)
	assert.Equal(t, "https://default@ch.internal:8443/default", edited.String())
	assert.NotContains(t, edited.String(), "s@")
}

func TestProfileValidate(t *testing.T) {
	require.NoError(t, DefaultProfile().Validate())

	err := DefaultProfile().WithHost("").WithPort(0).WithProtocol("ftp").Validate()
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "host")
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "protocol")
}

func TestTestConnection(t *testing.T) {
	f := newFake()
	f.pingMsg = "connected"
	c := New(f, DefaultProfile().WithSecret("pw"), Config{OperationTimeout: time.Second})

	msg, err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected", msg)
	require.Len(t, f.pings, 1)
	assert.Equal(t, types.PingRequest{
		Host: "localhost", Port: 8123, Database: "default", User: "default", Password: "pw", Protocol: "http",
	}, f.pings[0])
}

func TestTestConnectionFailures(t *testing.T) {
	t.Run("invalid profile stays local", func(t *testing.T) {
		f := newFake()
		c := New(f, DefaultProfile().WithHost(""), Config{})
		_, err := c.TestConnection(context.Background())
		assert.Equal(t, MissingField, ReasonOf(err))
		assert.Zero(t, f.count("ping"))
	})

	t.Run("store unreachable", func(t *testing.T) {
		f := newFake()
		f.pingErr = fmt.Errorf("%w: HTTP 502: dial tcp: refused", remote.ErrServer)
		c := New(f, DefaultProfile(), Config{})
		_, err := c.TestConnection(context.Background())
		assert.Equal(t, ServerError, ReasonOf(err))
	})
}

func TestConsoleWiring(t *testing.T) {
	f := newFake()
	saver := &MemorySaver{}
	c := New(f, DefaultProfile(), Config{Saver: saver})

	require.NoError(t, c.Export().SelectTable(context.Background(), "orders"))
	_, err := c.Export().Export(context.Background(), "csv")
	require.NoError(t, err)
	_, ok := saver.Get("orders.csv")
	assert.True(t, ok)

	assert.Equal(t, ",", c.Ingest().State().Delimiter)

	c.SetProfile(c.Profile().WithDatabase("sales"))
	assert.Equal(t, "sales", c.Profile().Database)
}

func TestProfileTokenAuthenticatesRemote(t *testing.T) {
	var mu sync.Mutex
	var headers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"tables":["orders"]}`))
	}))
	defer srv.Close()

	c := New(remote.New(srv.URL, "stale"), DefaultProfile().WithToken("old"), Config{})
	_, err := c.Export().RefreshTables(context.Background())
	require.NoError(t, err)

	c.SetProfile(c.Profile().WithToken("new"))
	_, err = c.Export().RefreshTables(context.Background())
	require.NoError(t, err)

	// unrelated edits keep the token
	c.SetProfile(c.Profile().WithHost("ch.internal"))
	_, err = c.Export().RefreshTables(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer old", "Bearer new", "Bearer new"}, headers)
}

func TestSetProfileRetokensOnlyOnChange(t *testing.T) {
	f := newFake()
	c := New(f, DefaultProfile().WithToken("a"), Config{})
	c.SetProfile(c.Profile().WithUser("u"))
	c.SetProfile(c.Profile().WithToken("b"))
	assert.Equal(t, []string{"a", "b"}, f.tokens)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "NotFound", NotFound.String())
	assert.Equal(t, "Reason(99)", Reason(99).String())
	assert.Equal(t, Reason(0), ReasonOf(fmt.Errorf("plain")))
}
