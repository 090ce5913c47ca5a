package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mealprep/internal/eventlog"
)

func TestEventStream(t *testing.T) {
	events, err := eventlog.NewLog(":memory:", nil)
	require.NoError(t, err)
	defer events.Close()

	srv, _ := newTestServer(t, func(d *Deps) { d.Events = events })
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set(userHeader, "alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// First frame is the connected marker.
	line := readDataLine(t, reader)
	assert.Contains(t, line, `"type":"connected"`)

	// An appended event for the same user arrives on the stream; another
	// user's event does not surface.
	require.NoError(t, events.Append(context.Background(), eventlog.TypeResolution, "bob", nil))
	require.NoError(t, events.Append(context.Background(), eventlog.TypeResolution, "alice", map[string]string{"name": "oats"}))

	line = readDataLine(t, reader)
	assert.Contains(t, line, `"type":"resolution"`)
	assert.Contains(t, line, `"user":"alice"`)
}

func TestEventStreamOutlivesRequestTimeout(t *testing.T) {
	orig := requestTimeout
	requestTimeout = 100 * time.Millisecond
	defer func() { requestTimeout = orig }()

	events, err := eventlog.NewLog(":memory:", nil)
	require.NoError(t, err)
	defer events.Close()

	srv, _ := newTestServer(t, func(d *Deps) { d.Events = events })
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set(userHeader, "alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line := readDataLine(t, reader)
	assert.Contains(t, line, `"type":"connected"`)

	// Well past the request timeout the stream still delivers events.
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, events.Append(context.Background(), eventlog.TypeResolution, "alice", nil))

	line = readDataLine(t, reader)
	assert.Contains(t, line, `"type":"resolution"`)
}

func readDataLine(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestEventStreamUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodGet, "/events", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
