package events

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

	"github.com/mpapenbr/simresults-indexer/pkg/notify"
)

func TestEventStream(t *testing.T) {
	local := notify.NewLocal()
	defer local.Close()
	mux := http.NewServeMux()
	Register(mux, local)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+Path, http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// the subscription is registered after the headers were flushed
	go func() {
		for range 20 {
			time.Sleep(50 * time.Millisecond)
			_ = local.Notify(ctx, notify.Event{Kind: notify.KindFileIndexed, Path: "/r/a.xml"})
		}
	}()

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event: file.indexed", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "data: {"))
	assert.Contains(t, lines[1], `"path":"/r/a.xml"`)
}
