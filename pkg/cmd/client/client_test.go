package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/pkg/notify"
)

func TestReceiveEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: file.indexed\ndata: {\"kind\":\"file.indexed\",\"path\":\"/r/a.xml\"}\n\n")
		fmt.Fprint(w, "event: broken\ndata: {nope\n\n")
		fmt.Fprint(w, "event: files.pruned\ndata: {\"kind\":\"files.pruned\",\"count\":2}\n\n")
	}))
	defer srv.Close()

	var got []notify.Event
	err := receiveEvents(context.Background(), srv.URL, func(ev notify.Event) {
		got = append(got, ev)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/r/a.xml", got[0].Path)
	assert.Equal(t, notify.KindFilesPruned, got[1].Kind)
	assert.Equal(t, 2, got[1].Count)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/version" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"version":"dev"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var data map[string]string
	require.NoError(t, getJSON(context.Background(), srv.URL+"/api/version", &data))
	assert.Equal(t, "dev", data["version"])

	err := getJSON(context.Background(), srv.URL+"/api/nope", &data)
	assert.ErrorContains(t, err, "404")
}
