package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/cmd/cmdutil"
	"github.com/mpapenbr/simresults-indexer/pkg/notify"
)

var addr string

func NewClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "commands talking to a running sri server",
	}
	cmd.PersistentFlags().StringVar(&addr, "server", "http://localhost:8090",
		"base url of the sri server")
	cmd.AddCommand(NewEventsCmd())
	cmd.AddCommand(NewGetCmd())
	return cmd
}

func NewEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "receives index events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogging()
			return receiveEvents(cmd.Context(), addr+"/api/events", func(ev notify.Event) {
				log.Info("got event",
					log.String("kind", ev.Kind),
					log.String("path", ev.Path),
					log.Int("count", ev.Count))
			})
		},
	}
}

func NewGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get endpoint",
		Short: "calls a read endpoint, e.g. info or stats/driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogging()
			var data any
			if err := getJSON(cmd.Context(), addr+"/api/"+strings.TrimPrefix(args[0], "/"), &data); err != nil {
				return err
			}
			return cmdutil.Print(os.Stdout, data)
		},
	}
}

func getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "application/json" {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// receiveEvents reads the server sent event stream until ctx is done or the
// server closes the connection.
func receiveEvents(ctx context.Context, url string, handle func(notify.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		data, found := strings.CutPrefix(scanner.Text(), "data: ")
		if !found {
			continue
		}
		var ev notify.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			log.Warn("could not decode event", log.ErrorField(err))
			continue
		}
		handle(ev)
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}
