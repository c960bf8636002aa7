// ABOUTME: Serve command runs the HTTP API and websocket relay for browser extensions
// ABOUTME: Favorite changes from any client are pushed to every connected observer

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/httpapi"
	"github.com/harper/wikifaves/internal/relay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for browser extensions",
	Long: `Start the local HTTP API used by the browser extensions.

Routes live under /api; /api/ws streams favorite changes to open tabs.
Extension origins (chrome-extension://, moz-extension://) are allowed by default.

Examples:
  wikifaves serve
  wikifaves serve --addr 127.0.0.1:9000 --origins https://example.org`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		origins, _ := cmd.Flags().GetString("origins")
		if addr == "" {
			addr = cfg.GetListenAddr()
		}

		var served *faves.Service
		hubOpts := []relay.HubOption{
			relay.WithLogger(logger),
			relay.WithHandler(func(ctx context.Context, msg relay.Message) {
				served.HandleRelay(ctx, msg)
			}),
		}
		serverOpts := []httpapi.Option{httpapi.WithLogger(logger)}
		if extra := splitList(origins); len(extra) > 0 {
			hubOpts = append(hubOpts, relay.WithOriginPatterns(extra...))
			serverOpts = append(serverOpts, httpapi.WithOrigins(append(append([]string{}, httpapi.DefaultOrigins...), extra...)...))
		}

		hub := relay.NewHub(hubOpts...)
		served = faves.New(store, append(svcOpts, faves.WithRelay(hub))...)
		svc = served
		serverOpts = append(serverOpts, httpapi.WithHub(hub))

		fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", addr)
		server := httpapi.NewServer(served, serverOpts...)
		return server.ListenAndServe(cmd.Context(), addr)
	},
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:7531)")
	serveCmd.Flags().String("origins", "", "extra comma-separated CORS and websocket origins")
	rootCmd.AddCommand(serveCmd)
}
