package main

import (
	"context"
	"errors"
	"net/http"
	"ratlogger/internal/api"
	"ratlogger/internal/platform/logging"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) watchCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the map, keep markers in sync and serve the local control surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.requireSession(cmd); err != nil {
				return err
			}

			stack, err := c.app.newMapStack("")
			if err != nil {
				return err
			}
			if err := stack.screen.Open(ctx); err != nil {
				return err
			}
			defer stack.screen.Close()

			if addr == "" {
				addr = c.app.cfg.Status.Addr
			}
			router := api.NewRouter(api.Deps{
				Markers:   stack.screen.Map(),
				Sync:      stack.screen.Sync(),
				PinDrop:   stack.screen.PinDrop(),
				Surface:   stack.renderer,
				SurfaceID: c.app.cfg.Map.SurfaceID,
				Gatherer:  c.app.registry,
			})
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logging.Ctx(ctx).Info().Str("addr", addr).Msg("control surface listening")
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logging.Ctx(ctx).Info().Msg("control surface stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to status.addr)")

	return cmd
}
