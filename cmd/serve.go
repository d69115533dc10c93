package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/config"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/tasks"
)

const defaultExpiryInterval = time.Minute

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the maker-checker server",
	Long: `Loads attributes, rules and users from the config file and serves the
approval API. Approved changes are logged; embed the engine as a library
to commit them to an entity store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		adminRoles, _ := cmd.Flags().GetStringSlice("admin-role")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log.Info().Msg("Initializing engine...")
		rt, err := cfg.Build(ctx, config.BuildOptions{})
		if err != nil {
			return fmt.Errorf("building engine: %w", err)
		}
		defer func() {
			if err := rt.Auditor.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close auditor")
			}
		}()

		log.Info().Msg("Initializing background tasks...")
		taskManager := tasks.NewManager(ctx)
		if cfg.Tasks.Timeout > 0 {
			taskManager.SetTimeout(cfg.Tasks.Timeout)
		}
		expiryInterval := cfg.Tasks.ExpiryInterval
		if expiryInterval <= 0 {
			expiryInterval = defaultExpiryInterval
		}
		if cfg.Policy.RequestTTL > 0 {
			taskManager.Register(tasks.ExpireRequests(rt.Approvals, expiryInterval))
		} else {
			// no scheduled sweeps without a ttl, but keep it available for manual triggers
			taskManager.Register(tasks.ExpireRequests(rt.Approvals, 0))
		}
		taskManager.Register(tasks.StaleRules(rt.Catalog, cfg.Tasks.StaleRulesInterval))

		srv := api.NewServer(rt.Catalog, rt.Engines, rt.Approvals, rt.Auditor, taskManager, adminRoles...)

		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server crashed: %w", err)
		case <-ctx.Done():
		}
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	serveCmd.Flags().StringSlice("admin-role", []string{"admin"},
		"roles allowed to use the admin routes (empty allows every actor)")
	f.bindConfigFlag(serveCmd.Flags())
}
