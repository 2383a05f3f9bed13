package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/osano12/TIPE/internal/jsonrpc"
	"github.com/osano12/TIPE/internal/maintenance"
	"github.com/osano12/TIPE/internal/state"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	httpAddr        string
	maintenanceAddr string
	allowedCIDRs    []string
	shutdownTimeout time.Duration
}

func newServeCmd(o *options) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tuning API and the maintenance console",
		Long: `Serve loads the configuration and exposes it to the robot controllers:
JSON-RPC over HTTP at ` + jsonrpc.Path + ` for get/set/save, and a TCP maintenance
console for save, reload and factory_reset. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, o, so)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&so.httpAddr, "http-addr", ":8080", "Listen address of the tuning API")
	flags.StringVar(&so.maintenanceAddr, "maintenance-addr", "127.0.0.1:50000", "Listen address of the maintenance console (empty disables it)")
	flags.StringSliceVar(&so.allowedCIDRs, "allow-cidr", maintenance.DefaultAllowedCIDRs, "Networks allowed to reach the maintenance console")
	flags.DurationVar(&so.shutdownTimeout, "shutdown-timeout", 5*time.Second, "Grace period for in-flight requests on shutdown")
	return cmd
}

func runServe(ctx context.Context, o *options, so *serveOptions) error {
	logger := o.logger

	store, err := o.openStore(true)
	if err != nil {
		return err
	}
	configState := state.NewConfigState(store, logger.Named("state"))
	defer func() {
		if err := configState.Close(); err != nil {
			logger.Error("config state shutdown error", "error", err)
		}
	}()

	rpcServer := jsonrpc.NewServer(configState, logger.Named("jsonrpc"))
	httpListener, err := net.Listen("tcp", so.httpAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", so.httpAddr, err)
	}
	httpServer := &http.Server{
		Handler:      rpcServer.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		logger.Info("starting tuning API", "addr", httpListener.Addr().String(), "path", jsonrpc.Path)
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var maintenanceServer *maintenance.Server
	if so.maintenanceAddr != "" {
		maintenanceServer, err = maintenance.NewServer(so.maintenanceAddr, so.allowedCIDRs, configState, logger.Named("maintenance"))
		if err != nil {
			httpServer.Close()
			return err
		}
		go func() {
			if err := maintenanceServer.ListenAndServe(); err != nil {
				errs <- fmt.Errorf("maintenance server failed: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down servers")
	case runErr = <-errs:
		logger.Error("server stopped", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), so.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if maintenanceServer != nil {
		if err := maintenanceServer.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Error("maintenance server shutdown error", "error", err)
		}
	}

	logger.Info("servers stopped")
	return runErr
}
