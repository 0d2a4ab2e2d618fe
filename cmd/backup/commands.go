package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/semmidev/cpbackup/internal/app"
	"github.com/semmidev/cpbackup/internal/config"
	"github.com/semmidev/cpbackup/internal/domain"
	"github.com/semmidev/cpbackup/internal/infrastructure/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "backup",
		Short: "Download cPanel MySQL backups and optionally ship them to Google Drive",
		Long: `backup logs in to a cPanel account, downloads the gzipped SQL dump of a
database into the configured backup directory and, when enabled, uploads it
to Google Drive and removes the local copy.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to config file")

	root.AddCommand(newRunCmd(&configPath), newAuthCmd(&configPath))
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <database>",
		Short: "Back up one database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}

			application, err := app.New(cfg, log)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer application.Shutdown()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := application.Run(ctx, args[0]); err != nil {
				if typ, ok := domain.TypeOf(err); ok {
					return fmt.Errorf("backup of %s failed (%s): %w", args[0], typ, err)
				}
				return fmt.Errorf("backup of %s failed: %w", args[0], err)
			}
			return nil
		},
	}
}

func newAuthCmd(configPath *string) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the Google OAuth flow that prints a Drive refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ValidateOAuth(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			defer log.Close()

			redirectURL := cfg.GDrive.RedirectURL
			if redirectURL == "" {
				redirectURL = "http://localhost" + listenAddr + "/auth/google/callback"
			}

			svc, err := app.NewGoogleOAuthService(log, cfg.GDrive.CredentialsFile, redirectURL)
			if err != nil {
				return fmt.Errorf("initialize oauth: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := svc.StartAuthServer(ctx, listenAddr); err != nil {
				return err
			}
			<-ctx.Done()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return svc.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", ":8085", "address for the OAuth callback server")
	return cmd
}
