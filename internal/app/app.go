package app

import (
	"context"
	"fmt"

	"github.com/semmidev/cpbackup/internal/adapter/compressor"
	"github.com/semmidev/cpbackup/internal/adapter/cpanel"
	"github.com/semmidev/cpbackup/internal/adapter/notifier"
	"github.com/semmidev/cpbackup/internal/adapter/storage"
	"github.com/semmidev/cpbackup/internal/config"
	"github.com/semmidev/cpbackup/internal/domain"
	"github.com/semmidev/cpbackup/internal/infrastructure/logger"
	"github.com/semmidev/cpbackup/internal/usecase"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	backupUC domain.BackupExecutor
}

func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	log.Infof("Starting %s", cfg.App.Name)

	if cfg.CPanel.InsecureSkipVerify {
		log.Warnf("TLS certificate verification is disabled for %s", cfg.CPanel.URL)
	}

	localStorage, err := storage.NewLocal(cfg.Backup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	panel := cpanel.New(cpanel.Config{
		BaseURL:            cfg.CPanel.URL,
		Username:           cfg.CPanel.Username,
		Password:           cfg.CPanel.Password,
		LoginURL:           cfg.CPanel.LoginURL,
		InsecureSkipVerify: cfg.CPanel.InsecureSkipVerify,
		Timeout:            cfg.CPanel.Timeout,
	})

	opts := initializeOptions(cfg, log)

	backupUC := usecase.NewBackup(cfg.Settings(), panel, panel, localStorage, log, opts...)

	return &App{
		config:   cfg,
		logger:   log,
		backupUC: backupUC,
	}, nil
}

func initializeOptions(cfg *config.Config, log *logger.Logger) []usecase.Option {
	var opts []usecase.Option

	if cfg.GDrive.Enabled {
		opts = append(opts, usecase.WithUploader(storage.NewGDrive(storage.GDriveConfig{
			CredentialsFile: cfg.GDrive.CredentialsFile,
			RefreshToken:    cfg.GDrive.RefreshToken,
			FolderID:        cfg.GDrive.FolderID,
			RedirectURL:     cfg.GDrive.RedirectURL,
		})))
		log.Infof("✓ Google Drive upload enabled (delete local copy: %t)", cfg.GDrive.DeleteLocal)
	}

	if cfg.Backup.VerifyArchive {
		opts = append(opts, usecase.WithVerifier(compressor.NewGzip()))
		log.Infof("✓ Archive verification enabled")
	}

	if cfg.Telegram.Enabled {
		tg, err := notifier.NewTelegram(notifier.TelegramConfig{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			Timeout:  cfg.Telegram.Timeout,
		})
		if err != nil {
			// A broken notifier must not block the backup itself.
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			opts = append(opts, usecase.WithNotifier(tg))
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	return opts
}

// Run backs up a single database.
func (a *App) Run(ctx context.Context, databaseName string) error {
	return a.backupUC.Execute(ctx, databaseName)
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.logger.Close()
}
