package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/semmidev/cpbackup/internal/domain"
)

type Backup struct {
	settings  domain.Settings
	auth      domain.Authenticator
	fetcher   domain.Fetcher
	store     domain.ArtifactStore
	uploader  domain.Uploader
	verifier  domain.ArchiveVerifier
	notifiers []domain.Notifier
	logger    Logger
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type Option func(*Backup)

// WithUploader sets the sink used when settings.Upload is true.
func WithUploader(u domain.Uploader) Option {
	return func(b *Backup) { b.uploader = u }
}

func WithVerifier(v domain.ArchiveVerifier) Option {
	return func(b *Backup) { b.verifier = v }
}

func WithNotifier(n domain.Notifier) Option {
	return func(b *Backup) { b.notifiers = append(b.notifiers, n) }
}

func NewBackup(
	settings domain.Settings,
	auth domain.Authenticator,
	fetcher domain.Fetcher,
	store domain.ArtifactStore,
	logger Logger,
	opts ...Option,
) *Backup {
	uc := &Backup{
		settings: settings,
		auth:     auth,
		fetcher:  fetcher,
		store:    store,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute runs login, download and the optional upload and delete for one
// database. The first failing step aborts the run; nothing is rolled back.
func (uc *Backup) Execute(ctx context.Context, databaseName string) error {
	start := time.Now()

	artifact, err := uc.run(ctx, databaseName)
	if err != nil {
		uc.logger.Errorf("[%s] Backup failed: %v", databaseName, err)
		uc.notify(ctx, fmt.Sprintf("❌ Backup of %s failed\n\n%v", databaseName, err))
		return err
	}

	uc.logger.Infof("[%s] Backup completed in %s: %s",
		databaseName, time.Since(start).Round(time.Second), artifact.Filename)
	uc.notify(ctx, fmt.Sprintf("✅ Backup Created\n\n📁 File: %s\n📊 Size: %.2f MB",
		artifact.Filename, float64(artifact.Size)/(1024*1024)))

	return nil
}

func (uc *Backup) run(ctx context.Context, databaseName string) (*domain.Artifact, error) {
	if err := uc.validate(databaseName); err != nil {
		return nil, err
	}

	uc.logger.Infof("[%s] Logging in to control panel...", databaseName)
	session, err := uc.auth.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	uc.logger.Infof("[%s] Downloading backup...", databaseName)
	artifact, err := uc.fetcher.FetchBackup(ctx, session, databaseName, uc.store)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	uc.logger.Infof("[%s] Backup saved to %s, size: %.2f MB",
		databaseName, artifact.Path, float64(artifact.Size)/(1024*1024))

	if uc.verifier != nil {
		if err := uc.verify(ctx, artifact); err != nil {
			return nil, err
		}
	}

	if !uc.settings.Upload {
		return artifact, nil
	}

	uc.logger.Infof("[%s] Uploading to Google Drive...", databaseName)
	result, err := uc.uploader.Upload(ctx, artifact.Path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	uc.logger.Infof("[%s] Successfully uploaded as %s (id %s)", databaseName, result.Name, result.ID)

	if uc.settings.DeleteAfterUpload {
		if err := uc.store.Delete(ctx, artifact.Filename); err != nil {
			return nil, fmt.Errorf("delete local copy: %w", err)
		}
		uc.logger.Infof("[%s] Deleted local copy %s", databaseName, artifact.Filename)
	}

	return artifact, nil
}

func (uc *Backup) validate(databaseName string) error {
	if err := uc.settings.Validate(); err != nil {
		return err
	}
	if databaseName == "" {
		return domain.NewError(domain.ErrorTypeConfiguration, "database name is required", nil)
	}
	// The name ends up in both the download URL and the local filename.
	if strings.ContainsAny(databaseName, `/\`) || strings.Contains(databaseName, "..") {
		return domain.NewError(domain.ErrorTypeConfiguration, fmt.Sprintf("invalid database name %q", databaseName), nil)
	}
	if uc.settings.Upload && uc.uploader == nil {
		return domain.NewError(domain.ErrorTypeConfiguration, "upload is enabled but no uploader is configured", nil)
	}
	return nil
}

func (uc *Backup) verify(ctx context.Context, artifact *domain.Artifact) error {
	verr := uc.verifier.Verify(artifact.Path)
	if verr == nil {
		return nil
	}

	if err := uc.store.Delete(ctx, artifact.Filename); err != nil && !errors.Is(err, domain.ErrFileNotFound) {
		uc.logger.Warnf("[%s] Failed to remove invalid archive %s: %v", artifact.DatabaseName, artifact.Filename, err)
	}
	return domain.NewError(domain.ErrorTypeDownload, "downloaded file is not a valid gzip archive", verr)
}

func (uc *Backup) notify(ctx context.Context, message string) {
	for _, n := range uc.notifiers {
		if err := n.Notify(ctx, message); err != nil {
			uc.logger.Warnf("Notification failed: %v", err)
		}
	}
}
