package domain

import (
	"context"
	"time"
)

// Session is the short-lived login state returned by the control panel.
// It only lives for the duration of one backup run.
type Session struct {
	SecurityToken string
	Cookie        string
}

type Artifact struct {
	Filename     string
	Path         string
	Size         int64
	DatabaseName string
	CreatedAt    time.Time
}

type UploadResult struct {
	ID   string
	Name string
}

// Settings controls what happens to an artifact after it is downloaded.
type Settings struct {
	BackupPath        string
	Upload            bool
	DeleteAfterUpload bool
	CredentialsFile   string
	RefreshToken      string
}

func (s Settings) Validate() error {
	if s.BackupPath == "" {
		return NewError(ErrorTypeConfiguration, "backup path is not set", nil)
	}
	if s.Upload && s.CredentialsFile == "" {
		return NewError(ErrorTypeConfiguration, "upload is enabled but credentials file is not set", nil)
	}
	if s.Upload && s.RefreshToken == "" {
		return NewError(ErrorTypeConfiguration, "upload is enabled but refresh token is not set", nil)
	}
	return nil
}

type Authenticator interface {
	Login(ctx context.Context) (*Session, error)
}

type Fetcher interface {
	FetchBackup(ctx context.Context, session *Session, databaseName string, store ArtifactStore) (*Artifact, error)
}

type BackupExecutor interface {
	Execute(ctx context.Context, databaseName string) error
}
