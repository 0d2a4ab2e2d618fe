package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/semmidev/cpbackup/internal/domain"
)

const uploadContentType = "application/octet-stream"

type GDriveConfig struct {
	CredentialsFile string
	RefreshToken    string
	FolderID        string
	RedirectURL     string

	// Endpoint overrides the Drive API base URL. Empty means the default.
	Endpoint string
}

// GDriveStorage uploads archives to Google Drive as the user who issued
// the refresh token. Credentials are read and exchanged on every Upload.
type GDriveStorage struct {
	cfg GDriveConfig
}

func NewGDrive(cfg GDriveConfig) *GDriveStorage {
	return &GDriveStorage{cfg: cfg}
}

// OAuthConfig parses an OAuth client descriptor ("installed" or "web"
// JSON downloaded from the Google Cloud console).
func OAuthConfig(credentialsFile, redirectURL string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	return cfg, nil
}

func (g *GDriveStorage) Upload(ctx context.Context, localPath string) (*domain.UploadResult, error) {
	file, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewError(domain.ErrorTypeFileNotFound, "backup file not found: "+localPath, err)
		}
		return nil, domain.NewError(domain.ErrorTypeUpload, "failed to open file", err)
	}
	defer file.Close()

	service, err := g.newService(ctx)
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeUpload, "failed to create drive service", err)
	}

	fileMetadata := &drive.File{
		Name: filepath.Base(localPath),
	}
	if g.cfg.FolderID != "" {
		fileMetadata.Parents = []string{g.cfg.FolderID}
	}

	created, err := service.Files.Create(fileMetadata).
		Media(file, googleapi.ContentType(uploadContentType), googleapi.ChunkSize(0)).
		Fields("id", "name").
		Context(ctx).
		Do()
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeUpload, "failed to upload to gdrive", err)
	}

	return &domain.UploadResult{ID: created.Id, Name: created.Name}, nil
}

func (g *GDriveStorage) newService(ctx context.Context) (*drive.Service, error) {
	oauthCfg, err := OAuthConfig(g.cfg.CredentialsFile, g.cfg.RedirectURL)
	if err != nil {
		return nil, err
	}

	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: g.cfg.RefreshToken})
	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts))),
	}
	if g.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.cfg.Endpoint))
	}

	return drive.NewService(ctx, opts...)
}
