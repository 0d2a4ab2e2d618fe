package cpanel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/semmidev/cpbackup/internal/domain"
)

const filenameLayout = "02012006_150405"

// BackupURL is the getsqlbackup location for databaseName. The security
// token already carries its leading slash ("/cpsess0123456789").
func (c *Client) BackupURL(securityToken, databaseName string) string {
	return c.cfg.BaseURL + securityToken + "/getsqlbackup/" + databaseName + ".sql.gz"
}

// Filename names an archive by local time at second precision, so two
// downloads of the same database within one second share a name.
func Filename(t time.Time, databaseName string) string {
	return t.Format(filenameLayout) + "_" + databaseName + ".sql.gz"
}

func (c *Client) FetchBackup(ctx context.Context, session *domain.Session, databaseName string, store domain.ArtifactStore) (*domain.Artifact, error) {
	if session == nil {
		return nil, domain.NewError(domain.ErrorTypeDownload, "no session", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BackupURL(session.SecurityToken, databaseName), nil)
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeDownload, "failed to build backup request", err)
	}
	req.Header.Set("Cookie", sessionCookie+"="+session.Cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeDownload, "backup request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.NewError(domain.ErrorTypeDownload,
			fmt.Sprintf("unexpected status %d downloading %s", resp.StatusCode, databaseName), nil)
	}

	createdAt := c.now()
	filename := Filename(createdAt, databaseName)

	path, size, err := store.Save(ctx, filename, resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.ErrorTypeDownload, "failed to save "+filename, err)
	}

	return &domain.Artifact{
		Filename:     filename,
		Path:         path,
		Size:         size,
		DatabaseName: databaseName,
		CreatedAt:    createdAt,
	}, nil
}
