package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/semmidev/cpbackup/internal/adapter/storage"
	"github.com/semmidev/cpbackup/internal/infrastructure/logger"
)

const (
	authStartPath    = "/auth/google/drive"
	authCallbackPath = "/auth/google/callback"
)

// GoogleOAuthService serves the consent flow that yields the Drive refresh
// token backups upload with.
type GoogleOAuthService struct {
	config     *oauth2.Config
	logger     *logger.Logger
	state      string
	authServer *http.Server
}

// NewGoogleOAuthService builds the consent flow from an OAuth client
// descriptor. redirectURL must be the externally reachable callback URL
// registered for the client, e.g. http://localhost:8085/auth/google/callback.
func NewGoogleOAuthService(log *logger.Logger, credentialsFile, redirectURL string) (*GoogleOAuthService, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if credentialsFile == "" {
		return nil, errors.New("credentials file cannot be empty")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL cannot be empty")
	}

	cfg, err := storage.OAuthConfig(credentialsFile, redirectURL)
	if err != nil {
		return nil, err
	}

	return &GoogleOAuthService{
		config: cfg,
		logger: log,
		state:  oauth2.GenerateVerifier(),
	}, nil
}

func (s *GoogleOAuthService) GetConfig() *oauth2.Config {
	return s.config
}

func (s *GoogleOAuthService) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+authStartPath, func(w http.ResponseWriter, r *http.Request) {
		// prompt=consent makes Google issue a refresh token on every run.
		authURL := s.config.AuthCodeURL(s.state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	})

	mux.HandleFunc("GET "+authCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != s.state {
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}

		token, err := s.config.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, fmt.Sprintf("token exchange failed: %v", err), http.StatusInternalServerError)
			return
		}

		if token.RefreshToken == "" {
			fmt.Fprintln(w, "No refresh token returned. Revoke app access & re-authorize.")
			return
		}

		s.logger.Infof("Refresh token issued; set gdrive.refresh_token to use it")
		fmt.Fprintf(w, "Refresh Token:\n%s\n", token.RefreshToken)
	})

	return mux
}

// StartAuthServer starts the OAuth HTTP server in a goroutine.
func (s *GoogleOAuthService) StartAuthServer(ctx context.Context, addr string) error {
	s.authServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Infof("Google Drive OAuth server listening on %s, open %s", s.authServer.Addr, authStartPath)
		if err := s.authServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("OAuth server error: %v", err)
		}
	}()

	return nil
}

func (s *GoogleOAuthService) Shutdown(ctx context.Context) error {
	if s.authServer == nil {
		return nil
	}

	if err := s.authServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown OAuth server: %w", err)
	}
	s.logger.Infof("OAuth server stopped successfully")
	return nil
}
