package app

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/cpbackup/internal/infrastructure/logger"
)

func TestGoogleOAuthService(t *testing.T) {
	Convey("Given a GoogleOAuthService", t, func() {
		tempDir, err := os.MkdirTemp("", "oauth_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		refreshToken := "1//refresh-xyz"
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			w.Header().Set("Content-Type", "application/json")
			if r.PostForm.Get("code") != "auth-code" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant"}`)
				return
			}
			fmt.Fprintf(w, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"refresh_token":%q}`, refreshToken)
		}))
		defer tokenServer.Close()

		credentials := filepath.Join(tempDir, "client_credentials.json")
		os.WriteFile(credentials, []byte(fmt.Sprintf(
			`{"web":{"client_id":"cid","client_secret":"secret","auth_uri":"https://accounts.example/o/oauth2/auth","token_uri":%q,"redirect_uris":["https://ambient.example/ignored"]}}`,
			tokenServer.URL)), 0600)

		redirect := "http://localhost:8085/auth/google/callback"
		svc, err := NewGoogleOAuthService(logger.Nop(), credentials, redirect)
		So(err, ShouldBeNil)
		handler := svc.Handler()

		Convey("When starting the consent flow", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, authStartPath, nil))

			Convey("It should redirect to Google with the explicit redirect URL", func() {
				So(rec.Code, ShouldEqual, http.StatusTemporaryRedirect)

				loc, err := url.Parse(rec.Header().Get("Location"))
				So(err, ShouldBeNil)
				So(loc.Host, ShouldEqual, "accounts.example")
				So(loc.Query().Get("client_id"), ShouldEqual, "cid")
				So(loc.Query().Get("redirect_uri"), ShouldEqual, redirect)
				So(loc.Query().Get("access_type"), ShouldEqual, "offline")
				So(loc.Query().Get("state"), ShouldEqual, svc.state)
			})
		})

		Convey("When the callback carries a valid code", func() {
			rec := httptest.NewRecorder()
			target := authCallbackPath + "?code=auth-code&state=" + url.QueryEscape(svc.state)
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			Convey("It should print the refresh token", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, refreshToken)
			})
		})

		Convey("When Google returns no refresh token", func() {
			refreshToken = ""
			rec := httptest.NewRecorder()
			target := authCallbackPath + "?code=auth-code&state=" + url.QueryEscape(svc.state)
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			Convey("It should explain how to get one", func() {
				So(rec.Body.String(), ShouldContainSubstring, "No refresh token returned")
			})
		})

		Convey("When the state does not match", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, authCallbackPath+"?code=auth-code&state=forged", nil))

			Convey("It should reject the request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the code is rejected", func() {
			rec := httptest.NewRecorder()
			target := authCallbackPath + "?code=bad&state=" + url.QueryEscape(svc.state)
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			Convey("It should report the exchange failure", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(rec.Body.String(), ShouldContainSubstring, "token exchange failed")
			})
		})
	})

	Convey("Given missing constructor arguments", t, func() {
		_, err := NewGoogleOAuthService(logger.Nop(), "client_credentials.json", "")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "redirect URL")

		_, err = NewGoogleOAuthService(nil, "client_credentials.json", "http://localhost")
		So(err, ShouldNotBeNil)
	})
}
