package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/cpbackup/internal/config"
	"github.com/semmidev/cpbackup/internal/domain"
	"github.com/semmidev/cpbackup/internal/infrastructure/logger"
)

func fakePanel(archive []byte) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("pass") != "s3cret" {
			w.Write([]byte(`{"status":0,"message":"invalid_login"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "cpsession", Value: "alice%3aXYZ", Path: "/"})
		w.Write([]byte(`{"status":1,"security_token":"/cpsess777"}`))
	})
	mux.HandleFunc("/cpsess777/getsqlbackup/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "cpsession=alice%3aXYZ" {
			http.Redirect(w, r, "/login/", http.StatusFound)
			return
		}
		w.Write(archive)
	})
	return httptest.NewServer(mux)
}

func TestApp(t *testing.T) {
	Convey("Given an App pointed at a fake control panel", t, func() {
		tempDir, err := os.MkdirTemp("", "app_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		var gz bytes.Buffer
		zw := gzip.NewWriter(&gz)
		zw.Write([]byte("CREATE TABLE orders (id int);"))
		zw.Close()

		panel := fakePanel(gz.Bytes())
		defer panel.Close()

		backupDir := filepath.Join(tempDir, "backups")
		cfg := &config.Config{
			App:    config.AppConfig{Name: "cpbackup"},
			CPanel: config.CPanelConfig{URL: panel.URL, Username: "alice", Password: "s3cret"},
			Backup: config.BackupConfig{LocalPath: backupDir, VerifyArchive: true},
			Telegram: config.TelegramConfig{
				Enabled:  true,
				BotToken: "123:abc",
				ChatID:   "not-a-number",
			},
		}

		Convey("When running a backup", func() {
			application, err := New(cfg, logger.Nop())
			So(err, ShouldBeNil)
			defer application.Shutdown()

			err = application.Run(context.Background(), "shop")

			Convey("It should store one verified archive", func() {
				So(err, ShouldBeNil)

				entries, err := os.ReadDir(backupDir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Name(), ShouldEndWith, "_shop.sql.gz")

				content, _ := os.ReadFile(filepath.Join(backupDir, entries[0].Name()))
				So(content, ShouldResemble, gz.Bytes())
			})
		})

		Convey("When the password is wrong", func() {
			cfg.CPanel.Password = "wrong"
			application, err := New(cfg, logger.Nop())
			So(err, ShouldBeNil)

			err = application.Run(context.Background(), "shop")

			Convey("It should fail with an authentication error", func() {
				So(errors.Is(err, domain.ErrAuthentication), ShouldBeTrue)
			})
		})
	})
}
