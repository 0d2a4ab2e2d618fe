package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/cpbackup/internal/domain"
)

func TestRootCmd(t *testing.T) {
	Convey("Given the backup command", t, func() {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetErr(&out)

		Convey("When run is called without a database", func() {
			root.SetArgs([]string{"run"})
			err := root.Execute()

			Convey("It should reject the arguments", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "accepts 1 arg")
			})
		})

		Convey("When the config has no backup path", func() {
			tempDir, _ := os.MkdirTemp("", "cmd_test")
			defer os.RemoveAll(tempDir)

			path := filepath.Join(tempDir, "config.yaml")
			os.WriteFile(path, []byte("cpanel:\n  url: https://example.com:2083\n  username: alice\n  password: s3cret\n"), 0600)

			root.SetArgs([]string{"run", "shop", "--config", path})
			err := root.Execute()

			Convey("It should fail with a configuration error", func() {
				So(errors.Is(err, domain.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When auth runs before a refresh token exists", func() {
			tempDir, _ := os.MkdirTemp("", "cmd_test")
			defer os.RemoveAll(tempDir)

			credentials := filepath.Join(tempDir, "client_credentials.json")
			path := filepath.Join(tempDir, "config.yaml")
			os.WriteFile(path, []byte("gdrive:\n  enabled: true\n  credentials_file: "+credentials+"\n"), 0600)

			root.SetArgs([]string{"auth", "--config", path, "--listen", "127.0.0.1:0"})
			err := root.Execute()

			Convey("It should get past config loading without cpanel or token settings", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, domain.ErrConfiguration), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "initialize oauth")
				So(err.Error(), ShouldContainSubstring, "unable to read credentials file")
			})
		})

		Convey("When auth has no credentials file configured", func() {
			tempDir, _ := os.MkdirTemp("", "cmd_test")
			defer os.RemoveAll(tempDir)

			path := filepath.Join(tempDir, "config.yaml")
			os.WriteFile(path, []byte("gdrive:\n  enabled: true\n"), 0600)

			root.SetArgs([]string{"auth", "--config", path})
			err := root.Execute()

			Convey("It should fail with a configuration error", func() {
				So(errors.Is(err, domain.ErrConfiguration), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "gdrive.credentials_file")
			})
		})
	})
}
