package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/semmidev/cpbackup/internal/domain"
)

const envPrefix = "CPBACKUP"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	CPanel   CPanelConfig   `mapstructure:"cpanel"`
	Backup   BackupConfig   `mapstructure:"backup"`
	GDrive   GDriveConfig   `mapstructure:"gdrive"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type CPanelConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	LoginURL string `mapstructure:"login_url"`

	// Only for panels running on self-signed certificates.
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type BackupConfig struct {
	LocalPath     string `mapstructure:"local_path"`
	VerifyArchive bool   `mapstructure:"verify_archive"`
}

type GDriveConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	DeleteLocal     bool   `mapstructure:"delete_local"`
	CredentialsFile string `mapstructure:"credentials_file"`
	RefreshToken    string `mapstructure:"refresh_token"`
	FolderID        string `mapstructure:"folder_id"`
	RedirectURL     string `mapstructure:"redirect_url"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads the YAML file at path and validates it for a backup run.
// Every key can be overridden from the environment, e.g.
// CPBACKUP_CPANEL_PASSWORD for cpanel.password.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated reads the config without checking it, for commands that
// need only part of it.
func LoadUnvalidated(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can fill keys that are
// absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cpbackup")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "")

	v.SetDefault("cpanel.url", "")
	v.SetDefault("cpanel.username", "")
	v.SetDefault("cpanel.password", "")
	v.SetDefault("cpanel.login_url", "")
	v.SetDefault("cpanel.insecure_skip_verify", false)
	v.SetDefault("cpanel.timeout", time.Duration(0))

	v.SetDefault("backup.local_path", "")
	v.SetDefault("backup.verify_archive", false)

	v.SetDefault("gdrive.enabled", false)
	v.SetDefault("gdrive.delete_local", true)
	v.SetDefault("gdrive.credentials_file", "")
	v.SetDefault("gdrive.refresh_token", "")
	v.SetDefault("gdrive.folder_id", "")
	v.SetDefault("gdrive.redirect_url", "")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.timeout", 10*time.Second)
}

func (c *Config) Validate() error {
	if c.CPanel.URL == "" {
		return configError("cpanel.url is required")
	}
	if c.CPanel.Username == "" {
		return configError("cpanel.username is required")
	}
	if c.CPanel.Password == "" {
		return configError("cpanel.password is required")
	}
	if c.CPanel.Timeout < 0 {
		return configError("cpanel.timeout must not be negative")
	}

	if err := c.Settings().Validate(); err != nil {
		return err
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return configError("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}

	return nil
}

// ValidateOAuth checks what the OAuth consent flow needs. The refresh
// token is what that flow produces, so it is not required here.
func (c *Config) ValidateOAuth() error {
	if c.GDrive.CredentialsFile == "" {
		return configError("gdrive.credentials_file is required")
	}
	return nil
}

// Settings is the immutable part of the config the backup run acts on.
func (c *Config) Settings() domain.Settings {
	return domain.Settings{
		BackupPath:        c.Backup.LocalPath,
		Upload:            c.GDrive.Enabled,
		DeleteAfterUpload: c.GDrive.DeleteLocal,
		CredentialsFile:   c.GDrive.CredentialsFile,
		RefreshToken:      c.GDrive.RefreshToken,
	}
}

func configError(msg string) error {
	return domain.NewError(domain.ErrorTypeConfiguration, msg, nil)
}
