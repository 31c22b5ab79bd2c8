// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings for the watcher daemon and CLI. All values
// come from CENOWATCH_-prefixed environment variables.
type Config struct {
	// MailAddress and MailPassword are the process-wide sender credentials
	// for outbound mail.
	MailAddress  string
	MailPassword string
	SMTPHost     string
	SMTPPort     int

	// DBPath is the SQLite database file.
	DBPath string

	// Interval is the wall-clock period between cycles; Grace is the
	// misfire window within which a missed run is still caught up.
	Interval time.Duration
	Grace    time.Duration

	// TemplateGen selects the source site's template generation for the
	// extraction markers (e.g. "2020").
	TemplateGen string

	// Workers bounds how many item pipelines run concurrently per cycle.
	Workers int

	// HTTPTimeout bounds a single page fetch.
	HTTPTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except the mail credentials.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("CENOWATCH")
	v.AutomaticEnv()

	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("db_path", "checker.db")
	v.SetDefault("interval", 3*time.Hour)
	v.SetDefault("grace", 10000*time.Second)
	v.SetDefault("template_gen", "2020")
	v.SetDefault("workers", 4)
	v.SetDefault("http_timeout", 30*time.Second)

	return &Config{
		MailAddress:  v.GetString("mail_address"),
		MailPassword: v.GetString("mail_password"),
		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		DBPath:       v.GetString("db_path"),
		Interval:     v.GetDuration("interval"),
		Grace:        v.GetDuration("grace"),
		TemplateGen:  v.GetString("template_gen"),
		Workers:      v.GetInt("workers"),
		HTTPTimeout:  v.GetDuration("http_timeout"),
	}
}

// ValidateMail checks that the sender credentials are present. The daemon
// needs them; the CLI does not.
func (c *Config) ValidateMail() error {
	if c.MailAddress == "" {
		return errors.New("CENOWATCH_MAIL_ADDRESS is required")
	}
	if c.MailPassword == "" {
		return errors.New("CENOWATCH_MAIL_PASSWORD is required")
	}
	return nil
}
