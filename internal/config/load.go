package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPath is used by the binaries when -config is not given. A missing
// file at this path is not an error.
const DefaultPath = "./config.yaml"

const (
	EnvUsername = "COMELEC_USERNAME"
	EnvPassword = "APP_PASSWORD"
)

var ErrMissingCredentials = errors.New("missing sender credentials")

// Defaults returns the built-in configuration.
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a JSON or YAML config file and fills in defaults.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Defaults(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(path, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config bytes; path is only used to pick the format.
func Parse(path string, b []byte) (*Config, error) {
	jb, err := toJSON(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func validate(cfg *Config) error {
	if _, _, err := ParseDurationField("mailer.pace", cfg.Mailer.Pace); err != nil {
		return err
	}
	if _, _, err := ParseDurationField("smtp.timeout", cfg.SMTP.Timeout); err != nil {
		return err
	}
	if cfg.SMTP.Port < 0 || cfg.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port: out of range: %d", cfg.SMTP.Port)
	}
	if cfg.QR.ModuleSize < 0 {
		return fmt.Errorf("qr.module_size: must be >= 0")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !cfg.Logging.Console && !cfg.Logging.File.Enabled {
		cfg.Logging.Console = true
	}

	m := &cfg.Mailer
	if m.Roster == "" {
		m.Roster = "nominees.csv"
	}
	if m.Template == "" {
		m.Template = "templates/nomination.html"
	}
	if m.Subject == "" {
		m.Subject = "Nomination for LU4"
	}
	if m.ResponseURL == "" {
		m.ResponseURL = "https://bit.ly/2026candidates2223"
	}
	if m.AcademicYear == "" {
		m.AcademicYear = "2022 - 2023"
	}
	if m.Pace == "" {
		m.Pace = "5s"
	}

	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 465
	}
	if cfg.SMTP.Timeout == "" {
		cfg.SMTP.Timeout = "30s"
	}

	q := &cfg.QR
	if q.URL == "" {
		q.URL = "https://docs.google.com/forms/d/e/1FAIpQLScINBBBmvQym89K_gBWYayGBq23-RYZs8RrrnumBckf9lhvMg/viewform"
	}
	if q.Output == "" {
		q.Output = "nominations_qr.png"
	}
	if q.ModuleSize == 0 {
		q.ModuleSize = 10
	}

	t := &cfg.Tally
	if t.Input == "" {
		t.Input = "votes.csv"
	}
	if t.Output == "" {
		t.Output = "votes.json"
	}
	if t.SkipFields == nil {
		t.SkipFields = []string{"Timestamp", "Email Address", "Name"}
	}
}

// Credentials are the sender account and its application password.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads the sender credentials from the environment, after
// loading envFile (if it exists) with godotenv. Variables already set in the
// process environment win over the file.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c := Credentials{
		Username: strings.TrimSpace(os.Getenv(EnvUsername)),
		Password: os.Getenv(EnvPassword),
	}
	if c.Username == "" {
		return Credentials{}, fmt.Errorf("%w: %s is not set", ErrMissingCredentials, EnvUsername)
	}
	if c.Password == "" {
		return Credentials{}, fmt.Errorf("%w: %s is not set", ErrMissingCredentials, EnvPassword)
	}
	return c, nil
}
