package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingDefaultFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mailer.Roster != "nominees.csv" {
		t.Fatalf("roster = %q, want nominees.csv", cfg.Mailer.Roster)
	}
	if cfg.SMTP.Port != 465 {
		t.Fatalf("port = %d, want 465", cfg.SMTP.Port)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestParseYAML(t *testing.T) {
	src := []byte(`
mailer:
  roster: people.csv
  pace: 0s
  start_at: "0 9 * * 1"
tally:
  skip_fields: [Timestamp]
`)
	cfg, err := Parse("cfg.yaml", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Mailer.Roster != "people.csv" {
		t.Fatalf("roster = %q", cfg.Mailer.Roster)
	}
	pace, err := ParseDurationOrDefault("mailer.pace", cfg.Mailer.Pace, 5*time.Second)
	if err != nil {
		t.Fatalf("pace: %v", err)
	}
	if pace != 0 {
		t.Fatalf("explicit 0s pace should be kept, got %v", pace)
	}
	if len(cfg.Tally.SkipFields) != 1 || cfg.Tally.SkipFields[0] != "Timestamp" {
		t.Fatalf("skip_fields = %v", cfg.Tally.SkipFields)
	}
	if cfg.Tally.Output != "votes.json" {
		t.Fatalf("tally output default not applied: %q", cfg.Tally.Output)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse("cfg.json", []byte(`{"mailer":{"rooster":"x.csv"}}`))
	if err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse("cfg.json", []byte(`{"mailer":{"pace":"soon"}}`))
	if err == nil {
		t.Fatal("expected invalid duration error")
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv(EnvUsername, "comelec@example.com")
	t.Setenv(EnvPassword, "app-secret")

	c, err := LoadCredentials("")
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if c.Username != "comelec@example.com" || c.Password != "app-secret" {
		t.Fatalf("unexpected credentials: %+v", c)
	}
}

func TestLoadCredentialsMissing(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, err := LoadCredentials(filepath.Join(t.TempDir(), ".env"))
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestLoadCredentialsFromEnvFile(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	os.Unsetenv(EnvUsername)
	os.Unsetenv(EnvPassword)

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("COMELEC_USERNAME=file@example.com\nAPP_PASSWORD=pw\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	c, err := LoadCredentials(envFile)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if c.Username != "file@example.com" {
		t.Fatalf("username = %q", c.Username)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load("../../config.example.yaml")
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	def := Defaults()
	if cfg.Mailer.Roster != def.Mailer.Roster || cfg.SMTP.Port != def.SMTP.Port || cfg.QR.ModuleSize != def.QR.ModuleSize {
		t.Fatalf("example config drifted from defaults: %+v", cfg)
	}
	if len(cfg.Tally.SkipFields) != 3 || cfg.Tally.SkipFields[1] != "Email Address" {
		t.Fatalf("skip_fields = %v", cfg.Tally.SkipFields)
	}
}
