package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"comelec/internal/config"
	"comelec/internal/email"
	"comelec/internal/roster"
	logx "comelec/pkg/logx"
)

const nomineesCSV = `name,email_addr,positions
Ana,ana@x.com,President
Ben,ben@x.com,Secretary
Ana,ana@x.com,Treasurer
,nobody@x.com,Auditor
`

type fakeSession struct {
	mu     sync.Mutex
	sent   []email.Message
	closed bool
}

func (f *fakeSession) Send(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func mailerFixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "nominees.csv")
	if err := os.WriteFile(rosterPath, []byte(nomineesCSV), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	cfg := config.Defaults()
	cfg.Mailer.Roster = rosterPath
	cfg.Mailer.Template = filepath.Join("..", "..", "templates", "nomination.html")
	cfg.Mailer.Pace = "0s"
	return cfg
}

func TestRunMailerDryRun(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvPassword, "")

	cfg := mailerFixture(t)
	cfg.Mailer.DryRun = true

	var buf bytes.Buffer
	a := NewWithConfig(cfg, logx.NewWriter(&buf, "info"))
	a.envFile = filepath.Join(t.TempDir(), "missing.env")
	a.dial = func(context.Context, email.SMTPConfig, logx.Logger) (Session, error) {
		t.Fatal("dry run must not dial")
		return nil, nil
	}

	rep, err := a.RunMailer(context.Background())
	if err != nil {
		t.Fatalf("RunMailer: %v", err)
	}
	if rep.Sent != 2 {
		t.Fatalf("sent = %d, want 2", rep.Sent)
	}
	out := buf.String()
	if strings.Count(out, "email (dry run, not sent)") != 2 {
		t.Fatalf("expected two dry-run lines:\n%s", out)
	}
	if !strings.Contains(out, "Nomination for LU4 Multiple Positions") {
		t.Fatalf("merged candidate should get the multiple positions subject:\n%s", out)
	}
}

func TestRunMailerSMTP(t *testing.T) {
	t.Setenv(config.EnvUsername, "comelec@x.com")
	t.Setenv(config.EnvPassword, "app-password")

	cfg := mailerFixture(t)
	sess := &fakeSession{}
	var dialed email.SMTPConfig

	a := NewWithConfig(cfg, logx.Nop())
	a.envFile = ""
	a.dial = func(_ context.Context, c email.SMTPConfig, _ logx.Logger) (Session, error) {
		dialed = c
		return sess, nil
	}

	if _, err := a.RunMailer(context.Background()); err != nil {
		t.Fatalf("RunMailer: %v", err)
	}
	if dialed.Host != "smtp.gmail.com" || dialed.Port != 465 || dialed.Username != "comelec@x.com" {
		t.Fatalf("unexpected smtp config: %+v", dialed)
	}
	if !sess.closed {
		t.Fatal("session should be closed after the run")
	}
	if len(sess.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sess.sent))
	}
	first := sess.sent[0]
	if first.From != "comelec@x.com" || first.To != "ana@x.com" {
		t.Fatalf("first message = %+v", first)
	}
	if !strings.Contains(first.Text, "['President', 'Treasurer']") {
		t.Fatalf("text body should list merged positions: %q", first.Text)
	}
}

func TestRunMailerDialsAfterStartTime(t *testing.T) {
	t.Setenv(config.EnvUsername, "comelec@x.com")
	t.Setenv(config.EnvPassword, "app-password")

	cfg := mailerFixture(t)
	cfg.Mailer.StartAt = "@every 1s"
	// The schedule fires on the next whole second.
	trigger := time.Now().Truncate(time.Second).Add(time.Second)

	sess := &fakeSession{}
	var dialedAt time.Time
	a := NewWithConfig(cfg, logx.Nop())
	a.envFile = ""
	a.dial = func(context.Context, email.SMTPConfig, logx.Logger) (Session, error) {
		dialedAt = time.Now()
		return sess, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rep, err := a.RunMailer(ctx)
	if err != nil {
		t.Fatalf("RunMailer: %v", err)
	}
	if dialedAt.Before(trigger) {
		t.Fatalf("dialed at %v, before the start time %v", dialedAt, trigger)
	}
	if rep.Sent != 2 || !sess.closed {
		t.Fatalf("sent = %d closed = %v", rep.Sent, sess.closed)
	}
}

func TestRunMailerStartWaitCancelledNeverDials(t *testing.T) {
	t.Setenv(config.EnvUsername, "comelec@x.com")
	t.Setenv(config.EnvPassword, "app-password")

	cfg := mailerFixture(t)
	cfg.Mailer.StartAt = "0 0 1 1 *"
	a := NewWithConfig(cfg, logx.Nop())
	a.envFile = ""
	a.dial = func(context.Context, email.SMTPConfig, logx.Logger) (Session, error) {
		t.Fatal("must not dial before the start time")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := a.RunMailer(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestRunMailerMissingCredentials(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvPassword, "")

	a := NewWithConfig(mailerFixture(t), logx.Nop())
	a.envFile = ""
	if _, err := a.RunMailer(context.Background()); !errors.Is(err, config.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestRunMailerMissingRoster(t *testing.T) {
	t.Setenv(config.EnvUsername, "comelec@x.com")
	t.Setenv(config.EnvPassword, "app-password")

	cfg := mailerFixture(t)
	cfg.Mailer.Roster = filepath.Join(t.TempDir(), "nope.csv")
	a := NewWithConfig(cfg, logx.Nop())
	a.envFile = ""

	_, err := a.RunMailer(context.Background())
	var fae *roster.FileAccessError
	if !errors.As(err, &fae) {
		t.Fatalf("err = %v, want *roster.FileAccessError", err)
	}
}

func TestRunQR(t *testing.T) {
	cfg := config.Defaults()
	cfg.QR.Output = filepath.Join(t.TempDir(), "qr.png")
	if err := NewWithConfig(cfg, logx.Nop()).RunQR(context.Background()); err != nil {
		t.Fatalf("RunQR: %v", err)
	}
	if _, err := os.Stat(cfg.QR.Output); err != nil {
		t.Fatalf("qr image not written: %v", err)
	}
}

func TestRunTallyOnce(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Tally.Input = filepath.Join(dir, "votes.csv")
	cfg.Tally.Output = filepath.Join(dir, "votes.json")
	if err := os.WriteFile(cfg.Tally.Input, []byte("Timestamp,Q\nt1,yes\nt2,no\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := NewWithConfig(cfg, logx.Nop()).RunTally(context.Background()); err != nil {
		t.Fatalf("RunTally: %v", err)
	}
	b, err := os.ReadFile(cfg.Tally.Output)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(b), "Timestamp") || !strings.Contains(string(b), `"yes": 1`) {
		t.Fatalf("unexpected tally: %s", b)
	}
}

func TestRunTallyMissingInput(t *testing.T) {
	cfg := config.Defaults()
	cfg.Tally.Input = filepath.Join(t.TempDir(), "votes.csv")
	if err := NewWithConfig(cfg, logx.Nop()).RunTally(context.Background()); err == nil {
		t.Fatal("expected error for missing input")
	}
}
