// Package app wires config, logging and the domain packages into the three
// command-line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"comelec/internal/candidate"
	"comelec/internal/config"
	"comelec/internal/dispatch"
	"comelec/internal/email"
	"comelec/internal/message"
	"comelec/internal/qr"
	"comelec/internal/roster"
	"comelec/internal/tally"
	logx "comelec/pkg/logx"
)

// DefaultEnvFile is loaded (when present) before reading credentials.
const DefaultEnvFile = ".env"

// Session is an open mail transport that must be closed after the run.
type Session interface {
	email.Sender
	Close() error
}

// DialFunc opens a mail session.
type DialFunc func(ctx context.Context, cfg email.SMTPConfig, log logx.Logger) (Session, error)

func dialSMTP(ctx context.Context, cfg email.SMTPConfig, log logx.Logger) (Session, error) {
	s, err := email.DialSMTP(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type App struct {
	cfg  *config.Config
	log  logx.Logger
	logs *logx.Service

	envFile string
	dial    DialFunc
}

// New loads the config at cfgPath and sets up logging from it.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	a := NewWithConfig(cfg, log)
	a.logs = logs
	return a, nil
}

// NewWithConfig builds an App around an already loaded config.
func NewWithConfig(cfg *config.Config, log logx.Logger) *App {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &App{cfg: cfg, log: log, envFile: DefaultEnvFile, dial: dialSMTP}
}

// Config returns the effective configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Close flushes and releases the log sinks.
func (a *App) Close() error {
	if a.logs == nil {
		return nil
	}
	return a.logs.Close()
}

// RunMailer reads the roster, merges duplicate nominees and sends one
// notice to each.
func (a *App) RunMailer(ctx context.Context) (dispatch.Report, error) {
	m := a.cfg.Mailer
	log := a.log.With(logx.String("comp", "mailer"))

	pace, err := config.ParseDurationOrDefault("mailer.pace", m.Pace, 5*time.Second)
	if err != nil {
		return dispatch.Report{}, err
	}
	timeout, err := config.ParseDurationOrDefault("smtp.timeout", a.cfg.SMTP.Timeout, 30*time.Second)
	if err != nil {
		return dispatch.Report{}, err
	}

	creds, err := config.LoadCredentials(a.envFile)
	if err != nil {
		if !m.DryRun || !errors.Is(err, config.ErrMissingCredentials) {
			return dispatch.Report{}, err
		}
		log.Warn("no sender credentials; dry run continues without a From address", logx.Err(err))
	}

	rows, err := roster.ReadFile(m.Roster)
	if err != nil {
		return dispatch.Report{}, err
	}
	pool, err := candidate.Aggregate(rows, log)
	if err != nil {
		return dispatch.Report{}, err
	}
	log.Info("roster loaded",
		logx.String("path", m.Roster),
		logx.Int("rows", len(rows)),
		logx.Int("candidates", pool.Len()),
		logx.Int("skipped", pool.Skipped()),
	)

	html, err := message.LoadHTMLRenderer(m.Template, m.ResponseURL)
	if err != nil {
		return dispatch.Report{}, err
	}
	builder := &message.Builder{
		From:    creds.Username,
		Subject: m.Subject,
		Text:    message.TextRenderer{ResponseURL: m.ResponseURL, AcademicYear: m.AcademicYear},
		HTML:    html,
	}

	if m.DryRun {
		d, err := dispatch.New(dispatch.Config{Pace: pace, StartAt: m.StartAt}, builder, email.NewLogSender(log), log)
		if err != nil {
			return dispatch.Report{}, err
		}
		return d.Run(ctx, pool.Candidates())
	}

	sess := &deferredSession{}
	d, err := dispatch.New(dispatch.Config{Pace: pace, StartAt: m.StartAt}, builder, sess, log)
	if err != nil {
		return dispatch.Report{}, err
	}
	// Servers drop idle sessions, so dial only once the start time is reached.
	if err := d.WaitForStart(ctx); err != nil {
		return dispatch.Report{}, err
	}
	sess.Session, err = a.dial(ctx, email.SMTPConfig{
		Host:     a.cfg.SMTP.Host,
		Port:     a.cfg.SMTP.Port,
		Username: creds.Username,
		Password: creds.Password,
		Timeout:  timeout,
	}, log)
	if err != nil {
		return dispatch.Report{}, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("smtp close failed", logx.Err(err))
		}
	}()
	return d.Run(ctx, pool.Candidates())
}

// deferredSession forwards to a session opened after the dispatcher is built.
type deferredSession struct {
	Session
}

// RunQR writes the form link QR image.
func (a *App) RunQR(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q := a.cfg.QR
	return qr.WriteFile(q.Output, q.URL, qr.Options{
		ModuleSize:    q.ModuleSize,
		DisableBorder: q.DisableBorder,
	}, a.log.With(logx.String("comp", "qr")))
}

// RunTally tallies once and, in watch mode, keeps re-tallying until ctx is
// cancelled.
func (a *App) RunTally(ctx context.Context) error {
	t := a.cfg.Tally
	job := tally.Job{
		Input:  t.Input,
		Output: t.Output,
		Skip:   t.SkipFields,
		Log:    a.log.With(logx.String("comp", "tally")),
	}
	if _, err := job.Run(); err != nil {
		if !t.Watch {
			return err
		}
		job.Log.Warn("initial tally failed; waiting for changes", logx.Err(err))
	}
	if !t.Watch {
		return nil
	}
	if err := job.Watch(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", t.Input, err)
	}
	return nil
}
