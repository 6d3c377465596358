// Package dispatch sends one nomination notice per candidate, sequentially,
// with a fixed minimum gap between sends.
//
// A run is all-or-nothing: the first failure stops it. There is no retry and
// no record of who was already notified, so re-running sends to everyone
// again.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"comelec/internal/candidate"
	"comelec/internal/email"
	logx "comelec/pkg/logx"
)

// Config controls pacing and start time.
type Config struct {
	// Pace is the minimum gap between two sends; 0 disables pacing.
	Pace time.Duration
	// StartAt is an optional standard 5-field cron expression (or descriptor
	// such as "@daily"). The run waits for its next trigger.
	StartAt string
}

// MessageBuilder turns a candidate into a ready-to-send message.
type MessageBuilder interface {
	Build(c candidate.Candidate) (email.Message, error)
}

// TransportError wraps a send failure. It aborts the run.
type TransportError struct {
	Recipient string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Recipient, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Report summarizes a run.
type Report struct {
	RunID    string
	Total    int
	Sent     int
	Started  time.Time
	Finished time.Time
}

type Dispatcher struct {
	cfg     Config
	builder MessageBuilder
	sender  email.Sender
	log     logx.Logger

	limiter *rate.Limiter
	start   cron.Schedule
	started bool
	now     func() time.Time
}

func New(cfg Config, builder MessageBuilder, sender email.Sender, log logx.Logger) (*Dispatcher, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if builder == nil || sender == nil {
		return nil, fmt.Errorf("dispatch: builder and sender are required")
	}
	d := &Dispatcher{cfg: cfg, builder: builder, sender: sender, log: log, now: time.Now}
	if cfg.Pace > 0 {
		d.limiter = rate.NewLimiter(rate.Every(cfg.Pace), 1)
	}
	if expr := strings.TrimSpace(cfg.StartAt); expr != "" {
		sched, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("dispatch: start_at %q: %w", expr, err)
		}
		d.start = sched
	}
	return d, nil
}

// Run sends to every candidate in order and stops at the first error.
func (d *Dispatcher) Run(ctx context.Context, candidates []candidate.Candidate) (Report, error) {
	rep := Report{RunID: uuid.NewString(), Total: len(candidates)}
	log := d.log.With(logx.String("run", rep.RunID))

	if err := d.waitForStart(ctx, log); err != nil {
		return rep, err
	}

	rep.Started = d.now()
	log.Info("dispatch started", logx.Int("total", rep.Total), logx.Duration("pace", d.cfg.Pace))

	for i, c := range candidates {
		msg, err := d.builder.Build(c)
		if err != nil {
			rep.Finished = d.now()
			return rep, err
		}
		if err := d.sendOne(ctx, msg); err != nil {
			rep.Finished = d.now()
			log.Error("dispatch aborted", logx.String("to", c.Email), logx.Int("sent", rep.Sent), logx.Err(err))
			return rep, err
		}
		rep.Sent++
		log.Info("notice sent",
			logx.Int("n", i+1),
			logx.Int("of", rep.Total),
			logx.String("name", c.Name),
			logx.String("to", c.Email),
			logx.Strings("positions", c.Positions),
		)
	}

	rep.Finished = d.now()
	log.Info("dispatch finished", logx.Int("sent", rep.Sent), logx.Duration("dur", rep.Finished.Sub(rep.Started)))
	return rep, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, msg email.Message) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return &TransportError{Recipient: msg.To, Err: err}
	}
	return nil
}

// WaitForStart blocks until the start_at trigger fires. Callers that hold
// an idle transport session should call it before opening the session; Run
// does not wait a second time once it has returned nil.
func (d *Dispatcher) WaitForStart(ctx context.Context) error {
	return d.waitForStart(ctx, d.log)
}

func (d *Dispatcher) waitForStart(ctx context.Context, log logx.Logger) error {
	if d.start == nil || d.started {
		return nil
	}
	now := d.now()
	next := d.start.Next(now)
	delay := next.Sub(now)
	if delay > 0 {
		log.Info("waiting for start time", logx.Time("at", next), logx.Duration("in", delay))

		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	d.started = true
	return nil
}
