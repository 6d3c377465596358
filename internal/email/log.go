package email

import (
	"context"

	logx "comelec/pkg/logx"
)

// LogSender logs messages instead of sending them (dry runs).
type LogSender struct {
	log logx.Logger
}

func NewLogSender(log logx.Logger) *LogSender {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("email (dry run, not sent)",
		logx.String("from", msg.From),
		logx.String("to", msg.To),
		logx.String("subject", msg.Subject),
		logx.Int("text_bytes", len(msg.Text)),
		logx.Int("html_bytes", len(msg.HTML)),
	)
	s.log.Debug("email body", logx.String("to", msg.To), logx.String("text", msg.Text))
	return nil
}
