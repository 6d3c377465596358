package config

// Config is shared by the three tools; each reads only its own section.
//
// All durations are Go duration strings (e.g. "500ms", "5s", "1m").
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Mailer  MailerConfig  `json:"mailer"`
	SMTP    SMTPConfig    `json:"smtp"`
	QR      QRConfig      `json:"qr"`
	Tally   TallyConfig   `json:"tally"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MailerConfig controls the nomination mail-merge.
//
// Defaults (when fields are omitted/zero):
//   - roster: "nominees.csv"
//   - template: "templates/nomination.html"
//   - subject: "Nomination for LU4"
//   - pace: "5s" (use "0s" to disable pacing)
type MailerConfig struct {
	Roster       string `json:"roster,omitempty"`
	Template     string `json:"template,omitempty"`
	Subject      string `json:"subject,omitempty"`
	ResponseURL  string `json:"response_url,omitempty"`
	AcademicYear string `json:"academic_year,omitempty"`

	// Pace is the minimum gap between two sends. A pointer-free string so
	// that "0s" can be told apart from an omitted value.
	Pace string `json:"pace,omitempty"`

	// StartAt is an optional cron expression; the run waits for its next
	// trigger before the first send.
	StartAt string `json:"start_at,omitempty"`

	// DryRun logs messages instead of submitting them over SMTP.
	DryRun bool `json:"dry_run,omitempty"`
}

// SMTPConfig describes the mail-submission endpoint. Credentials never
// live here; they come from the environment (see Credentials).
type SMTPConfig struct {
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type QRConfig struct {
	URL           string `json:"url,omitempty"`
	Output        string `json:"output,omitempty"`
	ModuleSize    int    `json:"module_size,omitempty"`
	DisableBorder bool   `json:"disable_border,omitempty"`
}

type TallyConfig struct {
	Input      string   `json:"input,omitempty"`
	Output     string   `json:"output,omitempty"`
	SkipFields []string `json:"skip_fields,omitempty"`
	Watch      bool     `json:"watch,omitempty"`
}
