package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses a config duration; path names the field in errors.
// An empty value yields (0, false, nil).
func ParseDurationField(path, raw string) (time.Duration, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, false, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, true, nil
}

// ParseDurationOrDefault returns def when raw is empty. An explicit "0s" is kept.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, set, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if !set {
		return def, nil
	}
	return d, nil
}
