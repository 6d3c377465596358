// Package tally counts survey answers per question.
//
// Every non-metadata cell is split on commas (checkbox questions export all
// ticked answers in one cell) and each trimmed piece counts as one vote for
// that answer.
package tally

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comelec/internal/roster"
)

// Result holds question -> answer -> count, remembering first-seen order
// for both levels so the JSON output is stable.
type Result struct {
	Responses int

	questions []string
	byName    map[string]*question
}

type question struct {
	answers []string
	counts  map[string]int
}

func newResult() *Result {
	return &Result{byName: map[string]*question{}}
}

// Aggregate tallies every row of t, ignoring the skip columns.
func Aggregate(t roster.Table, skip []string) *Result {
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[s] = struct{}{}
	}

	r := newResult()
	for _, row := range t.Rows {
		r.Responses++
		for _, col := range t.Header {
			if _, ok := skipped[col]; ok {
				continue
			}
			cell, ok := row[col]
			if !ok {
				continue
			}
			for _, answer := range strings.Split(cell, ",") {
				r.add(col, strings.TrimSpace(answer))
			}
		}
	}
	return r
}

// Load reads and tallies the survey export at path.
func Load(path string, skip []string) (*Result, error) {
	t, err := roster.ReadTableFile(path)
	if err != nil {
		return nil, err
	}
	return Aggregate(t, skip), nil
}

func (r *Result) add(q, answer string) {
	qq, ok := r.byName[q]
	if !ok {
		qq = &question{counts: map[string]int{}}
		r.byName[q] = qq
		r.questions = append(r.questions, q)
	}
	if _, ok := qq.counts[answer]; !ok {
		qq.answers = append(qq.answers, answer)
	}
	qq.counts[answer]++
}

// Questions lists the tallied questions in column order.
func (r *Result) Questions() []string {
	return append([]string(nil), r.questions...)
}

// Count returns the votes for answer under question q.
func (r *Result) Count(q, answer string) int {
	if qq, ok := r.byName[q]; ok {
		return qq.counts[answer]
	}
	return 0
}

// MarshalJSON writes {"question": {"answer": n, ...}, ...} in first-seen order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, q := range r.questions {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeKey(&b, q); err != nil {
			return nil, err
		}
		qq := r.byName[q]
		b.WriteByte('{')
		for j, a := range qq.answers {
			if j > 0 {
				b.WriteByte(',')
			}
			if err := writeKey(&b, a); err != nil {
				return nil, err
			}
			fmt.Fprintf(&b, "%d", qq.counts[a])
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeKey(b *bytes.Buffer, k string) error {
	kb, err := json.Marshal(k)
	if err != nil {
		return err
	}
	b.Write(kb)
	b.WriteByte(':')
	return nil
}

// WriteFile writes r as indented JSON, replacing path atomically.
func WriteFile(path string, r *Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tally: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write tally: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write tally: %w", err)
	}
	return nil
}
