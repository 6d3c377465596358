package candidate

import (
	"comelec/internal/roster"
	logx "comelec/pkg/logx"
)

// Pool maps email -> Candidate and remembers insertion order so candidates
// come back out in roster order.
//
// A Pool is built and consumed by a single goroutine.
type Pool struct {
	byEmail map[string]Candidate
	order   []string
	skipped int
}

func NewPool() *Pool {
	return &Pool{byEmail: map[string]Candidate{}}
}

// Upsert inserts c, or replaces the existing entry for c.Email with the
// merge of both.
func (p *Pool) Upsert(c Candidate) error {
	cur, ok := p.byEmail[c.Email]
	if !ok {
		p.byEmail[c.Email] = c
		p.order = append(p.order, c.Email)
		return nil
	}
	merged, err := Merge(cur, c)
	if err != nil {
		return err
	}
	p.byEmail[c.Email] = merged
	return nil
}

// Get returns the candidate stored for email.
func (p *Pool) Get(email string) (Candidate, bool) {
	c, ok := p.byEmail[email]
	return c, ok
}

func (p *Pool) Len() int { return len(p.order) }

// Skipped is the number of incomplete rows dropped by Aggregate.
func (p *Pool) Skipped() int { return p.skipped }

// Candidates returns the pool contents in insertion order.
func (p *Pool) Candidates() []Candidate {
	out := make([]Candidate, 0, len(p.order))
	for _, email := range p.order {
		out = append(out, p.byEmail[email])
	}
	return out
}

// Aggregate folds roster rows, in order, into a Pool. Rows with any empty
// field (or without one of the name/email/positions columns) are dropped
// and counted, not reported as errors.
func Aggregate(rows []roster.Row, log logx.Logger) (*Pool, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	p := NewPool()
	for i, row := range rows {
		if !complete(row) {
			p.skipped++
			log.Debug("incomplete roster row skipped", logx.Int("row", i+1))
			continue
		}
		c := New(row[roster.ColName], row[roster.ColEmail], row[roster.ColPositions])
		if err := p.Upsert(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func complete(row roster.Row) bool {
	for _, col := range []string{roster.ColName, roster.ColEmail, roster.ColPositions} {
		if _, ok := row[col]; !ok {
			return false
		}
	}
	for _, v := range row {
		if v == "" {
			return false
		}
	}
	return true
}
