// Package candidate aggregates roster rows into one Candidate per email
// address, merging the positions each person was nominated for.
package candidate

import (
	"errors"
	"fmt"
)

// ErrMergeInvariant is returned when two candidates with different emails
// are merged. The pool never does this; seeing it means a logic bug.
var ErrMergeInvariant = errors.New("cannot merge candidates with different emails")

// Candidate is a nominated person. Email is the identity; Name and
// Positions do not take part in equality.
//
// Candidate values are treated as immutable: Merge returns a new value and
// never touches the Positions slice of its inputs.
type Candidate struct {
	Name      string
	Email     string
	Positions []string
}

// New builds a candidate nominated for the given positions. Duplicate
// positions are collapsed, keeping the first occurrence.
func New(name, email string, positions ...string) Candidate {
	return Candidate{Name: name, Email: email, Positions: union(nil, positions)}
}

// NominationCount is the number of distinct positions.
func (c Candidate) NominationCount() int { return len(c.Positions) }

// Equal reports whether c and other are the same person.
func (c Candidate) Equal(other Candidate) bool { return c.Email == other.Email }

func (c Candidate) String() string {
	return fmt.Sprintf("%s <%s> %v", c.Name, c.Email, c.Positions)
}

// Merge combines two nominations of the same person. The result keeps a's
// name and the union of both position sets in first-seen order.
func Merge(a, b Candidate) (Candidate, error) {
	if !a.Equal(b) {
		return Candidate{}, fmt.Errorf("%w: %q and %q", ErrMergeInvariant, a.Email, b.Email)
	}
	return Candidate{
		Name:      a.Name,
		Email:     a.Email,
		Positions: union(a.Positions, b.Positions),
	}, nil
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
