package message

import (
	"fmt"

	"comelec/internal/candidate"
	"comelec/internal/email"
)

// MultiplePositions replaces the position name in the subject when a
// candidate holds more than one nomination.
const MultiplePositions = "Multiple Positions"

// Subject is base followed by the single position, or by MultiplePositions.
func Subject(c candidate.Candidate, base string) string {
	if c.NominationCount() > 1 {
		return base + " " + MultiplePositions
	}
	if c.NominationCount() == 1 {
		return base + " " + c.Positions[0]
	}
	return base
}

// Builder assembles the full notice for a candidate.
type Builder struct {
	From    string
	Subject string
	Text    Renderer
	HTML    Renderer
}

func (b *Builder) Build(c candidate.Candidate) (email.Message, error) {
	text, err := b.Text.Render(c)
	if err != nil {
		return email.Message{}, fmt.Errorf("render text for %s: %w", c.Email, err)
	}
	body, err := b.HTML.Render(c)
	if err != nil {
		return email.Message{}, fmt.Errorf("render html for %s: %w", c.Email, err)
	}
	return email.Message{
		From:    b.From,
		To:      c.Email,
		Subject: Subject(c, b.Subject),
		Text:    text,
		HTML:    body,
	}, nil
}
