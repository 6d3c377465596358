// Package message turns an aggregated candidate into a nomination notice:
// a subject line plus plain-text and HTML renderings of the body.
package message

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	"comelec/internal/candidate"
)

// Renderer produces one body variant for a candidate.
type Renderer interface {
	Render(c candidate.Candidate) (string, error)
}

// Placeholders every HTML template must contain.
const (
	PlaceholderNominee     = "{nominee}"
	PlaceholderPositions   = "{positions}"
	PlaceholderResponseURL = "{response_url}"
)

// Font sizes for the position list items. Candidates with several
// nominations get the smaller size so the list stays compact.
const (
	FontSizeCompact = "15px"
	FontSizeLarge   = "18px"
)

// TemplateLoadError reports a missing or malformed HTML template.
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

var errMissingPlaceholder = errors.New("missing placeholder")

// TextRenderer renders the fixed plain-text body.
type TextRenderer struct {
	ResponseURL  string
	AcademicYear string
}

func (r TextRenderer) Render(c candidate.Candidate) (string, error) {
	return fmt.Sprintf(
		"Congratulations %s! You've been nominated for the following positions %s for A.Y. %s.\n\n"+
			"If you wish to pursue candidacy please click the following link:\n%s",
		c.Name, listPositions(c.Positions), r.AcademicYear, r.ResponseURL,
	), nil
}

// listPositions renders positions as a bracketed list of quoted names,
// ['Secretary', 'Treasurer'], the form earlier notices used. A name
// containing a single quote (and no double quote) is double-quoted.
func listPositions(ps []string) string {
	items := make([]string, 0, len(ps))
	for _, p := range ps {
		items = append(items, quotePosition(p))
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func quotePosition(p string) string {
	q := "'"
	if strings.Contains(p, "'") && !strings.Contains(p, `"`) {
		q = `"`
	}
	p = strings.ReplaceAll(p, `\`, `\\`)
	if q == "'" {
		p = strings.ReplaceAll(p, "'", `\'`)
	}
	return q + p + q
}

// HTMLRenderer fills an HTML template read once at construction.
type HTMLRenderer struct {
	tmpl        string
	responseURL string
}

// LoadHTMLRenderer reads and checks the template at path.
func LoadHTMLRenderer(path, responseURL string) (*HTMLRenderer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}
	r, err := NewHTMLRenderer(string(b), responseURL)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}
	return r, nil
}

// NewHTMLRenderer checks that tmpl carries every placeholder.
func NewHTMLRenderer(tmpl, responseURL string) (*HTMLRenderer, error) {
	var missing []string
	for _, p := range []string{PlaceholderNominee, PlaceholderPositions, PlaceholderResponseURL} {
		if !strings.Contains(tmpl, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", errMissingPlaceholder, strings.Join(missing, ", "))
	}
	return &HTMLRenderer{tmpl: tmpl, responseURL: responseURL}, nil
}

func (r *HTMLRenderer) Render(c candidate.Candidate) (string, error) {
	rep := strings.NewReplacer(
		PlaceholderNominee, html.EscapeString(c.Name),
		PlaceholderPositions, positionItems(c),
		PlaceholderResponseURL, html.EscapeString(r.responseURL),
	)
	return rep.Replace(r.tmpl), nil
}

func positionItems(c candidate.Candidate) string {
	size := FontSizeLarge
	if c.NominationCount() >= 2 {
		size = FontSizeCompact
	}
	items := make([]string, 0, len(c.Positions))
	for _, p := range c.Positions {
		items = append(items, fmt.Sprintf(`<li style="font-size: %s;">%s</li>`, size, html.EscapeString(p)))
	}
	return strings.Join(items, "\n")
}
