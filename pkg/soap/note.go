// Package soap builds four-section clinical notes (Subjective, Objective,
// Assessment, Plan) from transcripts and converts them to and from the plain
// text export format.
package soap

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

type Section int

const (
	Subjective Section = iota
	Objective
	Assessment
	Plan
)

var sections = [...]Section{Subjective, Objective, Assessment, Plan}

func (s Section) String() string {
	switch s {
	case Subjective:
		return "SUBJECTIVE"
	case Objective:
		return "OBJECTIVE"
	case Assessment:
		return "ASSESSMENT"
	case Plan:
		return "PLAN"
	default:
		return "UNKNOWN"
	}
}

// Placeholder is the body used for a section that has no content.
func (s Section) Placeholder() string {
	switch s {
	case Subjective:
		return "No subjective information provided."
	case Objective:
		return "No objective information provided."
	case Assessment:
		return "No assessment information provided."
	case Plan:
		return "No plan information provided."
	default:
		return ""
	}
}

// Note is a SOAP note. A Note returned by this package always has all four
// sections set.
type Note struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

func (n *Note) field(s Section) *string {
	switch s {
	case Subjective:
		return &n.Subjective
	case Objective:
		return &n.Objective
	case Assessment:
		return &n.Assessment
	default:
		return &n.Plan
	}
}

func (n Note) Get(s Section) string {
	return *n.field(s)
}

// Complete trims every section and fills blank ones with their placeholder.
func (n Note) Complete() Note {
	for _, s := range sections {
		f := n.field(s)
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = s.Placeholder()
		}
	}
	return n
}

// Format renders the note with literal section headers, the same layout
// Parse reads back.
func Format(n Note) string {
	n = n.Complete()
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.String())
		b.WriteString(":\n")
		b.WriteString(n.Get(s))
	}
	b.WriteString("\n")
	return b.String()
}

var ErrNoSections = errors.New("no SOAP section headers found")

// headerPattern matches a section header at the start of a line, allowing
// markdown decoration such as "## Plan:" or "**Assessment:**".
var headerPattern = regexp.MustCompile(`(?im)^[ \t#*_]*(subjective|objective|assessment|plan)[ \t*_]*:[ \t*_]*`)

type header struct {
	section    Section
	start, end int
}

// Parse scans text once for section headers and slices the body between
// consecutive headers. When a header repeats, the first occurrence wins.
// Missing sections get placeholders; ErrNoSections is returned alongside a
// placeholder-only note when no header is present at all.
func Parse(text string) (Note, error) {
	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)
	headers := make([]header, 0, len(matches))
	for _, m := range matches {
		headers = append(headers, header{
			section: sectionOf(text[m[2]:m[3]]),
			start:   m[0],
			end:     m[1],
		})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].start < headers[j].start })

	var note Note
	seen := make(map[Section]bool, len(sections))
	for i, h := range headers {
		if seen[h.section] {
			continue
		}
		seen[h.section] = true
		stop := len(text)
		if i+1 < len(headers) {
			stop = headers[i+1].start
		}
		*note.field(h.section) = text[h.end:stop]
	}

	note = note.Complete()
	if len(headers) == 0 {
		return note, ErrNoSections
	}
	return note, nil
}

func sectionOf(word string) Section {
	switch strings.ToLower(word) {
	case "subjective":
		return Subjective
	case "objective":
		return Objective
	case "assessment":
		return Assessment
	default:
		return Plan
	}
}
