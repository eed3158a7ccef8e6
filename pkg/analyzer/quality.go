package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// IssueKind names a quality finding.
type IssueKind string

const (
	IssueIDFormat           IssueKind = "ID_FORMAT"
	IssueInsufficientText   IssueKind = "INSUFFICIENT_TEXT"
	IssueMissingAttribute   IssueKind = "MISSING_ATTRIBUTE"
	IssuePotentialDuplicate IssueKind = "POTENTIAL_DUPLICATE"
)

// Issue is one quality finding for one requirement.
type Issue struct {
	ReqID   string    `json:"req_id"`
	Kind    IssueKind `json:"type"`
	Message string    `json:"description"`
}

var idFormat = regexp.MustCompile(`^[A-Z]{2,}-\d+$`)

var essentialAttributes = []string{"type", "status", "priority"}

// CheckConsistency flags ids outside the PREFIX-NUMBER convention, bodies
// shorter than ten characters and requirements lacking an attribute whose
// name mentions type, status or priority.
func CheckConsistency(reqs []*reqif.Requirement) []Issue {
	var issues []Issue
	for _, r := range reqs {
		if !idFormat.MatchString(r.ID) {
			issues = append(issues, Issue{r.ID, IssueIDFormat, "requirement ID does not follow the PREFIX-NUMBER format (e.g. REQ-001)"})
		}
		if len([]rune(strings.TrimSpace(r.Text))) < 10 {
			issues = append(issues, Issue{r.ID, IssueInsufficientText, "requirement text is too short or empty"})
		}
		for _, want := range essentialAttributes {
			if !hasAttributeLike(r, want) {
				issues = append(issues, Issue{r.ID, IssueMissingAttribute, "missing essential attribute: " + want})
			}
		}
	}
	return issues
}

func hasAttributeLike(r *reqif.Requirement, want string) bool {
	for k := range r.Attributes {
		if strings.Contains(strings.ToLower(k), want) {
			return true
		}
	}
	return false
}

// TextSeen accumulates normalized requirement bodies across calls to
// DetectDuplicates. Use one per analysis run.
type TextSeen struct {
	first map[string]string
}

func NewTextSeen() *TextSeen {
	return &TextSeen{first: make(map[string]string)}
}

// Len reports how many distinct bodies have been recorded.
func (s *TextSeen) Len() int { return len(s.first) }

// DetectDuplicates reports every requirement whose body, lowercased and
// trimmed, was already recorded in seen. Empty bodies are ignored.
func DetectDuplicates(reqs []*reqif.Requirement, seen *TextSeen) []Issue {
	if seen == nil {
		seen = NewTextSeen()
	}
	var issues []Issue
	for _, r := range reqs {
		key := strings.ToLower(strings.TrimSpace(r.Text))
		if key == "" {
			continue
		}
		if prev, dup := seen.first[key]; dup {
			issues = append(issues, Issue{r.ID, IssuePotentialDuplicate, fmt.Sprintf("requirement text duplicates %s", prev)})
			continue
		}
		seen.first[key] = r.ID
	}
	return issues
}

// Quality runs the consistency checks and duplicate detection over one
// document with a fresh accumulator.
func Quality(doc *reqif.ParsedDocument) []Issue {
	reqs := doc.List()
	issues := CheckConsistency(reqs)
	return append(issues, DetectDuplicates(reqs, NewTextSeen())...)
}
