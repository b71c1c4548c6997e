package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	issueKeyRe    = regexp.MustCompile(`[A-Z][A-Z0-9]*-\d+`)
	boldIssueRe   = regexp.MustCompile(`\*\*\[?[A-Z][A-Z0-9]*-\d+\]?\*\*`)
	numberedRe    = regexp.MustCompile(`^\d+\.\s*`)
	arrowDepRe    = regexp.MustCompile(`[A-Z][A-Z0-9]*-\d+.*(?:→|->).*[A-Z][A-Z0-9]*-\d+`)
	wordDepRe     = regexp.MustCompile(`(?i)[A-Z][A-Z0-9]*-\d+.*(?:should|must|needs).*(?:before|after|depend).*[A-Z][A-Z0-9]*-\d+`)
	numberedDepRe = regexp.MustCompile(`^\d+\.\s.*[A-Z][A-Z0-9]*-\d+.*[A-Z][A-Z0-9]*-\d+`)
	titleAfterKey = regexp.MustCompile(`\*?\*?\[?([A-Z][A-Z0-9]*-\d+)\]?\*?\*?:?\s*-?\s*([^-\n*]+)`)
	fieldRe       = regexp.MustCompile(`(?i)(Description|Status|Priority)[:*\s]+([^-\n]+?)(?:\s*-|\s*Description|\s*Status|\s*Priority|\s*Assignee|$)`)
	linkTypeRe    = regexp.MustCompile(`(?i)(?:link type|type)[:"\s]*([A-Za-z ]+?)(?:["\n]|$)`)
)

// FormatResponse chooses a presentation style based on the response
// shape and renders it for terminal display.
func FormatResponse(response string) string {
	switch {
	case looksLikeLinkConfirmation(response):
		return FormatLinkConfirmation(response)
	case looksLikeDependencySuggestions(response):
		return FormatDependencySuggestions(response)
	case looksLikeIssueList(response):
		return FormatIssueList(response)
	default:
		return FormatDefault(response)
	}
}

func looksLikeIssueList(response string) bool {
	return len(boldIssueRe.FindAllString(response, 2)) >= 2 ||
		len(issueKeyRe.FindAllString(response, 3)) >= 3
}

func looksLikeDependencySuggestions(response string) bool {
	for _, line := range strings.Split(response, "\n") {
		if arrowDepRe.MatchString(line) || wordDepRe.MatchString(line) {
			return true
		}
	}
	return false
}

func looksLikeLinkConfirmation(response string) bool {
	lower := strings.ToLower(response)
	hasOutcome := strings.Contains(lower, "link")
	hasResult := strings.Contains(lower, "successfully") ||
		strings.Contains(lower, "created") ||
		strings.Contains(lower, "established")
	return hasOutcome && hasResult
}

// FormatIssueList groups issue-key lines into blocks and renders each
// with its title, description, status, and priority pulled out.
func FormatIssueList(response string) string {
	var out []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		out = append(out, formatSingleIssue(current)...)
		out = append(out, "")
		current = nil
	}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case boldIssueRe.MatchString(line) || (issueKeyRe.MatchString(line) && numberedRe.MatchString(line)):
			flush()
			current = append(current, line)
		case len(current) > 0:
			current = append(current, line)
		default:
			out = append(out, line)
		}
	}
	flush()
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

func formatSingleIssue(lines []string) []string {
	full := strings.Join(lines, " ")
	key := issueKeyRe.FindString(full)
	if key == "" {
		return []string{full}
	}

	title := "Unknown Title"
	if m := titleAfterKey.FindStringSubmatch(full); len(m) == 3 && m[1] == key {
		title = strings.TrimSpace(m[2])
	}

	formatted := []string{fmt.Sprintf("%s: %s", key, title)}
	for _, m := range fieldRe.FindAllStringSubmatch(full, -1) {
		field := strings.ToLower(m[1])
		value := strings.TrimSpace(strings.ReplaceAll(m[2], "*", ""))
		if value == "" {
			continue
		}
		switch field {
		case "description":
			if len(value) > 10 {
				formatted = append(formatted, "  "+value)
			}
		case "status":
			formatted = append(formatted, "  Status: "+value)
		case "priority":
			formatted = append(formatted, "  Priority: "+value)
		}
	}
	return formatted
}

// FormatDependencySuggestions highlights dependency relationships
// between issue keys.
func FormatDependencySuggestions(response string) string {
	var out []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(line, "Based on") || strings.Contains(lower, "here's a suggested"):
			out = append(out, line, "")
		case strings.HasPrefix(line, "###") || (strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**")):
			clean := strings.TrimSpace(strings.NewReplacer("#", "", "*", "").Replace(line))
			out = append(out, clean, "")
		case wordDepRe.MatchString(line) || arrowDepRe.MatchString(line):
			out = append(out, "-> "+line)
		case numberedDepRe.MatchString(line):
			out = append(out, "-> "+numberedRe.ReplaceAllString(line, ""))
		case issueKeyRe.MatchString(line) && len(line) > 20:
			out = append(out, "   "+line)
		case len(line) > 5:
			out = append(out, "   "+line)
		}
	}
	return strings.Join(out, "\n")
}

// FormatLinkConfirmation renders link creation outcomes with the linked
// issue pair and link type pulled out.
func FormatLinkConfirmation(response string) string {
	var out []string
	lower := strings.ToLower(response)
	succeeded := strings.Contains(lower, "successfully") ||
		strings.Contains(lower, "created") ||
		strings.Contains(lower, "linked") ||
		strings.Contains(lower, "established")

	if !succeeded {
		out = append(out, "LINK CREATION RESPONSE", "")
		if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
			out = append(out, "Issue encountered:", "")
		}
		for _, line := range strings.Split(response, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, "   "+line)
			}
		}
		return strings.Join(out, "\n")
	}

	out = append(out, "DEPENDENCY LINK CREATED", "")
	keys := issueKeyRe.FindAllString(response, -1)
	if len(keys) >= 2 {
		out = append(out, fmt.Sprintf("Linked issues: %s depends on %s", keys[0], keys[1]), "")
	}
	if m := linkTypeRe.FindStringSubmatch(response); len(m) == 2 {
		out = append(out, "Link type: "+strings.TrimSpace(m[1]), "")
	}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "-") && issueKeyRe.MatchString(line) && len(line) > 10 &&
			!strings.Contains(strings.ToLower(line), "successfully") {
			out = append(out, "  "+line)
		}
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// FormatDefault wraps paragraphs for terminal readability.
func FormatDefault(response string) string {
	paragraphs := strings.Split(response, "\n\n")
	var formatted []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		formatted = append(formatted, wrapText(p, 75))
	}
	return strings.Join(formatted, "\n\n")
}

// wrapText wraps text at the given width on word boundaries.
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			lineLen = len(w)
			continue
		}
		if lineLen+1+len(w) > width {
			b.WriteString("\n")
			b.WriteString(w)
			lineLen = len(w)
			continue
		}
		b.WriteString(" ")
		b.WriteString(w)
		lineLen += 1 + len(w)
	}
	return b.String()
}
