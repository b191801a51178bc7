package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	sectionSummary = iota
	sectionKeyPoints
	sectionImplications
	sectionConcerns
	sectionScore
)

var (
	// \p{Z} covers NBSP and the other Unicode spaces RE2's \s leaves out
	bulletPrefix = regexp.MustCompile(`^[•\-*][\s\p{Z}]*`)
	firstNumber  = regexp.MustCompile(`\d+`)
)

// ParseAnalysis maps a completion reply onto a Result by paragraph position:
// summary, key points, implications, concerns, score. Paragraphs are separated
// by a blank line. Missing paragraphs leave their field empty.
func ParseAnalysis(raw string) Result {
	sections := strings.Split(raw, "\n\n")
	section := func(i int) (string, bool) {
		if i < len(sections) {
			return sections[i], true
		}
		return "", false
	}

	var res Result
	res.Summary, _ = section(sectionSummary)
	res.KeyPoints = bulletLines(section(sectionKeyPoints))
	res.Implications = bulletLines(section(sectionImplications))
	res.Concerns = bulletLines(section(sectionConcerns))
	res.Score = parseScore(section(sectionScore))
	return res
}

// bulletLines drops blank lines and strips one leading bullet marker per line.
// Surrounding whitespace of each item is otherwise kept as-is.
func bulletLines(paragraph string, ok bool) []string {
	out := []string{}
	if !ok {
		return out
	}
	for _, line := range strings.Split(paragraph, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, bulletPrefix.ReplaceAllString(line, ""))
	}
	return out
}

// parseScore returns the first run of digits, or 0.
func parseScore(paragraph string, ok bool) int {
	if !ok {
		return 0
	}
	digits := firstNumber.FindString(paragraph)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// out of range for int
		return 0
	}
	return n
}
