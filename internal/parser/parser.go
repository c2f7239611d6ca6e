// Package parser turns free-text engine output into structured turn results.
// Engine output carries a handful of marker conventions (score and count
// labels, a weaknesses header, bracketed control tokens); everything outside
// this package sees only the parsed values.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"resumecoach/internal/session"
)

const (
	// ResolvedMarker signals that the weakness under discussion is fixed.
	ResolvedMarker = "[WEAKNESS_RESOLVED]"
	// CompleteMarker signals that the interview has covered every topic.
	CompleteMarker = "[BUILD_COMPLETE]"

	// SummaryFallback replaces an empty or "none" summary.
	SummaryFallback = "Here is the analysis of your resume:"
)

var (
	atsScorePattern      = regexp.MustCompile(`(?i)ATS Score:\s*(\d+)`)
	totalWeaknessPattern = regexp.MustCompile(`(?i)Total Weaknesses:\s*(\d+)`)
	atsScoreToken        = regexp.MustCompile(`(?i)[ \t]*ATS Score:[ \t]*\d+(?:[ \t]*/[ \t]*100)?[ \t]*`)
	totalWeaknessToken   = regexp.MustCompile(`(?i)[ \t]*Total Weaknesses:[ \t]*\d+[ \t]*`)
	weaknessesHeader     = regexp.MustCompile(`(?im)^[ \t*#]*weaknesses:`)
	blankLineRun         = regexp.MustCompile(`\n{3,}`)
)

// AnalysisResult is the parsed initial analysis.
type AnalysisResult struct {
	Summary         string `json:"summary" yaml:"summary"`
	ATSScore        int    `json:"ats_score" yaml:"ats_score"`
	TotalWeaknesses int    `json:"total_weaknesses" yaml:"total_weaknesses"`
	HasScore        bool   `json:"has_score" yaml:"has_score"`
}

// TurnResult is the parsed outcome of one chat or interview turn.
type TurnResult struct {
	Display  string `json:"display" yaml:"display"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
	Complete bool   `json:"complete" yaml:"complete"`
}

// ParseAnalysis extracts the score, the weakness count and the display
// summary. The score is only read in targeted mode.
func ParseAnalysis(raw string, mode session.Mode) AnalysisResult {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	result := AnalysisResult{TotalWeaknesses: 1}

	if mode == session.ModeTargeted {
		if n, ok := firstInt(atsScorePattern, raw); ok {
			result.ATSScore = min(n, 100)
			result.HasScore = true
		}
	}
	if n, ok := firstInt(totalWeaknessPattern, raw); ok {
		result.TotalWeaknesses = max(n, 1)
	}

	summary, list := raw, ""
	if loc := weaknessesHeader.FindStringIndex(raw); loc != nil {
		summary, list = raw[:loc[0]], raw[loc[0]:]
	}

	summary = stripToken(atsScoreToken, summary)
	summary = stripToken(totalWeaknessToken, summary)
	list = stripToken(totalWeaknessToken, list)

	summary = tidy(summary)
	if summary == "" || strings.EqualFold(summary, "none") {
		summary = SummaryFallback
	}

	result.Summary = strings.TrimSpace(summary + "\n\n" + tidy(list))
	return result
}

// ParseChatTurn strips the resolution marker from a coaching reply.
func ParseChatTurn(raw string) TurnResult {
	display, found := stripMarker(raw, ResolvedMarker)
	return TurnResult{Display: display, Resolved: found}
}

// ParseInterviewTurn strips the completion marker from an interview reply.
func ParseInterviewTurn(raw string) TurnResult {
	display, found := stripMarker(raw, CompleteMarker)
	return TurnResult{Display: display, Complete: found}
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Only overflow gets here; treat it as absent.
		return 0, false
	}
	return n, true
}

// stripMarker removes every occurrence of marker together with the spaces
// and tabs around it. Lines left empty by the removal are dropped, other
// blank lines are kept.
func stripMarker(raw, marker string) (string, bool) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.Contains(raw, marker) {
		return strings.TrimSpace(raw), false
	}

	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, marker) {
			kept = append(kept, line)
			continue
		}
		parts := strings.Split(line, marker)
		for i := range parts {
			switch i {
			case 0:
				parts[i] = strings.TrimRight(parts[i], " \t")
			case len(parts) - 1:
				parts[i] = strings.TrimLeft(parts[i], " \t")
			default:
				parts[i] = strings.Trim(parts[i], " \t")
			}
		}
		cleaned := joinNonEmpty(parts)
		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		kept = append(kept, cleaned)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), true
}

func joinNonEmpty(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// tidy trims s and collapses the blank-line runs that line removal leaves.
// stripToken removes every match of re. A line is dropped when only
// markdown decoration or punctuation is left on it.
func stripToken(re *regexp.Regexp, text string) string {
	if !re.MatchString(text) {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !re.MatchString(line) {
			kept = append(kept, line)
			continue
		}
		line = re.ReplaceAllString(line, " ")
		if strings.Trim(line, " \t*#_-:.,;()[]|") == "" {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}
	return strings.Join(kept, "\n")
}

func tidy(s string) string {
	return blankLineRun.ReplaceAllString(strings.TrimSpace(s), "\n\n")
}
