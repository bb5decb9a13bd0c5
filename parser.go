package quizchat

import (
	"regexp"
	"strings"
)

// Parsing is total by design: the generator is untrusted, so malformed
// input degrades (empty option slots, unknown correct label) instead of
// failing. Only a block with no stem, no options and no answer is
// dropped as noise.

var (
	// Numbered-list layout: "1. stem", "A) text", "**Correct Answer: X**".
	reNumberedHeader = regexp.MustCompile(`(?m)^\s*\d+[\.\)]\s*`)
	reNumberedOption = regexp.MustCompile(`^(?:\*\*)?([A-Da-d])[\)\.]\s*(.*)$`)
	reNumberedAnswer = regexp.MustCompile(`(?i)^(?:\*\*)?\s*(?:correct\s+answer|correct|answer)\s*[:\-]\s*\**\s*([A-Da-d])\b`)

	// Block layout: "QUESTION n", "OPTION A: text", "ANSWER: X", "END".
	reBlockHeader = regexp.MustCompile(`(?mi)^[\s*#]*QUESTION\s*\d+[\s:.]*$`)
	reBlockOption = regexp.MustCompile(`(?i)^(?:\*\*)?OPTION\s+([A-D])\s*[:.\-]\s*(.*)$`)
	reBlockAnswer = regexp.MustCompile(`(?i)^(?:\*\*)?ANSWER\s*[:.\-]\s*\**\s*([A-D])\b`)
	reBlockEnd    = regexp.MustCompile(`(?i)^(?:\*\*)?END\b`)
)

// blockGrammar holds the per-template line patterns. option and answer
// capture the label; skip matches lines discarded outright.
type blockGrammar struct {
	option *regexp.Regexp
	answer *regexp.Regexp
	skip   *regexp.Regexp
}

var (
	numberedGrammar = blockGrammar{
		option: reNumberedOption,
		answer: reNumberedAnswer,
	}
	blockGrammarRules = blockGrammar{
		option: reBlockOption,
		answer: reBlockAnswer,
		skip:   reBlockEnd,
	}
)

// parseBlocks segments raw text at header markers, discarding any
// preamble before the first one, and parses each block independently.
func parseBlocks(raw string, header *regexp.Regexp, g blockGrammar) []Question {
	var questions []Question
	for _, block := range splitBlocks(raw, header) {
		if q, ok := parseBlock(block, g); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// splitBlocks returns the text between consecutive header matches. The
// header itself is stripped, so for the numbered layout the stem is the
// remainder of the header line.
func splitBlocks(raw string, header *regexp.Regexp) []string {
	locs := header.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}

	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, raw[loc[1]:end])
	}
	return blocks
}

// parseBlock extracts one question from a block. Options are associated
// by label, never by position, so the generator may emit them in any
// order. Returns false when the block held nothing parseable at all.
func parseBlock(block string, g blockGrammar) (Question, bool) {
	var (
		stem    []string
		answer  string
		options = make(map[string]string)
		current string // label still collecting continuation lines
	)

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if g.skip != nil && g.skip.MatchString(line) {
			current = ""
			continue
		}
		if m := g.answer.FindStringSubmatch(line); m != nil {
			if answer == "" {
				answer = strings.ToUpper(m[1])
			}
			current = ""
			continue
		}
		if m := g.option.FindStringSubmatch(line); m != nil {
			label := strings.ToUpper(m[1])
			options[label] = strings.TrimSpace(m[2])
			current = label
			continue
		}
		if current != "" {
			// Wrapped option text: internal newlines collapse to spaces.
			options[current] = strings.TrimSpace(options[current] + " " + line)
			continue
		}
		if len(options) == 0 {
			stem = append(stem, line)
		}
	}

	q := Question{
		Text:         strings.TrimSpace(trimMarkdown(strings.Join(stem, " "))),
		Options:      make([]string, len(Labels)),
		CorrectLabel: answer,
	}

	found := false
	for i, label := range Labels {
		if text, ok := options[label]; ok {
			q.Options[i] = trimMarkdown(text)
			found = true
		}
	}

	if q.Text == "" && !found && answer == "" {
		return Question{}, false
	}
	return q, true
}

// trimMarkdown strips stray emphasis markers the generator likes to add
// around stems and options.
func trimMarkdown(s string) string {
	return strings.Trim(s, "* ")
}
