package quizchat

import (
	"fmt"
	"sort"
	"strings"
)

// Template is a matched instruction/parser pair. The prompt a template
// builds and the grammar its Parse expects are designed against the same
// raw-text layout; mixing the two halves of different templates is what
// makes batches come back empty.
type Template interface {
	// Tag identifies the template in storage and on the command line.
	Tag() string

	// Instruction builds the system-role prompt asking the generator for
	// numQuestions four-option questions in this template's exact layout.
	Instruction(topic string, numQuestions int) string

	// Parse converts raw generator output into question records. It never
	// fails: unrecognizable blocks degrade or are dropped, and text with
	// no recognizable blocks yields an empty result.
	Parse(raw string) []Question
}

var templates = func() map[string]Template {
	m := make(map[string]Template)
	for _, t := range []Template{numberedTemplate{}, blockTemplate{}} {
		m[t.Tag()] = t
	}
	return m
}()

// DefaultTemplate returns the numbered-list template.
func DefaultTemplate() Template {
	return numberedTemplate{}
}

// TemplateByTag looks up a registered template.
func TemplateByTag(tag string) (Template, error) {
	t, ok := templates[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTemplate, tag)
	}
	return t, nil
}

// TemplateTags lists the registered template tags, sorted.
func TemplateTags() []string {
	tags := make([]string, 0, len(templates))
	for tag := range templates {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// numberedTemplate uses a numbered-list layout with "A) ..." option
// lines and a bold "**Correct Answer: X**" marker.
type numberedTemplate struct{}

func (numberedTemplate) Tag() string { return "numbered" }

func (numberedTemplate) Instruction(topic string, numQuestions int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate a set of %d multiple-choice questions about %s for a student. ", numQuestions, topic))
	sb.WriteString("Each question should have 4 answer options (A-D) with a single correct answer.\n\n")
	sb.WriteString("Format exactly like this:\n\n")
	sb.WriteString("1. Question text...\n")
	sb.WriteString("A) ...\nB) ...\nC) ...\nD) ...\n**Correct Answer: X**\n\n")
	sb.WriteString("Do not add any commentary before, between, or after the questions.\n")

	return sb.String()
}

func (numberedTemplate) Parse(raw string) []Question {
	return parseBlocks(raw, reNumberedHeader, numberedGrammar)
}

// blockTemplate uses a strict line-oriented layout: a QUESTION header,
// the stem on its own line, OPTION lines, an ANSWER line and an END
// marker. The stricter shape parses more reliably with small models.
type blockTemplate struct{}

func (blockTemplate) Tag() string { return "block" }

func (blockTemplate) Instruction(topic string, numQuestions int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are a quiz generator. Produce exactly %d multiple-choice questions about %s.\n\n", numQuestions, topic))
	sb.WriteString("Each question must have exactly 4 options labeled A-D and exactly one correct answer.\n\n")
	sb.WriteString("Reproduce this exact line format for every question, with nothing else:\n\n")
	sb.WriteString("QUESTION <n>\n")
	sb.WriteString("<question text on a single line>\n")
	sb.WriteString("OPTION A: <text>\n")
	sb.WriteString("OPTION B: <text>\n")
	sb.WriteString("OPTION C: <text>\n")
	sb.WriteString("OPTION D: <text>\n")
	sb.WriteString("ANSWER: <letter A-D>\n")
	sb.WriteString("END\n\n")
	sb.WriteString("Do not add markdown, numbering, or commentary. Do not skip the END line.\n")

	return sb.String()
}

func (blockTemplate) Parse(raw string) []Question {
	return parseBlocks(raw, reBlockHeader, blockGrammarRules)
}
