// Package prompts builds the instruction strings sent to the lesson
// generation model. The prompt is the only enforcement mechanism for
// structural correctness before the post-hoc repair step, so the templates
// state the count rules redundantly and repeat the ai_placeholder
// prohibition.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/etiennegwiavander/linguaflow/internal/material"
	"github.com/etiennegwiavander/linguaflow/internal/model"
)

var systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)

//go:embed prompts/*.txt
var FS embed.FS

var (
	loadOnce  sync.Once
	loadErr   error
	hyperTmpl *template.Template
	basicTmpl *template.Template
)

// MaterialData holds template data for lesson-material prompts.
type MaterialData struct {
	StudentName         string
	TargetLanguage      string
	NativeLanguage      string
	Level               string
	Goals               string
	GrammarWeaknesses   string
	VocabularyGaps      string
	PronunciationIssues string
	FluencyBarriers     string
	LearningStyles      string
	Notes               string

	SubTopicName        string
	SubTopicCategory    string
	SubTopicDescription string

	TemplateJSON    string
	VocabCount      int
	DialogueMin     int
	DialogueMax     int
	IsPronunciation bool
}

// Load parses the prompt templates from the given filesystem. It uses
// sync.Once so templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		hyperContent, err := fs.ReadFile(fsys, "prompts/hyper_personalized.txt")
		if err != nil {
			loadErr = errors.New("failed to read prompt file prompts/hyper_personalized.txt: " + err.Error())
			return
		}
		hyperTmpl, err = template.New("hyper").Parse(string(hyperContent))
		if err != nil {
			loadErr = errors.New("failed to parse prompt template prompts/hyper_personalized.txt: " + err.Error())
			return
		}

		basicContent, err := fs.ReadFile(fsys, "prompts/basic.txt")
		if err != nil {
			loadErr = errors.New("failed to read prompt file prompts/basic.txt: " + err.Error())
			return
		}
		basicTmpl, err = template.New("basic").Parse(string(basicContent))
		if err != nil {
			loadErr = errors.New("failed to parse prompt template prompts/basic.txt: " + err.Error())
		}
	})
	return loadErr
}

// BuildMaterialPrompt builds the generation prompt for a student and
// sub-topic. A non-nil template selects the hyper-personalization variant
// embedding the template JSON verbatim; nil selects the simpler fixed-shape
// lesson-plan variant.
func BuildMaterialPrompt(student model.Student, sub model.SubTopic, tpl *model.LessonTemplate) (string, error) {
	if hyperTmpl == nil || basicTmpl == nil {
		return "", errors.New("templates not initialized: call Load first")
	}

	level := strings.ToUpper(string(student.Level))
	minLines, maxLines := material.DialogueLineRange(student.Level)

	data := MaterialData{
		StudentName:         sanitizeField(student.Name),
		TargetLanguage:      sanitizeField(student.TargetLanguage),
		NativeLanguage:      sanitizeField(student.NativeLanguage),
		Level:               level,
		Goals:               sanitizeField(student.Goals),
		GrammarWeaknesses:   sanitizeField(student.GrammarWeaknesses),
		VocabularyGaps:      sanitizeField(student.VocabularyGaps),
		PronunciationIssues: sanitizeField(student.PronunciationIssues),
		FluencyBarriers:     sanitizeField(student.FluencyBarriers),
		LearningStyles:      sanitizeField(student.LearningStyles),
		Notes:               sanitizeField(student.Notes),
		SubTopicName:        sanitizeField(sub.Name),
		SubTopicCategory:    sanitizeField(sub.Category),
		SubTopicDescription: sanitizeField(sub.Description),
		VocabCount:          material.TargetExampleCount(student.Level, sub.Category),
		DialogueMin:         minLines,
		DialogueMax:         maxLines,
		IsPronunciation:     strings.EqualFold(sub.Category, model.CategoryPronunciation),
	}

	tmpl := basicTmpl
	if tpl != nil {
		tmpl = hyperTmpl
		data.TemplateJSON = indentTemplateJSON(tpl.TemplateJSON)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// indentTemplateJSON pretty-prints the stored template JSON so the model
// sees one field per line. Invalid JSON is passed through verbatim.
func indentTemplateJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}

// sanitizeField cleans profile text before it is embedded in a prompt.
func sanitizeField(s string) string {
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > 2000 {
		runes := []rune(s)
		s = string(runes[:2000]) + " [truncated]"
	}

	return s
}
