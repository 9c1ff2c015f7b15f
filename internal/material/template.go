// Package material implements the interactive lesson-material pipeline:
// template selection, LLM response sanitizing, and post-generation repair
// of filled templates.
package material

import (
	"encoding/json"
	"fmt"
)

// Section type discriminants known to the renderer. Unknown values are
// rendered as visible placeholders, never rejected.
const (
	SectionTitle         = "title"
	SectionInfoCard      = "info_card"
	SectionExercise      = "exercise"
	SectionVocabulary    = "vocabulary"
	SectionDialogue      = "dialogue"
	SectionTextContent   = "text_content"
	SectionAudio         = "audio"
	SectionComprehension = "comprehension_questions"
)

// Exercise content_type discriminants.
const (
	ContentList               = "list"
	ContentText               = "text"
	ContentVocabularyMatching = "vocabulary_matching"
	ContentFullDialogue       = "full_dialogue"
	ContentMatching           = "matching"
	ContentFillBlanksDialogue = "fill_in_the_blanks_dialogue"
	ContentGrammarExplanation = "grammar_explanation"
	ContentExampleSentences   = "example_sentences"
	ContentCompleteSentence   = "complete_sentence"
)

// VocabularyItem is one vocabulary entry in a filled template.
type VocabularyItem struct {
	Word         string   `json:"word"`
	Definition   string   `json:"definition"`
	PartOfSpeech string   `json:"part_of_speech"`
	Examples     []string `json:"examples"`
}

// DialogueLine is one line of a dialogue section.
type DialogueLine struct {
	Character   string `json:"character"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

// MatchingPair is one left/right pair in a matching exercise.
type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Section is one entry of a template's sections array. All fields beyond
// ID and Type are optional; the renderer reads only what its branch needs.
type Section struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	ContentType     string           `json:"content_type,omitempty"`
	AIPlaceholder   string           `json:"ai_placeholder,omitempty"`
	Title           string           `json:"title,omitempty"`
	Text            string           `json:"text,omitempty"`
	Instruction     string           `json:"instruction,omitempty"`
	Items           []string         `json:"items,omitempty"`
	Sentences       []string         `json:"sentences,omitempty"`
	Questions       []string         `json:"questions,omitempty"`
	DialogueLines   []DialogueLine   `json:"dialogue_lines,omitempty"`
	VocabularyItems []VocabularyItem `json:"vocabulary_items,omitempty"`
	MatchingPairs   []MatchingPair   `json:"matching_pairs,omitempty"`
	AudioURL        string           `json:"audio_url,omitempty"`
}

// Template is a lesson template document (empty or filled).
type Template struct {
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
}

// ParseDocument parses raw template JSON into a generic document for the
// repair pass. The input must already be sanitized.
func ParseDocument(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template document: %w", err)
	}
	return doc, nil
}

// Decode converts a generic document into a typed Template. It never fails:
// fields of unexpected shape are coerced where a scalar makes sense and
// dropped otherwise, so arbitrary LLM output always yields something the
// renderer can walk.
func Decode(doc map[string]any) *Template {
	t := &Template{Name: str(doc, "name")}
	raw, ok := doc["sections"].([]any)
	if !ok {
		return t
	}
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		t.Sections = append(t.Sections, decodeSection(m))
	}
	return t
}

func decodeSection(m map[string]any) Section {
	return Section{
		ID:              str(m, "id"),
		Type:            str(m, "type"),
		ContentType:     str(m, "content_type"),
		AIPlaceholder:   str(m, "ai_placeholder"),
		Title:           str(m, "title"),
		Text:            str(m, "text"),
		Instruction:     str(m, "instruction"),
		Items:           strSlice(m, "items"),
		Sentences:       strSlice(m, "sentences"),
		Questions:       strSlice(m, "questions"),
		DialogueLines:   dialogueLines(m, "dialogue_lines"),
		VocabularyItems: vocabularyItems(m, "vocabulary_items"),
		MatchingPairs:   matchingPairs(m, "matching_pairs"),
		AudioURL:        str(m, "audio_url"),
	}
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64, bool:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func strSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case float64, bool:
			out = append(out, fmt.Sprintf("%v", s))
		}
	}
	return out
}

func dialogueLines(m map[string]any, key string) []DialogueLine {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []DialogueLine
	for _, v := range raw {
		lm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, DialogueLine{
			Character:   str(lm, "character"),
			Text:        str(lm, "text"),
			Translation: str(lm, "translation"),
		})
	}
	return out
}

func vocabularyItems(m map[string]any, key string) []VocabularyItem {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []VocabularyItem
	for _, v := range raw {
		im, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, VocabularyItem{
			Word:         str(im, "word"),
			Definition:   str(im, "definition"),
			PartOfSpeech: str(im, "part_of_speech"),
			Examples:     strSlice(im, "examples"),
		})
	}
	return out
}

func matchingPairs(m map[string]any, key string) []MatchingPair {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []MatchingPair
	for _, v := range raw {
		pm, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, MatchingPair{Left: str(pm, "left"), Right: str(pm, "right")})
	}
	return out
}
