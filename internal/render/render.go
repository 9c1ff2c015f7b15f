// Package render turns filled lesson templates into HTML components. One
// dispatch table serves both the tutor surface and the shared student
// surface; a ViewMode flag covers the differences. Rendering is total over
// arbitrary JSON input: the content comes from an LLM, so every branch
// reads its fields null-safely, missing data renders placeholder copy, and
// unknown types render a visible placeholder naming the type.
package render

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/etiennegwiavander/linguaflow/internal/material"
)

// ViewMode selects the rendering surface.
type ViewMode int

const (
	// ModeTutor is the tutor-facing lesson page.
	ModeTutor ViewMode = iota
	// ModeStudent is the shared-link student page.
	ModeStudent
)

// htmlWriter accumulates HTML and carries the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// Material renders a full filled template. A nil template or one without
// sections renders a fallback notice instead of failing; legacy and
// malformed materials reach this path.
func Material(t *material.Template, mode ViewMode) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if t == nil || len(t.Sections) == 0 {
			h.raw(`<div class="material-empty"><p>`)
			h.text("This lesson has no interactive content yet.")
			h.raw(`</p></div>`)
			return h.err
		}
		h.raw(`<div class="material">`)
		for _, sec := range t.Sections {
			if err := Section(sec, mode).Render(ctx, w); err != nil {
				return err
			}
		}
		h.raw(`</div>`)
		return h.err
	})
}

// Section renders one section, dispatching on its type and, for exercises,
// on its content type.
func Section(sec material.Section, mode ViewMode) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="material-section" data-section-id="` + templ.EscapeString(sec.ID) + `">`)

		switch sec.Type {
		case material.SectionTitle:
			h.raw(`<h1 class="lesson-title">`)
			h.text(fallback(sec.Title, sec.Text, "Untitled lesson"))
			h.raw(`</h1>`)
		case material.SectionInfoCard:
			renderInfoCard(h, sec)
		case material.SectionVocabulary:
			renderVocabulary(h, sec.VocabularyItems)
		case material.SectionDialogue:
			renderDialogue(h, sec.DialogueLines, mode)
		case material.SectionTextContent:
			renderTextBlock(h, sec.Title, sec.Text)
		case material.SectionAudio:
			renderAudio(h, sec)
		case material.SectionComprehension:
			renderQuestions(h, sec.Questions)
		case material.SectionExercise:
			renderExercise(h, sec, mode)
		default:
			renderUnknown(h, "section type", sec.Type)
		}

		h.raw(`</section>`)
		return h.err
	})
}

func renderExercise(h *htmlWriter, sec material.Section, mode ViewMode) {
	if sec.Title != "" {
		h.raw(`<h3 class="exercise-title">`)
		h.text(sec.Title)
		h.raw(`</h3>`)
	}
	if sec.Instruction != "" {
		h.raw(`<p class="exercise-instruction">`)
		h.text(sec.Instruction)
		h.raw(`</p>`)
	}

	switch sec.ContentType {
	case material.ContentList:
		renderList(h, sec.Items)
	case material.ContentText:
		renderTextBlock(h, "", sec.Text)
	case material.ContentVocabularyMatching, material.ContentMatching:
		renderMatching(h, sec.MatchingPairs, mode)
	case material.ContentFullDialogue, material.ContentFillBlanksDialogue:
		renderDialogue(h, sec.DialogueLines, mode)
	case material.ContentGrammarExplanation:
		renderGrammarExplanation(h, sec.Text)
	case material.ContentExampleSentences, material.ContentCompleteSentence:
		renderSentences(h, sec)
	default:
		renderUnknown(h, "exercise type", sec.ContentType)
	}
}

func renderInfoCard(h *htmlWriter, sec material.Section) {
	h.raw(`<div class="info-card">`)
	if sec.Title != "" {
		h.raw(`<h2>`)
		h.text(sec.Title)
		h.raw(`</h2>`)
	}
	if sec.Text == "" && len(sec.Items) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No content available for this card.")
		h.raw(`</p>`)
	}
	if sec.Text != "" {
		h.raw(`<p>`)
		h.text(sec.Text)
		h.raw(`</p>`)
	}
	renderListIfAny(h, sec.Items)
	h.raw(`</div>`)
}

func renderVocabulary(h *htmlWriter, items []material.VocabularyItem) {
	if len(items) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No vocabulary items available.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<dl class="vocabulary">`)
	for _, item := range items {
		h.raw(`<dt>`)
		h.text(item.Word)
		if item.PartOfSpeech != "" {
			h.raw(` <em>`)
			h.text(item.PartOfSpeech)
			h.raw(`</em>`)
		}
		h.raw(`</dt><dd>`)
		h.text(item.Definition)
		// Renderers must tolerate fewer examples than the level target:
		// repair never fabricates missing ones.
		renderListIfAny(h, item.Examples)
		h.raw(`</dd>`)
	}
	h.raw(`</dl>`)
}

func renderDialogue(h *htmlWriter, lines []material.DialogueLine, mode ViewMode) {
	if len(lines) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No dialogue lines available.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<div class="dialogue">`)
	for _, line := range lines {
		h.raw(`<p class="dialogue-line"><strong>`)
		h.text(fallback(line.Character, "", "?"))
		h.raw(`:</strong> `)
		h.text(line.Text)
		if mode == ModeStudent && line.Translation != "" {
			h.raw(` <span class="translation">`)
			h.text(line.Translation)
			h.raw(`</span>`)
		}
		h.raw(`</p>`)
	}
	h.raw(`</div>`)
}

func renderMatching(h *htmlWriter, pairs []material.MatchingPair, mode ViewMode) {
	if len(pairs) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No items available for this exercise.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<table class="matching"><tbody>`)
	for i, p := range pairs {
		h.raw(`<tr><td>`)
		h.text(p.Left)
		h.raw(`</td><td>`)
		if mode == ModeStudent {
			// Students match the shuffled-away right column themselves;
			// show a slot label instead of the answer.
			h.text("(" + strconv.Itoa(i+1) + ")")
		} else {
			h.text(p.Right)
		}
		h.raw(`</td></tr>`)
	}
	h.raw(`</tbody></table>`)
	if mode == ModeStudent {
		h.raw(`<ul class="matching-options">`)
		for _, p := range pairs {
			h.raw(`<li>`)
			h.text(p.Right)
			h.raw(`</li>`)
		}
		h.raw(`</ul>`)
	}
}

func renderGrammarExplanation(h *htmlWriter, text string) {
	if strings.TrimSpace(text) == "" {
		h.raw(`<p class="placeholder">`)
		h.text("No explanation available.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<div class="grammar-explanation">`)
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, "#") {
			h.raw(`<h4>`)
			h.text(strings.TrimLeft(block, "# "))
			h.raw(`</h4>`)
		} else {
			h.raw(`<p>`)
			h.text(block)
			h.raw(`</p>`)
		}
	}
	h.raw(`</div>`)
}

func renderSentences(h *htmlWriter, sec material.Section) {
	sentences := sec.Sentences
	if len(sentences) == 0 {
		sentences = sec.Items
	}
	if len(sentences) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No items available for this exercise.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<ol class="sentences">`)
	for _, s := range sentences {
		h.raw(`<li>`)
		h.text(s)
		h.raw(`</li>`)
	}
	h.raw(`</ol>`)
}

func renderQuestions(h *htmlWriter, questions []string) {
	if len(questions) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No questions available.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<ol class="questions">`)
	for _, q := range questions {
		h.raw(`<li>`)
		h.text(q)
		h.raw(`</li>`)
	}
	h.raw(`</ol>`)
}

func renderAudio(h *htmlWriter, sec material.Section) {
	if sec.AudioURL == "" {
		h.raw(`<p class="placeholder">`)
		h.text("No audio available.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<audio controls src="` + templ.EscapeString(sec.AudioURL) + `"></audio>`)
}

func renderTextBlock(h *htmlWriter, title, text string) {
	if title != "" {
		h.raw(`<h2>`)
		h.text(title)
		h.raw(`</h2>`)
	}
	if strings.TrimSpace(text) == "" {
		h.raw(`<p class="placeholder">`)
		h.text("No content available.")
		h.raw(`</p>`)
		return
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		h.raw(`<p>`)
		h.text(para)
		h.raw(`</p>`)
	}
}

func renderList(h *htmlWriter, items []string) {
	if len(items) == 0 {
		h.raw(`<p class="placeholder">`)
		h.text("No items available for this exercise.")
		h.raw(`</p>`)
		return
	}
	h.raw(`<ul class="items">`)
	for _, item := range items {
		h.raw(`<li>`)
		h.text(item)
		h.raw(`</li>`)
	}
	h.raw(`</ul>`)
}

func renderListIfAny(h *htmlWriter, items []string) {
	if len(items) == 0 {
		return
	}
	h.raw(`<ul class="items">`)
	for _, item := range items {
		h.raw(`<li>`)
		h.text(item)
		h.raw(`</li>`)
	}
	h.raw(`</ul>`)
}

func renderUnknown(h *htmlWriter, kind, name string) {
	h.raw(`<div class="unknown-section">`)
	h.text("Unsupported " + kind + ": " + fallback(name, "", "(none)"))
	h.raw(`</div>`)
}

func fallback(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
