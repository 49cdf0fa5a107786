package decks

import "github.com/conorfennell/langdrill/internal/content"

// VocabularyItem is a word and its translation.
type VocabularyItem struct {
	ID          string `json:"id" validate:"required"`
	Level       string `json:"level,omitempty"`
	Custom      bool   `json:"custom,omitempty"`
	Term        string `json:"term" validate:"required"`
	Translation string `json:"translation" validate:"required"`
	Note        string `json:"note,omitempty"`
}

// DeclensionItem is one inflected form of a noun or adjective.
type DeclensionItem struct {
	ID     string `json:"id" validate:"required"`
	Level  string `json:"level,omitempty"`
	Lemma  string `json:"lemma" validate:"required"`
	Case   string `json:"case" validate:"required"`
	Number string `json:"number" validate:"required"`
	Form   string `json:"form" validate:"required"`
}

// SentenceItem is a sentence and its translation.
type SentenceItem struct {
	ID     string `json:"id" validate:"required"`
	Level  string `json:"level,omitempty"`
	Custom bool   `json:"custom,omitempty"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Note   string `json:"note,omitempty"`
}

// ConjugationItem is one conjugated form of a verb.
type ConjugationItem struct {
	ID         string `json:"id" validate:"required"`
	Level      string `json:"level,omitempty"`
	Infinitive string `json:"infinitive" validate:"required"`
	Tense      string `json:"tense" validate:"required"`
	Person     string `json:"person" validate:"required"`
	Form       string `json:"form" validate:"required"`
}

// AspectItem is an imperfective/perfective verb pair.
type AspectItem struct {
	ID           string `json:"id" validate:"required"`
	Custom       bool   `json:"custom,omitempty"`
	Imperfective string `json:"imperfective" validate:"required"`
	Perfective   string `json:"perfective" validate:"required"`
	Meaning      string `json:"meaning,omitempty"`
}

// field returns the first non-empty field among names. Markdown decks only
// carry front/back/context, so each typed field lists those as fallbacks.
func field(e content.Entry, names ...string) string {
	for _, n := range names {
		if v := e.Fields[n]; v != "" {
			return v
		}
	}
	return ""
}

func toVocabulary(e content.Entry) VocabularyItem {
	return VocabularyItem{
		ID:          e.ID,
		Level:       e.Level,
		Custom:      e.Custom,
		Term:        field(e, "term", content.FieldFront),
		Translation: field(e, "translation", content.FieldBack),
		Note:        field(e, "note", content.FieldContext),
	}
}

func toDeclension(e content.Entry) DeclensionItem {
	return DeclensionItem{
		ID:     e.ID,
		Level:  e.Level,
		Lemma:  field(e, "lemma"),
		Case:   field(e, "case"),
		Number: field(e, "number"),
		Form:   field(e, "form"),
	}
}

func toSentence(e content.Entry) SentenceItem {
	return SentenceItem{
		ID:     e.ID,
		Level:  e.Level,
		Custom: e.Custom,
		Source: field(e, "source", content.FieldFront),
		Target: field(e, "target", content.FieldBack),
		Note:   field(e, "note", content.FieldContext),
	}
}

func toConjugation(e content.Entry) ConjugationItem {
	return ConjugationItem{
		ID:         e.ID,
		Level:      e.Level,
		Infinitive: field(e, "infinitive"),
		Tense:      field(e, "tense"),
		Person:     field(e, "person"),
		Form:       field(e, "form"),
	}
}

func toAspect(e content.Entry) AspectItem {
	return AspectItem{
		ID:           e.ID,
		Custom:       e.Custom,
		Imperfective: field(e, "imperfective", content.FieldFront),
		Perfective:   field(e, "perfective", content.FieldBack),
		Meaning:      field(e, "meaning", content.FieldContext),
	}
}
