package search

import (
	"github.com/google/uuid"

	"github.com/carrivo/assistant/internal/lang"
)

// Corpus selects which document collection a search runs against.
type Corpus string

const (
	CorpusFAQ     Corpus = "faq"
	CorpusRoadmap Corpus = "roadmap"
)

// Tier identifies which search strategy produced a result set.
type Tier string

const (
	TierServerVector Tier = "server_vector"
	TierClientVector Tier = "client_vector"
	TierFuzzy        Tier = "fuzzy"
	TierNone         Tier = "none"
)

// Document is the common surface of both searchable corpora. Field
// access goes through methods so the retriever and the grounding
// validator never need to know which corpus a row came from.
type Document interface {
	DocID() string
	// Vector returns the stored embedding, nil when not yet backfilled.
	Vector() []float32
	// SearchText returns the title/question, description/answer and
	// category fields used for fuzzy matching, picked per language.
	SearchText(language lang.Language) (title, description, category string)
	// TextFields returns every string-valued field, used to build the
	// URL allow-list for grounding validation.
	TextFields() []string
}

// FAQ is a short bilingual question/answer pair.
type FAQ struct {
	ID         uuid.UUID
	QuestionAr string
	QuestionEn string
	AnswerAr   string
	AnswerEn   string
	Category   string
	Active     bool
	Embedding  []float32
}

func (f FAQ) DocID() string     { return f.ID.String() }
func (f FAQ) Vector() []float32 { return f.Embedding }

func (f FAQ) SearchText(language lang.Language) (string, string, string) {
	if language == lang.English {
		return f.QuestionEn, f.AnswerEn, f.Category
	}
	return f.QuestionAr, f.AnswerAr, f.Category
}

func (f FAQ) TextFields() []string {
	return []string{f.QuestionAr, f.QuestionEn, f.AnswerAr, f.AnswerEn, f.Category}
}

// RoadmapGuide is a published learning-path document pointing at an
// external guide URL.
type RoadmapGuide struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    string
	URL         string
	Slug        string
	Published   bool
	Embedding   []float32
}

func (r RoadmapGuide) DocID() string     { return r.ID.String() }
func (r RoadmapGuide) Vector() []float32 { return r.Embedding }

func (r RoadmapGuide) SearchText(lang.Language) (string, string, string) {
	return r.Title, r.Description, r.Category
}

func (r RoadmapGuide) TextFields() []string {
	return []string{r.Title, r.Description, r.Category, r.URL, r.Slug}
}

// ScoredDocument pairs a document with its similarity or relevance
// score for the tier that produced it.
type ScoredDocument struct {
	Document
	Similarity float64
}
