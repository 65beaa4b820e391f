package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/chat"
	"github.com/carrivo/assistant/internal/search"
)

type Store struct {
	DB *sql.DB
}

// New constructs the Store from configuration and verifies the
// connection.
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	return NewWithDSN(ctx, cfg.DSN())
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

const faqColumns = `id, question_ar, question_en, answer_ar, answer_en, category, is_active, embedding`

const roadmapColumns = `id, title, description, category, url, slug, is_published, embedding`

// ActiveFAQs returns every active FAQ, embeddings included when
// backfilled.
func (s *Store) ActiveFAQs(ctx context.Context) ([]search.FAQ, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+faqColumns+` FROM faq WHERE is_active = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []search.FAQ
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

// PublishedRoadmaps returns published guides, optionally filtered by
// category.
func (s *Store) PublishedRoadmaps(ctx context.Context, category string) ([]search.RoadmapGuide, error) {
	query := `SELECT ` + roadmapColumns + ` FROM roadmaps WHERE is_published = TRUE`
	args := []interface{}{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []search.RoadmapGuide
	for rows.Next() {
		g, err := scanRoadmap(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// RoadmapBySlug fetches one guide by its slug.
func (s *Store) RoadmapBySlug(ctx context.Context, slug string) (search.RoadmapGuide, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+roadmapColumns+` FROM roadmaps WHERE slug = $1`, slug)
	return scanRoadmap(row)
}

// RoadmapCategories returns the distinct category names of published
// guides.
func (s *Store) RoadmapCategories(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT category FROM roadmaps WHERE is_published = TRUE AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Documents implements search.DocumentSource for the client-side
// search tiers.
func (s *Store) Documents(ctx context.Context, corpus search.Corpus) ([]search.Document, error) {
	switch corpus {
	case search.CorpusFAQ:
		faqs, err := s.ActiveFAQs(ctx)
		if err != nil {
			return nil, err
		}
		docs := make([]search.Document, len(faqs))
		for i, f := range faqs {
			docs[i] = f
		}
		return docs, nil
	case search.CorpusRoadmap:
		guides, err := s.PublishedRoadmaps(ctx, "")
		if err != nil {
			return nil, err
		}
		docs := make([]search.Document, len(guides))
		for i, g := range guides {
			docs[i] = g
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("unknown corpus %q", corpus)
	}
}

// SimilaritySearch runs the server-side pgvector query for a corpus,
// returning rows whose cosine similarity clears the threshold, best
// first.
func (s *Store) SimilaritySearch(ctx context.Context, corpus search.Corpus, embedding []float32, limit int, threshold float64) ([]search.ScoredDocument, error) {
	vecLiteral, err := encodeVectorLiteral(embedding)
	if err != nil {
		return nil, err
	}

	switch corpus {
	case search.CorpusFAQ:
		rows, err := s.DB.QueryContext(ctx, `
SELECT `+faqColumns+`, 1 - (embedding <=> $1::vector) AS similarity
FROM faq
WHERE is_active = TRUE
  AND embedding IS NOT NULL
  AND 1 - (embedding <=> $1::vector) >= $2
ORDER BY embedding <=> $1::vector
LIMIT $3
`, vecLiteral, threshold, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var results []search.ScoredDocument
		for rows.Next() {
			f, similarity, err := scanScoredFAQ(rows)
			if err != nil {
				return nil, err
			}
			results = append(results, search.ScoredDocument{Document: f, Similarity: similarity})
		}
		return results, rows.Err()
	case search.CorpusRoadmap:
		rows, err := s.DB.QueryContext(ctx, `
SELECT `+roadmapColumns+`, 1 - (embedding <=> $1::vector) AS similarity
FROM roadmaps
WHERE is_published = TRUE
  AND embedding IS NOT NULL
  AND 1 - (embedding <=> $1::vector) >= $2
ORDER BY embedding <=> $1::vector
LIMIT $3
`, vecLiteral, threshold, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var results []search.ScoredDocument
		for rows.Next() {
			g, similarity, err := scanScoredRoadmap(rows)
			if err != nil {
				return nil, err
			}
			results = append(results, search.ScoredDocument{Document: g, Similarity: similarity})
		}
		return results, rows.Err()
	default:
		return nil, fmt.Errorf("unknown corpus %q", corpus)
	}
}

// RecentTurns returns up to limit turns of a session in chronological
// order. The fetch is most-recent-first, then reversed.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT session_id, role, content, language, created_at
FROM conversations
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		if err := rows.Scan(&t.SessionID, &t.Role, &t.Content, &t.Language, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendTurn persists one conversation turn.
func (s *Store) AppendTurn(ctx context.Context, turn chat.Turn) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO conversations (session_id, role, content, language, created_at)
VALUES ($1,$2,$3,$4,NOW())
`, turn.SessionID, turn.Role, turn.Content, turn.Language)
	return err
}

// FAQsMissingEmbedding returns active FAQs awaiting backfill.
func (s *Store) FAQsMissingEmbedding(ctx context.Context, limit int) ([]search.FAQ, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+faqColumns+` FROM faq WHERE embedding IS NULL AND is_active = TRUE LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []search.FAQ
	for rows.Next() {
		f, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

// RoadmapsMissingEmbedding returns published guides awaiting backfill.
func (s *Store) RoadmapsMissingEmbedding(ctx context.Context, limit int) ([]search.RoadmapGuide, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+roadmapColumns+` FROM roadmaps WHERE embedding IS NULL AND is_published = TRUE LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []search.RoadmapGuide
	for rows.Next() {
		g, err := scanRoadmap(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// UpdateFAQEmbedding stores a backfilled vector for one FAQ.
func (s *Store) UpdateFAQEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `UPDATE faq SET embedding = $2::vector WHERE id = $1`, id, vecLiteral)
	return err
}

// UpdateRoadmapEmbedding stores a backfilled vector for one guide.
func (s *Store) UpdateRoadmapEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `UPDATE roadmaps SET embedding = $2::vector WHERE id = $1`, id, vecLiteral)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFAQ(row scanner) (search.FAQ, error) {
	var f search.FAQ
	var embedding sql.NullString
	if err := row.Scan(&f.ID, &f.QuestionAr, &f.QuestionEn, &f.AnswerAr, &f.AnswerEn, &f.Category, &f.Active, &embedding); err != nil {
		return search.FAQ{}, err
	}
	if embedding.Valid {
		vec, err := decodeVectorLiteral(embedding.String)
		if err != nil {
			return search.FAQ{}, err
		}
		f.Embedding = vec
	}
	return f, nil
}

func scanScoredFAQ(row scanner) (search.FAQ, float64, error) {
	var f search.FAQ
	var embedding sql.NullString
	var similarity float64
	if err := row.Scan(&f.ID, &f.QuestionAr, &f.QuestionEn, &f.AnswerAr, &f.AnswerEn, &f.Category, &f.Active, &embedding, &similarity); err != nil {
		return search.FAQ{}, 0, err
	}
	if embedding.Valid {
		vec, err := decodeVectorLiteral(embedding.String)
		if err != nil {
			return search.FAQ{}, 0, err
		}
		f.Embedding = vec
	}
	return f, similarity, nil
}

func scanRoadmap(row scanner) (search.RoadmapGuide, error) {
	var g search.RoadmapGuide
	var embedding sql.NullString
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Category, &g.URL, &g.Slug, &g.Published, &embedding); err != nil {
		return search.RoadmapGuide{}, err
	}
	if embedding.Valid {
		vec, err := decodeVectorLiteral(embedding.String)
		if err != nil {
			return search.RoadmapGuide{}, err
		}
		g.Embedding = vec
	}
	return g, nil
}

func scanScoredRoadmap(row scanner) (search.RoadmapGuide, float64, error) {
	var g search.RoadmapGuide
	var embedding sql.NullString
	var similarity float64
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Category, &g.URL, &g.Slug, &g.Published, &embedding, &similarity); err != nil {
		return search.RoadmapGuide{}, 0, err
	}
	if embedding.Valid {
		vec, err := decodeVectorLiteral(embedding.String)
		if err != nil {
			return search.RoadmapGuide{}, 0, err
		}
		g.Embedding = vec
	}
	return g, similarity, nil
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if lit == "" {
		return nil, fmt.Errorf("empty vector literal")
	}
	lit = strings.TrimPrefix(lit, "[")
	lit = strings.TrimSuffix(lit, "]")
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector value %q: %w", value, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}
