package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// CreateOrGetLanguage returns the id of the named language, inserting it when
// missing. A non-empty definitionHash replaces the stored one.
func CreateOrGetLanguage(db DBExecutor, name, definitionHash string) (int64, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return 0, fmt.Errorf("language name must be non-empty")
	}
	var id int64
	err := db.QueryRow(`INSERT INTO languages (name, definition_hash) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
		  definition_hash = COALESCE(NULLIF(excluded.definition_hash, ''), languages.definition_hash)
		RETURNING id`, trimmed, definitionHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert language: %w", err)
	}
	return id, nil
}

// GetLanguage looks a language up by name.
func GetLanguage(db DBExecutor, name string) (Language, error) {
	var l Language
	var added sql.NullTime
	err := db.QueryRow(`SELECT id, name, definition_hash, added_at FROM languages WHERE name = ?`,
		strings.TrimSpace(name)).Scan(&l.ID, &l.Name, &l.DefinitionHash, &added)
	if err != nil {
		return Language{}, err
	}
	if added.Valid {
		l.AddedAt = added.Time
	}
	return l, nil
}

// UpsertVocabulary records a generated word. The word is stored lowercased.
// An existing entry keeps its output and gains incrementAmount occurrences.
func UpsertVocabulary(db DBExecutor, languageID int64, word, output string, incrementAmount int) error {
	if languageID <= 0 {
		return fmt.Errorf("languageID must be positive")
	}
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return fmt.Errorf("word must be non-empty")
	}
	if incrementAmount < 1 {
		return fmt.Errorf("incrementAmount must be positive, got %d", incrementAmount)
	}
	_, err := db.Exec(`INSERT INTO vocabulary (language_id, word, output, occurrence_count, first_seen_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(language_id, word) DO UPDATE SET
		  occurrence_count = vocabulary.occurrence_count + excluded.occurrence_count`,
		languageID, key, output, incrementAmount, time.Now())
	if err != nil {
		return fmt.Errorf("upsert vocabulary: %w", err)
	}
	return nil
}

// ListVocabulary returns the vocabulary of a language, most frequent first.
func ListVocabulary(db DBExecutor, languageID int64) ([]VocabularyEntry, error) {
	rows, err := db.Query(`SELECT id, language_id, word, output, occurrence_count, first_seen_at
		FROM vocabulary WHERE language_id = ? ORDER BY occurrence_count DESC, word`, languageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VocabularyEntry
	for rows.Next() {
		var v VocabularyEntry
		var seen sql.NullTime
		if err := rows.Scan(&v.ID, &v.LanguageID, &v.Word, &v.Output, &v.OccurrenceCount, &seen); err != nil {
			return nil, err
		}
		if seen.Valid {
			v.FirstSeenAt = seen.Time
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadVocabulary returns the stored vocabulary as a word to output map.
func LoadVocabulary(db DBExecutor, languageID int64) (map[string]string, error) {
	entries, err := ListVocabulary(db, languageID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Word] = e.Output
	}
	return out, nil
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, sourceType, title, author, website, url, meta string) (int64, error) {
	trimmedSourceType := strings.TrimSpace(sourceType)
	if trimmedSourceType == "" {
		return 0, fmt.Errorf("sourceType must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		// First, try to find an existing source.
		err := db.QueryRow(
			`SELECT id FROM sources WHERE IFNULL(url, '') = ? AND IFNULL(title, '') = ? AND IFNULL(author, '') = ?`,
			url, title, author,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		res, err := db.Exec(
			`INSERT INTO sources (source_type, title, author, website, url, meta) VALUES (?, ?, ?, ?, ?, ?)`,
			trimmedSourceType, title, author, website, url, meta,
		)
		if err != nil {
			// Another writer inserted the same source; retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}
		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

// getOrCreateSentence returns the id of the stored sentence text, or 0 for
// blank text.
func getOrCreateSentence(db DBExecutor, text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, nil
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err == nil {
		return id, nil
	} else if err != sql.ErrNoRows {
		return 0, err
	}
	// Insert if missing (concurrent-safe via UNIQUE constraint)
	if _, err := db.Exec(`INSERT OR IGNORE INTO sentences (text) VALUES (?)`, trimmed); err != nil {
		return 0, err
	}
	if err := db.QueryRow(`SELECT id FROM sentences WHERE text = ?`, trimmed).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// nullableInt64 returns nil for 0 (meaning no row) else the value.
func nullableInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// StartRun records the start of a translation pass and returns its id.
func StartRun(db DBExecutor, languageID, sourceID int64) (string, error) {
	if languageID <= 0 {
		return "", fmt.Errorf("languageID must be positive")
	}
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO runs (id, language_id, source_id, started_at) VALUES (?, ?, ?, ?)`,
		id, languageID, nullableInt64(sourceID), time.Now())
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps a run with its totals.
func FinishRun(db DBExecutor, runID string, sentences, errCount int) error {
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("run id %q: %w", runID, err)
	}
	res, err := db.Exec(`UPDATE runs SET finished_at = ?, sentence_count = ?, error_count = ? WHERE id = ?`,
		time.Now(), sentences, errCount, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// GetRun loads a run by id.
func GetRun(db DBExecutor, runID string) (Run, error) {
	var r Run
	var source sql.NullInt64
	var finished sql.NullTime
	err := db.QueryRow(`SELECT id, language_id, source_id, started_at, finished_at, sentence_count, error_count
		FROM runs WHERE id = ?`, runID).Scan(&r.ID, &r.LanguageID, &source, &r.StartedAt, &finished, &r.Sentences, &r.Errors)
	if err != nil {
		return Run{}, err
	}
	if source.Valid {
		r.SourceID = source.Int64
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, nil
}

// SaveTranslation stores a generated sentence, replacing any earlier output
// for the same source, language and sentence index.
func SaveTranslation(db DBExecutor, t Translation) error {
	if t.SourceID <= 0 {
		return fmt.Errorf("sourceID must be positive")
	}
	if t.LanguageID <= 0 {
		return fmt.Errorf("languageID must be positive")
	}
	if t.SentenceIndex < 0 {
		return fmt.Errorf("sentence index must be non-negative, got %d", t.SentenceIndex)
	}
	sentenceID, err := getOrCreateSentence(db, t.Input)
	if err != nil {
		return fmt.Errorf("get/create sentence: %w", err)
	}
	_, err = db.Exec(`INSERT INTO translations (run_id, source_id, language_id, sentence_index, sentence_id, output, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, language_id, sentence_index) DO UPDATE SET
		  run_id = excluded.run_id,
		  sentence_id = excluded.sentence_id,
		  output = excluded.output,
		  error_count = excluded.error_count`,
		nullableString(t.RunID), t.SourceID, t.LanguageID, t.SentenceIndex, nullableInt64(sentenceID), t.Output, t.ErrorCount)
	if err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return nil
}

// GetTranslations returns the translations of a source in sentence order.
func GetTranslations(db DBExecutor, sourceID, languageID int64) ([]Translation, error) {
	rows, err := db.Query(`SELECT t.id, t.run_id, t.source_id, t.language_id, t.sentence_index, s.text, t.output, t.error_count
		FROM translations t LEFT JOIN sentences s ON s.id = t.sentence_id
		WHERE t.source_id = ? AND t.language_id = ?
		ORDER BY t.sentence_index`, sourceID, languageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Translation
	for rows.Next() {
		var t Translation
		var run, input sql.NullString
		if err := rows.Scan(&t.ID, &run, &t.SourceID, &t.LanguageID, &t.SentenceIndex, &input, &t.Output, &t.ErrorCount); err != nil {
			return nil, err
		}
		if run.Valid {
			t.RunID = run.String
		}
		if input.Valid {
			t.Input = input.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSourceProgress returns how many sentences of a source have been
// translated into a language. A source never translated reports 0.
func GetSourceProgress(db DBExecutor, sourceID, languageID int64) (int, error) {
	var index int
	err := db.QueryRow(`SELECT last_processed_sentence FROM source_progress WHERE source_id = ? AND language_id = ?`,
		sourceID, languageID).Scan(&index)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateSourceProgress records the number of translated sentences.
func UpdateSourceProgress(db DBExecutor, sourceID, languageID int64, index int) error {
	_, err := db.Exec(`INSERT INTO source_progress (source_id, language_id, last_processed_sentence) VALUES (?, ?, ?)
		ON CONFLICT(source_id, language_id) DO UPDATE SET last_processed_sentence = excluded.last_processed_sentence`,
		sourceID, languageID, index)
	return err
}
