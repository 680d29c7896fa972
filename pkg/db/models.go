package db

import "time"

// Language is a conlang known to the store, keyed by name.
type Language struct {
	ID             int64
	Name           string
	DefinitionHash string
	AddedAt        time.Time
}

// VocabularyEntry is a memoized word translation. The first output seen for
// a word is kept so later runs reuse it.
type VocabularyEntry struct {
	ID              int64
	LanguageID      int64
	Word            string
	Output          string
	OccurrenceCount int
	FirstSeenAt     time.Time
}

// Source is a provenance record for translated text.
type Source struct {
	ID         int64
	SourceType string
	Title      string
	Author     string
	Website    string
	URL        string
	Meta       string
	AddedAt    time.Time
}

// Translation is one generated sentence of a source.
type Translation struct {
	ID            int64
	RunID         string
	SourceID      int64
	LanguageID    int64
	SentenceIndex int
	Input         string
	Output        string
	ErrorCount    int
}

// Run records a single translation pass.
type Run struct {
	ID         string
	LanguageID int64
	SourceID   int64
	StartedAt  time.Time
	FinishedAt time.Time
	Sentences  int
	Errors     int
}
