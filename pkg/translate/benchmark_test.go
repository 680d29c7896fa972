package translate

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/japaniel/conlang/pkg/db"
	_ "github.com/mattn/go-sqlite3"
)

func setupBenchmarkDB(b *testing.B) *sql.DB {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		b.Fatalf("failed to open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	_, _ = conn.Exec("PRAGMA synchronous = OFF")
	_, _ = conn.Exec("PRAGMA journal_mode = MEMORY")
	if err := db.InitDB(conn); err != nil {
		b.Fatalf("failed to init db: %v", err)
	}
	return conn
}

func benchmarkSentences(n int) []string {
	words := []string{"the", "old", "tree", "stood", "at", "forest", "edge", "while", "leaves", "fell"}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %s %s number %d.", words[i%len(words)], words[(i+3)%len(words)], words[(i+7)%len(words)], i)
	}
	return out
}

func BenchmarkTranslate(b *testing.B) {
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			sentences := benchmarkSentences(500)
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				conn := setupBenchmarkDB(b)
				lang := tinyLang(b)
				langID, err := db.CreateOrGetLanguage(conn, lang.Name, "")
				if err != nil {
					b.Fatal(err)
				}
				sourceID, err := db.CreateOrGetSource(conn, "bench", fmt.Sprint(i), "", "", "http://bench", "")
				if err != nil {
					b.Fatal(err)
				}
				tr := &Translator{DB: conn, Language: lang, LanguageID: langID, Workers: workers, BatchSize: 100}
				b.StartTimer()

				if _, err := tr.Translate(context.Background(), sourceID, sentences); err != nil {
					b.Fatal(err)
				}

				b.StopTimer()
				conn.Close()
				b.StartTimer()
			}
		})
	}
}
