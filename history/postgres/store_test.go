package postgres

import (
	"os"
	"testing"

	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/history/historytest"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PDFRAG_TEST_POSTGRES_DSN")
	if len(dsn) == 0 {
		t.Skip("PDFRAG_TEST_POSTGRES_DSN not set")
	}

	historytest.Run(t, NewStore(history.WithLocation(dsn)))
}
