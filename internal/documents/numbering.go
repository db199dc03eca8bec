// Package documents holds the pieces shared by every numbered document:
// sequential human-readable numbering and line-item total computation.
package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Type identifies a numbered document kind by its prefix.
type Type string

const (
	TypeQuote        Type = "Q"
	TypeInvoice      Type = "INV"
	TypeDeliveryNote Type = "DN"
)

// RowQuerier is the slice of pgx.Tx the number generator needs. Passing the
// creating transaction keeps number reservation and document insert atomic.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextNumber reserves the next sequence for the document type in the year of
// now and returns the formatted number. The upsert increments atomically, so
// two concurrent creations can never observe the same sequence value.
func NextNumber(ctx context.Context, q RowQuerier, docType Type, now time.Time) (string, error) {
	year := now.Year()
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, year, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, string(docType), year).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("documents: next number for %s: %w", docType, err)
	}
	return FormatNumber(docType, year, seq), nil
}

// FormatNumber renders a document number as <PREFIX><year>-<4-digit seq>.
func FormatNumber(docType Type, year int, seq int64) string {
	return fmt.Sprintf("%s%d-%04d", docType, year, seq)
}
