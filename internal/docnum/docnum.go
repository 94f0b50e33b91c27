// Package docnum assigns year-scoped document numbers to quotations,
// invoices, purchase orders and credit notes. Each (doc type, year) pair has
// its own counter row; the increment is a single atomic upsert, so numbers
// are unique, strictly increasing and gapless even under concurrent
// creation.
package docnum

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DocType identifies a numbered document family.
type DocType string

const (
	DocQuotation     DocType = "QT"
	DocInvoice       DocType = "INV"
	DocPurchaseOrder DocType = "PO"
	DocCreditNote    DocType = "CN"
)

type layout struct {
	// prefix renders everything before the zero-padded counter.
	prefix func(year int) string
	width  int
}

var layouts = map[DocType]layout{
	DocQuotation: {
		prefix: func(year int) string { return fmt.Sprintf("CURV-QT-%02d", year%100) },
		width:  5,
	},
	DocPurchaseOrder: {
		prefix: func(year int) string { return fmt.Sprintf("CURV-PO-%02d", year%100) },
		width:  5,
	},
	DocInvoice: {
		prefix: func(year int) string { return fmt.Sprintf("CURV-%04d", year) },
		width:  3,
	},
	DocCreditNote: {
		prefix: func(year int) string { return fmt.Sprintf("CN-%04d", year) },
		width:  3,
	},
}

// Format renders a document number for a given counter value.
func Format(t DocType, year int, seq int64) (string, error) {
	l, ok := layouts[t]
	if !ok {
		return "", fmt.Errorf("docnum: unknown doc type %q", t)
	}
	return fmt.Sprintf("%s%0*d", l.prefix(year), l.width, seq), nil
}

// ParseSeq recovers the counter value from a document number. The prefix
// renders to a fixed length for every year, so everything past it is the
// counter; that keeps numbers parseable after the counter outgrows its
// zero padding.
func ParseSeq(t DocType, number string) (int64, error) {
	l, ok := layouts[t]
	if !ok {
		return 0, fmt.Errorf("docnum: unknown doc type %q", t)
	}
	prefixLen := len(l.prefix(0))
	if len(number) <= prefixLen {
		return 0, fmt.Errorf("docnum: number %q too short for type %q", number, t)
	}
	seq, err := strconv.ParseInt(number[prefixLen:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("docnum: parse suffix of %q: %w", number, err)
	}
	return seq, nil
}

// Prefix returns the year-scoped prefix for a doc type, as used in
// uniqueness checks and listings.
func Prefix(t DocType, year int) (string, error) {
	l, ok := layouts[t]
	if !ok {
		return "", fmt.Errorf("docnum: unknown doc type %q", t)
	}
	return l.prefix(year), nil
}

// IsFor reports whether a number belongs to a doc type and year, by prefix.
func IsFor(t DocType, year int, number string) bool {
	prefix, err := Prefix(t, year)
	if err != nil {
		return false
	}
	return strings.HasPrefix(number, prefix)
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so a number can be
// claimed inside the same transaction that persists the document.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Generator hands out document numbers backed by the document_sequences
// table.
type Generator struct {
	db Querier
}

// NewGenerator constructs a Generator.
func NewGenerator(db Querier) *Generator {
	return &Generator{db: db}
}

// WithQuerier returns a Generator bound to a different querier, typically a
// transaction.
func (g *Generator) WithQuerier(db Querier) *Generator {
	return &Generator{db: db}
}

// Next claims the next number for a doc type in the year of the given time.
// The upsert bumps the counter and returns it in one round trip; two
// concurrent callers can never observe the same value.
func (g *Generator) Next(ctx context.Context, t DocType, at time.Time) (string, error) {
	if _, ok := layouts[t]; !ok {
		return "", fmt.Errorf("docnum: unknown doc type %q", t)
	}
	year := at.Year()
	var seq int64
	err := g.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, year, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, string(t), year).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("docnum: next %s/%d: %w", t, year, err)
	}
	return Format(t, year, seq)
}

// Seed provisions a starting counter for a (doc type, year) pair, used for
// the historical transition year whose invoice numbering did not begin at 1.
// Seeding an existing pair is a no-op.
func (g *Generator) Seed(ctx context.Context, t DocType, year int, seed int64) error {
	if _, ok := layouts[t]; !ok {
		return fmt.Errorf("docnum: unknown doc type %q", t)
	}
	_, err := g.db.Exec(ctx, `
		INSERT INTO document_sequences (doc_type, year, seq)
		VALUES ($1, $2, $3)
		ON CONFLICT (doc_type, year) DO NOTHING
	`, string(t), year, seed)
	if err != nil {
		return fmt.Errorf("docnum: seed %s/%d: %w", t, year, err)
	}
	return nil
}
