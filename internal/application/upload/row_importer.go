package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
)

type entityWriter interface {
	Insert(ctx context.Context, record crm.Record) (int64, error)
}

type naturalKeyLookup interface {
	ExistingKeys(ctx context.Context, kind crm.Kind, keys []string) (map[string]struct{}, error)
}

// ImportSession validates and persists the rows of one upload. It remembers
// the natural keys it has written so duplicates inside the file are caught.
type ImportSession interface {
	// Prepare is called once per batch before its rows are imported.
	Prepare(ctx context.Context, rows []crm.Row) error
	// Import returns the stored id, a *crm.ValidationError for a rejected
	// row, or any other error for a fault that should stop the run.
	Import(ctx context.Context, row crm.Row) (int64, error)
}

type RowImporter interface {
	Begin(schema crm.Schema) ImportSession
}

type rowImporter struct {
	writer entityWriter
	lookup naturalKeyLookup
}

// NewRowImporter builds an importer over writer. lookup may be nil, in which
// case duplicates against stored rows surface from the writer alone.
func NewRowImporter(writer entityWriter, lookup naturalKeyLookup) RowImporter {
	return &rowImporter{writer: writer, lookup: lookup}
}

func (i *rowImporter) Begin(schema crm.Schema) ImportSession {
	return &importSession{
		importer: i,
		schema:   schema,
		seen:     make(map[string]struct{}),
		existing: make(map[string]struct{}),
	}
}

type importSession struct {
	importer *rowImporter
	schema   crm.Schema
	seen     map[string]struct{}
	existing map[string]struct{}
}

func (s *importSession) Prepare(ctx context.Context, rows []crm.Row) error {
	if s.schema.NaturalKey == "" || s.importer.lookup == nil {
		return nil
	}

	keys := make([]string, 0, len(rows))
	unique := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := crm.NaturalKey(row.Cells[s.schema.NaturalKey])
		if key == "" {
			continue
		}
		if _, ok := unique[key]; ok {
			continue
		}
		unique[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}

	existing, err := s.importer.lookup.ExistingKeys(ctx, s.schema.Kind, keys)
	if err != nil {
		return fmt.Errorf("preload existing keys: %w", err)
	}
	for key := range existing {
		s.existing[key] = struct{}{}
	}
	return nil
}

func (s *importSession) Import(ctx context.Context, row crm.Row) (int64, error) {
	record, err := s.schema.Validate(row)
	if err != nil {
		return 0, err
	}

	key := s.schema.Key(record)
	if key != "" {
		if _, ok := s.seen[key]; ok {
			return 0, s.reject(row, inFileDuplicate(s.schema.NaturalKey))
		}
		if _, ok := s.existing[key]; ok {
			return 0, s.reject(row, storedDuplicate(s.schema.NaturalKey))
		}
	}

	id, err := s.importer.writer.Insert(ctx, record)
	if err != nil {
		if errors.Is(err, crm.ErrDuplicateKey) {
			return 0, s.reject(row, storedDuplicate(s.schema.NaturalKey))
		}
		return 0, err
	}

	if key != "" {
		s.seen[key] = struct{}{}
	}
	return id, nil
}

func (s *importSession) reject(row crm.Row, reason string) error {
	data := make(map[string]string, len(row.Cells))
	for k, v := range row.Cells {
		data[k] = v
	}
	return &crm.ValidationError{Row: row.Number, Reason: reason, Data: data}
}

func inFileDuplicate(column string) string {
	if column == "email" {
		return "Duplicate email within uploaded file"
	}
	return fmt.Sprintf("Duplicate %s within uploaded file", label(column))
}

func storedDuplicate(column string) string {
	if column == "email" {
		return "Email already exists in database"
	}
	return fmt.Sprintf("%s already exists in database", capitalize(label(column)))
}

func label(column string) string {
	if column == "name" {
		return "account name"
	}
	return strings.ReplaceAll(column, "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
