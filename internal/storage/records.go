package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/docmeta/internal/common"
)

// Record is the stored outcome of one document extraction.
type Record struct {
	UpdatedAt time.Time `json:"updatedAt"`
	// ProcessedAt orders documents within a group. Zero means the time of saving.
	ProcessedAt       time.Time       `json:"processedAt"`
	DocumentID        string          `json:"documentId"`
	FileName          string          `json:"fileName"`
	SuggestedFileName string          `json:"suggestedFileName"`
	TokensHash        string          `json:"tokensHash"`
	DocumentType      string          `json:"documentType"`
	CustomerID        string          `json:"customerId"`
	CustomerName      string          `json:"customerName"`
	OfficeName        string          `json:"officeName"`
	Payload           json.RawMessage `json:"payload"`
	NeedsReview       bool            `json:"needsReview"`
}

const recordColumns = `document_id, file_name, suggested_file_name, tokens_hash, needs_review,
	document_type, customer_id, customer_name, office_name, payload, processed_at, updated_at`

// SaveRecord inserts or replaces the record for a document.
func (s *SQLiteStorage) SaveRecord(ctx context.Context, rec *Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: record", ErrEmptyString)
	}
	if err := validateString(rec.DocumentID, "documentID"); err != nil {
		return err
	}
	payload := rec.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction_records (document_id, file_name, suggested_file_name, tokens_hash, needs_review,
			document_type, customer_id, customer_name, office_name, payload, processed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(document_id) DO UPDATE SET
			file_name = excluded.file_name,
			suggested_file_name = excluded.suggested_file_name,
			tokens_hash = excluded.tokens_hash,
			needs_review = excluded.needs_review,
			document_type = excluded.document_type,
			customer_id = excluded.customer_id,
			customer_name = excluded.customer_name,
			office_name = excluded.office_name,
			payload = excluded.payload,
			processed_at = excluded.processed_at,
			updated_at = CURRENT_TIMESTAMP`,
		rec.DocumentID, rec.FileName, rec.SuggestedFileName, rec.TokensHash, rec.NeedsReview,
		rec.DocumentType, rec.CustomerID, rec.CustomerName, rec.OfficeName, string(payload), processedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.DocumentID, err)
	}
	return nil
}

// GetRecord returns the stored record for a document.
func (s *SQLiteStorage) GetRecord(ctx context.Context, documentID string) (*Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(documentID, "documentID"); err != nil {
		return nil, err
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM extraction_records WHERE document_id = ?`, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", documentID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", documentID, err)
	}
	return rec, nil
}

// ListReviewRecords returns records flagged for manual review, newest first.
func (s *SQLiteStorage) ListReviewRecords(ctx context.Context) ([]*Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM extraction_records WHERE needs_review = 1
		ORDER BY updated_at DESC, document_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query review records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var payload string
	var processedAt sql.NullTime
	if err := row.Scan(&rec.DocumentID, &rec.FileName, &rec.SuggestedFileName, &rec.TokensHash,
		&rec.NeedsReview, &rec.DocumentType, &rec.CustomerID, &rec.CustomerName, &rec.OfficeName,
		&payload, &processedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Payload = json.RawMessage(payload)
	rec.ProcessedAt = rec.UpdatedAt
	if processedAt.Valid {
		rec.ProcessedAt = processedAt.Time
	}
	return &rec, nil
}
