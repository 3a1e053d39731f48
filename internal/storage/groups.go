package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/docmeta/internal/group"
	"github.com/Veraticus/docmeta/internal/model"
)

// ListGroups aggregates the stored records by kind. The care manager of a record
// is the care manager id of its customer master.
func (s *SQLiteStorage) ListGroups(ctx context.Context, kind group.Kind) ([]group.Group, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if _, err := group.ParseKind(string(kind)); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.document_id, r.file_name, r.document_type, r.customer_name, r.office_name,
			COALESCE(m.care_manager_id, ''), r.processed_at, r.updated_at
		FROM extraction_records r
		LEFT JOIN masters m ON m.kind = ? AND m.id = r.customer_id AND r.customer_id != ''`,
		string(model.KindCustomer))
	if err != nil {
		return nil, fmt.Errorf("failed to query records for groups: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []group.Item
	for rows.Next() {
		var it group.Item
		var processedAt sql.NullTime
		if err := rows.Scan(&it.ID, &it.FileName, &it.DocumentType, &it.Customer, &it.Office,
			&it.CareManager, &processedAt, &it.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if processedAt.Valid {
			it.ProcessedAt = processedAt.Time
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return group.Aggregate(kind, items), nil
}
