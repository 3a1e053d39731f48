package engine

import (
	"context"

	"github.com/Veraticus/docmeta/internal/model"
)

// MasterSource supplies the master lists for an extraction run.
type MasterSource interface {
	LoadMasters(ctx context.Context) (model.MasterSet, error)
}

// ResultWriter receives finished extraction results, e.g. a review sheet or a
// workbook.
type ResultWriter interface {
	WriteResults(ctx context.Context, results []*Result) error
}
