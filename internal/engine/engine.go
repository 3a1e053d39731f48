// Package engine runs the full metadata extraction over one scanned file: page
// matching, cross-page aggregation, date selection, file naming, split analysis
// and search tokens.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/docmeta/internal/aggregate"
	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/dates"
	"github.com/Veraticus/docmeta/internal/matcher"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/naming"
	"github.com/Veraticus/docmeta/internal/search"
	"github.com/Veraticus/docmeta/internal/segment"
)

// DefaultWorkers bounds the pages matched concurrently.
const DefaultWorkers = 4

// Config holds configuration options for the extraction engine.
type Config struct {
	// Now anchors date validation and selection. Zero means the wall clock at
	// each call.
	Now        time.Time
	DateMarker string
	Extension  string
	Document   matcher.Profile
	Office     matcher.Profile
	Customer   matcher.Profile
	Workers    int
	// MinSplitConfidence is the mean change confidence that suggests a split.
	MinSplitConfidence int
	MaxFileNameLength  int
	MaxCustomerNames   int
	MaxDateCandidates  int
	// AppendDocumentID adds the document id prefix to suggested file names.
	AppendDocumentID bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Document:           matcher.DocumentProfile(),
		Office:             matcher.OfficeProfile(),
		Customer:           matcher.CustomerProfile(),
		Workers:            DefaultWorkers,
		Extension:          naming.DefaultExtension,
		MinSplitConfidence: segment.DefaultMinConfidence,
		MaxFileNameLength:  naming.DefaultMaxLength,
		MaxCustomerNames:   naming.MaxCustomerNames,
		MaxDateCandidates:  dates.DefaultMaxCandidates,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", common.ErrInvalidConfig, c.Workers)
	}
	if c.MinSplitConfidence < 0 || c.MinSplitConfidence > 100 {
		return fmt.Errorf("%w: split confidence must be between 0 and 100, got %d", common.ErrInvalidConfig, c.MinSplitConfidence)
	}
	if c.MaxFileNameLength < 0 || c.MaxCustomerNames < 0 || c.MaxDateCandidates < 0 {
		return fmt.Errorf("%w: limits must not be negative", common.ErrInvalidConfig)
	}
	for _, p := range []matcher.Profile{c.Document, c.Office, c.Customer} {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %s profile: %w", common.ErrInvalidConfig, p.Kind, err)
		}
	}
	return nil
}

// Document is one scanned file as delivered by OCR.
type Document struct {
	ID       string       `json:"documentId"`
	FileName string       `json:"fileName"`
	Pages    []model.Page `json:"pages"`
}

// Engine orchestrates extraction. It holds no per-document state and is safe for
// concurrent use.
type Engine struct {
	matchers map[model.EntityKind]*matcher.Matcher
	dates    *dates.Extractor
	logger   *slog.Logger
	config   Config
}

// New creates an engine. A nil logger discards log output.
func New(config Config, logger *slog.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = common.DiscardLogger()
	}

	return &Engine{
		matchers: map[model.EntityKind]*matcher.Matcher{
			model.KindDocument: matcher.New(config.Document),
			model.KindOffice:   matcher.New(config.Office),
			model.KindCustomer: matcher.New(config.Customer),
		},
		dates:  dates.Default(),
		logger: logger,
		config: config,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) now() time.Time {
	if e.config.Now.IsZero() {
		return time.Now()
	}
	return e.config.Now
}

// ExtractPage matches one page against the masters and extracts its dates.
func (e *Engine) ExtractPage(page model.Page, masters model.MasterSet, hint *matcher.FileNameHint) model.PageExtraction {
	opts := matcher.Options{FileHint: hint, PageNumber: page.PageNumber}
	return model.PageExtraction{
		PageNumber: page.PageNumber,
		Documents:  e.matchers[model.KindDocument].Match(page.Text, masters.Documents, opts),
		Offices:    e.matchers[model.KindOffice].Match(page.Text, masters.Offices, opts),
		Customers:  e.matchers[model.KindCustomer].Match(page.Text, masters.Customers, opts),
		Dates: e.dates.Extract(page.Text, dates.Options{
			Now:           e.now(),
			MaxCandidates: e.config.MaxDateCandidates,
		}),
	}
}

// Extract processes every page of doc concurrently and folds the page results
// once all pages are done. Malformed page sets are rejected with
// common.ErrNoPages, common.ErrInvalidPage, common.ErrDuplicatePage or
// common.ErrPageGap.
func (e *Engine) Extract(ctx context.Context, doc Document, masters model.MasterSet) (*Result, error) {
	if err := ValidatePages(doc.Pages); err != nil {
		return nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}

	start := time.Now()
	now := e.now()
	var hint *matcher.FileNameHint
	if doc.FileName != "" {
		h := matcher.ParseFileNameHint(doc.FileName)
		hint = &h
	}

	extractions := make([]model.PageExtraction, len(doc.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for i := range doc.Pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			extractions[i] = e.ExtractPage(doc.Pages[i], masters, hint)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract document %s: %w", doc.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract document %s: %w", doc.ID, err)
	}

	sort.Slice(extractions, func(i, j int) bool {
		return extractions[i].PageNumber < extractions[j].PageNumber
	})

	result := e.fold(doc, extractions, masters, now)

	e.logger.Debug("Extracted document",
		"document_id", doc.ID,
		"pages", len(doc.Pages),
		"document_type", result.Documents.BestName(),
		"office", result.Offices.BestName(),
		"customer", result.Customers.BestName(),
		"needs_review", result.NeedsReview(),
		"duration", time.Since(start))

	return result, nil
}

func (e *Engine) fold(doc Document, extractions []model.PageExtraction, masters model.MasterSet, now time.Time) *Result {
	texts := make(map[int]string, len(doc.Pages))
	ordered := make([]string, 0, len(doc.Pages))
	for _, p := range sortedPages(doc.Pages) {
		texts[p.PageNumber] = p.Text
		ordered = append(ordered, p.Text)
	}

	result := &Result{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		PageCount:  len(doc.Pages),
		Pages:      extractions,
		Documents:  aggregate.Aggregate(aggregate.FromPages(extractions, model.KindDocument)),
		Offices:    aggregate.Aggregate(aggregate.FromPages(extractions, model.KindOffice)),
		Customers:  aggregate.Aggregate(aggregate.FromPages(extractions, model.KindCustomer)),
	}

	pageDates := make([][]model.DateCandidate, 0, len(extractions))
	for i := range extractions {
		pageDates = append(pageDates, extractions[i].Dates)
	}
	result.DateCandidates = dates.Merge(pageDates...)
	result.Date = dates.Select(result.DateCandidates, e.config.DateMarker, strings.Join(ordered, "\n"), now)

	attrs := masters.CustomerAttributes()
	documentID := ""
	if e.config.AppendDocumentID {
		documentID = doc.ID
	}

	var fileDate *time.Time
	if result.Date != nil {
		d := result.Date.Date
		fileDate = &d
	}
	result.SuggestedName = naming.Generate(naming.Options{
		Date:             fileDate,
		DocumentType:     result.Documents.BestName(),
		OfficeName:       result.Offices.BestName(),
		DocumentID:       documentID,
		Extension:        e.config.Extension,
		Customers:        segment.NamedCustomers(result.Customers, attrs),
		MaxLength:        e.config.MaxFileNameLength,
		MaxCustomerNames: e.config.MaxCustomerNames,
	})

	result.Split = segment.Analyze(extractions, segment.Options{
		Now:                now,
		Texts:              texts,
		CustomerAttributes: attrs,
		DateMarker:         e.config.DateMarker,
		DocumentID:         documentID,
		Extension:          e.config.Extension,
		MinConfidence:      e.config.MinSplitConfidence,
		MaxLength:          e.config.MaxFileNameLength,
		MaxCustomerNames:   e.config.MaxCustomerNames,
	})

	result.Tokens = search.DocumentTokens(search.Metadata{
		CustomerName: result.Customers.BestName(),
		OfficeName:   result.Offices.BestName(),
		DocumentType: result.Documents.BestName(),
		FileDate:     fileDate,
		FileName:     result.SuggestedName.FileName,
	})
	result.TokensHash = search.TokensHash(result.Tokens)

	return result
}

// ExtractBatch loads the masters once and extracts every document in order.
// A failing document is logged and skipped; the joined errors are returned with
// the results that succeeded. onDone, when set, is called after each document.
func (e *Engine) ExtractBatch(ctx context.Context, docs []Document, source MasterSource, onDone func(doc Document, result *Result, err error)) ([]*Result, error) {
	masters, err := source.LoadMasters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load masters: %w", err)
	}

	e.logger.Info("Starting extraction",
		"documents", len(docs),
		"document_masters", len(masters.Documents),
		"office_masters", len(masters.Offices),
		"customer_masters", len(masters.Customers))

	results := make([]*Result, 0, len(docs))
	var errs []error
	for _, doc := range docs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = append(errs, ctxErr)
			break
		}

		result, extractErr := e.Extract(ctx, doc, masters)
		if onDone != nil {
			onDone(doc, result, extractErr)
		}
		if extractErr != nil {
			e.logger.Error("Failed to extract document", "document_id", doc.ID, "error", extractErr)
			errs = append(errs, extractErr)
			continue
		}
		results = append(results, result)
	}

	e.logger.Info("Extraction complete",
		"succeeded", len(results),
		"failed", len(errs))

	return results, errors.Join(errs...)
}

// ValidatePages checks that pages are non-empty, numbered from 1 and contiguous
// without duplicates. Order does not matter.
func ValidatePages(pages []model.Page) error {
	if len(pages) == 0 {
		return common.ErrNoPages
	}

	seen := make(map[int]bool, len(pages))
	for i := range pages {
		if err := pages[i].Validate(); err != nil {
			return err
		}
		if seen[pages[i].PageNumber] {
			return fmt.Errorf("%w: %d", common.ErrDuplicatePage, pages[i].PageNumber)
		}
		seen[pages[i].PageNumber] = true
	}

	for n := 1; n <= len(pages); n++ {
		if !seen[n] {
			return fmt.Errorf("%w: page %d is missing", common.ErrPageGap, n)
		}
	}
	return nil
}

func sortedPages(pages []model.Page) []model.Page {
	out := make([]model.Page, len(pages))
	copy(out, pages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PageNumber < out[j].PageNumber
	})
	return out
}
