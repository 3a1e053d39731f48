// Package pdfsplit cuts a scanned PDF into the segments suggested by the engine.
package pdfsplit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/naming"
)

// Split errors.
var (
	ErrNoSegments     = errors.New("no segments to split")
	ErrPageOutOfRange = errors.New("segment page range outside the PDF")
	ErrOverlap        = errors.New("segments overlap")
)

var disableConfigDir sync.Once

// Output is one written segment file.
type Output struct {
	SegmentID string `json:"segmentId"`
	Path      string `json:"path"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
}

// Splitter writes page ranges of a PDF to separate files.
type Splitter struct {
	conf   *pdfmodel.Configuration
	logger *slog.Logger
}

// New creates a Splitter. pdfcpu's on-disk configuration directory is never used.
func New(logger *slog.Logger) *Splitter {
	disableConfigDir.Do(func() {
		pdfmodel.ConfigPath = "disable"
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{
		conf:   pdfmodel.NewDefaultConfiguration(),
		logger: logger,
	}
}

// PageCount returns the number of pages in the PDF at path.
func (s *Splitter) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}
	return n, nil
}

// Split writes one file per segment into outDir, named by the segment's
// suggested file name. Segments must lie within the PDF and must not overlap.
func (s *Splitter) Split(ctx context.Context, inPath, outDir string, segments []model.SegmentDescriptor) ([]Output, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	pageCount, err := s.PageCount(inPath)
	if err != nil {
		return nil, err
	}
	ordered, err := checkSegments(segments, pageCount)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	taken, err := existingNames(outDir)
	if err != nil {
		return nil, err
	}
	outputs := make([]Output, 0, len(ordered))
	for _, seg := range ordered {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		name := seg.SuggestedFileName
		if name == "" {
			name = seg.ID + naming.DefaultExtension
		}
		name = naming.UniqueName(name, taken)

		outPath := filepath.Join(outDir, name)
		if err := api.TrimFile(inPath, outPath, []string{pageSelection(seg.StartPage, seg.EndPage)}, s.conf); err != nil {
			return outputs, fmt.Errorf("failed to write segment %s: %w", seg.ID, err)
		}

		s.logger.Debug("wrote segment", "segment", seg.ID, "pages", pageSelection(seg.StartPage, seg.EndPage), "path", outPath)
		outputs = append(outputs, Output{
			SegmentID: seg.ID,
			Path:      outPath,
			StartPage: seg.StartPage,
			EndPage:   seg.EndPage,
		})
	}

	s.logger.Info("split document", "input", inPath, "segments", len(outputs))
	return outputs, nil
}

// existingNames lists files already in dir so segments never overwrite them.
func existingNames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}
	taken := make(map[string]bool, len(entries))
	for _, e := range entries {
		taken[e.Name()] = true
	}
	return taken, nil
}

func checkSegments(segments []model.SegmentDescriptor, pageCount int) ([]model.SegmentDescriptor, error) {
	ordered := make([]model.SegmentDescriptor, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartPage < ordered[j].StartPage
	})

	prevEnd := 0
	for _, seg := range ordered {
		if seg.StartPage < 1 || seg.EndPage < seg.StartPage || seg.EndPage > pageCount {
			return nil, fmt.Errorf("%w: %s covers %d-%d of %d pages", ErrPageOutOfRange, seg.ID, seg.StartPage, seg.EndPage, pageCount)
		}
		if seg.StartPage <= prevEnd {
			return nil, fmt.Errorf("%w: %s starts at page %d", ErrOverlap, seg.ID, seg.StartPage)
		}
		prevEnd = seg.EndPage
	}
	return ordered, nil
}

func pageSelection(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}
