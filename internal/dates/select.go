package dates

import (
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

// MarkerWindow is how many runes after a marker are searched for a date.
const MarkerWindow = 50

// Select picks the most plausible date. A lone candidate is returned as is. When
// marker occurs in reference, the first candidate whose source lies within
// MarkerWindow runes after it wins outright. Otherwise future dates are dropped
// (unless every date is in the future, in which case the nearest one wins) and the
// highest confidence remains, ties going to the year closest to now.
// Select returns nil when there are no candidates.
func Select(candidates []model.DateCandidate, marker, reference string, now time.Time) *model.DateCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		c := candidates[0]
		return &c
	}
	if now.IsZero() {
		now = time.Now()
	}

	if c := nearMarker(candidates, marker, reference); c != nil {
		return c
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var past, future []model.DateCandidate
	for _, c := range candidates {
		if c.Date.After(today) {
			future = append(future, c)
		} else {
			past = append(past, c)
		}
	}

	if len(past) == 0 {
		sort.SliceStable(future, func(i, j int) bool {
			return future[i].Date.Before(future[j].Date)
		})
		c := future[0]
		return &c
	}

	sort.SliceStable(past, func(i, j int) bool {
		if past[i].Confidence != past[j].Confidence {
			return past[i].Confidence > past[j].Confidence
		}
		return yearDistance(past[i].Date, now) < yearDistance(past[j].Date, now)
	})
	c := past[0]
	return &c
}

// nearMarker looks for a candidate right after the marker, in the raw reference and
// in its compact date form.
func nearMarker(candidates []model.DateCandidate, marker, reference string) *model.DateCandidate {
	if marker == "" || reference == "" {
		return nil
	}

	windows := make([]string, 0, 2)
	for _, pair := range [][2]string{
		{reference, marker},
		{textnorm.DateForm(reference), textnorm.DateForm(marker)},
	} {
		if w, ok := windowAfter(pair[0], pair[1]); ok {
			windows = append(windows, w)
		}
	}
	if len(windows) == 0 {
		return nil
	}

	for _, c := range candidates {
		for _, w := range windows {
			if c.Source != "" && strings.Contains(w, c.Source) {
				found := c
				return &found
			}
		}
	}
	return nil
}

func windowAfter(text, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}
	idx := strings.Index(text, marker)
	if idx < 0 {
		return "", false
	}
	rest := []rune(text[idx+len(marker):])
	if len(rest) > MarkerWindow {
		rest = rest[:MarkerWindow]
	}
	return string(rest), true
}

func yearDistance(t, now time.Time) int {
	d := t.Year() - now.Year()
	if d < 0 {
		return -d
	}
	return d
}
