package model

import (
	"sort"
	"time"
)

// DateLayout is the compact date format used in file names.
const DateLayout = "20060102"

// DateCandidate is one date-like substring found in OCR text.
type DateCandidate struct {
	Date       time.Time `json:"date"`
	Source     string    `json:"source"`
	Pattern    string    `json:"pattern"`
	Confidence int       `json:"confidence"`
}

// DateCandidates sorts by confidence, highest first.
type DateCandidates []DateCandidate

// Len implements sort.Interface.
func (d DateCandidates) Len() int {
	return len(d)
}

// Less implements sort.Interface.
func (d DateCandidates) Less(i, j int) bool {
	if d[i].Confidence != d[j].Confidence {
		return d[i].Confidence > d[j].Confidence
	}
	return d[i].Date.Before(d[j].Date)
}

// Swap implements sort.Interface.
func (d DateCandidates) Swap(i, j int) {
	d[i], d[j] = d[j], d[i]
}

// Sort orders candidates by confidence.
func (d DateCandidates) Sort() {
	sort.Stable(d)
}
