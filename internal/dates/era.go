// Package dates finds calendar dates in OCR text and picks the most plausible one.
package dates

import (
	"strconv"
	"strings"
)

// InvalidYear is returned by ConvertEra when the era or era year cannot be converted.
const InvalidYear = -1

// Era is a Japanese regnal period.
type Era struct {
	Name   string
	Letter string
	// Offset is added to the era year to get the western year.
	Offset int
	// LastYear is the final era year, or 0 for the current era.
	LastYear int
}

// Eras lists the supported eras, newest first.
var Eras = []Era{
	{Name: "令和", Letter: "R", Offset: 2018},
	{Name: "平成", Letter: "H", Offset: 1988, LastYear: 31},
	{Name: "昭和", Letter: "S", Offset: 1925, LastYear: 64},
	{Name: "大正", Letter: "T", Offset: 1911, LastYear: 15},
}

// LookupEra finds an era by its kanji name or its roman letter (either case).
func LookupEra(name string) (Era, bool) {
	name = strings.TrimSpace(name)
	for _, era := range Eras {
		if name == era.Name || strings.EqualFold(name, era.Letter) {
			return era, true
		}
	}
	return Era{}, false
}

// ConvertEra converts an era year to a western year. It returns InvalidYear for an
// unknown era, an era year below 1, or an era year past the era's end.
func ConvertEra(era string, eraYear int) int {
	e, ok := LookupEra(era)
	if !ok || eraYear < 1 {
		return InvalidYear
	}
	if e.LastYear > 0 && eraYear > e.LastYear {
		return InvalidYear
	}
	return eraYear + e.Offset
}

// parseEraYear reads an era year as written in text, where 元 means the first year.
func parseEraYear(s string) (int, bool) {
	if s == "元" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
