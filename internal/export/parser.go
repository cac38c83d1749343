package export

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column alias tables. Letterboxd's own export names the columns one way;
// exports converted from other catalogs use the alternates. The first alias
// present in a row wins.
var (
	referenceColumns = []string{"Letterboxd URI", "URL"}
	ratingColumns    = []string{"Rating", "Your Rating"}
	titleColumns     = []string{"Name", "Title"}
	yearColumns      = []string{"Year"}
	dateColumns      = []string{"Date", "Watched Date"}
)

const unknownTitle = "Unknown Title"

// Record is one parsed row of the ratings export: the canonical, immutable
// input to reconciliation. Rating is in the source scale (0–5, half steps).
type Record struct {
	Title     string
	Year      string
	Reference string
	Rating    float64
	WatchDate string // native watch date as YYYY-MM-DD, empty when absent
}

// ParseRow normalizes one export row. It reports false when the reference or
// rating field is absent or unusable; the caller treats that as "skip row",
// never as an error.
func ParseRow(row map[string]string) (Record, bool) {
	reference := firstColumn(row, referenceColumns)
	rawRating := firstColumn(row, ratingColumns)
	if reference == "" || rawRating == "" {
		return Record{}, false
	}

	rating, err := strconv.ParseFloat(rawRating, 64)
	if err != nil || rating < 0 || rating > 5 {
		return Record{}, false
	}

	title := firstColumn(row, titleColumns)
	if title == "" {
		title = unknownTitle
	}

	return Record{
		Title:     normalizeTitle(title),
		Year:      firstColumn(row, yearColumns),
		Reference: reference,
		Rating:    rating,
		WatchDate: firstColumn(row, dateColumns),
	}, true
}

func firstColumn(row map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := row[alias]; ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// normalizeTitle re-cases shouting or all-lowercase titles that some export
// variants produce. Mixed-case titles pass through untouched.
func normalizeTitle(title string) string {
	if title != strings.ToUpper(title) && title != strings.ToLower(title) {
		return title
	}
	return cases.Title(language.Und).String(strings.ToLower(title))
}
