package completion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the slice of a user category needed to resolve the titles the
// model emits back to stored category IDs.
type Category struct {
	ID    uuid.UUID
	Title string
}

// ParsedStatement is the header extracted from one completion text.
type ParsedStatement struct {
	Bank          string
	StatementDate *time.Time
	TotalAmount   float64
}

// Candidate is one tentative transaction line. Amount is NaN when the model
// emitted something non-numeric; candidates are filtered at commit, not here.
type Candidate struct {
	LineIndex     int
	Date          time.Time
	Description   string
	Amount        float64
	CategoryTitle string
	CategoryID    *uuid.UUID
}

// dateLayout matches the DD MMM YYYY format the prompt asks for.
const dateLayout = "2 Jan 2006"

type lineKind int

const (
	lineUnrecognized lineKind = iota
	lineBank
	lineTotalAmount
	lineStatementDate
	lineTransaction
)

// classified is the tagged form of one completion line. Splitting
// classification from field extraction keeps the parsing rules testable
// independent of string mechanics.
type classified struct {
	kind   lineKind
	value  string   // remainder after the label colon, for metadata lines
	fields []string // trimmed comma-separated fields, for transaction lines
}

// classifyLine tags a single line. Metadata labels win over the
// comma-count rule, so a pathological metadata line containing commas is
// never double-read as a transaction.
func classifyLine(line string) classified {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)

	for _, meta := range []struct {
		prefix string
		kind   lineKind
	}{
		{"bank:", lineBank},
		{"total amount:", lineTotalAmount},
		{"statement date:", lineStatementDate},
	} {
		if strings.HasPrefix(lower, meta.prefix) {
			return classified{kind: meta.kind, value: strings.TrimSpace(trimmed[len(meta.prefix):])}
		}
	}

	parts := strings.Split(trimmed, ",")
	if len(parts) >= 3 {
		fields := make([]string, len(parts))
		for i, p := range parts {
			fields[i] = strings.TrimSpace(p)
		}
		return classified{kind: lineTransaction, fields: fields}
	}

	return classified{kind: lineUnrecognized}
}

// Parse reads a raw completion text into a statement header and transaction
// candidates. It never fails: unparseable fields degrade to their documented
// fallbacks (NaN amount, zero total, nil statement date, "now" transaction
// date) so a single malformed line cannot drop the rest of the batch.
func Parse(text string, categories []Category) (ParsedStatement, []Candidate) {
	return parseWithClock(text, categories, time.Now)
}

func parseWithClock(text string, categories []Category, now func() time.Time) (ParsedStatement, []Candidate) {
	var stmt ParsedStatement
	candidates := []Candidate{}

	for i, line := range strings.Split(text, "\n") {
		c := classifyLine(line)

		switch c.kind {
		case lineBank:
			stmt.Bank = c.value

		case lineTotalAmount:
			total := parseNumber(c.value)
			if math.IsNaN(total) {
				total = 0
			}
			stmt.TotalAmount = total

		case lineStatementDate:
			if d, ok := parseStatementDate(c.value); ok {
				stmt.StatementDate = &d
			}

		case lineTransaction:
			cand := Candidate{
				LineIndex:   i,
				Description: c.fields[1],
				Amount:      parseNumber(c.fields[2]),
			}

			if d, ok := parseStatementDate(c.fields[0]); ok {
				cand.Date = d
			} else {
				cand.Date = now()
			}

			if len(c.fields) > 3 && c.fields[3] != "" {
				cand.CategoryTitle = c.fields[3]
				cand.CategoryID = resolveCategory(c.fields[3], categories)
			}

			candidates = append(candidates, cand)
		}
	}

	return stmt, candidates
}

// parseStatementDate normalizes a DD MMM YYYY token triple (the model is not
// consistent about month capitalization) and parses it.
func parseStatementDate(s string) (time.Time, bool) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(parts) == 3 && len(parts[1]) > 0 {
		parts[1] = strings.ToUpper(parts[1][:1]) + parts[1][1:]
	}

	d, err := time.Parse(dateLayout, strings.Join(parts, " "))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// parseNumber converts a numeric cell tolerantly: empty cells are zero,
// anything else non-numeric is NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// resolveCategory looks a model-emitted title up against the user's
// categories, case-insensitively.
func resolveCategory(title string, categories []Category) *uuid.UUID {
	for i := range categories {
		if strings.EqualFold(categories[i].Title, title) {
			id := categories[i].ID
			return &id
		}
	}
	return nil
}
