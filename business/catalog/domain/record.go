package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/tabular"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// Source identifies the data provider a record came from.
type Source string

const (
	SourceSerpAPI Source = "serpapi"
	SourceKeepa   Source = "keepa"
	SourceScraper Source = "scraper"
	SourceFixture Source = "fixture"
)

// ParseSource validates a provider name.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceSerpAPI, SourceKeepa, SourceScraper, SourceFixture:
		return src, nil
	default:
		return "", apperror.Validation(apperror.CodeUnknownProvider, s)
	}
}

// RankSignal is the provider's popularity indicator as reported, e.g. "#1,234
// in Kitchen & Dining". Lower numbers are more popular.
type RankSignal struct {
	raw string
}

// NewRankSignal wraps the raw text. Blank input means no signal.
func NewRankSignal(raw string) RankSignal {
	return RankSignal{raw: strings.TrimSpace(raw)}
}

// RankFromInt wraps a numeric rank. Non-positive ranks mean no signal.
func RankFromInt(n int) RankSignal {
	if n <= 0 {
		return RankSignal{}
	}
	return RankSignal{raw: fmt.Sprint(n)}
}

// Raw returns the text as reported by the provider.
func (r RankSignal) Raw() string {
	return r.raw
}

// Present reports whether the provider returned anything.
func (r RankSignal) Present() bool {
	return r.raw != ""
}

// Value returns the first number in the signal.
func (r RankSignal) Value() (int, bool) {
	if r.raw == "" {
		return 0, false
	}
	return validate.ParseInt(r.raw)
}

// Potential is a coarse market attractiveness label used in reports.
type Potential string

const (
	PotentialHigh   Potential = "HIGH"
	PotentialMedium Potential = "MEDIUM"
	PotentialLow    Potential = "LOW"
)

var (
	highRating   = decimal.RequireFromString("4.3")
	mediumRating = decimal.RequireFromString("4.0")
)

const highReviewCount = 300

// ProductRecord is the normalized result of one successful lookup.
type ProductRecord struct {
	ID          string
	Title       string
	Price       money.Amount
	Rating      *decimal.Decimal
	ReviewCount *int
	Rank        RankSignal
	URL         string
	Source      Source
	Estimated   bool
}

// ProductRecordHeader names the tabular columns of an enriched record.
var ProductRecordHeader = []string{
	"id", "title", "price", "rating", "reviewCount", "rankSignal", "url", "sourceProvider", "estimated",
}

// Potential rates the record from rating, review count and rank presence.
func (p ProductRecord) Potential() Potential {
	rating := decimal.Zero
	if p.Rating != nil {
		rating = *p.Rating
	}
	reviews := 0
	if p.ReviewCount != nil {
		reviews = *p.ReviewCount
	}

	switch {
	case rating.GreaterThanOrEqual(highRating) && reviews >= highReviewCount && p.Rank.Present():
		return PotentialHigh
	case rating.GreaterThanOrEqual(mediumRating):
		return PotentialMedium
	default:
		return PotentialLow
	}
}

func (p ProductRecord) Values() []string {
	return []string{
		p.ID,
		p.Title,
		tabular.FormatMoney(p.Price),
		tabular.FormatOptionalDecimal(p.Rating),
		tabular.FormatOptionalInt(p.ReviewCount),
		p.Rank.Raw(),
		p.URL,
		string(p.Source),
		tabular.FormatBool(p.Estimated),
	}
}

// ProductRecordFromRow reads an enriched record row. A blank price reads as
// zero so the profitability stage can report it as an invalid price.
func ProductRecordFromRow(row tabular.Row) (ProductRecord, error) {
	rec := ProductRecord{
		ID:    row.Get("id", "asin"),
		Title: row.Get("title"),
		Rank:  NewRankSignal(row.Get("rankSignal", "bsr")),
		URL:   row.Get("url", "link"),
	}

	if raw := row.Get("price"); raw != "" {
		d, ok := validate.ParseMoney(raw)
		if !ok {
			return ProductRecord{}, apperror.Validation(apperror.CodeInvalidRow, fmt.Sprintf("price %q", raw))
		}
		rec.Price = money.MustNew(d)
	}

	var err error
	if rec.Rating, err = tabular.ParseOptionalDecimal("rating", row.Get("rating")); err != nil {
		return ProductRecord{}, err
	}
	if rec.ReviewCount, err = tabular.ParseOptionalInt("reviewCount", row.Get("reviewCount", "reviews")); err != nil {
		return ProductRecord{}, err
	}
	if src := row.Get("sourceProvider", "source"); src != "" {
		if rec.Source, err = ParseSource(src); err != nil {
			return ProductRecord{}, err
		}
	}
	if rec.Estimated, err = tabular.ParseBool("estimated", row.Get("estimated")); err != nil {
		return ProductRecord{}, err
	}

	return rec, nil
}
