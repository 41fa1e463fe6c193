package app

import (
	"strings"
	"unicode"

	"github.com/fd1az/fba-sourcing/business/catalog/domain"
)

// lookup is one planned cascade step.
type lookup struct {
	step      domain.Step
	provider  ProductProvider
	mode      domain.LookupMode
	query     string
	estimated bool
}

// plan lists the lookups for c in cascade order. Only steps whose inputs are
// present are included.
func (r *Resolver) plan(c domain.CandidateRef) []lookup {
	confirmed, hasConfirmed := c.ConfirmedID()
	guessed, hasGuessed := c.GuessedID()
	title := strings.TrimSpace(c.Title)

	var steps []lookup

	if hasConfirmed {
		steps = append(steps, lookup{
			step: domain.StepPrimaryByID, provider: r.primary,
			mode: domain.ModeIdentifier, query: confirmed,
		})
	} else if hasGuessed {
		steps = append(steps, lookup{
			step: domain.StepPrimaryByEstimatedID, provider: r.primary,
			mode: domain.ModeIdentifier, query: guessed,
			estimated: guessed != validateNorm(c.ID),
		})
	}

	if title != "" {
		steps = append(steps, lookup{
			step: domain.StepPrimaryByTitle, provider: r.primary,
			mode: domain.ModeKeyword, query: title, estimated: true,
		})
	}

	if r.secondary == nil {
		return steps
	}

	if hasConfirmed || hasGuessed {
		ident := confirmed
		if !hasConfirmed {
			ident = guessed
		}
		steps = append(steps, lookup{
			step: domain.StepSecondaryByID, provider: r.secondary,
			mode: domain.ModeIdentifier, query: ident,
			estimated: !hasConfirmed,
		})
	}

	if !r.cfg.NoFallback {
		if kw := keywords(title, r.cfg.KeywordLimit); kw != "" {
			steps = append(steps, lookup{
				step: domain.StepSecondaryByKeywords, provider: r.secondary,
				mode: domain.ModeKeyword, query: kw, estimated: true,
			})
		}
	}

	return steps
}

// keywords reduces a title to its first limit alphanumeric words.
func keywords(title string, limit int) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return strings.Join(words, " ")
}

func validateNorm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// screen applies the content filters to a fetched record.
func (r *Resolver) screen(rec *domain.ProductRecord) (domain.DiscardReason, bool) {
	if !rec.Price.IsPositive() {
		return domain.DiscardMissingPrice, true
	}
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return domain.DiscardMissingTitle, true
	}
	lower := strings.ToLower(title)
	for _, term := range r.denylist {
		if strings.Contains(lower, term) {
			return domain.DiscardDenylisted, true
		}
	}
	return "", false
}
