// Package domain contains the core types for the catalog enrichment context.
package domain

import (
	"strings"

	"github.com/fd1az/fba-sourcing/internal/tabular"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// CandidateRef is a product proposed for sourcing by the discovery stage.
type CandidateRef struct {
	ID          string
	EstimatedID string
	Title       string
}

// CandidateHeader names the tabular columns of a candidate list.
var CandidateHeader = []string{"id", "estimatedId", "title"}

// ConfirmedID returns the normalized id when it has a valid shape.
func (c CandidateRef) ConfirmedID() (string, bool) {
	if !validate.IsValidIdentifier(c.ID) {
		return "", false
	}
	return validate.NormalizeIdentifier(c.ID), true
}

// GuessedID returns the normalized estimated id when it has a valid shape.
func (c CandidateRef) GuessedID() (string, bool) {
	if !validate.IsValidIdentifier(c.EstimatedID) {
		return "", false
	}
	return validate.NormalizeIdentifier(c.EstimatedID), true
}

// HasTitle reports whether the title has any non-space text.
func (c CandidateRef) HasTitle() bool {
	return strings.TrimSpace(c.Title) != ""
}

// Resolvable reports whether at least one lookup can be attempted.
func (c CandidateRef) Resolvable() bool {
	_, okID := c.ConfirmedID()
	_, okGuess := c.GuessedID()
	return okID || okGuess || c.HasTitle()
}

// Label is a short identifier for logs.
func (c CandidateRef) Label() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.EstimatedID != "":
		return c.EstimatedID
	default:
		return c.Title
	}
}

func (c CandidateRef) Values() []string {
	return []string{c.ID, c.EstimatedID, c.Title}
}

// CandidateFromRow reads a candidate row. Discovery exports name the columns
// asin/estimated_asin, which are accepted as aliases.
func CandidateFromRow(row tabular.Row) CandidateRef {
	return CandidateRef{
		ID:          row.Get("id", "asin"),
		EstimatedID: row.Get("estimatedId", "estimated_asin"),
		Title:       row.Get("title"),
	}
}
