// Package overrides loads supplier cost tables.
package overrides

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/tabular"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// Load reads a cost table, choosing the format by extension: .yaml/.yml is a
// YAML map of id to cost; anything else is a delimited table with id (or
// asin) and cost columns.
func Load(path string) (domain.CostOverrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.New(apperror.CodeTabularReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	case ".tsv":
		return ReadTable(f, tabular.Options{Delimiter: '\t'})
	default:
		return ReadTable(f, tabular.Options{})
	}
}

// ReadTable reads id,cost rows. Rows without an id are ignored.
func ReadTable(r io.Reader, opts tabular.Options) (domain.CostOverrides, error) {
	rows, err := tabular.Read(r, opts)
	if err != nil {
		return nil, err
	}

	out := domain.CostOverrides{}
	for i, row := range rows {
		id := row.Get("id", "asin")
		if id == "" {
			continue
		}
		cost, err := parseCost(id, row.Get("cost"))
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidCostOverride, fmt.Sprintf("line %d", i+2))
		}
		out.Set(id, cost)
	}
	return out, nil
}

// ReadYAML reads a flat mapping of id to cost.
func ReadYAML(r io.Reader) (domain.CostOverrides, error) {
	raw := map[string]yaml.Node{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, apperror.New(apperror.CodeInvalidCostOverride,
			apperror.WithCause(err),
			apperror.WithContext("decode yaml"))
	}

	out := domain.CostOverrides{}
	for id, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, apperror.Validation(apperror.CodeInvalidCostOverride,
				fmt.Sprintf("%s: cost must be a scalar (line %d)", id, node.Line))
		}
		cost, err := parseCost(id, node.Value)
		if err != nil {
			return nil, err
		}
		out.Set(id, cost)
	}
	return out, nil
}

func parseCost(id, raw string) (money.Amount, error) {
	if !validate.IsValidIdentifier(id) {
		return money.Zero, apperror.Validation(apperror.CodeInvalidCostOverride, fmt.Sprintf("identifier %q", id))
	}
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$")))
	if err != nil {
		return money.Zero, apperror.New(apperror.CodeInvalidCostOverride,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: cost %q", id, raw)))
	}
	cost, err := money.New(d)
	if err != nil {
		return money.Zero, apperror.New(apperror.CodeInvalidCostOverride,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: cost %q", id, raw)))
	}
	return cost, nil
}
