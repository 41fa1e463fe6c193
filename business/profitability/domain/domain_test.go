package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

func product(id, price string) catalogDomain.ProductRecord {
	return catalogDomain.ProductRecord{ID: id, Title: "Item " + id, Price: money.RequireFromString(price)}
}

func TestFeeModel_Evaluate(t *testing.T) {
	m := DefaultFeeModel()
	overrides := CostOverrides{}
	overrides.Set("b0test0001", money.RequireFromString("10"))

	tests := []struct {
		name       string
		rec        catalogDomain.ProductRecord
		wantCost   string
		wantFees   string
		wantProfit string
		wantROI    string
		wantViable bool
		wantReason DiscardReason
	}{
		{
			name:       "override cost",
			rec:        product("B0TEST0001", "25"),
			wantCost:   "10.00",
			wantFees:   "6.75",
			wantProfit: "5.75",
			wantROI:    "0.30",
			wantViable: true,
		},
		{
			name:       "default cost ratio",
			rec:        product("B0TEST0002", "40"),
			wantCost:   "12.00",
			wantFees:   "9.00",
			wantProfit: "16.50",
			wantROI:    "0.70",
			wantViable: true,
		},
		{
			name:       "cheap item loses money",
			rec:        product("B0TEST0003", "5"),
			wantCost:   "1.50",
			wantFees:   "3.75",
			wantProfit: "-2.75",
			wantROI:    "-0.35",
			wantReason: ReasonNonPositiveROI,
		},
		{
			name:       "missing price",
			rec:        product("B0TEST0004", "0"),
			wantReason: ReasonInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, discard := m.Evaluate(tt.rec, overrides)

			if tt.wantReason != "" {
				if discard == nil || discard.Reason != tt.wantReason {
					t.Fatalf("discard = %+v, want reason %s", discard, tt.wantReason)
				}
			} else if discard != nil {
				t.Fatalf("unexpected discard %+v", discard)
			}
			if tt.wantReason == ReasonInvalidPrice {
				return
			}

			if got.Cost.StringFixed(2) != tt.wantCost {
				t.Errorf("cost = %s, want %s", got.Cost.StringFixed(2), tt.wantCost)
			}
			if got.Fees.StringFixed(2) != tt.wantFees {
				t.Errorf("fees = %s, want %s", got.Fees.StringFixed(2), tt.wantFees)
			}
			if got.Profit.StringFixed(2) != tt.wantProfit {
				t.Errorf("profit = %s, want %s", got.Profit.StringFixed(2), tt.wantProfit)
			}
			if got.ROI.StringFixed(2) != tt.wantROI {
				t.Errorf("roi = %s, want %s", got.ROI.StringFixed(2), tt.wantROI)
			}
			if got.Viable != tt.wantViable {
				t.Errorf("viable = %v, want %v", got.Viable, tt.wantViable)
			}
		})
	}
}

func TestProfitabilityRecord_TotalCost(t *testing.T) {
	got, _ := DefaultFeeModel().Evaluate(product("B0TEST0001", "25"), CostOverrides{"B0TEST0001": money.RequireFromString("10")})
	if got.TotalCost().StringFixed(2) != "19.25" {
		t.Errorf("TotalCost() = %s, want 19.25", got.TotalCost())
	}
}

func TestRecordFromRow_LegacyColumns(t *testing.T) {
	rows, err := tabular.Read(strings.NewReader(
		"asin,title,price,cost,fba_fees,shipping,profit,roi\nB0TEST0001,Pan,25,10,6.75,2.5,5.75,0.30\n"),
		tabular.Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	rec, err := RecordFromRow(rows[0])
	if err != nil {
		t.Fatalf("RecordFromRow() error = %v", err)
	}
	if rec.ID != "B0TEST0001" || !rec.Viable || !rec.ROI.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Fees.StringFixed(2) != "6.75" {
		t.Errorf("fees = %s", rec.Fees)
	}
}

func TestBatch_DiscardedIDs(t *testing.T) {
	b := &Batch{Discards: []Discard{
		{ID: "A", Reason: ReasonInvalidPrice},
		{ID: "B", Reason: ReasonNonPositiveROI},
		{ID: "C", Reason: ReasonNonPositiveROI},
	}}
	got := b.DiscardedIDs(ReasonNonPositiveROI)
	if len(got) != 2 || got[0] != "B" || got[1] != "C" {
		t.Errorf("DiscardedIDs() = %v", got)
	}
}
