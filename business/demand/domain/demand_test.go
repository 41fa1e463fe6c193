package domain

import (
	"strings"
	"testing"

	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

func TestEstimateSales(t *testing.T) {
	tests := []struct {
		name      string
		rank      catalogDomain.RankSignal
		wantSales int
		wantTier  Tier
	}{
		{"top seller", catalogDomain.RankFromInt(300), 1000, TierHigh},
		{"just under 500", catalogDomain.RankFromInt(499), 1000, TierHigh},
		{"500 boundary", catalogDomain.RankFromInt(500), 500, TierMedium},
		{"999", catalogDomain.RankFromInt(999), 500, TierMedium},
		{"1000 boundary", catalogDomain.RankFromInt(1000), 250, TierLow},
		{"1500", catalogDomain.RankFromInt(1500), 250, TierLow},
		{"2000 boundary", catalogDomain.RankFromInt(2000), 100, TierLow},
		{"long tail", catalogDomain.NewRankSignal("#48,112 in Home"), 100, TierLow},
		{"raw text", catalogDomain.NewRankSignal("#1,204 in Kitchen & Dining"), 250, TierLow},
		{"missing", catalogDomain.RankSignal{}, 100, TierLow},
		{"no digits", catalogDomain.NewRankSignal("n/a"), 100, TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sales := EstimateSales(tt.rank)
			if sales != tt.wantSales {
				t.Errorf("EstimateSales() = %d, want %d", sales, tt.wantSales)
			}
			if got := TierFor(sales); got != tt.wantTier {
				t.Errorf("TierFor(%d) = %s, want %s", sales, got, tt.wantTier)
			}
		})
	}
}

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		sales int
		want  Tier
	}{
		{800, TierHigh},
		{799, TierMedium},
		{300, TierMedium},
		{299, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierFor(tt.sales); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.sales, got, tt.want)
		}
	}
}

// Demand never increases as rank gets worse.
func TestEstimateSales_Monotonic(t *testing.T) {
	prev := EstimateSales(catalogDomain.RankFromInt(1))
	for r := 2; r < 5000; r++ {
		cur := EstimateSales(catalogDomain.RankFromInt(r))
		if cur > prev {
			t.Fatalf("sales rose from %d to %d at rank %d", prev, cur, r)
		}
		prev = cur
	}
}

func TestRecordFromRow(t *testing.T) {
	rows, err := tabular.Read(strings.NewReader(
		"asin,title,bsr,est_monthly_sales,demand_level\n"+
			"B0TEST0001,Pan,#300,,\n"+
			"B0TEST0002,Pot,,300,medium\n"), tabular.Options{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	first, err := RecordFromRow(rows[0])
	if err != nil {
		t.Fatalf("RecordFromRow() error = %v", err)
	}
	if first.EstimatedMonthlySales != 1000 || first.Tier != TierHigh {
		t.Errorf("derived row = %+v", first)
	}

	second, err := RecordFromRow(rows[1])
	if err != nil {
		t.Fatalf("RecordFromRow() error = %v", err)
	}
	if second.EstimatedMonthlySales != 300 || second.Tier != TierMedium {
		t.Errorf("explicit row = %+v", second)
	}

	bad := tabular.Row{"id": "B0TEST0003", "demandTier": "EXTREME"}
	if _, err := RecordFromRow(bad); err == nil {
		t.Error("expected error for unknown tier")
	}
}
