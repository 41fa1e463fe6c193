package allocation

import (
	"testing"

	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	"github.com/fd1az/fba-sourcing/internal/config"
)

func TestEngineConfig(t *testing.T) {
	got, err := EngineConfig(config.AllocationConfig{TurnoverDays: 60, EligibleTiers: []string{"high", " Medium "}})
	if err != nil {
		t.Fatalf("EngineConfig() error = %v", err)
	}
	if got.TurnoverDays != 60 {
		t.Errorf("TurnoverDays = %d, want 60", got.TurnoverDays)
	}
	want := []demandDomain.Tier{demandDomain.TierHigh, demandDomain.TierMedium}
	if len(got.EligibleTiers) != len(want) {
		t.Fatalf("EligibleTiers = %v, want %v", got.EligibleTiers, want)
	}
	for i := range want {
		if got.EligibleTiers[i] != want[i] {
			t.Errorf("EligibleTiers[%d] = %s, want %s", i, got.EligibleTiers[i], want[i])
		}
	}

	if _, err := EngineConfig(config.AllocationConfig{TurnoverDays: 90, EligibleTiers: []string{"VIRAL"}}); err == nil {
		t.Error("EngineConfig() error = nil for unknown tier")
	}
}
