package params

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/geanlabs/beaconcore/types"
)

func TestMainnet(t *testing.T) {
	spec := Mainnet()
	if err := spec.Validate(); err != nil {
		t.Fatalf("mainnet preset invalid: %v", err)
	}
	perEpoch, err := spec.MaxDepositsPerEpoch()
	if err != nil {
		t.Fatal(err)
	}
	if perEpoch != 512 {
		t.Errorf("MaxDepositsPerEpoch = %d, want 512", perEpoch)
	}
	if spec.FarFutureEpoch != types.FarFutureEpoch {
		t.Errorf("FarFutureEpoch = %d", spec.FarFutureEpoch)
	}
}

func TestMinimal(t *testing.T) {
	spec := Minimal()
	if err := spec.Validate(); err != nil {
		t.Fatalf("minimal preset invalid: %v", err)
	}
	if spec.SlotsPerEpoch != 8 || spec.MaxWithdrawalsPerPayload != 4 {
		t.Errorf("unexpected minimal values: %+v", spec)
	}
	if Mainnet().SlotsPerEpoch != 32 {
		t.Error("Minimal must not mutate the mainnet preset")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ChainSpec)
	}{
		{"zero increment", func(c *ChainSpec) { c.EffectiveBalanceIncrement = 0 }},
		{"zero slots", func(c *ChainSpec) { c.SlotsPerEpoch = 0 }},
		{"zero deposits", func(c *ChainSpec) { c.MaxDeposits = 0 }},
		{"max below increment", func(c *ChainSpec) { c.MaxEffectiveBalance = 1 }},
		{"zero withdrawals bound", func(c *ChainSpec) { c.MaxWithdrawalsPerPayload = 0 }},
		{"cap overflows", func(c *ChainSpec) { c.MaxDeposits = 1 << 40; c.SlotsPerEpoch = 1 << 40 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Mainnet()
			tt.mutate(spec)
			if err := spec.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	data := []byte(`
PRESET_BASE: minimal
MAX_DEPOSITS: 2
SLOTS_PER_EPOCH: 1
`)
	spec, err := LoadFromYAML(data)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if spec.MaxDeposits != 2 || spec.SlotsPerEpoch != 1 {
		t.Errorf("overrides not applied: %+v", spec)
	}
	// Values not in the file come from the minimal preset.
	if spec.MaxWithdrawalsPerPayload != 4 {
		t.Errorf("MaxWithdrawalsPerPayload = %d, want 4", spec.MaxWithdrawalsPerPayload)
	}
	if spec.FarFutureEpoch != types.FarFutureEpoch {
		t.Error("FarFutureEpoch must come from the preset")
	}
}

func TestLoadFromYAML_Invalid(t *testing.T) {
	if _, err := LoadFromYAML([]byte("EFFECTIVE_BALANCE_INCREMENT: 0\n")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero increment error = %v, want ErrConfiguration", err)
	}
	if _, err := LoadFromYAML([]byte("PRESET_BASE: gnosis\n")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown preset error = %v, want ErrConfiguration", err)
	}
	if _, err := LoadFromYAML([]byte("MAX_DEPOSITS: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("MAX_DEPOSITS: 4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	spec, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if spec.MaxDeposits != 4 || spec.PresetBase != "mainnet" {
		t.Errorf("unexpected spec: %+v", spec)
	}
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
