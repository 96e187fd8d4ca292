package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Board.Width <= 0 {
		t.Errorf("board width = %d, want positive", cfg.Board.Width)
	}
	if len(cfg.Board.Stores) == 0 {
		t.Error("expected default store cells")
	}
	if cfg.Derived.DT32 <= 0 {
		t.Errorf("derived dt = %v, want positive", cfg.Derived.DT32)
	}
	if cfg.Agents.ArrivalTolerance != 0.2 {
		t.Errorf("arrival tolerance = %v, want 0.2", cfg.Agents.ArrivalTolerance)
	}
	if got := cfg.Planner.Harvest.Retries; len(got) != 1 || got[0] != 3 {
		t.Errorf("harvest retries = %v, want [3]", got)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("board:\n  width: 10\n  stores: [{row: 9, col: 9}]\neconomy:\n  drone_cost: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Board.Width != 10 {
		t.Errorf("width = %d, want 10", cfg.Board.Width)
	}
	if cfg.Economy.DroneCost != 3 {
		t.Errorf("drone cost = %d, want 3", cfg.Economy.DroneCost)
	}
	// Untouched fields keep their defaults
	if cfg.Economy.SalePrice != 1 {
		t.Errorf("sale price = %d, want default 1", cfg.Economy.SalePrice)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"store off board", "board:\n  width: 4\n  stores: [{row: 4, col: 0}]\n"},
		{"zero dt", "physics:\n  dt: 0\n"},
		{"unknown task", "agents:\n  farmer_tasks: [dance]\n"},
		{"zero width", "board:\n  width: 0\n"},
		{"width past key stride", "board:\n  width: 65536\n"},
	}

	dir := t.TempDir()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad"+string(rune('a'+i))+".yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Economy.FarmerCap = 7

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Economy.FarmerCap != 7 {
		t.Errorf("farmer cap = %d, want 7", loaded.Economy.FarmerCap)
	}
}
