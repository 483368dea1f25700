package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureNodes_CreatesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NodeSummary.yaml")

	nf, created, err := EnsureNodes(path)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("expected created=true for a missing file")
	}
	if len(nf.Nodes) != 1 {
		t.Fatalf("template nodes: got %d, want 1", len(nf.Nodes))
	}
	if !nf.Nodes[0].Placeholder() {
		t.Error("template node should be a placeholder")
	}

	// second call must not recreate
	_, created, err = EnsureNodes(path)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("expected created=false for an existing file")
	}
}

func TestLoadNodes_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NodeSummary.yaml")
	content := `
nodes:
  - name: Narrabri
    SensorPlatforms:
      - GOBI
      - M3M
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	nf, err := LoadNodes(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(nf.Nodes) != 1 {
		t.Fatalf("nodes: got %d, want 1", len(nf.Nodes))
	}
	n := nf.Nodes[0]
	if n.Name != "Narrabri" {
		t.Errorf("name: got %q", n.Name)
	}
	if len(n.SensorPlatforms) != 2 || n.SensorPlatforms[0] != "GOBI" || n.SensorPlatforms[1] != "M3M" {
		t.Errorf("platforms: got %v", n.SensorPlatforms)
	}
}

func TestLoadNodes_DuplicatePlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NodeSummary.yaml")
	content := `
nodes:
  - name: Narrabri
    SensorPlatforms: [GOBI, GOBI]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadNodes(path)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadNodes_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NodeSummary.yaml")
	if err := os.WriteFile(path, []byte("nodes: {not: [a, list"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadNodes(path)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
