//nolint:testpackage // exercises the unexported parseBuildResults helper directly
package toolchain

import (
	"strings"
	"testing"

	"go.kiln.build/kiln/internal/core/domain"
)

func TestParseBuildResults_Success(t *testing.T) {
	output := []byte(`[{"drvPath":"/nix/store/drv","outputs":{"out":"/nix/store/out-path"}}]`)

	path, err := parseBuildResults(output, "tool", "commit")
	if err != nil {
		t.Fatalf("parseBuildResults() error = %v", err)
	}
	if path != "/nix/store/out-path" {
		t.Errorf("path = %v, want /nix/store/out-path", path)
	}
}

func TestParseBuildResults_InvalidJSON(t *testing.T) {
	_, err := parseBuildResults([]byte(`invalid json`), "tool", "commit")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse nix build JSON output") {
		t.Errorf("error = %v, want mention of parse failure", err)
	}
}

func TestParseBuildResults_EmptyResults(t *testing.T) {
	_, err := parseBuildResults([]byte(`[]`), "tool", "commit")
	if err == nil {
		t.Fatal("expected error for empty results")
	}
	if !strings.Contains(err.Error(), domain.ErrToolInstallFailed.Error()) {
		t.Errorf("error = %v, want %v", err, domain.ErrToolInstallFailed)
	}
}

func TestParseBuildResults_MissingOut(t *testing.T) {
	output := []byte(`[{"drvPath":"/nix/store/drv","outputs":{"dev":"/nix/store/dev-path"}}]`)
	_, err := parseBuildResults(output, "tool", "commit")
	if err == nil {
		t.Fatal("expected error for missing out output")
	}
	if !strings.Contains(err.Error(), domain.ErrToolInstallFailed.Error()) {
		t.Errorf("error = %v, want %v", err, domain.ErrToolInstallFailed)
	}
}
