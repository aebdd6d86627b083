package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.kiln.build/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Installer implements ports.ToolInstaller using the Nix CLI, building a
// flake reference from a resolved alias and commit hash into the Nix
// store.
type Installer struct{}

// NewInstaller creates a new Installer.
func NewInstaller() *Installer {
	return &Installer{}
}

// Install ensures alias@commitHash is built in the Nix store and returns
// its absolute store path.
func (i *Installer) Install(ctx context.Context, alias, commitHash string) (string, error) {
	flakeRef := fmt.Sprintf("github:NixOS/nixpkgs/%s#%s", commitHash, alias)

	//nolint:gosec // flakeRef is built from a resolved commit hash and alias, not raw user input
	cmd := exec.CommandContext(ctx, "nix", "build", "--json", "--no-link", flakeRef)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			installErr := zerr.With(zerr.Wrap(exitErr, domain.ErrToolInstallFailed.Error()), "tool", alias)
			installErr = zerr.With(installErr, "commit", commitHash)
			return "", zerr.With(installErr, "stderr", stderr)
		}
		installErr := zerr.With(zerr.Wrap(err, domain.ErrToolInstallFailed.Error()), "tool", alias)
		return "", zerr.With(installErr, "commit", commitHash)
	}

	return parseBuildResults(output, alias, commitHash)
}

// parseBuildResults extracts the "out" store path from `nix build --json`
// output, factored out of Install so it can be exercised without a real
// nix binary.
func parseBuildResults(output []byte, alias, commitHash string) (string, error) {
	var results buildResults
	if err := json.Unmarshal(output, &results); err != nil {
		parseErr := zerr.With(zerr.Wrap(err, "failed to parse nix build JSON output"), "tool", alias)
		return "", zerr.With(parseErr, "commit", commitHash)
	}
	if len(results) == 0 {
		emptyErr := zerr.With(domain.ErrToolInstallFailed, "tool", alias)
		emptyErr = zerr.With(emptyErr, "commit", commitHash)
		return "", zerr.With(emptyErr, "reason", "empty build results from nix build")
	}

	storePath, ok := results[0].Outputs["out"]
	if !ok || storePath == "" {
		outErr := zerr.With(domain.ErrToolInstallFailed, "tool", alias)
		outErr = zerr.With(outErr, "commit", commitHash)
		return "", zerr.With(outErr, "reason", "no 'out' output in build results")
	}

	return storePath, nil
}
