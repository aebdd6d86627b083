// Package toolchain implements kiln's tool resolution, installation, and
// hermetic environment hydration on top of Nix: tool aliases resolve to a
// reproducible nixpkgs revision via the NixHub API, an installer
// materializes that revision into the Nix store, and an environment
// factory combines a target's resolved tools into a hermetic shell's
// environment variables.
package toolchain

import "time"

// buildResults is the JSON shape of `nix build --json`.
type buildResults []struct {
	DrvPath string            `json:"drvPath"`
	Outputs map[string]string `json:"outputs"`
}

// cacheEntry is the on-disk cached resolution result for one alias@version,
// keyed by system architecture so a single cache file serves every host.
type cacheEntry struct {
	Alias     string                 `json:"alias"`
	Version   string                 `json:"version"`
	Systems   map[string]SystemCache `json:"systems"`
	Timestamp time.Time              `json:"timestamp"`
}

// SystemCache is the cached resolution for one system architecture.
type SystemCache struct {
	FlakeInstallable FlakeInstallable `json:"flake_installable"`
	Outputs          []Output         `json:"outputs"`
}

// NixHubResponse is the full API response from NixHub's v2/resolve endpoint.
type NixHubResponse struct {
	Name    string                    `json:"name"`
	Version string                    `json:"version"`
	Summary string                    `json:"summary"`
	Systems map[string]SystemResponse `json:"systems"`
}

// SystemResponse is the package metadata for one system architecture.
type SystemResponse struct {
	FlakeInstallable FlakeInstallable `json:"flake_installable"`
	LastUpdated      string           `json:"last_updated"`
	Outputs          []Output         `json:"outputs"`
}

// FlakeInstallable is a flake reference plus the attribute path within it.
type FlakeInstallable struct {
	Ref      FlakeRef `json:"ref"`
	AttrPath string   `json:"attr_path"`
}

// FlakeRef is the git reference backing a flake.
type FlakeRef struct {
	Type  string `json:"type"`
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Rev   string `json:"rev"`
}

// Output is one package output (e.g. "out", "dev").
type Output struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Default bool   `json:"default"`
	Nar     string `json:"nar"`
}
