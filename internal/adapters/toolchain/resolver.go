package toolchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.kiln.build/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	nixHubAPIBase     = "https://search.devbox.sh/v2/resolve"
	httpClientTimeout = 30 * time.Second
)

var supportedSystems = map[string]struct{}{
	"x86_64-linux":   {},
	"aarch64-linux":  {},
	"x86_64-darwin":  {},
	"aarch64-darwin": {},
}

// Resolver implements ports.ToolResolver against the NixHub API, with a
// local on-disk cache keyed by alias@version.
type Resolver struct {
	cacheDir   string
	httpClient *http.Client
}

// NewResolver creates a Resolver backed by NixHub with the default cache path.
func NewResolver() (*Resolver, error) {
	return NewResolverWithClient(domain.DefaultToolCachePath(), &http.Client{Timeout: httpClientTimeout})
}

// NewResolverWithClient creates a Resolver with a custom cache directory and
// HTTP client, primarily for tests.
func NewResolverWithClient(cacheDir string, client *http.Client) (*Resolver, error) {
	cleanPath := filepath.Clean(cacheDir)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create tool cache directory")
	}
	return &Resolver{cacheDir: cleanPath, httpClient: client}, nil
}

// Resolve resolves alias@version to a reproducible nixpkgs commit hash,
// satisfying ports.ToolResolver. Use ResolveFull when the attribute path
// within that revision is also needed (the environment factory needs it).
func (r *Resolver) Resolve(ctx context.Context, alias, version string) (string, error) {
	commitHash, _, err := r.ResolveFull(ctx, alias, version)
	return commitHash, err
}

// ResolveFull resolves alias@version to a commit hash and nixpkgs attribute
// path for the current system, checking the local cache before querying
// NixHub.
func (r *Resolver) ResolveFull(ctx context.Context, alias, version string) (commitHash, attrPath string, err error) {
	system := GetCurrentSystem()

	cachePath := r.getCachePath(alias, version)
	commitHash, attrPath, err = r.loadFromCache(cachePath, system)
	if err == nil {
		return commitHash, attrPath, nil
	}

	apiResponse, err := r.queryNixHub(ctx, alias, version)
	if err != nil {
		return "", "", err
	}

	systemData, ok := apiResponse.Systems[system]
	if !ok {
		missingErr := zerr.With(domain.ErrToolResolutionFailed, "alias", alias)
		missingErr = zerr.With(missingErr, "version", version)
		return "", "", zerr.With(missingErr, "system", system)
	}
	commitHash = systemData.FlakeInstallable.Ref.Rev
	attrPath = systemData.FlakeInstallable.AttrPath

	if err := r.saveToCache(cachePath, alias, version, apiResponse); err != nil {
		_ = err // cache write failure is not fatal to the resolution
	}

	return commitHash, attrPath, nil
}

func getHash(toolName, version string) string {
	input := toolName + "@" + version
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

func (r *Resolver) getCachePath(alias, version string) string {
	return filepath.Join(r.cacheDir, getHash(alias, version)+".json")
}

func (r *Resolver) loadFromCache(path, system string) (commitHash, attrPath string, err error) {
	//nolint:gosec // path is derived from a trusted cache dir and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", domain.ErrToolCacheMiss
		}
		return "", "", zerr.Wrap(err, "failed to read tool resolution cache")
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", "", zerr.Wrap(err, "failed to unmarshal tool resolution cache")
	}

	systemCache, ok := entry.Systems[system]
	if !ok {
		return "", "", domain.ErrToolCacheMiss
	}
	return systemCache.FlakeInstallable.Ref.Rev, systemCache.FlakeInstallable.AttrPath, nil
}

func (r *Resolver) saveToCache(path, alias, version string, apiResponse *NixHubResponse) error {
	systems := make(map[string]SystemCache)
	for sysName, sysData := range apiResponse.Systems {
		if _, supported := supportedSystems[sysName]; !supported {
			continue
		}
		systems[sysName] = SystemCache{
			FlakeInstallable: sysData.FlakeInstallable,
			Outputs:          sysData.Outputs,
		}
	}

	entry := cacheEntry{
		Alias:     alias,
		Version:   version,
		Systems:   systems,
		Timestamp: time.Now(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal tool resolution cache entry")
	}

	return atomicWriteFile(path, data)
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "resolver-cache-*.json")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (r *Resolver) queryNixHub(ctx context.Context, alias, version string) (*NixHubResponse, error) {
	url := fmt.Sprintf("%s?name=%s&version=%s", nixHubAPIBase, alias, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build NixHub request")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, "NixHub request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		notFoundErr := zerr.With(domain.ErrToolResolutionFailed, "alias", alias)
		return nil, zerr.With(notFoundErr, "version", version)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := zerr.With(domain.ErrToolResolutionFailed, "status_code", resp.StatusCode)
		apiErr = zerr.With(apiErr, "alias", alias)
		return nil, zerr.With(apiErr, "version", version)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read NixHub response body")
	}

	var apiResp NixHubResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, zerr.Wrap(err, "failed to parse NixHub response")
	}
	if len(apiResp.Systems) == 0 {
		noSystemsErr := zerr.With(domain.ErrToolResolutionFailed, "alias", alias)
		return nil, zerr.With(noSystemsErr, "version", version)
	}

	return &apiResp, nil
}

// GetCurrentSystem returns the running host's architecture in NixHub's
// "<arch>-<os>" naming, falling back to x86_64-linux for unknown hosts.
func GetCurrentSystem() string {
	goos := runtime.GOOS
	goarch := runtime.GOARCH

	switch {
	case goos == "darwin" && goarch == "amd64":
		return "x86_64-darwin"
	case goos == "darwin" && goarch == "arm64":
		return "aarch64-darwin"
	case goos == "linux" && goarch == "amd64":
		return "x86_64-linux"
	case goos == "linux" && goarch == "arm64":
		return "aarch64-linux"
	default:
		return "x86_64-linux"
	}
}
