package toolchain_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.kiln.build/kiln/internal/adapters/toolchain"
	"go.kiln.build/kiln/internal/core/domain"
)

type mockRoundTripper struct {
	fn func(req *http.Request) *http.Response
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.fn(req), nil
}

func newMockClient(handler func(req *http.Request) *http.Response) *http.Client {
	return &http.Client{Transport: &mockRoundTripper{fn: handler}}
}

func TestResolver_ResolveFull_Success(t *testing.T) {
	tmpDir := t.TempDir()

	mockResp := toolchain.NixHubResponse{
		Systems: map[string]toolchain.SystemResponse{
			toolchain.GetCurrentSystem(): {
				FlakeInstallable: toolchain.FlakeInstallable{
					Ref:      toolchain.FlakeRef{Rev: "commit123"},
					AttrPath: "legacyPackages." + toolchain.GetCurrentSystem() + ".go_1_21",
				},
			},
		},
	}
	respBody, err := json.Marshal(mockResp)
	require.NoError(t, err)

	client := newMockClient(func(req *http.Request) *http.Response {
		assert.Contains(t, req.URL.String(), "name=go&version=1.21.0")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(respBody)),
			Header:     make(http.Header),
		}
	})

	resolver, err := toolchain.NewResolverWithClient(tmpDir, client)
	require.NoError(t, err)

	commit, attr, err := resolver.ResolveFull(context.Background(), "go", "1.21.0")
	require.NoError(t, err)
	assert.Equal(t, "commit123", commit)
	assert.Equal(t, "legacyPackages."+toolchain.GetCurrentSystem()+".go_1_21", attr)
}

func TestResolver_ResolveFull_NotFound(t *testing.T) {
	client := newMockClient(func(_ *http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewBufferString(""))}
	})

	resolver, err := toolchain.NewResolverWithClient(t.TempDir(), client)
	require.NoError(t, err)

	_, _, err = resolver.ResolveFull(context.Background(), "unknown", "1.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrToolResolutionFailed.Error())
}

func TestResolver_ResolveFull_APIError(t *testing.T) {
	client := newMockClient(func(_ *http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: io.NopCloser(bytes.NewBufferString("boom"))}
	})

	resolver, err := toolchain.NewResolverWithClient(t.TempDir(), client)
	require.NoError(t, err)

	_, _, err = resolver.ResolveFull(context.Background(), "go", "1.21.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrToolResolutionFailed.Error())
}

func TestResolver_ResolveFull_CacheHit(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")

	setupResp := toolchain.NixHubResponse{
		Systems: map[string]toolchain.SystemResponse{
			toolchain.GetCurrentSystem(): {
				FlakeInstallable: toolchain.FlakeInstallable{
					Ref:      toolchain.FlakeRef{Rev: "cached_commit"},
					AttrPath: "cached_attr",
				},
			},
		},
	}
	body, err := json.Marshal(setupResp)
	require.NoError(t, err)

	setupClient := newMockClient(func(_ *http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body))}
	})

	rSetup, err := toolchain.NewResolverWithClient(cacheDir, setupClient)
	require.NoError(t, err)
	_, _, err = rSetup.ResolveFull(context.Background(), "cached_tool", "1.0")
	require.NoError(t, err)

	panicClient := newMockClient(func(_ *http.Request) *http.Response {
		panic("HTTP client should not be called on cache hit")
	})

	rTest, err := toolchain.NewResolverWithClient(cacheDir, panicClient)
	require.NoError(t, err)

	commit, attr, err := rTest.ResolveFull(context.Background(), "cached_tool", "1.0")
	require.NoError(t, err)
	assert.Equal(t, "cached_commit", commit)
	assert.Equal(t, "cached_attr", attr)
}

func TestResolver_Resolve_ReturnsCommitHashOnly(t *testing.T) {
	mockResp := toolchain.NixHubResponse{
		Systems: map[string]toolchain.SystemResponse{
			toolchain.GetCurrentSystem(): {
				FlakeInstallable: toolchain.FlakeInstallable{
					Ref:      toolchain.FlakeRef{Rev: "abc"},
					AttrPath: "pkgs.foo",
				},
			},
		},
	}
	body, err := json.Marshal(mockResp)
	require.NoError(t, err)

	client := newMockClient(func(_ *http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body))}
	})

	resolver, err := toolchain.NewResolverWithClient(t.TempDir(), client)
	require.NoError(t, err)

	commit, err := resolver.Resolve(context.Background(), "foo", "1.0")
	require.NoError(t, err)
	assert.Equal(t, "abc", commit)
}
