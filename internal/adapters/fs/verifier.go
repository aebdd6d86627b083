package fs

import (
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Verifier confirms a target's declared outputs exist on disk, the final
// gate a cache hit must pass before a target is treated as up to date.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyOutputs checks that every output exists beneath root and, when
// newestInputNS is non-zero, that none is older than the newest input.
// A directory target's stamp file stands in for the directory here, so
// the staleness comparison always runs against a regular file's mtime.
func (v *Verifier) VerifyOutputs(root string, outputs []string, newestInputNS int64) (bool, error) {
	for _, output := range outputs {
		path := resolveOutput(root, output)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
		}
		if newestInputNS > 0 && !info.IsDir() && info.ModTime().UnixNano() < newestInputNS {
			return false, nil
		}
	}
	return true, nil
}

// resolveOutput anchors a relative output beneath root; the loader emits
// absolute output paths, which pass through untouched.
func resolveOutput(root, output string) string {
	if filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(root, output)
}
