package ports

// Verifier confirms declared outputs actually exist on disk and are no
// older than the newest input, used as the final gate before trusting a
// cache hit.
//
//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=portsmock/mock_verifier.go -package=portsmock
type Verifier interface {
	// VerifyOutputs reports whether every output beneath root exists with
	// an mtime of at least newestInputNS (nanoseconds; 0 skips the
	// staleness comparison and checks existence only).
	VerifyOutputs(root string, outputs []string, newestInputNS int64) (bool, error)
}
