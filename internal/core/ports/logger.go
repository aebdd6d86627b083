package ports

// Logger is the structured logging surface used throughout kiln, backed by
// log/slog in internal/adapters/logger.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=portsmock/mock_logger.go -package=portsmock
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(err error, args ...any)
}
