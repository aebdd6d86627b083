package logger_test

import (
	"io"
	"os"
	"strings"
	"testing"

	"go.kiln.build/kiln/internal/adapters/logger"
)

func captureStderr(fn func()) (string, error) {
	originalStderr := os.Stderr

	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stderr = w

	done := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- string(buf)
	}()

	fn()

	if err := w.Close(); err != nil {
		os.Stderr = originalStderr
		return "", err
	}
	output := <-done
	if err := r.Close(); err != nil {
		os.Stderr = originalStderr
		return "", err
	}
	os.Stderr = originalStderr

	return output, nil
}

func TestLogger_Info(t *testing.T) {
	output, err := captureStderr(func() {
		lg := logger.New()
		lg.Info("some message", "target", "frontend:build")
	})
	if err != nil {
		t.Fatalf("failed to capture stderr: %v", err)
	}

	if !strings.Contains(output, "some message") {
		t.Errorf("expected output to contain 'some message', got: %s", output)
	}
	if !strings.Contains(output, "INFO") {
		t.Errorf("expected output to contain 'INFO', got: %s", output)
	}
	if !strings.Contains(output, "frontend:build") {
		t.Errorf("expected output to contain structured arg, got: %s", output)
	}
}

func TestLogger_Error(t *testing.T) {
	output, err := captureStderr(func() {
		lg := logger.New()
		lg.Error(os.ErrPermission, "target", "frontend:build")
	})
	if err != nil {
		t.Fatalf("failed to capture stderr: %v", err)
	}

	if !strings.Contains(output, "permission denied") {
		t.Errorf("expected output to contain 'permission denied', got: %s", output)
	}
	if !strings.Contains(output, "ERROR") {
		t.Errorf("expected output to contain 'ERROR', got: %s", output)
	}
}

func TestLogger_Warn(t *testing.T) {
	output, err := captureStderr(func() {
		lg := logger.New()
		lg.Warn("some warning")
	})
	if err != nil {
		t.Fatalf("failed to capture stderr: %v", err)
	}

	if !strings.Contains(output, "some warning") {
		t.Errorf("expected output to contain 'some warning', got: %s", output)
	}
	if !strings.Contains(output, "WARN") {
		t.Errorf("expected output to contain 'WARN', got: %s", output)
	}
}

func TestNew(t *testing.T) {
	lg := logger.New()
	if lg == nil {
		t.Fatal("expected New() to return a non-nil logger")
	}

	output, err := captureStderr(func() {
		testLogger := logger.New()
		testLogger.Info("test initialization")
	})
	if err != nil {
		t.Fatalf("failed to capture stderr: %v", err)
	}
	if !strings.Contains(output, "test initialization") {
		t.Errorf("expected logger to log 'test initialization', got: %s", output)
	}
}
