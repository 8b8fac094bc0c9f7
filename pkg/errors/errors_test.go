package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestBootstrapErrorUnwrapsCause(t *testing.T) {
	oom := &OutOfMemoryError{Limit: 10, Live: 10, What: "object"}
	err := &BootstrapError{Phase: "forward-declarations", Cause: oom}

	var target *OutOfMemoryError
	if !errors.As(err, &target) {
		t.Fatalf("expected errors.As to find the OutOfMemoryError")
	}
	if target.Limit != 10 {
		t.Errorf("expected limit 10, got %d", target.Limit)
	}
	if err.Kind() != "Bootstrap" {
		t.Errorf("unexpected kind %q", err.Kind())
	}
	if !strings.Contains(err.Error(), "forward-declarations") {
		t.Errorf("expected phase in message, got %q", err.Error())
	}
}

func TestConfigErrorCausedBy(t *testing.T) {
	cause := errors.New("bad level")
	err := (&ConfigError{Field: "log_level", Msg: "unknown level"}).CausedBy(cause)
	if !errors.Is(err, cause) {
		t.Errorf("expected ConfigError to wrap its cause")
	}
	if err.Message() != "unknown level" {
		t.Errorf("unexpected message %q", err.Message())
	}
}
