package event

import (
	"errors"
	"strings"
	"testing"
)

func TestHandlerError(t *testing.T) {
	inner := errors.New("inner")
	err := &HandlerError{SubscriptionID: "s1", Kind: "event:voted", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("HandlerError should unwrap to inner error")
	}
	if !strings.Contains(err.Error(), "event:voted") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestPanicError_Is(t *testing.T) {
	err := &PanicError{SubscriptionID: "s1", Kind: "event:voted", Value: "boom"}
	if !errors.Is(err, ErrHandlerPanic) {
		t.Error("PanicError should match ErrHandlerPanic")
	}
}

func TestPayloadError_Is(t *testing.T) {
	var err error = &HandlerError{Err: &PayloadError{Kind: "k", Field: "pid", Reason: "missing"}}
	if !errors.Is(err, ErrMalformedPayload) {
		t.Error("wrapped PayloadError should match ErrMalformedPayload")
	}
}
