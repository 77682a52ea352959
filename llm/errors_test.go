package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("boom")

	transient := NewTransientError(base)
	if !IsTransient(transient) {
		t.Error("transient error not detected")
	}
	if IsFatal(transient) {
		t.Error("transient error misclassified as fatal")
	}

	fatal := NewFatalError(base)
	if !IsFatal(fatal) {
		t.Error("fatal error not detected")
	}
	if IsTransient(fatal) {
		t.Error("fatal error misclassified as transient")
	}

	if IsTransient(base) || IsFatal(base) {
		t.Error("unclassified error should be neither")
	}
}

func TestErrorClassificationSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewTransientError(errors.New("boom")))
	if !IsTransient(wrapped) {
		t.Error("classification lost through wrapping")
	}

	wrappedFatal := fmt.Errorf("context: %w", NewFatalError(errors.New("boom")))
	if !IsFatal(wrappedFatal) {
		t.Error("fatal classification lost through wrapping")
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
	}

	for _, tt := range tests {
		err := classifyHTTPError(tt.status, []byte("body"))
		if IsTransient(err) != tt.wantTransient {
			t.Errorf("status %d: IsTransient = %v, want %v", tt.status, IsTransient(err), tt.wantTransient)
		}
	}
}
