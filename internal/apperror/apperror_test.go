package apperror

import (
	"errors"
	"testing"
)

func TestHTTPStatus_MapsKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeBadPayloadSchema, 400},
		{CodeAuthRequired, 401},
		{CodeCSRFFailed, 403},
		{CodeQuotaExceeded, 429},
		{CodeSessionExpired, 401},
		{CodeLLMError, 503},
		{CodeOrchestrationFailed, 200},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		err := New(tt.code, "hint")
		if got := err.HTTPStatus(); got != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.code, tt.status, got)
		}
	}
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeInternal, "wrapped", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestAs_IdentifiesAppError(t *testing.T) {
	var err error = New(CodeQuotaExceeded, "wait 5s")

	ae, ok := As(err)
	if !ok {
		t.Fatal("expected As to recognize the apperror")
	}
	if ae.Code != CodeQuotaExceeded {
		t.Errorf("expected code %s, got %s", CodeQuotaExceeded, ae.Code)
	}
}

func TestAs_RejectsPlainError(t *testing.T) {
	if _, ok := As(errors.New("plain")); ok {
		t.Fatal("expected As to reject a plain error")
	}
}
