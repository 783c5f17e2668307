package overseer

import (
	"strings"

	"github.com/thirdeye/overseer/internal/models"
)

const (
	strictMinIntentLen      = 5
	strictMinReasoningLen   = 10
	relaxedMinIntentLen     = 1
)

// validationFailure names the first field that failed validation, for the
// E_BAD_PAYLOAD_SCHEMA hint, plus the full list of problems found.
type validationFailure struct {
	Field  string
	Errors []string
}

// validateEnvelope checks envelope against strict or relaxed mode per the
// four-field contract: intent, work, context_info, reasoning_md. Returns
// nil when the envelope is acceptable.
func validateEnvelope(envelope *models.WorkEnvelope, strictMode bool) *validationFailure {
	var errs []string
	field := ""

	note := func(f, msg string) {
		if field == "" {
			field = f
		}
		errs = append(errs, msg)
	}

	intent := strings.TrimSpace(envelope.Intent)

	if strictMode {
		if len(intent) < strictMinIntentLen {
			note("intent", "intent is required (minimum 5 characters)")
		}
		if len(envelope.Work) == 0 {
			note("work", "work is required and must contain at least one property")
		}
		if len(envelope.ContextInfo) == 0 {
			note("context_info", "context_info is required and must contain at least one property")
		}
		if len(strings.TrimSpace(envelope.ReasoningMD)) < strictMinReasoningLen {
			note("reasoning_md", "reasoning_md is required (minimum 10 characters)")
		}
	} else {
		if len(intent) < relaxedMinIntentLen {
			note("intent", "intent is required (minimum 1 character in relaxed mode)")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &validationFailure{Field: field, Errors: errs}
}
