package overseer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pkoukk/tiktoken-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/zeebo/blake3"

	"github.com/thirdeye/overseer/internal/models"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// envelopeDomainKey separates Work Envelope fingerprints from any other
// BLAKE3-keyed hashing this service might grow, so the same bytes never
// collide across domains.
var envelopeDomainKey = [32]byte{
	't', 'h', 'i', 'r', 'd', 'e', 'y', 'e', '.', 'e', 'n', 'v', 'e', 'l', 'o', 'p',
	'e', '.', 'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't', 0, 0, 0,
}

// fingerprintEnvelope returns a hex BLAKE3 digest of the envelope's work
// content, used to deduplicate audit log entries for resubmissions that
// carry identical content.
func fingerprintEnvelope(envelope *models.WorkEnvelope) string {
	// NewKeyed only errors on a wrong-length key, and envelopeDomainKey
	// is a fixed 32-byte array, so this cannot fail.
	h, err := blake3.NewKeyed(envelopeDomainKey[:])
	if err != nil {
		panic("overseer: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	h.Write([]byte(envelope.Intent))
	kinds := make([]string, 0, len(envelope.Work))
	for kind := range envelope.Work {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		h.Write([]byte(kind))
		h.Write([]byte(envelope.Work[kind]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// renderAuditExcerptHTML converts an Eye's markdown summary into an HTML
// excerpt suitable for the audit log, the same GFM conversion the teacher
// uses to turn an Eye Result's md into a document body.
func renderAuditExcerptHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render audit excerpt: %w", err)
	}
	return buf.String(), nil
}

var tokenEncoding = mustEncoding()

func mustEncoding() *tiktoken.Tiktoken {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		panic(fmt.Sprintf("load default tokenizer: %v", err))
	}
	return enc
}

// estimateTokens counts tokens the way a routing call to the provider
// would be billed, so the envelope can be checked against the session's
// token_budget before any provider call is made.
func estimateTokens(text string) int {
	return len(tokenEncoding.Encode(text, nil, nil))
}

// checkTokenBudget reports whether the envelope's content fits within the
// session's stated budget. A budget of zero or less means unconstrained.
func checkTokenBudget(envelope *models.WorkEnvelope) (ok bool, estimated int) {
	if envelope.Context.Budget <= 0 {
		return true, 0
	}
	total := estimateTokens(envelope.Intent)
	for _, content := range envelope.Work {
		total += estimateTokens(content)
	}
	return total <= envelope.Context.Budget, total
}
