package llm

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

// Matches "status code: 503" (openai-compatible clients) and "Error 503," (genai).
var statusPattern = regexp.MustCompile(`(?i)(?:status code:?|error)\s+(\d{3})\b`)

// classify marks err transient when it is a transport failure, a 429 or a
// 5xx response, so the pipeline may retry it.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return rag.MarkTransient(err)
	}
	return err
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	code := geminiStatus(err)
	if code == 0 {
		code = statusFromMessage(err.Error())
	}
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func statusFromMessage(msg string) int {
	m := statusPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

func checkDim(values []float32, want int) error {
	if len(values) == 0 {
		return fmt.Errorf("no embedding values returned")
	}
	if want > 0 && len(values) != want {
		return fmt.Errorf("unexpected embedding size %d (expected %d)", len(values), want)
	}
	return nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
