package http

import (
	"fmt"

	"github.com/josinaldojr/smartfinder-rag/internal/rag"
)

const noSourceMessage = "No source found for this answer."

// FormatCitation renders the first citation with a 1-indexed page number.
func FormatCitation(ans *rag.Answer) string {
	if ans == nil || len(ans.Citations) == 0 {
		return noSourceMessage
	}
	c := ans.Citations[0]
	return fmt.Sprintf("Page %d out of %d of %s", c.Page+1, c.TotalPages, c.Source)
}
