package services

import (
	"fmt"
	"strings"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
)

// DefaultSeparator sits between excerpt blocks.
const DefaultSeparator = "\n\n---\n\n"

// FormatExcerpt renders one match. Missing metadata renders as "".
func FormatExcerpt(m models.Match) string {
	md := m.Metadata
	return fmt.Sprintf("%s (Std %s)\nSection %s (%s):\n%s",
		md.StandardName, md.StandardNumber, md.SectionNumber, md.SectionTitle, md.ChunkText)
}

// Assemble joins the excerpt blocks in retrieval order. It is pure: the same
// matches always give the same text.
func Assemble(matches []models.Match, separator string) string {
	if separator == "" {
		separator = DefaultSeparator
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, FormatExcerpt(m))
	}
	return strings.Join(blocks, separator)
}
