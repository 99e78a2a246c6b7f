package seeder

import (
	"regexp"
	"strings"
	"unicode"
)

// ContentProcessor handles text processing and cleanup
type ContentProcessor struct {
	multiWhitespace *regexp.Regexp
	htmlTags        *regexp.Regexp
	sentenceEnd     *regexp.Regexp
	standardHeading *regexp.Regexp
	sectionHeading  *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		multiWhitespace: regexp.MustCompile(`[ \t\f\v\r]+`),
		htmlTags:        regexp.MustCompile(`<[^>]*>`),
		sentenceEnd:     regexp.MustCompile(`([.!?؟])\s+`),
		// "Shari'ah Standard No. (8): Murabaha", "FAS 28 - Murabaha", "Standard 12: Sharikah"
		standardHeading: regexp.MustCompile(`(?i)^(?:.*?\b(?:standard|fas|ss)\b)\s*(?:no\.?\s*)?\(?(\d+)\)?\s*[:\-–—.]?\s*(.*)$`),
		// "2/1/3 Promise to purchase", "5. Scope", "Section 4.2 - Rules"
		sectionHeading:  regexp.MustCompile(`(?i)^(?:section\s+)?(\d+(?:[./]\d+)*)\.?(?:\s*[:\-–—]\s*|\s+|$)(.*)$`),
	}
}

// CleanContent strips markup and normalizes whitespace, keeping paragraph
// breaks.
func (cp *ContentProcessor) CleanContent(content string) string {
	content = cp.htmlTags.ReplaceAllString(content, "")
	content = cp.multiWhitespace.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	var cleaned []string
	emptyLines := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			emptyLines++
			if emptyLines == 1 {
				cleaned = append(cleaned, "")
			}
		} else {
			emptyLines = 0
			cleaned = append(cleaned, line)
		}
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// ParseStandardHeading extracts the standard number and name from a page
// title. ok is false when no number is present.
func (cp *ContentProcessor) ParseStandardHeading(title string) (number, name string, ok bool) {
	m := cp.standardHeading.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", strings.TrimSpace(title), false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// ParseSectionHeading splits "2/1 Promise to purchase" into number and
// title. Headings without a leading number keep their text as the title.
func (cp *ContentProcessor) ParseSectionHeading(heading string) (number, title string) {
	heading = strings.TrimSpace(heading)
	m := cp.sectionHeading.FindStringSubmatch(heading)
	if m == nil {
		return "", heading
	}
	return m[1], strings.TrimSpace(m[2])
}

// SplitIntoChunks splits content into chunks of at most maxChunkSize bytes,
// breaking on paragraphs first and sentences second.
func (cp *ContentProcessor) SplitIntoChunks(content string, maxChunkSize int) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= maxChunkSize {
		return []string{content}
	}

	paragraphs := strings.Split(content, "\n\n")
	var chunks []string
	var currentChunk strings.Builder

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if currentChunk.Len() > 0 && currentChunk.Len()+len(paragraph)+2 > maxChunkSize {
			chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
			currentChunk.Reset()
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(paragraph)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
	}

	var finalChunks []string
	for _, chunk := range chunks {
		if len(chunk) <= maxChunkSize {
			finalChunks = append(finalChunks, chunk)
		} else {
			finalChunks = append(finalChunks, cp.splitBySentences(chunk, maxChunkSize)...)
		}
	}

	return finalChunks
}

// splitBySentences splits text by sentences when paragraphs are too long.
// Sentence punctuation is kept. A single sentence longer than maxSize
// becomes its own chunk.
func (cp *ContentProcessor) splitBySentences(text string, maxSize int) []string {
	marked := cp.sentenceEnd.ReplaceAllString(text, "$1\x00")
	sentences := strings.Split(marked, "\x00")

	var chunks []string
	var currentChunk strings.Builder

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if currentChunk.Len() > 0 && currentChunk.Len()+len(sentence)+1 > maxSize {
			chunks = append(chunks, currentChunk.String())
			currentChunk.Reset()
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(" ")
		}
		currentChunk.WriteString(sentence)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// CountWords estimates word count in text
func (cp *ContentProcessor) CountWords(text string) int {
	if text == "" {
		return 0
	}

	words := strings.FieldsFunc(text, func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	})

	count := 0
	for _, word := range words {
		if len([]rune(word)) > 1 {
			count++
		}
	}

	return count
}
