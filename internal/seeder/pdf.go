package seeder

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"rsc.io/pdf"
)

// maxHeadingLength separates numbered headings from numbered clauses that
// run on as body text.
const maxHeadingLength = 100

// titleSearchLines bounds where the standard's title may appear.
const titleSearchLines = 40

// PDFReader extracts standards from local PDF files, the form AAOIFI
// publishes them in.
type PDFReader struct {
	processor *ContentProcessor
	logger    *logrus.Logger
}

func NewPDFReader(processor *ContentProcessor, logger *logrus.Logger) *PDFReader {
	return &PDFReader{processor: processor, logger: logger}
}

// Fetch reads page.File. Without a URL the document is identified as
// "file:" plus the path.
func (r *PDFReader) Fetch(ctx context.Context, page PageConfig) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(page.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", page.File, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", page.File, err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageLines, err := pageText(reader, i)
		if err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{"file": page.File, "page": i}).Warn("Skipping unreadable pdf page")
			continue
		}
		lines = append(lines, pageLines...)
	}

	doc := r.Parse(lines, page)
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("no content extracted from %s", page.File)
	}

	r.logger.WithFields(logrus.Fields{
		"file":            page.File,
		"pages":           reader.NumPage(),
		"standard_number": doc.StandardNumber,
		"sections":        len(doc.Sections),
	}).Debug("PDF parsed")

	return doc, nil
}

// Parse groups extracted lines into sections at numbered headings. The
// standard is taken from the first line that names one.
func (r *PDFReader) Parse(lines []string, page PageConfig) *Document {
	doc := &Document{URL: page.URL}
	if doc.URL == "" {
		doc.URL = "file:" + page.File
	}

	for i, line := range lines {
		if i >= titleSearchLines {
			break
		}
		if number, name, ok := r.processor.ParseStandardHeading(line); ok {
			doc.StandardNumber, doc.StandardName = number, name
			break
		}
	}
	if page.StandardNumber != "" {
		doc.StandardNumber = page.StandardNumber
	}
	if page.StandardName != "" {
		doc.StandardName = page.StandardName
	}

	var current *Section
	var body []string
	flush := func() {
		if current == nil {
			return
		}
		if content := r.processor.CleanContent(strings.Join(body, "\n")); content != "" {
			current.Content = content
			doc.Sections = append(doc.Sections, *current)
		}
		current, body = nil, nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			body = append(body, "")
			continue
		}
		if number, title := r.processor.ParseSectionHeading(line); r.isHeading(line, number, title) {
			flush()
			current = &Section{Number: number, Title: title, Level: strings.Count(number, "/") + strings.Count(number, ".") + 2}
			continue
		}
		if current == nil {
			current = &Section{Level: 1}
		}
		body = append(body, line)
	}
	flush()

	return doc
}

func (r *PDFReader) isHeading(line, number, title string) bool {
	return number != "" && title != "" && len(line) <= maxHeadingLength && !strings.HasSuffix(line, ".")
}

// pageText extracts one page. The pdf package panics on some malformed
// content streams.
func pageText(reader *pdf.Reader, num int) (lines []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page %d: %v", num, rec)
		}
	}()
	p := reader.Page(num)
	if p.V.IsNull() {
		return nil, nil
	}
	return textLines(p.Content().Text), nil
}

// textLines rebuilds reading-order lines from positioned glyph runs.
func textLines(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := append([]pdf.Text(nil), texts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance(sorted[i]) {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	var line strings.Builder
	prev := sorted[0]
	line.WriteString(prev.S)

	for _, t := range sorted[1:] {
		switch {
		case math.Abs(t.Y-prev.Y) > lineTolerance(prev):
			lines = append(lines, line.String())
			line.Reset()
		case t.X-(prev.X+prev.W) > prev.FontSize*0.2:
			line.WriteByte(' ')
		}
		line.WriteString(t.S)
		prev = t
	}
	return append(lines, line.String())
}

func lineTolerance(t pdf.Text) float64 {
	if t.FontSize <= 0 {
		return 2
	}
	return t.FontSize * 0.5
}

// SourceFetcher sends pages with a file to the PDF reader and the rest to
// the web crawler.
type SourceFetcher struct {
	Web Fetcher
	PDF Fetcher
}

func (s SourceFetcher) Fetch(ctx context.Context, page PageConfig) (*Document, error) {
	if page.File != "" {
		if s.PDF == nil {
			return nil, fmt.Errorf("no pdf reader configured for %s", page.File)
		}
		return s.PDF.Fetch(ctx, page)
	}
	return s.Web.Fetch(ctx, page)
}
