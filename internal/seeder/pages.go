package seeder

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// PageConfig is one standards source: a web page to crawl or a local PDF.
// StandardNumber and StandardName override what is parsed from the source.
type PageConfig struct {
	URL            string `yaml:"url"`
	File           string `yaml:"file"`
	StandardNumber string `yaml:"standard_number"`
	StandardName   string `yaml:"standard_name"`
	Priority       int    `yaml:"priority"`
	// Selector is the CSS selector of the content root. Defaults to "body".
	Selector string `yaml:"selector"`
}

// Source names the page in logs: its URL, or its file path.
func (p PageConfig) Source() string {
	if p.URL != "" {
		return p.URL
	}
	return p.File
}

type pagesFile struct {
	Pages []PageConfig `yaml:"pages"`
}

// LoadPages reads a YAML page list.
func LoadPages(path string) ([]PageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePages(data)
}

// ParsePages validates a page list and orders it by priority, highest first.
func ParsePages(data []byte) ([]PageConfig, error) {
	var file pagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid pages file: %w", err)
	}

	seen := make(map[string]bool, len(file.Pages))
	pages := make([]PageConfig, 0, len(file.Pages))
	for i, p := range file.Pages {
		p.URL = strings.TrimSpace(p.URL)
		p.File = strings.TrimSpace(p.File)
		if p.URL == "" && p.File == "" {
			return nil, fmt.Errorf("page %d has no url or file", i+1)
		}
		key := p.URL + "|" + p.File
		if seen[key] {
			continue
		}
		seen[key] = true
		if p.Selector == "" {
			p.Selector = "body"
		}
		pages = append(pages, p)
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Priority > pages[j].Priority
	})
	return pages, nil
}
