package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const userAgent = "AAOIFI-Chat-Seeder/1.0 (+https://ailat.kz)"

// Document is one crawled standard split into sections.
type Document struct {
	URL            string
	StandardNumber string
	StandardName   string
	Sections       []Section
}

// Section is the text under one heading.
type Section struct {
	Number  string
	Title   string
	Anchor  string
	Level   int
	Content string
}

// CrawlerConfig tunes one page fetch. Pages run concurrently through the
// Seeder's worker pool, not through colly.
type CrawlerConfig struct {
	// Delay is held after each request before Fetch returns.
	Delay   time.Duration
	Timeout time.Duration
}

// Crawler fetches standards pages with colly.
type Crawler struct {
	config    CrawlerConfig
	processor *ContentProcessor
	logger    *logrus.Logger
}

func NewCrawler(config CrawlerConfig, processor *ContentProcessor, logger *logrus.Logger) *Crawler {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Crawler{config: config, processor: processor, logger: logger}
}

// Fetch downloads one page and parses it. A fresh collector per page keeps
// callbacks from leaking between pages.
func (c *Crawler) Fetch(ctx context.Context, page PageConfig) (*Document, error) {
	var doc *Document
	var processingError error

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      c.config.Delay,
	}); err != nil {
		return nil, err
	}
	collector.SetRequestTimeout(c.config.Timeout)

	selector := page.Selector
	if selector == "" {
		selector = "body"
	}

	var pageTitle string
	collector.OnHTML("title", func(e *colly.HTMLElement) {
		pageTitle = strings.TrimSpace(e.Text)
	})
	collector.OnHTML(selector, func(e *colly.HTMLElement) {
		if doc != nil {
			return
		}
		doc = c.Parse(e.DOM, page, pageTitle)
	})
	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		processingError = err
	})

	if err := collector.Visit(page.URL); err != nil {
		return nil, fmt.Errorf("failed to visit page: %w", err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if processingError != nil {
		return nil, fmt.Errorf("processing error: %w", processingError)
	}
	if doc == nil || len(doc.Sections) == 0 {
		return nil, fmt.Errorf("no content extracted from %s", page.URL)
	}

	c.logger.WithFields(logrus.Fields{
		"url":             page.URL,
		"standard_number": doc.StandardNumber,
		"sections":        len(doc.Sections),
	}).Debug("Page parsed")

	return doc, nil
}

// Parse turns a content root into a Document. The standard is identified
// from the first h1, falling back to the document title.
func (c *Crawler) Parse(root *goquery.Selection, page PageConfig, documentTitle string) *Document {
	root.Find("script, style, nav, header, footer, .toc, #toc, .noprint").Remove()

	heading := strings.TrimSpace(root.Find("h1").First().Text())
	if heading == "" {
		heading = documentTitle
	}
	number, name, _ := c.processor.ParseStandardHeading(heading)
	if page.StandardNumber != "" {
		number = page.StandardNumber
	}
	if page.StandardName != "" {
		name = page.StandardName
	}

	doc := &Document{
		URL:            page.URL,
		StandardNumber: number,
		StandardName:   name,
	}

	root.Find("h2, h3, h4").Each(func(_ int, selection *goquery.Selection) {
		titleText := strings.TrimSpace(selection.Text())
		if titleText == "" {
			return
		}

		anchor, _ := selection.Attr("id")

		level := 2
		switch goquery.NodeName(selection) {
		case "h3":
			level = 3
		case "h4":
			level = 4
		}

		var paragraphs []string
		selection.NextUntil("h1, h2, h3, h4").Each(func(_ int, sibling *goquery.Selection) {
			if sibling.HasClass("navbox") {
				return
			}
			if text := strings.TrimSpace(sibling.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		content := c.processor.CleanContent(strings.Join(paragraphs, "\n\n"))
		if content == "" {
			return
		}

		sectionNumber, sectionTitle := c.processor.ParseSectionHeading(titleText)
		doc.Sections = append(doc.Sections, Section{
			Number:  sectionNumber,
			Title:   sectionTitle,
			Anchor:  anchor,
			Level:   level,
			Content: content,
		})
	})

	if len(doc.Sections) == 0 {
		var paragraphs []string
		root.Find("p, li").Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if content := c.processor.CleanContent(strings.Join(paragraphs, "\n\n")); content != "" {
			doc.Sections = append(doc.Sections, Section{Content: content, Level: 1})
		}
	}

	return doc
}
