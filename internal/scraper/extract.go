package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"dexscreener-extractor/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errNoContainer = errors.New("row container not found")

type Scraper struct {
	layout     Layout
	extractors []fieldExtractor
	tracer     trace.Tracer
}

func New(layout Layout, tracer trace.Tracer) *Scraper {
	return &Scraper{layout: layout, extractors: layout.extractors(), tracer: tracer}
}

func (s *Scraper) Layout() Layout { return s.layout }

// ExtractHTML parses page HTML and extracts every table row.
func (s *Scraper) ExtractHTML(ctx context.Context, html, pageURL string) ([]domain.ExtractedRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return s.Extract(ctx, doc, pageURL), nil
}

// Extract returns one record per token cell in document order. Rows that
// cannot be processed come back as domain.ErrorRow so the rest of the batch
// survives.
func (s *Scraper) Extract(ctx context.Context, doc *goquery.Document, pageURL string) []domain.ExtractedRow {
	_, span := s.tracer.Start(ctx, "scraper.extract")
	defer span.End()

	base, _ := url.Parse(pageURL)
	cells := doc.Find(s.layout.Selectors.TokenCell)
	rows := make([]domain.ExtractedRow, 0, cells.Length())
	cells.Each(func(i int, cell *goquery.Selection) {
		row, err := s.extractRow(cell, base)
		if err != nil {
			log.Debug("row extraction failed", "index", i, "err", err)
			row = domain.ErrorRow()
		}
		rows = append(rows, row)
	})

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows
}

func (s *Scraper) extractRow(cell *goquery.Selection, base *url.URL) (row domain.ExtractedRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic extracting row: %v", r)
		}
	}()

	sel := s.layout.Selectors
	container := cell.Closest(sel.RowContainer)
	if container.Length() == 0 {
		return domain.ExtractedRow{}, errNoContainer
	}

	baseSym := text(cell.Find(sel.BaseSymbol))
	quoteSym := text(cell.Find(sel.QuoteSymbol))
	row.TokenSymbol = domain.UnknownValue
	if baseSym != "" && quoteSym != "" {
		row.TokenSymbol = baseSym + "/" + quoteSym
	}
	row.TokenName = text(cell.Find(sel.TokenName))

	row.DexName = domain.UnknownValue
	if title, ok := container.Find(sel.DexIcon).First().Attr("title"); ok && strings.TrimSpace(title) != "" {
		row.DexName = strings.TrimSpace(title)
	}

	data := container.Find(sel.DataCell)
	for _, fe := range s.extractors {
		if fe.index < data.Length() {
			fe.set(&row, text(data.Eq(fe.index)))
		}
	}

	if href, ok := container.Attr("href"); ok {
		row.PairURL = resolve(base, href)
	}
	return row, nil
}

// CountRows reports how many token cells the HTML holds. It is the readiness
// predicate used while waiting for the table to render.
func (s *Scraper) CountRows(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return doc.Find(s.layout.Selectors.TokenCell).Length()
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
