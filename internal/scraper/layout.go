package scraper

import (
	"fmt"
	"os"
	"sort"

	"dexscreener-extractor/internal/domain"

	"gopkg.in/yaml.v3"
)

// Selectors locate the parts of one pair-table row.
type Selectors struct {
	TokenCell    string `yaml:"tokenCell"`
	RowContainer string `yaml:"rowContainer"`
	BaseSymbol   string `yaml:"baseSymbol"`
	QuoteSymbol  string `yaml:"quoteSymbol"`
	TokenName    string `yaml:"tokenName"`
	DexIcon      string `yaml:"dexIcon"`
	DataCell     string `yaml:"dataCell"`
}

// Layout describes the target page table: where rows are and which data
// cell feeds which field.
type Layout struct {
	Selectors Selectors      `yaml:"selectors"`
	Fields    map[string]int `yaml:"fields"`
}

// fieldSetters is the closed set of cell-backed fields a layout may map.
var fieldSetters = map[string]func(*domain.ExtractedRow, string){
	"price":     func(r *domain.ExtractedRow, v string) { r.Price = v },
	"age":       func(r *domain.ExtractedRow, v string) { r.Age = v },
	"txns":      func(r *domain.ExtractedRow, v string) { r.Txns = v },
	"volume":    func(r *domain.ExtractedRow, v string) { r.Volume = v },
	"makers":    func(r *domain.ExtractedRow, v string) { r.Makers = v },
	"change5m":  func(r *domain.ExtractedRow, v string) { r.Change5m = v },
	"change1h":  func(r *domain.ExtractedRow, v string) { r.Change1h = v },
	"change6h":  func(r *domain.ExtractedRow, v string) { r.Change6h = v },
	"change24h": func(r *domain.ExtractedRow, v string) { r.Change24h = v },
	"liquidity": func(r *domain.ExtractedRow, v string) { r.Liquidity = v },
	"mcap":      func(r *domain.ExtractedRow, v string) { r.MarketCap = v },
}

// DefaultLayout matches the DEXScreener markup. Cell 0 holds the token itself.
func DefaultLayout() Layout {
	return Layout{
		Selectors: Selectors{
			TokenCell:    ".ds-dex-table-row-col-token",
			RowContainer: ".ds-dex-table-row-top",
			BaseSymbol:   ".ds-dex-table-row-base-token-symbol",
			QuoteSymbol:  ".ds-dex-table-row-quote-token-symbol",
			TokenName:    ".ds-dex-table-row-base-token-name-text",
			DexIcon:      ".ds-dex-table-row-dex-icon",
			DataCell:     ".ds-table-data-cell",
		},
		Fields: map[string]int{
			"price":     1,
			"age":       2,
			"txns":      3,
			"volume":    4,
			"makers":    5,
			"change5m":  6,
			"change1h":  7,
			"change6h":  8,
			"change24h": 9,
			"liquidity": 10,
			"mcap":      11,
		},
	}
}

// LoadLayout reads a YAML override from path. Anything the file leaves out
// keeps its default. An empty path returns the default layout.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout %s: %w", path, err)
	}
	return ParseLayout(data)
}

func ParseLayout(data []byte) (Layout, error) {
	var override Layout
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}

	layout := DefaultLayout()
	s := override.Selectors
	for dst, src := range map[*string]string{
		&layout.Selectors.TokenCell:    s.TokenCell,
		&layout.Selectors.RowContainer: s.RowContainer,
		&layout.Selectors.BaseSymbol:   s.BaseSymbol,
		&layout.Selectors.QuoteSymbol:  s.QuoteSymbol,
		&layout.Selectors.TokenName:    s.TokenName,
		&layout.Selectors.DexIcon:      s.DexIcon,
		&layout.Selectors.DataCell:     s.DataCell,
	} {
		if src != "" {
			*dst = src
		}
	}
	for name, idx := range override.Fields {
		if _, ok := fieldSetters[name]; !ok {
			return Layout{}, fmt.Errorf("unknown field %q in layout", name)
		}
		if idx < 0 {
			return Layout{}, fmt.Errorf("negative cell index %d for field %q", idx, name)
		}
		layout.Fields[name] = idx
	}
	return layout, nil
}

type fieldExtractor struct {
	name  string
	index int
	set   func(*domain.ExtractedRow, string)
}

func (l Layout) extractors() []fieldExtractor {
	out := make([]fieldExtractor, 0, len(l.Fields))
	for name, idx := range l.Fields {
		if set, ok := fieldSetters[name]; ok {
			out = append(out, fieldExtractor{name: name, index: idx, set: set})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}
