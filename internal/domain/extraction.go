package domain

import (
	"strings"
	"time"
)

// Sentinel values written into ExtractedRow fields when the page does not
// provide a usable value.
const (
	UnknownValue = "Unknown"
	ErrorSymbol  = "Error"
)

// HistoryCapacity is the maximum number of ExtractionRecords kept in the store.
const HistoryCapacity = 100

// ExtractedRow is one normalized pair-table row. Every field is kept as the
// display string found on the page.
type ExtractedRow struct {
	TokenSymbol string `json:"tokenSymbol"`
	TokenName   string `json:"tokenName"`
	DexName     string `json:"dexName"`
	Price       string `json:"price"`
	Age         string `json:"age"`
	Txns        string `json:"txns"`
	Volume      string `json:"volume"`
	Makers      string `json:"makers"`
	Change5m    string `json:"change5m"`
	Change1h    string `json:"change1h"`
	Change6h    string `json:"change6h"`
	Change24h   string `json:"change24h"`
	Liquidity   string `json:"liquidity"`
	MarketCap   string `json:"mcap"`
	PairURL     string `json:"pairUrl"`
}

// ErrorRow is the row recorded in place of a row whose processing failed.
func ErrorRow() ExtractedRow {
	return ExtractedRow{TokenSymbol: ErrorSymbol}
}

// ExtractionBatch is the result of one scrape.
type ExtractionBatch struct {
	CapturedAt time.Time
	Source     string
	Rows       []ExtractedRow
	Automatic  bool
}

// Record summarizes the batch for the extraction history.
func (b ExtractionBatch) Record() ExtractionRecord {
	return ExtractionRecord{
		Timestamp:     FormatTimestamp(b.CapturedAt),
		RowsExtracted: len(b.Rows),
		IsAutomatic:   b.Automatic,
	}
}

// Payload builds the webhook body for the batch.
func (b ExtractionBatch) Payload() WebhookPayload {
	rows := b.Rows
	if rows == nil {
		rows = []ExtractedRow{}
	}
	return WebhookPayload{
		Timestamp:   FormatTimestamp(b.CapturedAt),
		Source:      b.Source,
		Data:        rows,
		IsAutomatic: b.Automatic,
	}
}

// ExtractionRecord is one entry of the persisted extraction history.
type ExtractionRecord struct {
	Timestamp     string `json:"timestamp"`
	RowsExtracted int    `json:"rowsExtracted"`
	IsAutomatic   bool   `json:"isAutomatic"`
}

// Time parses the record timestamp. The zero time is returned for malformed values.
func (r ExtractionRecord) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// WebhookPayload is the JSON document POSTed to the configured endpoint.
type WebhookPayload struct {
	Timestamp   string         `json:"timestamp"`
	Source      string         `json:"source"`
	Data        []ExtractedRow `json:"data"`
	IsAutomatic bool           `json:"isAutomatic"`
}

// AppendHistory appends rec and drops the oldest entries beyond HistoryCapacity.
func AppendHistory(history []ExtractionRecord, rec ExtractionRecord) []ExtractionRecord {
	history = append(history, rec)
	if len(history) > HistoryCapacity {
		history = append([]ExtractionRecord(nil), history[len(history)-HistoryCapacity:]...)
	}
	return history
}

// FormatTimestamp renders t in UTC with millisecond precision, the same shape
// browsers produce for Date.prototype.toISOString.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ExportFileName returns the download name used for locally saved batches.
func ExportFileName(t time.Time) string {
	return "dexscreener_data_" + strings.ReplaceAll(FormatTimestamp(t), ":", "-") + ".json"
}
