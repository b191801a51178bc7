package analysis

import "time"

// DocType tags which kind of document is being analyzed.
type DocType string

const (
	DocTypePrivacy DocType = "privacy"
	DocTypeTerms   DocType = "terms"
)

// IsPrivacy reports whether the tag selects privacy-policy wording.
// Every other value, including empty, falls back to terms of service.
func (t DocType) IsPrivacy() bool { return t == DocTypePrivacy }

// Request is the body accepted by POST /analyze. See UnmarshalJSON for how
// non-string values are read.
type Request struct {
	Text string  `json:"text"`
	Type DocType `json:"type"`
}

// Result is the structured analysis returned to the caller.
type Result struct {
	Summary      string   `json:"summary"`
	KeyPoints    []string `json:"keyPoints"`
	Implications []string `json:"implications"`
	Concerns     []string `json:"concerns"`
	Score        int      `json:"score"`
}

// ChatRequest is the provider-neutral input of a single chat completion.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// RecordID identifier type
type RecordID string

// Record is an archived analysis. It carries a digest of the document, never the text.
type Record struct {
	ID             RecordID  `json:"id"`
	DocType        DocType   `json:"doc_type"`
	Model          string    `json:"model"`
	DocumentSHA256 string    `json:"document_sha256"`
	DocumentChars  int       `json:"document_chars"`
	Result         string    `json:"result"` // JSON encoded Result
	RawCompletion  string    `json:"raw_completion"`
	CreatedAt      time.Time `json:"created_at"`
}

// Paging limits for archive listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize far from int overflow.
	MaxPage = 10000
)

// PageBounds normalizes a 1-based page request: page to [1, MaxPage], size to
// [1, MaxPageSize] with DefaultPageSize for non-positive input.
func PageBounds(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Page is one page of archived records.
type Page struct {
	Data     []*Record `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}
