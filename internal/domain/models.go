package domain

import (
	"time"
)

// Point is a device-pixel coordinate on a rasterized page.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is the four corners of a detected text box in the order
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// Top returns the smaller y of the two upper corners.
func (q Quad) Top() float64 {
	return min(q[0].Y, q[1].Y)
}

// Left returns the smaller x of the two left-hand corners.
func (q Quad) Left() float64 {
	return min(q[0].X, q[3].X)
}

// QuadFromRect builds a quad from an axis-aligned rectangle.
func QuadFromRect(x0, y0, x1, y1 float64) Quad {
	return Quad{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// TextRegion is one OCR detection.
type TextRegion struct {
	Text       string  `json:"text"`
	Box        Quad    `json:"box"`
	Confidence float64 `json:"confidence"`
}

// TableGrid is a reconstructed table. Every row has the same width and row 0
// is treated as the header.
type TableGrid [][]string

// Width returns the column count of the first row.
func (g TableGrid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Source says which extraction path produced a table.
type Source string

const (
	SourceStructural Source = "structural"
	SourceOCR        Source = "ocr"
)

// PageTableResult is one table found on one page.
type PageTableResult struct {
	PageNumber int       `json:"page_number"` // 1-based
	Grid       TableGrid `json:"grid"`
	Source     Source    `json:"source"`
}

// PageOutcome is what a page worker reports for a single page. A nil Result
// with an empty Err means the page was processed and held no table.
type PageOutcome struct {
	Page   int              `json:"page"` // 0-based index
	Result *PageTableResult `json:"result,omitempty"`
	Err    string           `json:"error,omitempty"`
}

// Failed reports whether the worker recorded an error for the page.
func (o PageOutcome) Failed() bool {
	return o.Err != ""
}

// Action names accepted by the conversion protocol.
const (
	ActionDocx    = "pdf_to_docx"
	ActionExcel   = "pdf_to_excel"
	ActionPPT     = "pdf_to_ppt"
	ActionJPG     = "pdf_to_jpg"
	ActionJPGFast = "pdf_to_jpg_fast"
)

// Actions lists every action in the order they are advertised to callers.
var Actions = []string{ActionDocx, ActionExcel, ActionPPT, ActionJPG, ActionJPGFast}

// Request is a single conversion request as read from the JSON protocol.
type Request struct {
	Action     string `json:"action"`
	PDFPath    string `json:"pdf_path"`
	OutputPath string `json:"output_path,omitempty"`
	Pages      string `json:"pages,omitempty"`
	UseOCR     bool   `json:"use_ocr,omitempty"`
	FastMode   bool   `json:"fast_mode,omitempty"`
	DPI        int    `json:"dpi,omitempty"`
	Quality    int    `json:"quality,omitempty"`
}

// Response is the JSON reply to a Request. Only the fields relevant to the
// action are populated.
type Response struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message,omitempty"`
	Error          string   `json:"error,omitempty"`
	OutputPath     string   `json:"output_path,omitempty"`
	OutputPaths    []string `json:"output_paths,omitempty"`
	TablesCount    *int     `json:"tables_count,omitempty"`
	PagesCount     *int     `json:"pages_count,omitempty"`
	PagesConverted *int     `json:"pages_converted,omitempty"`
	TotalPages     *int     `json:"total_pages,omitempty"`
}

// Failure builds an unsuccessful response.
func Failure(msg string) *Response {
	return &Response{Success: false, Error: msg}
}

// IntPtr is a helper for the optional counters on Response.
func IntPtr(v int) *int {
	return &v
}

// EventType represents the type of progress event
type EventType string

const (
	EventStart          EventType = "start"
	EventPageProcessing EventType = "page_processing"
	EventPageComplete   EventType = "page_complete"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// ProgressEvent is emitted while a multi-page operation runs.
type ProgressEvent struct {
	Type       EventType   `json:"type"`
	PageNumber int         `json:"page_number,omitempty"`
	Done       int         `json:"done"`
	Total      int         `json:"total"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ProgressFunc receives progress events. Implementations must not block.
type ProgressFunc func(ProgressEvent)

// ConversionRecord is one row of the conversion history.
type ConversionRecord struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	PDFPath     string    `json:"pdf_path"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
	TablesCount int       `json:"tables_count"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
