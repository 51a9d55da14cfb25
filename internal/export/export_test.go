package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"cadence/api/internal/document"
	"cadence/api/internal/store"
)

func sampleUpdate() store.WeeklyUpdate {
	score := 4.0
	doc := document.Default()
	doc.Top3Bullets = "Shipped search\n\nHired two engineers"
	doc.TeamHealth.SentimentScore = &score
	doc.TeamHealth.OverallStatus = "On track"
	doc.DeliveryPerformance.Accomplishments = []string{"Shipped X", "  "}
	doc.RisksEscalations.Risks = []document.Risk{{Title: "Vendor <API>", Description: "sunset", Severity: document.SeverityRed}}
	return store.WeeklyUpdate{
		ID:        "u-1",
		UserID:    "user-1",
		WeekDate:  "2025-01-06",
		TeamName:  "Platform",
		OrgName:   "Acme",
		Status:    "draft",
		UpdatedAt: time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC),
		Document:  doc,
	}
}

type memArchive struct {
	keys  []string
	types []string
	err   error
}

func (m *memArchive) Put(_ context.Context, key string, _ []byte, contentType string) error {
	m.keys = append(m.keys, key)
	m.types = append(m.types, contentType)
	return m.err
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Platform 2025-01-06", "Platform-2025-01-06"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "weekly-update"},
		{"Very Long Team Name That Exceeds Fifty Characters Limit", "Very-Long-Team-Name-That-Exceeds-Fifty-Characters-"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"é", "%C3%A9"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatPDF {
		t.Fatalf("ParseFormat(\"\") = %q, %v", f, err)
	}
	if f, err := ParseFormat("xlsx"); err != nil || f != FormatXLSX {
		t.Fatalf("ParseFormat(xlsx) = %q, %v", f, err)
	}
	if _, err := ParseFormat("odt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("ParseFormat(odt) error = %v", err)
	}
}

func TestBuildSectionsSkipsBlankItems(t *testing.T) {
	sections := BuildSections(sampleUpdate().Document)
	if len(sections) != 9 {
		t.Fatalf("got %d sections, want 9", len(sections))
	}

	top := sections[0].Entries[0]
	if got := strings.Join(top.Items, ","); got != "Shipped search,Hired two engineers" {
		t.Errorf("top bullets = %q", got)
	}
	delivery := sections[2].Entries[0]
	if len(delivery.Items) != 1 || delivery.Items[0] != "Shipped X" {
		t.Errorf("accomplishments = %v", delivery.Items)
	}
	if got := sections[1].Entries[1].Value; got != "4" {
		t.Errorf("sentiment = %q, want 4", got)
	}
}

func TestRenderUpdateHTML(t *testing.T) {
	u := sampleUpdate()
	html, err := RenderUpdateHTML(TemplateData{
		Title:     "Weekly Update: Platform",
		TeamName:  u.TeamName,
		OrgName:   u.OrgName,
		WeekDate:  u.WeekDate,
		UpdatedAt: u.UpdatedAt,
		Sections:  BuildSections(u.Document),
	})
	if err != nil {
		t.Fatalf("RenderUpdateHTML() error = %v", err)
	}

	for _, want := range []string{"Weekly Update: Platform", "Week of 2025-01-06", "Team Health", "Shipped X", "Jan 7, 2025"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	// User text must be escaped.
	if strings.Contains(html, "Vendor <API>") {
		t.Error("risk title was not escaped")
	}
	if !strings.Contains(html, "Vendor &lt;API&gt;") {
		t.Error("escaped risk title missing")
	}
}

func TestExportXLSX(t *testing.T) {
	svc := NewService(nil, nil)
	result, err := svc.Export(context.Background(), Request{Update: sampleUpdate(), Format: FormatXLSX})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Filename != "Platform-2025-01-06.xlsx" {
		t.Errorf("filename = %q", result.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if rows[0][0] != "Weekly Update: Platform" {
		t.Errorf("first row = %v", rows[0])
	}

	var accomplishments []string
	for _, row := range rows {
		if len(row) == 2 && row[0] == "Accomplishments" {
			accomplishments = append(accomplishments, row[1])
		}
	}
	if len(accomplishments) != 1 || accomplishments[0] != "Shipped X" {
		t.Errorf("accomplishment rows = %v", accomplishments)
	}

	style, err := f.GetCellStyle(xlsxSheet, "A1")
	if err != nil || style == 0 {
		t.Errorf("title cell style = %d, %v; want bold style", style, err)
	}
}

func TestExportArchivesOutput(t *testing.T) {
	archive := &memArchive{}
	svc := NewService(archive, nil)

	result, err := svc.Export(context.Background(), Request{Update: sampleUpdate(), Format: FormatHTML})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(result.MimeType, "text/html") {
		t.Errorf("mime = %q", result.MimeType)
	}
	if len(archive.keys) != 1 || archive.keys[0] != "exports/u-1/Platform-2025-01-06.html" {
		t.Errorf("archived keys = %v", archive.keys)
	}
}

func TestExportArchiveFailureStillReturnsResult(t *testing.T) {
	svc := NewService(&memArchive{err: errors.New("bucket gone")}, nil)
	result, err := svc.Export(context.Background(), Request{Update: sampleUpdate(), Format: FormatHTML})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(result.Data) == 0 {
		t.Error("expected rendered HTML")
	}
}

func TestExportPDFUsesRenderedHTML(t *testing.T) {
	svc := NewService(nil, nil)
	var seen string
	svc.pdf = func(_ context.Context, html string) ([]byte, error) {
		seen = html
		return []byte("%PDF-1.7"), nil
	}

	result, err := svc.Export(context.Background(), Request{Update: sampleUpdate(), Format: FormatPDF})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.MimeType != "application/pdf" || string(result.Data) != "%PDF-1.7" {
		t.Errorf("unexpected result %+v", result)
	}
	if !strings.Contains(seen, "Delivery Performance") {
		t.Error("pdf renderer did not receive the update HTML")
	}
}

func TestExportDependencyMissing(t *testing.T) {
	svc := NewService(nil, nil)
	svc.docx = func(context.Context, string) ([]byte, error) {
		return nil, ErrDOCXDependencyMissing
	}
	_, err := svc.Export(context.Background(), Request{Update: sampleUpdate(), Format: FormatDOCX})
	if !errors.Is(err, ErrDOCXDependencyMissing) {
		t.Fatalf("error = %v, want ErrDOCXDependencyMissing", err)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Export(context.Background(), Request{Update: sampleUpdate(), Format: "odt"})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v", err)
	}
}
