package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service renders weekly updates and optionally archives the output.
type Service struct {
	archive Archiver
	log     *zap.Logger

	pdf  func(ctx context.Context, html string) ([]byte, error)
	docx func(ctx context.Context, html string) ([]byte, error)
}

// NewService creates a new export service. archive may be nil.
func NewService(archive Archiver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		archive: archive,
		log:     log.Named("export"),
		pdf:     renderPDF,
		docx:    renderDOCX,
	}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	u := req.Update
	data := TemplateData{
		Title:     fmt.Sprintf("Weekly Update: %s", u.TeamName),
		TeamName:  u.TeamName,
		OrgName:   u.OrgName,
		WeekDate:  u.WeekDate,
		Status:    u.Status,
		UpdatedAt: u.UpdatedAt,
		Sections:  BuildSections(u.Document),
	}
	base := sanitizeFilename(u.TeamName + " " + u.WeekDate)

	var (
		result *Result
		err    error
	)
	switch req.Format {
	case FormatHTML:
		result, err = s.exportHTML(data, base)
	case FormatPDF:
		result, err = s.exportWithHTML(ctx, data, base+".pdf", "application/pdf", s.pdf)
	case FormatDOCX:
		result, err = s.exportWithHTML(ctx, data, base+".docx",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document", s.docx)
	case FormatXLSX:
		var out []byte
		out, err = renderXLSX(data)
		if err == nil {
			result = &Result{
				Data:     out,
				Filename: base + ".xlsx",
				MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
	if err != nil {
		return nil, err
	}

	s.store(ctx, u.ID, result)
	return result, nil
}

func (s *Service) exportHTML(data TemplateData, base string) (*Result, error) {
	html, err := RenderUpdateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return &Result{Data: []byte(html), Filename: base + ".html", MimeType: "text/html; charset=utf-8"}, nil
}

func (s *Service) exportWithHTML(ctx context.Context, data TemplateData, filename, mime string,
	render func(context.Context, string) ([]byte, error)) (*Result, error) {
	html, err := RenderUpdateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	out, err := render(ctx, html)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out, Filename: filename, MimeType: mime}, nil
}

// store archives a rendered export. Failures are logged; the caller still
// gets the export.
func (s *Service) store(ctx context.Context, updateID string, result *Result) {
	if s.archive == nil {
		return
	}
	key := archiveKey(updateID, result.Filename)
	if err := s.archive.Put(ctx, key, result.Data, result.MimeType); err != nil {
		s.log.Warn("archive export failed", zap.String("update_id", updateID), zap.String("key", key), zap.Error(err))
		return
	}
	s.log.Debug("export archived", zap.String("update_id", updateID), zap.String("key", key))
}
