package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var updateTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/weekly_update.html")
	if err != nil {
		// Fallback to built-in template if file not found
		updateTemplate = template.Must(template.New("update").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	updateTemplate = template.Must(template.New("update").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for weekly update rendering
type TemplateData struct {
	Title     string
	TeamName  string
	OrgName   string
	WeekDate  string
	Status    string
	UpdatedAt time.Time
	Sections  []Section
}

// RenderUpdateHTML renders the update template with provided data
func RenderUpdateHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := updateTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.OrgName}} | {{.TeamName}} | {{.WeekDate}}</div>
  {{range .Sections}}
  <h2>{{.Title}}</h2>
  {{range .Entries}}{{if .List}}<h3>{{.Label}}</h3><ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{else}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>{{end}}{{end}}
  {{end}}
</body>
</html>`
