package output

import (
	"bytes"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"
)

// DefaultTemplate prints size and path per file.
const DefaultTemplate = `{{range .Files}}{{.SizeHuman}}	{{.Path}}
{{end}}`

// TemplateFormatter renders a listing through a user supplied text/template.
// The template sees the Listing plus TotalSize.
type TemplateFormatter struct {
	mu       sync.Mutex
	text     string
	template *template.Template
}

type templateData struct {
	*Listing
	TotalSize int64
}

// NewTemplateFormatter creates a formatter for text.
func NewTemplateFormatter(text string) *TemplateFormatter {
	return &TemplateFormatter{text: text}
}

// SetTemplate replaces the template text.
func (f *TemplateFormatter) SetTemplate(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.template = nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// {{bytes .Size}}
		"bytes": func(size int64) string {
			if size < 0 {
				size = 0
			}
			return humanize.IBytes(uint64(size))
		},
		// {{comma .Stats.Entries}}
		"comma": humanize.Comma,
	}
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, l *Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := template.New("output").Funcs(templateFuncs()).Parse(f.text)
		if err != nil {
			return err
		}
		f.template = tmpl
	}
	return f.template.Execute(w, templateData{Listing: l, TotalSize: l.TotalSize()})
}

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(DefaultTemplate)
	})
}

var _ Formatter = (*TemplateFormatter)(nil)
