package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
	"time"
)

// Template names.
const (
	TemplateSessionReminder   = "session_reminder"
	TemplateApplicationStatus = "application_status"
)

// SessionReminder is the data for TemplateSessionReminder.
type SessionReminder struct {
	Name        string
	MentorName  string
	LearnerName string
	Topic       string
	Start       time.Time
	End         time.Time
}

// ApplicationStatus is the data for TemplateApplicationStatus.
type ApplicationStatus struct {
	Name   string
	Status string
	Note   string
}

//go:embed templates/*.tmpl
var templateFS embed.FS

// Mailer renders named templates and sends the result. Every template
// defines a "subject" and a "body" block.
type Mailer struct {
	sender    Sender
	templates map[string]*template.Template
}

func NewMailer(sender Sender) (*Mailer, error) {
	files, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	m := &Mailer{sender: sender, templates: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".tmpl")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, f)
		if err != nil {
			return nil, fmt.Errorf("parse mail template %s: %w", name, err)
		}
		m.templates[name] = t
	}
	return m, nil
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
}

// Render executes the named template.
func (m *Mailer) Render(name string, data any) (subject, body string, err error) {
	t, ok := m.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := t.ExecuteTemplate(&buf, "body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subject, strings.TrimSpace(buf.String()) + "\n", nil
}

// Send renders the named template and delivers it to the recipients.
func (m *Mailer) Send(ctx context.Context, to []Address, name string, data any) error {
	subject, body, err := m.Render(name, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{To: to, Subject: subject, Text: body})
}
