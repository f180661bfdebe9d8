package usecase

import (
	"bytes"
	"embed"
	"fmt"
	htmlTemplate "html/template"
	"rbac-admin/domain"
	textTemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

type emailTemplate struct {
	subject *textTemplate.Template
	text    *textTemplate.Template
	html    *htmlTemplate.Template
}

type renderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

type templateRenderer struct {
	templates map[domain.EmailCode]*emailTemplate
}

var subjects = map[domain.EmailCode]string{
	domain.EmailCodeAccountCreated: "Your {{.AppName}} account is ready",
}

func newTemplateRenderer() (*templateRenderer, error) {
	r := &templateRenderer{templates: make(map[domain.EmailCode]*emailTemplate, len(subjects))}
	for code, subject := range subjects {
		tmpl := &emailTemplate{}
		var err error
		if tmpl.subject, err = textTemplate.New("subject").Parse(subject); err != nil {
			return nil, fmt.Errorf("failed to parse %s subject: %w", code, err)
		}
		if tmpl.text, err = textTemplate.ParseFS(templateFS, "templates/"+string(code)+".txt"); err != nil {
			return nil, fmt.Errorf("failed to parse %s text body: %w", code, err)
		}
		if tmpl.html, err = htmlTemplate.ParseFS(templateFS, "templates/"+string(code)+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s html body: %w", code, err)
		}
		r.templates[code] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(code domain.EmailCode, data any) (*renderedEmail, error) {
	tmpl, ok := r.templates[code]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", code)
	}

	var subject, text, html bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	if err := tmpl.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &renderedEmail{
		Subject: subject.String(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
