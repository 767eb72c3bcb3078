package notification

import (
	"bytes"
	"fmt"
	"text/template"
)

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) mailTemplate {
	return mailTemplate{
		subject: template.Must(template.New(name + "_subject").Parse(subject)),
		body:    template.Must(template.New(name + "_body").Parse(body)),
	}
}

var templates = map[string]mailTemplate{
	TemplateBookingReceived: mustTemplate(TemplateBookingReceived,
		"Booking request received: {{.ServiceName}} on {{.Date}}",
		`Hello {{.CustomerName}},

We received your booking request for {{.ServiceName}} with {{.ProviderName}}
on {{.Date}} at {{.Time}}. It will be confirmed shortly.

To cancel, use this code: {{.CancelToken}}
`),

	TemplateBookingConfirmed: mustTemplate(TemplateBookingConfirmed,
		"Booking confirmed: {{.ServiceName}} on {{.Date}}",
		`Hello {{.CustomerName}},

Your appointment for {{.ServiceName}} with {{.ProviderName}}
on {{.Date}} at {{.Time}} is confirmed.

To cancel, use this code: {{.CancelToken}}
`),

	TemplateBookingCancelled: mustTemplate(TemplateBookingCancelled,
		"Booking cancelled: {{.ServiceName}} on {{.Date}}",
		`Hello {{.CustomerName}},

Your appointment for {{.ServiceName}} with {{.ProviderName}}
on {{.Date}} at {{.Time}} has been cancelled.
`),

	TemplateAdminNewBooking: mustTemplate(TemplateAdminNewBooking,
		"New booking #{{.AppointmentID}}: {{.ServiceName}} on {{.Date}} {{.Time}}",
		`New booking request #{{.AppointmentID}}

Service:  {{.ServiceName}}
Provider: {{.ProviderName}}
When:     {{.Date}} {{.Time}}-{{.EndTime}}

Customer: {{.CustomerName}} <{{.CustomerEmail}}> {{.CustomerPhone}}
Notes:    {{.Notes}}
`),
}

func Known(name string) bool {
	_, ok := templates[name]
	return ok
}

// Render produces the subject and body of msg.
func Render(msg Message) (string, string, error) {
	t, ok := templates[msg.Template]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}

	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, msg.Data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&body, msg.Data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}

	return subject.String(), body.String(), nil
}
