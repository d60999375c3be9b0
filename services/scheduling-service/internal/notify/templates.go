package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
)

const layout = `{{define "layout"}}<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hello {{.PatientName}},</p>
{{template "body" .}}
<p>Date: <strong>{{.Date}}</strong> at <strong>{{.Time}}</strong> ({{.Type}})<br>
Professional: {{.ProfessionalName}}</p>
</body></html>{{end}}`

var bodies = map[lifecycle.EventKind]struct {
	subject string
	body    string
}{
	lifecycle.EventScheduled: {
		subject: "Your appointment is scheduled",
		body:    `{{define "body"}}<p>Your appointment has been scheduled.</p>{{end}}`,
	},
	lifecycle.EventCancelled: {
		subject: "Your appointment was cancelled",
		body: `{{define "body"}}<p>Your appointment has been cancelled.{{if .Reason}} Reason: {{.Reason}}.{{end}}</p>
{{if .RefundAmount}}<p>A refund of {{.RefundAmount}} ({{.RefundPercentage}}%) is on its way.</p>{{end}}{{end}}`,
	},
	lifecycle.EventRescheduled: {
		subject: "Your appointment was rescheduled",
		body: `{{define "body"}}<p>Your appointment on {{.PreviousDate}} at {{.PreviousTime}} has been moved.</p>
{{if .FeeAmount}}<p>A rescheduling fee of {{.FeeAmount}} applies.</p>{{end}}{{end}}`,
	},
}

var templates = mustParse()

func mustParse() map[lifecycle.EventKind]*template.Template {
	out := make(map[lifecycle.EventKind]*template.Template, len(bodies))
	for kind, b := range bodies {
		t := template.Must(template.New(string(kind)).Parse(layout))
		out[kind] = template.Must(t.Parse(b.body))
	}
	return out
}

type emailData struct {
	PatientName      string
	ProfessionalName string
	Date             string
	Time             string
	Type             string
	Reason           string
	RefundAmount     string
	RefundPercentage int
	PreviousDate     string
	PreviousTime     string
	FeeAmount        string
}

// render returns subject and body for kind. ok is false for kinds that do
// not send email.
func render(kind lifecycle.EventKind, data emailData) (subject, html string, ok bool, err error) {
	t, found := templates[kind]
	if !found {
		return "", "", false, nil
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", false, fmt.Errorf("render %s email: %w", kind, err)
	}
	return bodies[kind].subject, buf.String(), true, nil
}
