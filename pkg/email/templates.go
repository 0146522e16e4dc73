package email

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	TemplateVerifyEmail          = "verify_email"
	TemplatePasswordReset        = "password_reset"
	TemplateJobInvitation        = "job_invitation"
	TemplateApplicationStatus    = "application_status"
	TemplateInterviewScheduled   = "interview_scheduled"
	TemplateInterviewReminder    = "interview_reminder"
	TemplateAssessmentInvitation = "assessment_invitation"
	TemplateResultDeclared       = "result_declared"
)

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0066cc; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .button { display: inline-block; padding: 10px 20px; background: #0066cc; color: white; text-decoration: none; border-radius: 4px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>{{template "title" .}}</h1></div>
        <div class="content">{{template "body" .}}</div>
        <div class="footer"><p>This is an automated message from the Placement Portal.</p></div>
    </div>
</body>
</html>`

var bodies = map[string]string{
	TemplateVerifyEmail: `{{define "title"}}Verify your email{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>Confirm your email address to activate your account.</p>
<p><a class="button" href="{{.Link}}">Verify email</a></p>
<p>The link expires in {{.ExpiresIn}}.</p>{{end}}`,

	TemplatePasswordReset: `{{define "title"}}Reset your password{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>We received a request to reset your password.</p>
<p><a class="button" href="{{.Link}}">Choose a new password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>{{end}}`,

	TemplateJobInvitation: `{{define "title"}}You're invited to apply{{end}}
{{define "body"}}<p>{{.Organization}} invited you to apply for <strong>{{.JobTitle}}</strong>.</p>
<p><a class="button" href="{{.Link}}">View and apply</a></p>
<p>This invitation expires on {{.ExpiresAt}}.</p>{{end}}`,

	TemplateApplicationStatus: `{{define "title"}}Application update{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>Your application for <strong>{{.JobTitle}}</strong> at {{.Organization}} is now <strong>{{.Status}}</strong>.</p>
{{if .Note}}<p>{{.Note}}</p>{{end}}{{end}}`,

	TemplateInterviewScheduled: `{{define "title"}}Interview scheduled{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>Round {{.Round}} for <strong>{{.JobTitle}}</strong> is scheduled on {{.ScheduledAt}} ({{.Duration}} minutes, {{.Mode}}).</p>
{{if .Location}}<p>Location: {{.Location}}</p>{{end}}{{end}}`,

	TemplateInterviewReminder: `{{define "title"}}Interview reminder{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>Reminder: your interview for <strong>{{.JobTitle}}</strong> starts on {{.ScheduledAt}}.</p>
{{if .Location}}<p>Location: {{.Location}}</p>{{end}}{{end}}`,

	TemplateAssessmentInvitation: `{{define "title"}}Assessment invitation{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>{{.Organization}} invited you to take <strong>{{.TestTitle}}</strong> ({{.Duration}} minutes).</p>
<p>You will be asked for a photo and an ID card before starting.</p>
<p><a class="button" href="{{.Link}}">Start assessment</a></p>
<p>The link expires on {{.ExpiresAt}}.</p>{{end}}`,

	TemplateResultDeclared: `{{define "title"}}Assessment result{{end}}
{{define "body"}}<p>Hi {{.Name}},</p>
<p>Results for <strong>{{.TestTitle}}</strong> have been declared.</p>
<p>Score: {{.Score}} / {{.Total}} ({{.Percentage}}%)</p>
<p>Outcome: <strong>{{if .Passed}}Passed{{else}}Not passed{{end}}</strong></p>{{end}}`,
}

var templates = mustParseTemplates()

func mustParseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t := template.Must(template.New(name).Parse(layout))
		out[name] = template.Must(t.Parse(body))
	}
	return out
}

// Render executes a named template with data.
func Render(name string, data any) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return buf.String(), nil
}
