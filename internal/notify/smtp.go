package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/daehyunkim/repopersona/internal/config"
	"github.com/daehyunkim/repopersona/pkg/models"
)

// SMTPNotifier emails the analysis result to the job submitter.
type SMTPNotifier struct {
	cfg    config.SMTPConfig
	appURL string
	send   func(m *gomail.Message) error
}

func NewSMTPNotifier(cfg config.SMTPConfig, appURL string) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPNotifier{
		cfg:    cfg,
		appURL: appURL,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

// Deliver sends the result email. The context is consulted before dialing;
// gomail itself does not take a context.
func (n *SMTPNotifier) Deliver(ctx context.Context, result *models.AnalysisResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := renderHTML(result, n.appURL)
	if err != nil {
		return fmt.Errorf("rendering result email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", result.Email)
	m.SetHeader("Subject", fmt.Sprintf("Your repository is a %s type!", result.Personality.Archetype))
	m.SetBody("text/plain", renderText(result, n.appURL))
	m.AddAlternative("text/html", html)

	if err := n.send(m); err != nil {
		return fmt.Errorf("sending result email to %s: %w", result.Email, err)
	}
	return nil
}

var htmlTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; background: #f4f4f8; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 16px; overflow: hidden;">
    <div style="background: #667eea; color: white; padding: 36px 20px; text-align: center;">
      <div style="font-size: 72px;">{{.Personality.Emoji}}</div>
      <h1>Analysis complete!</h1>
    </div>
    <div style="padding: 36px 28px;">
      <div style="font-size: 28px; font-weight: bold; color: #667eea; text-align: center;">{{.Personality.Title}}</div>
      <p style="font-size: 17px; color: #666; text-align: center; font-style: italic;">{{.Personality.OneLiner}}</p>
      <blockquote style="background: #fff9e6; padding: 18px; border-left: 5px solid #ffc107;">{{.Personality.FunnyComment}}</blockquote>
      <h3>Key traits</h3>
      {{range .Personality.Traits}}<div style="background: #f0f4ff; padding: 10px 14px; border-radius: 8px; margin: 6px 0;">{{.}}</div>{{end}}
      <h3>Strengths</h3>
      {{range .Personality.Strengths}}<div style="background: #f0f4ff; padding: 10px 14px; border-radius: 8px; margin: 6px 0;">{{.}}</div>{{end}}
      <p style="text-align: center; margin-top: 28px;">
        <a href="{{.ShareURL}}" style="background: #667eea; color: white; padding: 14px 36px; border-radius: 24px; text-decoration: none; font-weight: bold;">View full result</a>
      </p>
    </div>
    <div style="background: #f8f9fa; padding: 18px; text-align: center; color: #666; font-size: 13px;">
      <p>RepoPersona</p>
      <p><a href="{{.AppURL}}">Analyze another repository</a></p>
    </div>
  </div>
</body>
</html>
`))

func renderHTML(result *models.AnalysisResult, appURL string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		*models.AnalysisResult
		AppURL string
	}{result, appURL}
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderText(result *models.AnalysisResult, appURL string) string {
	p := result.Personality
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis complete!\n\n%s %s\n\n%s\n\n%s\n\n", p.Emoji, p.Title, p.OneLiner, p.FunnyComment)
	b.WriteString("Key traits:\n")
	for i, t := range p.Traits {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	b.WriteString("\nStrengths:\n")
	for i, s := range p.Strengths {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	fmt.Fprintf(&b, "\nView full result: %s\n\n---\nRepoPersona\n%s\n", result.ShareURL, appURL)
	return b.String()
}

var _ Notifier = (*SMTPNotifier)(nil)
