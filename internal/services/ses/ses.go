// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/report"
	"homeport-qualifier/internal/utils"
)

// Service handles SES email operations
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
	CC       []string
	BCC      []string
}

// ReportParams contains the data of a qualification report e-mail.
type ReportParams struct {
	To        string
	RunID     string
	FileName  string
	Verdict   models.Verdict
	Report    string
	ReportURL string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service sending from sender.
func NewService(ctx context.Context, sender string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: sender,
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if len(params.CC) > 0 {
		input.Destination.CcAddresses = params.CC
	}
	if len(params.BCC) > 0 {
		input.Destination.BccAddresses = params.BCC
	}
	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.GetLogger().Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// SendQualificationReport e-mails a rendered report to the submitter.
func (s *Service) SendQualificationReport(ctx context.Context, params ReportParams) (*SendEmailResult, error) {
	if s.fromEmail == "" {
		return nil, fmt.Errorf("SES sender email is not configured")
	}

	htmlBody, err := RenderReportHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.To,
		Subject:  ReportSubject(params),
		HTMLBody: htmlBody,
		TextBody: RenderReportText(params),
	})
}

// ReportSubject returns the subject line of a report e-mail.
func ReportSubject(params ReportParams) string {
	return fmt.Sprintf("Homeport qualification: %s (%s)", params.Verdict.Label(), params.FileName)
}

var reportTemplate = template.Must(template.New("qualification_report").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #333; max-width: 640px; margin: 0 auto; padding: 20px; }
        pre { font-family: 'Courier New', Courier, monospace; font-size: 13px; background: #f9f9f9; padding: 16px; border-radius: 8px; }
        .footer { margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <p>Your submission <strong>{{.FileName}}</strong> has been evaluated.</p>
    <pre>{{.Body}}</pre>
    {{if .ReportURL}}<p><a href="{{.ReportURL}}">Download the report</a></p>{{end}}
    <div class="footer">
        <p>Run ID: {{.RunID}}</p>
    </div>
</body>
</html>`))

// RenderReportHTML renders the HTML body. The report's emphasis markup is
// kept; everything else is escaped.
func RenderReportHTML(params ReportParams) (string, error) {
	data := struct {
		ReportParams
		Body template.HTML
	}{
		ReportParams: params,
		Body:         template.HTML(keepEmphasis(params.Report)),
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderReportText renders the plain text body.
func RenderReportText(params ReportParams) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Your submission %s has been evaluated.\n", params.FileName))
	buf.WriteString(report.StripMarkup(params.Report))
	buf.WriteString("\n\n")
	if params.ReportURL != "" {
		buf.WriteString(fmt.Sprintf("Download the report: %s\n", params.ReportURL))
	}
	buf.WriteString(fmt.Sprintf("Run ID: %s\n", params.RunID))

	return buf.String()
}

var emphasis = strings.NewReplacer("&lt;strong&gt;", "<strong>", "&lt;/strong&gt;", "</strong>")

// keepEmphasis escapes the report and then restores its <strong> tags.
func keepEmphasis(s string) string {
	return emphasis.Replace(template.HTMLEscapeString(s))
}
