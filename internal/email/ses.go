// Package email delivers donor notifications through AWS SES.
package email

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// SendAPI is the subset of the SES client used here
type SendAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends one "new story published" email per recipient
type SESNotifier struct {
	client    SendAPI
	fromEmail string
	fromName  string
}

var _ content.Notifier = (*SESNotifier)(nil)

// NewSESNotifier loads AWS configuration for region and creates a notifier
func NewSESNotifier(region, fromEmail, fromName string) (*SESNotifier, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewNotifierWithClient(ses.NewFromConfig(cfg), fromEmail, fromName), nil
}

// NewNotifierWithClient wraps an existing SES client
func NewNotifierWithClient(client SendAPI, fromEmail, fromName string) *SESNotifier {
	return &SESNotifier{client: client, fromEmail: fromEmail, fromName: fromName}
}

// NotifyStoryPublished emails every recipient. A failure for one recipient
// does not stop the others; all failures are returned joined.
func (n *SESNotifier) NotifyStoryPublished(ctx context.Context, event content.StoryPublishedEvent) error {
	if len(event.Recipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("New impact story from %s: %s", event.CharityName, event.StoryTitle)

	var errs []error
	sent := 0
	for _, r := range event.Recipients {
		if r.Email == "" {
			continue
		}
		html, text, err := renderStoryPublished(r, event)
		if err != nil {
			return fmt.Errorf("rendering notification: %w", err)
		}
		if err := n.send(ctx, r.Email, subject, html, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Email, err))
			continue
		}
		sent++
	}

	logger.L().Info("Story published emails sent",
		logger.WithStoryID(event.StoryID),
		zap.Int("sent", sent),
		zap.Int("failed", len(errs)))
	return stderrors.Join(errs...)
}

func (n *SESNotifier) send(ctx context.Context, to, subject, html, text string) error {
	from := n.fromEmail
	if n.fromName != "" {
		from = fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
			},
		},
	}
	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type metricLine struct {
	Label string
	Value string
}

type storyPublishedView struct {
	RecipientName string
	DonorName     string
	CharityName   string
	StoryTitle    string
	Excerpt       string
	URL           string
	Metrics       []metricLine
}

var (
	storyPublishedHTML = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<p>Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
<p>{{.CharityName}} has published a new story supported by {{.DonorName}}.</p>
<h2>{{.StoryTitle}}</h2>
{{if .Excerpt}}<p>{{.Excerpt}}</p>{{end}}
{{if .Metrics}}<ul>{{range .Metrics}}<li><strong>{{.Value}}</strong> {{.Label}}</li>{{end}}</ul>{{end}}
<a href="{{.URL}}" style="display: inline-block; padding: 12px 24px; background-color: #1E3A5F; color: white; text-decoration: none; border-radius: 6px;">Read the story</a>
<hr>
<p style="color: #999; font-size: 12px;">You can turn these emails off in your donor settings.</p>
</div>
</body>
</html>`))

	storyPublishedText = texttemplate.Must(texttemplate.New("text").Parse(`Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},

{{.CharityName}} has published a new story supported by {{.DonorName}}.

{{.StoryTitle}}
{{if .Excerpt}}
{{.Excerpt}}
{{end}}{{range .Metrics}}
- {{.Value}} {{.Label}}{{end}}

Read the story: {{.URL}}

You can turn these emails off in your donor settings.
`))
)

func renderStoryPublished(r content.Recipient, event content.StoryPublishedEvent) (string, string, error) {
	view := storyPublishedView{
		RecipientName: r.Name,
		DonorName:     event.DonorName,
		CharityName:   event.CharityName,
		StoryTitle:    event.StoryTitle,
		Excerpt:       event.Excerpt,
		URL:           event.URL,
	}
	keys := make([]string, 0, len(event.ImpactMetrics))
	for k := range event.ImpactMetrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		view.Metrics = append(view.Metrics, metricLine{
			Label: strings.ReplaceAll(k, "_", " "),
			Value: fmt.Sprintf("%g", event.ImpactMetrics[k]),
		})
	}

	var html, text bytes.Buffer
	if err := storyPublishedHTML.Execute(&html, view); err != nil {
		return "", "", err
	}
	if err := storyPublishedText.Execute(&text, view); err != nil {
		return "", "", err
	}
	return html.String(), text.String(), nil
}
