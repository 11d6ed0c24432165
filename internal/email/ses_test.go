package email

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/content"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	failTo string
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if params.Destination.ToAddresses[0] == f.failTo {
		return nil, stderrors.New("throttled")
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func sampleEvent() content.StoryPublishedEvent {
	return content.StoryPublishedEvent{
		Recipients: []content.Recipient{
			{Email: "admin@acme.com", Name: "Ada"},
			{Email: "viewer@acme.com"},
		},
		DonorName:     "Acme plc",
		CharityName:   "Hope Trust",
		StoryID:       "story-1",
		StoryTitle:    "Clean water for <Kibera>",
		Excerpt:       "Three new wells",
		ImpactMetrics: models.ImpactMetrics{"families_helped": 15, "jobs_secured": 2},
		URL:           "https://impactusall.com/stories/clean-water",
	}
}

func TestNotifyStoryPublished(t *testing.T) {
	client := &fakeSES{}
	n := NewNotifierWithClient(client, "notifications@impactusall.com", "ImpactusAll")

	require.NoError(t, n.NotifyStoryPublished(context.Background(), sampleEvent()))
	require.Len(t, client.inputs, 2)

	first := client.inputs[0]
	assert.Equal(t, "ImpactusAll <notifications@impactusall.com>", aws.ToString(first.Source))
	assert.Equal(t, []string{"admin@acme.com"}, first.Destination.ToAddresses)
	assert.Equal(t, "New impact story from Hope Trust: Clean water for <Kibera>", aws.ToString(first.Message.Subject.Data))

	html := aws.ToString(first.Message.Body.Html.Data)
	assert.Contains(t, html, "Hi Ada,")
	assert.Contains(t, html, "Clean water for &lt;Kibera&gt;")
	assert.Contains(t, html, "<strong>15</strong> families helped")

	text := aws.ToString(client.inputs[1].Message.Body.Text.Data)
	assert.Contains(t, text, "Hi there,")
	assert.Contains(t, text, "- 2 jobs secured")
	assert.Contains(t, text, "Read the story: https://impactusall.com/stories/clean-water")
}

func TestNotifyStoryPublishedContinuesPastFailures(t *testing.T) {
	client := &fakeSES{failTo: "admin@acme.com"}
	n := NewNotifierWithClient(client, "notifications@impactusall.com", "")

	err := n.NotifyStoryPublished(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin@acme.com")
	assert.Len(t, client.inputs, 2)
	assert.Equal(t, "notifications@impactusall.com", aws.ToString(client.inputs[1].Source))
}

func TestNotifyWithoutRecipients(t *testing.T) {
	client := &fakeSES{}
	n := NewNotifierWithClient(client, "notifications@impactusall.com", "")
	assert.NoError(t, n.NotifyStoryPublished(context.Background(), content.StoryPublishedEvent{}))
	assert.Empty(t, client.inputs)
}
