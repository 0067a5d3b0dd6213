package mailer

import (
	"context"
	"loketkita/src/config"
	"loketkita/src/lib"
	"loketkita/src/services"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeQueue struct {
	lib.SQSAPI
	queue string
	sent  []string
}

func (f *fakeQueue) GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	f.queue = aws.ToString(params.QueueName)
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("https://sqs.local/" + f.queue)}, nil
}

func (f *fakeQueue) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

var welcome = services.Notification{
	To:      []string{"buyer@example.com"},
	Subject: "Welcome",
	HTML:    "<p>hi</p>",
}

func TestQueueNotifier(t *testing.T) {
	q := &fakeQueue{}
	n := NewQueueNotifier(q, "Emails", "noreply@loketkita.id", "LoketKita")

	require.NoError(t, n.Notify(context.Background(), welcome))
	assert.Equal(t, "Emails", q.queue)
	require.Len(t, q.sent, 1)

	body := q.sent[0]
	assert.Equal(t, "noreply@loketkita.id", gjson.Get(body, "from").String())
	assert.Equal(t, "LoketKita", gjson.Get(body, "from-name").String())
	assert.Equal(t, "buyer@example.com", gjson.Get(body, "to.0").String())
	assert.Equal(t, "Welcome", gjson.Get(body, "subject").String())
	assert.True(t, gjson.Get(body, "html").Bool())
}

func TestSMTPNotifier(t *testing.T) {
	var got *lib.SendMailInput
	n := NewSMTPNotifier("noreply@loketkita.id", "LoketKita")
	n.send = func(ctx context.Context, input *lib.SendMailInput) error {
		got = input
		return nil
	}

	require.NoError(t, n.Notify(context.Background(), welcome))
	require.NotNil(t, got)
	assert.Equal(t, []string{"buyer@example.com"}, got.To)
	assert.Equal(t, "<p>hi</p>", got.Body)
	assert.True(t, got.Html)
}

func TestNewPicksTransport(t *testing.T) {
	assert.IsType(t, &SMTPNotifier{}, New(&config.Config{MailTransport: "smtp"}))
	assert.Nil(t, New(&config.Config{MailTransport: "carrier-pigeon"}))
}
