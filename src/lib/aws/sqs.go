package aws

import (
	"context"
	"log"
	"loketkita/src/lib"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Handler processes one message body. Messages whose handler fails stay on
// the queue and are redelivered after the visibility timeout.
type Handler func(ctx context.Context, body string) error

type SQSConsumer struct {
	Name    string
	client  lib.SQSAPI
	handler Handler
}

func NewSQSConsumer(client lib.SQSAPI, queue string, handler Handler) *SQSConsumer {
	return &SQSConsumer{
		Name:    queue,
		client:  client,
		handler: handler,
	}
}

// Listen polls the queue until ctx is done.
func (s *SQSConsumer) Listen(ctx context.Context) {
	qurl, err := s.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(s.Name),
	})
	if err != nil {
		log.Printf("Failed to retrieve queue URL for %s: %s\n", s.Name, err.Error())
		return
	}
	log.Printf("%s: Listening for messages...", s.Name)
	messagesChan := make(chan sqstypes.Message, 10)
	go func(chn chan<- sqstypes.Message) {
		defer close(chn)
		for ctx.Err() == nil {
			output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            qurl.QueueUrl,
				WaitTimeSeconds:     20,
				MaxNumberOfMessages: 10,
			})
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
				}
				return
			}
			for _, m := range output.Messages {
				chn <- m
			}
		}
	}(messagesChan)

	for m := range messagesChan {
		s.handle(ctx, qurl.QueueUrl, m)
	}
}

func (s *SQSConsumer) handle(ctx context.Context, qurl *string, m sqstypes.Message) {
	body := strings.Clone(aws.ToString(m.Body))
	if err := s.handler(ctx, body); err != nil {
		log.Printf("[%s] Error handling message %s: %s\n", s.Name, aws.ToString(m.MessageId), err.Error())
		return
	}
	lib.SQSDeleteMessage(context.WithoutCancel(ctx), s.client, qurl, &m)
}
