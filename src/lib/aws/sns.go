package aws

import (
	"context"
	"encoding/json"
	"log"
	"loketkita/src/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher announces transaction status changes on a topic. Subscribers
// can filter on the "status" and "source" message attributes.
type SNSPublisher struct {
	client   SNSAPI
	topicArn string
}

func NewSNSPublisher(client SNSAPI, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) PublishStatusChange(ctx context.Context, change services.StatusChange) error {
	body, err := json.Marshal(change)
	if err != nil {
		return err
	}
	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"status": {DataType: aws.String("String"), StringValue: aws.String(string(change.To))},
			"source": {DataType: aws.String("String"), StringValue: aws.String(change.Source)},
		},
	})
	if err != nil {
		return err
	}
	log.Printf("[SNS] Published %s -> %s for %s (%s)\n", change.From, change.To, change.TransactionID, aws.ToString(out.MessageId))
	return nil
}
