package lib

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	awsOnce sync.Once
	awsCfg  *aws.Config
	awsErr  error
)

// AWSConfig loads the default SDK config once. When AWS_IAM_ROLE_ARN is set
// the credentials are swapped for that role's.
func AWSConfig(ctx context.Context) (*aws.Config, error) {
	awsOnce.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			log.Printf("Error loading default config: %s\n", err.Error())
			awsErr = err
			return
		}
		if roleArn := os.Getenv("AWS_IAM_ROLE_ARN"); roleArn != "" {
			provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleArn, func(o *stscreds.AssumeRoleOptions) {
				o.RoleSessionName = "loketkita-api"
			})
			cfg.Credentials = aws.NewCredentialsCache(provider)
		}
		awsCfg = &cfg
	})
	return awsCfg, awsErr
}

func AWSGetS3Client() *s3.Client {
	cfg, err := AWSConfig(context.TODO())
	if err != nil {
		log.Printf("Failed to iniialize S3: %s\n", err.Error())
		return nil
	}
	return s3.NewFromConfig(*cfg)
}

func AWSGetSQSClient() *sqs.Client {
	cfg, err := AWSConfig(context.TODO())
	if err != nil {
		log.Printf("Failed to initialize SQS client: %s\n", err.Error())
		return nil
	}
	return sqs.NewFromConfig(*cfg)
}

func AWSGetSNSClient() *sns.Client {
	cfg, err := AWSConfig(context.TODO())
	if err != nil {
		log.Printf("Failed to initialize SNS client: %s\n", err.Error())
		return nil
	}
	return sns.NewFromConfig(*cfg)
}

func AWSGetSESClient() *ses.Client {
	cfg, err := AWSConfig(context.TODO())
	if err != nil {
		log.Printf("Failed to initialize SES client: %s\n", err.Error())
		return nil
	}
	return ses.NewFromConfig(*cfg)
}

func AWSGetSecretsManagerClient() *secretsmanager.Client {
	cfg, err := AWSConfig(context.TODO())
	if err != nil {
		log.Printf("Failed to initialize Secrets Manager client: %s\n", err.Error())
		return nil
	}
	return secretsmanager.NewFromConfig(*cfg)
}

type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func SQSProduceMessage(ctx context.Context, client SQSAPI, queue string, body string) error {
	qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		log.Printf("Failed to retrieve queue URL for %s: %s\n", queue, err.Error())
		return err
	}
	out, err := client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    qurl.QueueUrl,
		MessageBody: aws.String(body),
	})
	if err != nil {
		return err
	}
	log.Printf("[SQS] Sent message %s to %s\n", aws.ToString(out.MessageId), queue)
	return nil
}

func SQSDeleteMessage(ctx context.Context, client SQSAPI, qurl *string, msg *sqsTypes.Message) {
	_, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
	}
}
