package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"loketkita/src/config"
	"loketkita/src/lib"
	awslib "loketkita/src/lib/aws"

	"github.com/tidwall/gjson"
)

var errMalformedEmail = errors.New("malformed email payload")

type sendMail func(ctx context.Context, input *lib.SendMailInput) error

// SQSConsumers starts the queue consumers this instance is responsible for.
func SQSConsumers(ctx context.Context, conf *config.Config) {
	client := lib.AWSGetSQSClient()
	if client == nil {
		return
	}
	emails := awslib.NewSQSConsumer(client, conf.EmailQueue, EmailQueueHandler(lib.SendMail))
	go emails.Listen(ctx)
}

// EmailQueueHandler delivers messages produced by mailer.QueueNotifier.
func EmailQueueHandler(send sendMail) awslib.Handler {
	return func(ctx context.Context, payload string) error {
		input, err := parseEmailPayload(payload)
		if err != nil {
			log.Printf("[Emails] Dropping message: %s\n", err.Error())
			// Returning nil deletes the message.
			return nil
		}
		if err := send(ctx, input); err != nil {
			return fmt.Errorf("send mail to %v: %w", input.To, err)
		}
		log.Printf("[Emails] Sent %q to %v\n", input.Subject, input.To)
		return nil
	}
}

func parseEmailPayload(payload string) (*lib.SendMailInput, error) {
	if !gjson.Valid(payload) {
		return nil, errMalformedEmail
	}
	input := &lib.SendMailInput{
		From:     gjson.Get(payload, "from").String(),
		FromName: gjson.Get(payload, "from-name").String(),
		ReplyTo:  gjson.Get(payload, "reply-to").String(),
		Subject:  gjson.Get(payload, "subject").String(),
		Body:     gjson.Get(payload, "body").String(),
		Html:     gjson.Get(payload, "html").Bool(),
	}
	for _, field := range []struct {
		path string
		dst  *[]string
	}{
		{"to", &input.To},
		{"cc", &input.Cc},
		{"bcc", &input.Bcc},
	} {
		for _, addr := range gjson.Get(payload, field.path).Array() {
			*field.dst = append(*field.dst, addr.String())
		}
	}
	if len(input.To) == 0 || input.From == "" {
		return nil, errMalformedEmail
	}
	return input, nil
}
