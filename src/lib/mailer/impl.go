package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"loketkita/src/config"
	"loketkita/src/lib"
	awslib "loketkita/src/lib/aws"
	"loketkita/src/services"
)

type sendFunc func(ctx context.Context, input *lib.SendMailInput) error

// SMTPNotifier delivers mail synchronously over SMTP.
type SMTPNotifier struct {
	from     string
	fromName string
	send     sendFunc
}

func NewSMTPNotifier(from, fromName string) *SMTPNotifier {
	return &SMTPNotifier{from: from, fromName: fromName, send: lib.SendMail}
}

func (n *SMTPNotifier) Notify(ctx context.Context, msg services.Notification) error {
	return n.send(ctx, toInput(n.from, n.fromName, msg))
}

// QueueNotifier hands mail to the email queue; a consumer delivers it over
// SMTP.
type QueueNotifier struct {
	from     string
	fromName string
	queue    string
	client   lib.SQSAPI
}

func NewQueueNotifier(client lib.SQSAPI, queue, from, fromName string) *QueueNotifier {
	return &QueueNotifier{from: from, fromName: fromName, queue: queue, client: client}
}

func (n *QueueNotifier) Notify(ctx context.Context, msg services.Notification) error {
	body, err := json.Marshal(toInput(n.from, n.fromName, msg))
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(ctx, n.client, n.queue, string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

func toInput(from, fromName string, msg services.Notification) *lib.SendMailInput {
	return &lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       msg.To,
		Subject:  msg.Subject,
		Body:     msg.HTML,
		Html:     true,
	}
}

// New picks the transport named by mail.transport. Unknown transports
// return nil, which leaves mail logged but undelivered.
func New(conf *config.Config) services.Notifier {
	switch conf.MailTransport {
	case "smtp":
		return NewSMTPNotifier(conf.MailFrom, conf.MailSender)
	case "ses":
		if client := lib.AWSGetSESClient(); client != nil {
			return awslib.NewSESNotifier(client, conf.MailSender, conf.MailFrom)
		}
	case "sqs":
		if client := lib.AWSGetSQSClient(); client != nil {
			return NewQueueNotifier(client, conf.EmailQueue, conf.MailFrom, conf.MailSender)
		}
	}
	log.Printf("[mailer] No usable transport for %q\n", conf.MailTransport)
	return nil
}
