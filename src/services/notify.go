package services

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"loketkita/src/models"
	"loketkita/src/types"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	To      []string
	Subject string
	HTML    string
}

// Notifier delivers mail. Callers treat it as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type StatusChange struct {
	TransactionID uuid.UUID               `json:"transaction_id"`
	UserID        uint                    `json:"user_id"`
	EventID       uint                    `json:"event_id"`
	From          types.TransactionStatus `json:"from"`
	To            types.TransactionStatus `json:"to"`
	Source        string                  `json:"source"`
	At            time.Time               `json:"at"`
}

// StatusPublisher fans transaction status changes out to other services.
type StatusPublisher interface {
	PublishStatusChange(ctx context.Context, change StatusChange) error
}

type logNotifier struct{}

func (logNotifier) Notify(_ context.Context, n Notification) error {
	log.Printf("[Mail] No transport configured, dropping %q to %v\n", n.Subject, n.To)
	return nil
}

var paymentStatusTemplate = template.Must(template.New("payment-status").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>{{.Headline}}</p>
<table>
<tr><td>Transaction</td><td>{{.ID}}</td></tr>
<tr><td>Event</td><td>{{.Event}}</td></tr>
<tr><td>Tickets</td><td>{{.Quantity}}</td></tr>
<tr><td>Total paid</td><td>{{.Total}}</td></tr>
{{- if .Reward}}
<tr><td>Points earned</td><td>{{.Reward}}</td></tr>
{{- end}}
{{- if .Refund}}
<tr><td>Points returned</td><td>{{.Refund}}</td></tr>
{{- end}}
</table>
<p>LoketKita</p>
</body>
</html>`))

var verifyEmailTemplate = template.Must(template.New("verify-email").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Welcome to LoketKita, {{.Name}}!</p>
<p>Please confirm your email address by following <a href="{{.Link}}">this link</a>. It is valid for 15 minutes.</p>
{{- if .ReferralCode}}
<p>Share your referral code <b>{{.ReferralCode}}</b> with friends.</p>
{{- end}}
</body>
</html>`))

func paymentStatusMail(txn *models.Transaction) (Notification, error) {
	data := map[string]any{
		"Name":     txn.User.FullName(),
		"ID":       txn.ID.String(),
		"Event":    txn.Event.Name,
		"Quantity": txn.Quantity,
		"Total":    txn.TotalPrice,
	}
	subject := "Payment status update"
	switch txn.Status {
	case types.TRANSACTION_DONE:
		subject = "Your payment has been confirmed"
		data["Headline"] = "Your payment has been confirmed. See you at the event!"
		data["Reward"] = txn.PointReward
	case types.TRANSACTION_REJECTED:
		subject = "Your payment has been rejected"
		data["Headline"] = "Unfortunately the organizer rejected your payment proof. Your tickets have been released."
		data["Refund"] = txn.Point
	default:
		data["Headline"] = "Your transaction is now " + string(txn.Status) + "."
	}
	var buf bytes.Buffer
	if err := paymentStatusTemplate.Execute(&buf, data); err != nil {
		return Notification{}, err
	}
	return Notification{
		To:      []string{txn.User.Email},
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}

func VerificationMail(user *models.User, link string) (Notification, error) {
	var buf bytes.Buffer
	err := verifyEmailTemplate.Execute(&buf, map[string]any{
		"Name":         user.FullName(),
		"Link":         link,
		"ReferralCode": user.ReferralCode,
	})
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		To:      []string{user.Email},
		Subject: "Welcome",
		HTML:    buf.String(),
	}, nil
}
