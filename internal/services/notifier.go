package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/chachabrian/courier-backend/internal/models"
)

// Notifier tells the sender about every status a parcel reaches, by email and
// to any live trackers.
type Notifier struct {
	mailer    Mailer
	publisher StatusPublisher
}

// NewNotifier returns a Notifier. publisher may be nil.
func NewNotifier(mailer Mailer, publisher StatusPublisher) *Notifier {
	return &Notifier{mailer: mailer, publisher: publisher}
}

// Notify pushes the live update first, then emails parcel.SenderEmail.
// The email error is returned as is.
func (n *Notifier) Notify(ctx context.Context, kind models.ParcelStatus, parcel *models.Parcel) error {
	if !kind.IsValid() {
		return invalidInput("unknown notification kind %q", kind)
	}

	if n.publisher != nil {
		n.publisher.PublishStatus(ParcelStatusUpdate{
			TrackingNumber: parcel.TrackingNumber,
			Status:         kind,
			DateAndTime:    parcel.DateAndTime,
		})
	}

	msg := StatusMessage(kind, parcel)
	if err := n.mailer.Send(ctx, msg); err != nil {
		log.Printf("Failed to send %s notification for parcel %s: %v", kind, parcel.TrackingNumber, err)
		return err
	}
	return nil
}

// StatusMessage renders the email for a parcel reaching kind.
func StatusMessage(kind models.ParcelStatus, parcel *models.Parcel) Message {
	verb := strings.ToLower(string(kind))
	text := fmt.Sprintf("Your parcel with tracking number %s has been %s.", parcel.TrackingNumber, verb)

	body := fmt.Sprintf(emailHeader+`
		<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
			<h1 style="color: #2c3e50; text-align: center;">Parcel %s</h1>
			<p>Hello %s,</p>
			<p>Your parcel with tracking number <strong>%s</strong> has been %s.</p>
			<p>Recipient: %s, %s</p>
			<p>Best regards,<br>The Courier Service Team</p>
		</div>`+emailFooter,
		kind,
		html.EscapeString(parcel.SenderName),
		parcel.TrackingNumber,
		verb,
		html.EscapeString(parcel.RecipientName),
		html.EscapeString(parcel.RecipientAddress),
	)

	return Message{
		To:      parcel.SenderEmail,
		Subject: "Parcel " + string(kind),
		Text:    text,
		HTML:    body,
	}
}
