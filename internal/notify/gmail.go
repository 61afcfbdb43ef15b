package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender delivers notifications through the Gmail API on behalf of the
// authenticated principal. One sender is built per request from that
// principal's token.
type GmailSender struct {
	svc *gmail.Service
}

// NewGmailSender builds a sender from a per-principal token source.
func NewGmailSender(ctx context.Context, ts oauth2.TokenSource) (*GmailSender, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSender{svc: svc}, nil
}

// SendInvite sends a confirmation email with a METHOD:REQUEST calendar part.
func (g *GmailSender) SendInvite(ctx context.Context, inv Invite) error {
	return g.send(ctx, inv, MethodRequest)
}

// SendCancellation sends a cancellation email with a METHOD:CANCEL calendar part.
func (g *GmailSender) SendCancellation(ctx context.Context, inv Invite) error {
	return g.send(ctx, inv, MethodCancel)
}

func (g *GmailSender) send(ctx context.Context, inv Invite, method string) error {
	ics, err := BuildICS(inv, method, uuid.NewString(), time.Now())
	if err != nil {
		return err
	}

	raw, err := buildMIME(inv, ics, method)
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send mail to %s: %w", inv.To, err)
	}
	return nil
}

// buildMIME assembles the multipart message: a plain-text body followed by
// the calendar part that mail clients render as an invite.
func buildMIME(inv Invite, ics []byte, method string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", inv.Organizer)
	fmt.Fprintf(&buf, "To: %s\r\n", inv.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", inv.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", w.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	textPart, err := w.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(inv.Body)); err != nil {
		return nil, err
	}

	calHeader := textproto.MIMEHeader{}
	calHeader.Set("Content-Type", fmt.Sprintf("text/calendar; method=%s; charset=UTF-8", method))
	calHeader.Set("Content-Class", "urn:content-classes:calendarmessage")
	calPart, err := w.CreatePart(calHeader)
	if err != nil {
		return nil, fmt.Errorf("create calendar part: %w", err)
	}
	if _, err := calPart.Write(ics); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
