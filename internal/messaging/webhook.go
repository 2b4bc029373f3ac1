// Package messaging ingests WhatsApp Business webhook traffic: it parses
// provider payloads, normalizes inbound messages into lead activities, and
// applies delivery receipts to the message index.
package messaging

import (
	"strconv"
	"strings"
	"time"
)

// WebhookPayload is the provider's webhook envelope.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the changes delivered for one business account.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change carries one field's worth of updates.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue is the payload of a single change. Messages and statuses can
// arrive in the same value.
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product,omitempty"`
	Metadata         ValueMetadata    `json:"metadata"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []StatusUpdate   `json:"statuses,omitempty"`
}

// ValueMetadata identifies the receiving business number.
type ValueMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number,omitempty"`
	PhoneNumberID      string `json:"phone_number_id,omitempty"`
}

// Contact is the sender profile attached to inbound messages.
type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

// InboundMessage is one message in a webhook batch. Exactly one of the
// typed bodies is populated, matching Type.
type InboundMessage struct {
	ID        string        `json:"id"`
	From      string        `json:"from"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextBody     `json:"text,omitempty"`
	Image     *MediaBody    `json:"image,omitempty"`
	Document  *MediaBody    `json:"document,omitempty"`
	Audio     *MediaBody    `json:"audio,omitempty"`
	Video     *MediaBody    `json:"video,omitempty"`
	Location  *LocationBody `json:"location,omitempty"`
	Contacts  []ContactCard `json:"contacts,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

// MediaBody is shared by image, document, audio, and video messages.
type MediaBody struct {
	ID       string `json:"id,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
}

type LocationBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// ContactCard is a shared contact (vCard style), distinct from Contact which
// describes the sender.
type ContactCard struct {
	Name ContactCardName `json:"name"`
}

type ContactCardName struct {
	FormattedName string `json:"formatted_name,omitempty"`
}

// StatusUpdate is a delivery receipt for a previously sent message.
type StatusUpdate struct {
	MessageID   string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id,omitempty"`
}

// Time parses the receipt's unix-seconds timestamp, falling back to now.
func (s StatusUpdate) Time() time.Time {
	if secs, err := strconv.ParseInt(strings.TrimSpace(s.Timestamp), 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Now().UTC()
}

// ContactName returns the profile name for waID. Payloads carry the sender
// profile in contacts[0] in practice, so an unmatched waID falls back to the
// first contact.
func (v ChangeValue) ContactName(waID string) string {
	for _, c := range v.Contacts {
		if c.WaID == waID {
			return strings.TrimSpace(c.Profile.Name)
		}
	}
	if len(v.Contacts) > 0 {
		return strings.TrimSpace(v.Contacts[0].Profile.Name)
	}
	return ""
}

// EventIDs collects deduplication keys for every message and receipt in the
// payload. Receipt keys include the status so later receipts for the same
// message are not suppressed.
func (p WebhookPayload) EventIDs() []string {
	var ids []string
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.ID != "" {
					ids = append(ids, msg.ID)
				}
			}
			for _, status := range change.Value.Statuses {
				if status.MessageID != "" && status.Status != "" {
					ids = append(ids, status.MessageID+":"+status.Status)
				}
			}
		}
	}
	return ids
}
