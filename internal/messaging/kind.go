package messaging

import "strings"

// MessageKind is the closed set of inbound message types the normalizer
// understands. Provider type strings outside the set map to KindUnknown.
type MessageKind string

const (
	KindUnknown  MessageKind = "unknown"
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindDocument MessageKind = "document"
	KindAudio    MessageKind = "audio"
	KindVideo    MessageKind = "video"
	KindLocation MessageKind = "location"
	KindContacts MessageKind = "contacts"
)

// ParseMessageKind maps the provider's declared type onto the closed set.
func ParseMessageKind(declared string) MessageKind {
	switch kind := MessageKind(strings.ToLower(strings.TrimSpace(declared))); kind {
	case KindText, KindImage, KindDocument, KindAudio, KindVideo, KindLocation, KindContacts:
		return kind
	default:
		return KindUnknown
	}
}

func (k MessageKind) String() string {
	return string(k)
}
