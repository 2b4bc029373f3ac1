package messaging

import (
	"strconv"

	"github.com/leadwire/leadwire-platform/internal/activities"
)

// Normalized is the channel-agnostic form of an inbound message, ready to
// be recorded as activity content.
type Normalized struct {
	Content     string
	MessageType string
	Attachments []activities.Attachment
}

// Normalize maps an inbound message onto activity content. Every kind
// produces non-empty content; nothing is dropped.
func Normalize(msg InboundMessage) Normalized {
	n := Normalized{MessageType: msg.Type}
	if n.MessageType == "" {
		n.MessageType = string(KindUnknown)
	}

	switch ParseMessageKind(msg.Type) {
	case KindText:
		if msg.Text != nil {
			n.Content = msg.Text.Body
		}
	case KindImage:
		n.Content = "Image received"
		if msg.Image != nil {
			if msg.Image.Caption != "" {
				n.Content = msg.Image.Caption
			}
			n.Attachments = appendMedia(n.Attachments, "image", msg.Image)
		}
	case KindDocument:
		n.Content = "Document received"
		if msg.Document != nil {
			if msg.Document.Caption != "" {
				n.Content = msg.Document.Caption
			}
			n.Attachments = appendMedia(n.Attachments, "document", msg.Document)
		}
	case KindAudio:
		n.Content = "Audio message received"
		if msg.Audio != nil {
			n.Attachments = appendMedia(n.Attachments, "audio", msg.Audio)
		}
	case KindVideo:
		n.Content = "Video received"
		if msg.Video != nil {
			if msg.Video.Caption != "" {
				n.Content = msg.Video.Caption
			}
			n.Attachments = appendMedia(n.Attachments, "video", msg.Video)
		}
	case KindLocation:
		if msg.Location != nil {
			n.Content = formatCoordinate(msg.Location.Latitude) + "," + formatCoordinate(msg.Location.Longitude)
		}
	case KindContacts:
		n.Content = "Contact card received"
	}

	if n.Content == "" {
		n.Content = "Received a message of type " + n.MessageType
	}
	return n
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func appendMedia(attachments []activities.Attachment, kind string, media *MediaBody) []activities.Attachment {
	if media == nil || media.ID == "" {
		return attachments
	}
	return append(attachments, activities.Attachment{
		ID:      media.ID,
		Type:    kind,
		Caption: media.Caption,
	})
}
