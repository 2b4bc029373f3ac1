package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// TemplateParams carries the dynamic values substituted into an approved
// template: an optional header string, positional body values, and
// quick-reply button payloads.
type TemplateParams struct {
	Header  string
	Body    []string
	Buttons []string
}

func (p TemplateParams) components() []templateComponent {
	var components []templateComponent
	if strings.TrimSpace(p.Header) != "" {
		components = append(components, templateComponent{
			Type:       "header",
			Parameters: []templateParameter{{Type: "text", Text: p.Header}},
		})
	}
	if len(p.Body) > 0 {
		params := make([]templateParameter, 0, len(p.Body))
		for _, value := range p.Body {
			params = append(params, templateParameter{Type: "text", Text: value})
		}
		components = append(components, templateComponent{Type: "body", Parameters: params})
	}
	for i, payload := range p.Buttons {
		components = append(components, templateComponent{
			Type:       "button",
			SubType:    "quick_reply",
			Index:      strconv.Itoa(i),
			Parameters: []templateParameter{{Type: "payload", Payload: payload}},
		})
	}
	return components
}

// SendText posts a plain text message. Validation failures surface before
// any network call; provider rejections carry the provider's message.
func (c *Client) SendText(ctx context.Context, creds Credentials, to, message string) (*SendResult, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("whatsapp: recipient required: %w", ErrValidation)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("whatsapp: message body required: %w", ErrValidation)
	}
	body, err := json.Marshal(sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textMessage{Body: message},
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal text payload: %w", err)
	}
	data, err := c.invoke(ctx, creds.AccessToken, http.MethodPost, creds.PhoneNumberID+"/messages", nil, body, false)
	if err != nil {
		return nil, err
	}
	return decodeSendResult(data)
}

// SendTemplate posts a template message built from params. languageCode
// defaults to en_US when blank. The components list is omitted entirely when
// params carry no values.
func (c *Client) SendTemplate(ctx context.Context, creds Credentials, to, templateName string, params TemplateParams, languageCode string) (*SendResult, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("whatsapp: recipient required: %w", ErrValidation)
	}
	if strings.TrimSpace(templateName) == "" {
		return nil, fmt.Errorf("whatsapp: template name required: %w", ErrValidation)
	}
	if strings.TrimSpace(languageCode) == "" {
		languageCode = DefaultLanguageCode
	}
	body, err := json.Marshal(sendMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &templateMessage{
			Name:       templateName,
			Language:   templateLanguage{Code: languageCode},
			Components: params.components(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal template payload: %w", err)
	}
	data, err := c.invoke(ctx, creds.AccessToken, http.MethodPost, creds.PhoneNumberID+"/messages", nil, body, false)
	if err != nil {
		return nil, err
	}
	return decodeSendResult(data)
}
