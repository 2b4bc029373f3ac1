package whatsapp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// sendMessageRequest is the POST {phoneNumberID}/messages body.
type sendMessageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textMessage     `json:"text,omitempty"`
	Template         *templateMessage `json:"template,omitempty"`
}

type textMessage struct {
	Body string `json:"body"`
}

type templateMessage struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      string              `json:"index,omitempty"`
	Parameters []templateParameter `json:"parameters,omitempty"`
}

type templateParameter struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Payload string `json:"payload,omitempty"`
}

type sendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendResult reports a successfully accepted outbound message.
type SendResult struct {
	MessageID string
	Recipient string
}

func decodeSendResult(data []byte) (*SendResult, error) {
	var resp sendResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("whatsapp: decode send response: %w", err)
	}
	result := &SendResult{}
	if len(resp.Messages) > 0 {
		result.MessageID = resp.Messages[0].ID
	}
	if len(resp.Contacts) > 0 {
		result.Recipient = resp.Contacts[0].WaID
	}
	return result, nil
}

// ProviderTemplate is one entry of GET {id}/message_templates.
type ProviderTemplate struct {
	ID             string                      `json:"id"`
	Name           string                      `json:"name"`
	Language       string                      `json:"language"`
	Status         string                      `json:"status"`
	Category       string                      `json:"category"`
	Components     []ProviderTemplateComponent `json:"components,omitempty"`
	LanguagePolicy *TemplateLanguagePolicy     `json:"language_policy,omitempty"`
}

type ProviderTemplateComponent struct {
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
	Text   string `json:"text,omitempty"`
}

// TemplateLanguagePolicy mirrors the deprecated language_policy envelope some
// accounts still return; its first option wins over the flat language field.
type TemplateLanguagePolicy struct {
	Options []struct {
		Code string `json:"code"`
	} `json:"options,omitempty"`
}

// LanguageCode resolves the template's language, preferring the policy
// options, then the flat field, then the platform default.
func (t ProviderTemplate) LanguageCode() string {
	if t.LanguagePolicy != nil && len(t.LanguagePolicy.Options) > 0 {
		if code := strings.TrimSpace(t.LanguagePolicy.Options[0].Code); code != "" {
			return code
		}
	}
	if code := strings.TrimSpace(t.Language); code != "" {
		return code
	}
	return DefaultLanguageCode
}

// BodyText returns the BODY component's text, if the template has one.
func (t ProviderTemplate) BodyText() string {
	for _, comp := range t.Components {
		if strings.EqualFold(comp.Type, "BODY") {
			return comp.Text
		}
	}
	return ""
}

type templateListResponse struct {
	Data []ProviderTemplate `json:"data"`
}

// businessProfileResponse is the GET {phoneNumberID}/whatsapp_business_profile body.
type businessProfileResponse struct {
	Data []struct {
		About    string   `json:"about,omitempty"`
		Address  string   `json:"address,omitempty"`
		Email    string   `json:"email,omitempty"`
		Vertical string   `json:"vertical,omitempty"`
		Websites []string `json:"websites,omitempty"`
	} `json:"data"`
}
