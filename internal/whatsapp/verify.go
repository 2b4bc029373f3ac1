package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ConnectionStatus is the advisory result of a credential check.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// VerifyConnection checks the credentials against the business-profile
// endpoint. It never returns an error: failures of any kind are captured in
// the returned message, because callers use this for status display only.
func (c *Client) VerifyConnection(ctx context.Context, creds Credentials) ConnectionStatus {
	if err := creds.validate(); err != nil {
		return ConnectionStatus{Connected: false, Message: err.Error()}
	}
	query := url.Values{}
	query.Set("fields", "about,address,email,websites,vertical")
	data, err := c.invoke(ctx, creds.AccessToken, http.MethodGet, creds.PhoneNumberID+"/whatsapp_business_profile", query, nil, true)
	if err != nil {
		return ConnectionStatus{Connected: false, Message: err.Error()}
	}
	var profile businessProfileResponse
	if err := json.Unmarshal(data, &profile); err != nil {
		return ConnectionStatus{Connected: false, Message: "whatsapp: unexpected profile response"}
	}
	msg := "WhatsApp Business connection verified"
	if len(profile.Data) > 0 && profile.Data[0].Vertical != "" {
		msg = msg + " (" + profile.Data[0].Vertical + ")"
	}
	return ConnectionStatus{Connected: true, Message: msg}
}
