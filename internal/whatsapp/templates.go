package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListTemplates fetches the account's message templates. The
// business-account endpoint is preferred when that id is present; listing is
// idempotent so transient failures retry.
func (c *Client) ListTemplates(ctx context.Context, creds Credentials) ([]ProviderTemplate, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	ident := creds.BusinessAccountID
	if ident == "" {
		ident = creds.PhoneNumberID
	}
	data, err := c.invoke(ctx, creds.AccessToken, http.MethodGet, ident+"/message_templates", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var resp templateListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("whatsapp: decode template list: %w", err)
	}
	return resp.Data, nil
}
