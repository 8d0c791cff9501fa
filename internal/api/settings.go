package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/colonyops/beacon/internal/core/prefs"
)

const (
	settingsPageSize = 100
	maxSettingsPages = 50
)

type settingsPage struct {
	Next    *string         `json:"next"`
	Results []prefs.Setting `json:"results"`
}

func (c *Client) userPath(rest string) string {
	return "user/" + c.userID + "/" + rest
}

// ListSettings loads every preference row, following next pointers.
func (c *Client) ListSettings(ctx context.Context) ([]prefs.Setting, error) {
	next := c.endpoint(c.userPath("user-setting/"), url.Values{"page_size": {fmt.Sprint(settingsPageSize)}})

	var all []prefs.Setting
	for pages := 0; next != ""; pages++ {
		if pages == maxSettingsPages {
			return nil, fmt.Errorf("list settings: more than %d pages", maxSettingsPages)
		}

		var page settingsPage
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, fmt.Errorf("list settings: %w", err)
		}
		all = append(all, page.Results...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return all, nil
}

// UpdateSetting writes both channels of one row. It is also how the
// global row is changed.
func (c *Client) UpdateSetting(ctx context.Context, settingID string, p prefs.Pair) error {
	body := map[string]bool{"web": p.Web, "email": p.Email}
	return c.do(ctx, http.MethodPatch, c.endpoint(c.userPath("user-setting/"+settingID+"/"), nil), body, nil)
}

// UpdateOrganizationSetting applies web (and email when non-nil) to every
// row of the organization server-side.
func (c *Client) UpdateOrganizationSetting(ctx context.Context, orgID string, web bool, email *bool) error {
	body := map[string]bool{"web": web}
	if email != nil {
		body["email"] = *email
	}
	return c.do(ctx, http.MethodPost, c.endpoint(c.userPath("organization/"+orgID+"/setting/"), nil), body, nil)
}
