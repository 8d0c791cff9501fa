package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Unsubscribe posts to an unsubscribe link from an email. subscribe=false
// opts out of email notifications, true opts back in.
func (c *Client) Unsubscribe(ctx context.Context, link string, subscribe bool) (bool, error) {
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() {
		return false, fmt.Errorf("invalid unsubscribe link %q", link)
	}

	var reply struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, u.String(), map[string]bool{"subscribe": subscribe}, &reply); err != nil {
		return false, err
	}
	return reply.Success, nil
}
