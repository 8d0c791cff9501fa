package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/colonyops/beacon/internal/core/cursor"
	"github.com/colonyops/beacon/internal/core/notification"
)

var _ cursor.Fetcher = (*Client)(nil)

// NotificationsURL is the first page of the notification list.
func (c *Client) NotificationsURL(unreadOnly bool) string {
	q := url.Values{}
	if unreadOnly {
		q.Set("unread", "true")
	}
	if c.pageSize > 0 {
		q.Set("page_size", strconv.Itoa(c.pageSize))
	}
	return c.endpoint("notification/", q)
}

// FetchPage loads one page by absolute URL, as handed out in next pointers.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (notification.Page, error) {
	var page notification.Page
	err := c.do(ctx, http.MethodGet, pageURL, nil, &page)
	return page, err
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(ctx context.Context, id notification.ID) error {
	return c.do(ctx, http.MethodPatch, c.endpoint("notification/"+id.String()+"/", nil), struct{}{}, nil)
}

// MarkAllRead marks every notification of the user read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.endpoint("notification/read/", nil), nil, nil)
}
