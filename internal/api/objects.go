package api

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ObjectMute is the per-object notification switch. A nil ValidTill on a
// stored mute means permanent.
type ObjectMute struct {
	ValidTill *time.Time `json:"valid_till"`
}

func (c *Client) objectURL(app, model, id string) string {
	return c.endpoint("notification/ignore/"+app+"/"+model+"/"+id+"/", nil)
}

// GetObjectMute reports the object's mute, with ok false when notifications
// are enabled for it.
func (c *Client) GetObjectMute(ctx context.Context, app, model, id string) (mute ObjectMute, ok bool, err error) {
	err = c.do(ctx, http.MethodGet, c.objectURL(app, model, id), nil, &mute)
	if errors.Is(err, ErrNotFound) {
		return ObjectMute{}, false, nil
	}
	if err != nil {
		return ObjectMute{}, false, err
	}
	return mute, true, nil
}

// MuteObject disables notifications for the object until validTill, or
// forever when validTill is nil.
func (c *Client) MuteObject(ctx context.Context, app, model, id string, validTill *time.Time) error {
	return c.do(ctx, http.MethodPut, c.objectURL(app, model, id), ObjectMute{ValidTill: validTill}, nil)
}

// UnmuteObject re-enables notifications for the object.
func (c *Client) UnmuteObject(ctx context.Context, app, model, id string) error {
	err := c.do(ctx, http.MethodDelete, c.objectURL(app, model, id), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// MuteUntil converts a duration in days into a valid_till. Zero days is
// permanent.
func MuteUntil(now time.Time, days int) *time.Time {
	if days <= 0 {
		return nil
	}
	t := now.AddDate(0, 0, days).UTC()
	return &t
}
