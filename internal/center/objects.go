package center

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/api"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/mutation"
)

// unmutedTTL bounds how long an "enabled" answer is cached.
const unmutedTTL = 10 * time.Minute

// MuteState is the notification switch of one object. ValidTill nil with
// Muted set is a permanent mute.
type MuteState struct {
	Muted     bool       `json:"muted"`
	ValidTill *time.Time `json:"valid_till,omitempty"`
}

// Active reports whether the mute is in effect at now.
func (s MuteState) Active(now time.Time) bool {
	if !s.Muted {
		return false
	}
	return s.ValidTill == nil || now.Before(*s.ValidTill)
}

// ObjectMute returns the mute state of ref, from the local cache when it
// is fresh.
func (c *Center) ObjectMute(ctx context.Context, ref config.ObjectRef) (MuteState, error) {
	if c.mutes != nil {
		if s, err := c.mutes.Get(ctx, ref.String()); err == nil {
			return s, nil
		}
	}

	m, ok, err := c.api.GetObjectMute(ctx, ref.AppLabel, ref.ModelName, ref.ObjectID)
	if err != nil {
		return MuteState{}, fmt.Errorf("get mute for %s: %w", ref, err)
	}
	s := MuteState{Muted: ok, ValidTill: m.ValidTill}
	c.rememberMute(ctx, ref, s)
	return s, nil
}

// MuteObject disables notifications for ref for days days, or permanently
// when days is 0.
func (c *Center) MuteObject(ctx context.Context, ref config.ObjectRef, days int) error {
	until := api.MuteUntil(c.clock.Now(), days)
	return c.setMute(ctx, ref, MuteState{Muted: true, ValidTill: until}, "Notifications disabled for this object")
}

// UnmuteObject re-enables notifications for ref.
func (c *Center) UnmuteObject(ctx context.Context, ref config.ObjectRef) error {
	return c.setMute(ctx, ref, MuteState{}, "Notifications enabled for this object")
}

func (c *Center) setMute(ctx context.Context, ref config.ObjectRef, next MuteState, success string) error {
	var prev MuteState
	var hadPrev bool

	return c.exec.Run(ctx, mutation.Mutation{
		Key:  mutation.ObjectKey(ref.AppLabel, ref.ModelName, ref.ObjectID),
		Name: "set-object-mute",
		Apply: func() (func(), error) {
			if c.mutes != nil {
				p, err := c.mutes.Get(ctx, ref.String())
				prev, hadPrev = p, err == nil
			}
			c.rememberMute(ctx, ref, next)
			c.publishMute(ref, next)

			return func() {
				if hadPrev {
					c.rememberMute(ctx, ref, prev)
				} else if c.mutes != nil {
					_ = c.mutes.Delete(ctx, ref.String())
				}
				c.publishMute(ref, prev)
			}, nil
		},
		Commit: func(ctx context.Context) error {
			if next.Muted {
				return c.api.MuteObject(ctx, ref.AppLabel, ref.ModelName, ref.ObjectID, next.ValidTill)
			}
			return c.api.UnmuteObject(ctx, ref.AppLabel, ref.ModelName, ref.ObjectID)
		},
		SuccessMsg: success,
		FailureMsg: "Could not change object notifications",
	})
}

// rememberMute caches s until it would change on its own.
func (c *Center) rememberMute(ctx context.Context, ref config.ObjectRef, s MuteState) {
	if c.mutes == nil {
		return
	}

	var ttl time.Duration
	switch {
	case !s.Muted:
		ttl = unmutedTTL
	case s.ValidTill != nil:
		ttl = s.ValidTill.Sub(c.clock.Now())
		if ttl <= 0 {
			_ = c.mutes.Delete(ctx, ref.String())
			return
		}
	}

	if err := c.mutes.SetTTL(ctx, ref.String(), s, ttl); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("object", ref.String()).Msg("cache object mute")
	}
}

func (c *Center) publishMute(ref config.ObjectRef, s MuteState) {
	c.bus.PublishObjectMuted(eventbus.ObjectMutedPayload{
		Object:    ref.String(),
		Muted:     s.Muted,
		ValidTill: s.ValidTill,
	})
}
