package center

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/mutation"
	"github.com/colonyops/beacon/internal/core/prefs"
)

// ErrNoPreferences is returned by preference operations before
// LoadPreferences succeeded.
var ErrNoPreferences = errors.New("preferences not loaded")

// LoadPreferences fetches every setting and replaces the matrix. Invalid
// rows are logged and skipped.
func (c *Center) LoadPreferences(ctx context.Context) (*prefs.Matrix, error) {
	settings, err := c.api.ListSettings(ctx)
	if err != nil {
		c.notices.Errorf("Could not load notification preferences")
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	m, errs := prefs.New(settings)
	for _, e := range errs {
		log.Ctx(ctx).Warn().Err(e).Msg("skipping preference")
	}
	c.matrix.Store(m)
	return m, nil
}

// Preferences returns the loaded matrix, or nil.
func (c *Center) Preferences() *prefs.Matrix { return c.matrix.Load() }

func (c *Center) loadedMatrix() (*prefs.Matrix, error) {
	m := c.matrix.Load()
	if m == nil {
		return nil, ErrNoPreferences
	}
	return m, nil
}

// SetPreference toggles one channel of one row and waits for conflicting
// changes to finish first.
func (c *Center) SetPreference(ctx context.Context, settingID string, ch prefs.Channel, v bool) error {
	m, err := c.loadedMatrix()
	if err != nil {
		return err
	}
	row, ok := m.Row(settingID)
	if !ok {
		return fmt.Errorf("set preference %s: %w", settingID, prefs.ErrUnknownSetting)
	}

	var change prefs.Change
	return c.exec.Run(ctx, c.prefMutation(m, mutation.SettingKey(row.OrgID, settingID), "set-preference", "Settings updated",
		func() (prefs.Change, error) {
			var err error
			change, err = m.SetRow(settingID, ch, v)
			return change, err
		},
		func(ctx context.Context) error {
			return c.api.UpdateSetting(ctx, settingID, change.Result)
		},
	))
}

// SetPreferencesMatching toggles ch on every row whose type matches the
// doublestar pattern. Each row is its own mutation; it returns the number
// of rows changed and the joined failures.
func (c *Center) SetPreferencesMatching(ctx context.Context, pattern string, ch prefs.Channel, v bool) (int, error) {
	m, err := c.loadedMatrix()
	if err != nil {
		return 0, err
	}
	rows, err := m.RowsMatching(pattern)
	if err != nil {
		return 0, fmt.Errorf("match %q: %w", pattern, err)
	}

	var errs []error
	changed := 0
	for _, r := range rows {
		if r.Pair.Get(ch) == v {
			continue
		}
		if err := c.SetPreference(ctx, r.ID, ch, v); err != nil {
			errs = append(errs, err)
			continue
		}
		changed++
	}
	return changed, errors.Join(errs...)
}

// SetOrgPreference toggles an organization aggregate. It is dropped with
// mutation.ErrConflict when a change to the same organization is running.
func (c *Center) SetOrgPreference(ctx context.Context, orgID string, ch prefs.Channel, v bool) error {
	m, err := c.loadedMatrix()
	if err != nil {
		return err
	}

	var change prefs.Change
	return c.exec.TryRun(ctx, c.prefMutation(m, mutation.OrgKey(orgID), "set-org-preference", "Organization settings updated",
		func() (prefs.Change, error) {
			var err error
			change, err = m.SetOrg(orgID, ch, v)
			return change, err
		},
		func(ctx context.Context) error {
			var email *bool
			if change.EmailTriggered() {
				e := change.Result.Email
				email = &e
			}
			return c.api.UpdateOrganizationSetting(ctx, orgID, change.Result.Web, email)
		},
	))
}

// SetGlobalPreference toggles the global row. It conflicts with every other
// preference change.
func (c *Center) SetGlobalPreference(ctx context.Context, ch prefs.Channel, v bool) error {
	m, err := c.loadedMatrix()
	if err != nil {
		return err
	}

	var change prefs.Change
	return c.exec.TryRun(ctx, c.prefMutation(m, mutation.KeyPreferences, "set-global-preference", "Global settings updated",
		func() (prefs.Change, error) {
			var err error
			change, err = m.SetGlobal(ch, v)
			return change, err
		},
		func(ctx context.Context) error {
			return c.api.UpdateSetting(ctx, change.SettingID, change.Result)
		},
	))
}

func (c *Center) prefMutation(
	m *prefs.Matrix,
	key mutation.Key,
	name, success string,
	apply func() (prefs.Change, error),
	commit func(ctx context.Context) error,
) mutation.Mutation {
	return mutation.Mutation{
		Key:  key,
		Name: name,
		Apply: func() (func(), error) {
			change, err := apply()
			if err != nil {
				return nil, err
			}
			c.bus.PublishPreferencesChanged(eventbus.PreferencesChangedPayload{Scope: change.Scope})

			return func() {
				m.Restore(change.Snapshot)
				c.bus.PublishPreferencesChanged(eventbus.PreferencesChangedPayload{Scope: change.Scope, RolledBack: true})
			}, nil
		},
		Commit:     commit,
		SuccessMsg: success,
		FailureMsg: "Could not update notification preference",
	}
}
