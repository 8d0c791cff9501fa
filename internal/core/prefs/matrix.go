package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
)

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrUnknownOrg     = errors.New("unknown organization")
	ErrNoGlobal       = errors.New("no global setting loaded")
)

// Row is a per-organization, per-type preference.
type Row struct {
	ID      string `json:"id"`
	OrgID   string `json:"organization"`
	OrgName string `json:"organization_name"`
	Type    string `json:"type"`
	Pair
}

// Org is a projection of one organization's rows and derived aggregate.
type Org struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Rows       []Row  `json:"rows"`
	Aggregate  Pair   `json:"aggregate"`
	WebCount   int    `json:"web_count"`
	EmailCount int    `json:"email_count"`
}

// Scope is the granularity of a change.
type Scope int

const (
	ScopeRow Scope = iota
	ScopeOrg
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeRow:
		return "row"
	case ScopeOrg:
		return "organization"
	case ScopeGlobal:
		return "global"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// Snapshot holds the prior values of everything a change touched.
type Snapshot struct {
	rows   map[string]Pair
	global *Pair
}

// Len returns the number of captured rows.
func (s Snapshot) Len() int { return len(s.rows) }

// Change describes an applied toggle. Result is the new value at the
// toggled level; for ScopeOrg it is the new aggregate.
type Change struct {
	Scope     Scope
	SettingID string
	OrgID     string
	Channel   Channel
	Value     bool
	Result    Pair
	Snapshot  Snapshot
}

// EmailTriggered reports whether the email column initiated the change.
func (c Change) EmailTriggered() bool { return c.Channel == ChannelEmail }

// Matrix is the client's copy of a user's preferences. It is the sole
// source of truth for the preferences view. Safe for concurrent use.
type Matrix struct {
	mu        sync.RWMutex
	globalID  string
	global    Pair
	hasGlobal bool
	orgOrder  []string
	orgNames  map[string]string
	byOrg     map[string][]string
	rows      map[string]*Row
}

// New builds a matrix from API settings. Invalid settings are skipped and
// returned as errors; rows violating email => web are normalized.
func New(settings []Setting) (*Matrix, []error) {
	m := &Matrix{
		orgNames: map[string]string{},
		byOrg:    map[string][]string{},
		rows:     map[string]*Row{},
	}

	var errs []error
	valid := lo.Filter(settings, func(s Setting, _ int) bool {
		if err := ValidateSetting(s); err != nil {
			errs = append(errs, err)
			return false
		}
		return true
	})

	for _, s := range valid {
		p := s.pair().Normalize()
		if s.IsGlobal() {
			m.globalID, m.global, m.hasGlobal = s.ID, p, true
			continue
		}
		org := s.OrgID()
		m.rows[s.ID] = &Row{ID: s.ID, OrgID: org, OrgName: s.OrganizationName, Type: s.TypeName(), Pair: p}
		m.byOrg[org] = append(m.byOrg[org], s.ID)
		if s.OrganizationName != "" {
			m.orgNames[org] = s.OrganizationName
		}
	}

	m.orgOrder = lo.Uniq(lo.FilterMap(valid, func(s Setting, _ int) (string, bool) {
		return s.OrgID(), !s.IsGlobal()
	}))

	return m, errs
}

// Global returns the global pair and its setting id.
func (m *Matrix) Global() (Pair, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global, m.globalID, m.hasGlobal
}

// Row returns a copy of row id.
func (m *Matrix) Row(id string) (Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// Rows returns every row in organization order.
func (m *Matrix) Rows() []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Row
	for _, org := range m.orgOrder {
		for _, id := range m.byOrg[org] {
			out = append(out, *m.rows[id])
		}
	}
	return out
}

// RowsMatching returns rows whose type matches the doublestar pattern,
// e.g. "*_created" or "device_*".
func (m *Matrix) RowsMatching(pattern string) ([]Row, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid type pattern %q", pattern)
	}
	return lo.Filter(m.Rows(), func(r Row, _ int) bool {
		ok, _ := doublestar.Match(pattern, r.Type)
		return ok
	}), nil
}

// Orgs returns every organization with its derived aggregate.
func (m *Matrix) Orgs() []Org {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.orgOrder, func(id string, _ int) Org {
		return m.orgLocked(id)
	})
}

// Org returns one organization projection.
func (m *Matrix) Org(id string) (Org, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.byOrg[id]; !ok {
		return Org{}, false
	}
	return m.orgLocked(id), true
}

func (m *Matrix) orgLocked(id string) Org {
	rows := lo.Map(m.byOrg[id], func(sid string, _ int) Row { return *m.rows[sid] })
	return Org{
		ID:         id,
		Name:       lo.ValueOr(m.orgNames, id, id),
		Rows:       rows,
		Aggregate:  aggregate(rows),
		WebCount:   lo.CountBy(rows, func(r Row) bool { return r.Web }),
		EmailCount: lo.CountBy(rows, func(r Row) bool { return r.Email }),
	}
}

// aggregate derives an organization's pair as the AND of its rows.
func aggregate(rows []Row) Pair {
	return Pair{
		Web:   lo.EveryBy(rows, func(r Row) bool { return r.Web }),
		Email: lo.EveryBy(rows, func(r Row) bool { return r.Email }),
	}
}

// SetRow toggles one channel of a single row.
func (m *Matrix) SetRow(id string, ch Channel, v bool) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[id]
	if !ok {
		return Change{}, fmt.Errorf("set %s on %s: %w", ch, id, ErrUnknownSetting)
	}

	snap := Snapshot{rows: map[string]Pair{id: r.Pair}}
	r.Pair = r.Pair.With(ch, v)

	return Change{
		Scope:     ScopeRow,
		SettingID: id,
		OrgID:     r.OrgID,
		Channel:   ch,
		Value:     v,
		Result:    r.Pair,
		Snapshot:  snap,
	}, nil
}

// SetOrg toggles an organization aggregate and cascades it to every row of
// the organization. Web on all rows follows the new aggregate; email follows
// it when email was toggled or web was switched off.
func (m *Matrix) SetOrg(orgID string, ch Channel, v bool) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, ok := m.byOrg[orgID]
	if !ok {
		return Change{}, fmt.Errorf("set %s on organization %s: %w", ch, orgID, ErrUnknownOrg)
	}

	rows := lo.Map(ids, func(id string, _ int) Row { return *m.rows[id] })
	target := aggregate(rows).With(ch, v)
	snap := m.cascadeLocked(ids, ch, v, target)

	return Change{
		Scope:    ScopeOrg,
		OrgID:    orgID,
		Channel:  ch,
		Value:    v,
		Result:   target,
		Snapshot: snap,
	}, nil
}

// SetGlobal toggles the global pair and cascades it to every row.
func (m *Matrix) SetGlobal(ch Channel, v bool) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasGlobal {
		return Change{}, fmt.Errorf("set global %s: %w", ch, ErrNoGlobal)
	}

	prev := m.global
	m.global = m.global.With(ch, v)

	snap := m.cascadeLocked(lo.Keys(m.rows), ch, v, m.global)
	snap.global = &prev

	return Change{
		Scope:     ScopeGlobal,
		SettingID: m.globalID,
		Channel:   ch,
		Value:     v,
		Result:    m.global,
		Snapshot:  snap,
	}, nil
}

func (m *Matrix) cascadeLocked(ids []string, ch Channel, v bool, target Pair) Snapshot {
	cascadeEmail := ch == ChannelEmail || !v
	snap := Snapshot{rows: make(map[string]Pair, len(ids))}
	for _, id := range ids {
		r := m.rows[id]
		snap.rows[id] = r.Pair
		r.Web = target.Web
		if cascadeEmail {
			r.Email = target.Email
		}
		r.Pair = r.Pair.Normalize()
	}
	return snap
}

// Restore puts back the values captured in snap. Rows removed since are
// ignored.
func (m *Matrix) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range snap.rows {
		if r, ok := m.rows[id]; ok {
			r.Pair = p
		}
	}
	if snap.global != nil && m.hasGlobal {
		m.global = *snap.global
	}
}

// Validate checks email => web on every row, every aggregate and the
// global pair.
func (m *Matrix) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.hasGlobal && !m.global.Valid() {
		return fmt.Errorf("global setting %s has email without web", m.globalID)
	}
	for _, org := range m.orgOrder {
		o := m.orgLocked(org)
		if !o.Aggregate.Valid() {
			return fmt.Errorf("organization %s aggregate has email without web", org)
		}
		for _, r := range o.Rows {
			if !r.Valid() {
				return fmt.Errorf("setting %s has email without web", r.ID)
			}
		}
	}
	return nil
}
