package prefs

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func globalSetting(web, email bool) Setting {
	return Setting{ID: "g", Web: web, Email: email}
}

func orgSetting(id, org, typ string, web, email bool) Setting {
	return Setting{ID: id, Organization: sp(org), OrganizationName: "Org " + org, Type: sp(typ), Web: web, Email: email}
}

// fiveRows builds one organization with 3 of 5 rows web-enabled.
func fiveRows() []Setting {
	return []Setting{
		globalSetting(true, true),
		orgSetting("s1", "o1", "device_down", true, true),
		orgSetting("s2", "o1", "device_up", true, false),
		orgSetting("s3", "o1", "config_error", true, true),
		orgSetting("s4", "o1", "generic_message", false, false),
		orgSetting("s5", "o1", "threshold_crossed", false, false),
	}
}

func TestPair_With(t *testing.T) {
	tests := []struct {
		name string
		in   Pair
		ch   Channel
		v    bool
		want Pair
	}{
		{"email on forces web", Pair{}, ChannelEmail, true, Pair{Web: true, Email: true}},
		{"web off forces email off", Pair{Web: true, Email: true}, ChannelWeb, false, Pair{}},
		{"web on keeps email", Pair{Web: false, Email: false}, ChannelWeb, true, Pair{Web: true}},
		{"email off keeps web", Pair{Web: true, Email: true}, ChannelEmail, false, Pair{Web: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.With(tt.ch, tt.v))
		})
	}
}

func TestNew_GroupsAndNormalizes(t *testing.T) {
	settings := append(fiveRows(),
		orgSetting("s6", "o2", "device_down", false, true),
		Setting{ID: "bad", Organization: sp("o3")},
	)

	m, errs := New(settings)
	require.Len(t, errs, 1)

	orgs := m.Orgs()
	require.Len(t, orgs, 2)
	assert.Equal(t, "o1", orgs[0].ID)
	assert.Equal(t, "Org o1", orgs[0].Name)
	assert.Equal(t, 3, orgs[0].WebCount)

	r, ok := m.Row("s6")
	require.True(t, ok)
	assert.Equal(t, Pair{}, r.Pair, "email without web is normalized away")
	require.NoError(t, m.Validate())
}

func TestSetOrg_WebOffCascades(t *testing.T) {
	m, _ := New(fiveRows())

	change, err := m.SetOrg("o1", ChannelWeb, false)
	require.NoError(t, err)

	org, _ := m.Org("o1")
	for _, r := range org.Rows {
		assert.False(t, r.Web, r.ID)
		assert.False(t, r.Email, r.ID)
	}
	assert.Equal(t, Pair{}, org.Aggregate)
	assert.Equal(t, 5, change.Snapshot.Len())
	assert.False(t, change.EmailTriggered())
}

func TestSetOrg_WebOnLeavesEmail(t *testing.T) {
	m, _ := New(fiveRows())

	_, err := m.SetOrg("o1", ChannelWeb, true)
	require.NoError(t, err)

	org, _ := m.Org("o1")
	assert.True(t, org.Aggregate.Web)
	assert.Equal(t, 5, org.WebCount)
	assert.Equal(t, 2, org.EmailCount)
	assert.False(t, org.Aggregate.Email)
}

func TestSetOrg_EmailOnForcesWeb(t *testing.T) {
	m, _ := New(fiveRows())

	change, err := m.SetOrg("o1", ChannelEmail, true)
	require.NoError(t, err)
	assert.True(t, change.EmailTriggered())
	assert.Equal(t, Pair{Web: true, Email: true}, change.Result)

	org, _ := m.Org("o1")
	assert.Equal(t, Pair{Web: true, Email: true}, org.Aggregate)
}

func TestSetRow_RederivesAggregate(t *testing.T) {
	m, _ := New(fiveRows())
	_, err := m.SetOrg("o1", ChannelEmail, true)
	require.NoError(t, err)

	_, err = m.SetRow("s2", ChannelWeb, false)
	require.NoError(t, err)

	org, _ := m.Org("o1")
	assert.Equal(t, Pair{}, org.Aggregate, "one row off unchecks both aggregate columns")
	assert.Equal(t, 4, org.WebCount)
}

func TestSetGlobal_Cascades(t *testing.T) {
	m, _ := New(append(fiveRows(), orgSetting("s6", "o2", "device_down", true, false)))

	change, err := m.SetGlobal(ChannelEmail, true)
	require.NoError(t, err)
	assert.Equal(t, ScopeGlobal, change.Scope)
	assert.Equal(t, "g", change.SettingID)

	for _, r := range m.Rows() {
		assert.Equal(t, Pair{Web: true, Email: true}, r.Pair, r.ID)
	}

	m.Restore(change.Snapshot)
	g, _, _ := m.Global()
	assert.Equal(t, Pair{Web: true, Email: true}, g)
	r, _ := m.Row("s4")
	assert.Equal(t, Pair{}, r.Pair)
}

func TestSetGlobal_NoGlobalRow(t *testing.T) {
	m, _ := New(fiveRows()[1:])

	_, err := m.SetGlobal(ChannelWeb, false)
	assert.ErrorIs(t, err, ErrNoGlobal)
}

func TestRestore_IsExact(t *testing.T) {
	m, _ := New(fiveRows())
	before := m.Rows()

	change, err := m.SetOrg("o1", ChannelWeb, false)
	require.NoError(t, err)
	m.Restore(change.Snapshot)

	assert.Equal(t, before, m.Rows())
}

func TestRestore_OnlyTouchesCapturedRows(t *testing.T) {
	m, _ := New(fiveRows())

	first, err := m.SetRow("s1", ChannelWeb, false)
	require.NoError(t, err)
	_, err = m.SetRow("s4", ChannelEmail, true)
	require.NoError(t, err)

	m.Restore(first.Snapshot)

	r1, _ := m.Row("s1")
	r4, _ := m.Row("s4")
	assert.Equal(t, Pair{Web: true, Email: true}, r1.Pair)
	assert.Equal(t, Pair{Web: true, Email: true}, r4.Pair)
}

func TestUnknownTargets(t *testing.T) {
	m, _ := New(fiveRows())

	_, err := m.SetRow("nope", ChannelWeb, true)
	assert.ErrorIs(t, err, ErrUnknownSetting)

	_, err = m.SetOrg("nope", ChannelWeb, true)
	assert.ErrorIs(t, err, ErrUnknownOrg)
}

func TestRowsMatching(t *testing.T) {
	m, _ := New(fiveRows())

	rows, err := m.RowsMatching("device_*")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = m.RowsMatching("[")
	assert.Error(t, err)
}

func TestImplicationHoldsForRandomToggles(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	m, _ := New(append(fiveRows(),
		orgSetting("s6", "o2", "device_down", true, true),
		orgSetting("s7", "o2", "device_up", false, false),
	))

	channels := []Channel{ChannelWeb, ChannelEmail}
	for i := range 500 {
		ch := channels[rng.IntN(2)]
		v := rng.IntN(2) == 1

		var err error
		switch rng.IntN(3) {
		case 0:
			_, err = m.SetRow(fmt.Sprintf("s%d", rng.IntN(7)+1), ch, v)
		case 1:
			_, err = m.SetOrg([]string{"o1", "o2"}[rng.IntN(2)], ch, v)
		case 2:
			_, err = m.SetGlobal(ch, v)
		}
		require.NoError(t, err)
		require.NoError(t, m.Validate(), "step %d", i)
	}
}
