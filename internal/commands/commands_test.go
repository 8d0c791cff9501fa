package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/beacon/internal/core/config"
)

const apiPrefix = "/api/v1/notifications/"

type recorder struct {
	mu    sync.Mutex
	calls []string
	body  map[string]map[string]any
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := req.Method + " " + req.URL.Path
	r.calls = append(r.calls, key)
	if req.Body != nil {
		var m map[string]any
		if err := json.NewDecoder(req.Body).Decode(&m); err == nil {
			if r.body == nil {
				r.body = map[string]map[string]any{}
			}
			r.body[key] = m
		}
	}
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Body(key string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body[key]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newTestApp serves mux as the notification server and returns an App
// pointed at it with its state under a temp dir.
func newTestApp(t *testing.T, mux *http.ServeMux) (*App, *Flags) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.API.Token = "tok"
	cfg.API.UserID = "u1"
	cfg.DataDir = t.TempDir()
	cfg.Lease.Backend = config.LeaseMemory

	app := NewApp(&cfg)
	app.BellOut = io.Discard
	t.Cleanup(func() { _ = app.Close() })

	return app, &Flags{Config: &cfg, DataDir: cfg.DataDir}
}

func runCmd(t *testing.T, register func(*cli.Command) *cli.Command, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	root := &cli.Command{Name: "beacon", Writer: &buf, ErrWriter: &buf}
	register(root)

	err := root.Run(context.Background(), append([]string{"beacon"}, args...))
	return buf.String(), err
}

func notificationsMux(rec *recorder, srvURL *string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apiPrefix+"notification/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, map[string]any{
				"count": 3,
				"next":  nil,
				"results": []map[string]any{
					{"id": 3, "message": "third", "unread": false, "timestamp": "2024-01-01T00:00:00Z"},
				},
			})
			return
		}
		next := *srvURL + apiPrefix + "notification/?page=2"
		writeJSON(w, map[string]any{
			"count": 3,
			"next":  next,
			"results": []map[string]any{
				{"id": 1, "message": "<b>Build</b> failed", "level": "error", "unread": true, "timestamp": "2024-01-01T00:00:00Z"},
				{"id": 2, "message": "Deploy done", "unread": false, "timestamp": "2024-01-01T00:00:00Z"},
				{"message": "no id"},
			},
		})
	})
	mux.HandleFunc("PATCH "+apiPrefix+"notification/{id}/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "{}")
	})
	mux.HandleFunc("POST "+apiPrefix+"notification/read/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func TestLs_Table(t *testing.T) {
	var rec recorder
	var url string
	app, flags := newTestApp(t, notificationsMux(&rec, &url))
	url = app.Config.API.BaseURL

	out, err := runCmd(t, NewLsCmd(flags, app).Register, "ls")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Build failed")
	assert.Contains(t, out, "unread")
	assert.Contains(t, out, "Deploy done")
	assert.NotContains(t, out, "third", "only one page by default")
	assert.NotContains(t, out, "no id")
}

func TestLs_JSONFollowsPages(t *testing.T) {
	var rec recorder
	var url string
	app, flags := newTestApp(t, notificationsMux(&rec, &url))
	url = app.Config.API.BaseURL

	out, err := runCmd(t, NewLsCmd(flags, app).Register, "ls", "--json", "--pages", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "1", first["id"])
	assert.Len(t, rec.Calls(), 2, "stops when there is no next page")
}

func TestLs_RejectsZeroPages(t *testing.T) {
	app, flags := newTestApp(t, http.NewServeMux())

	_, err := runCmd(t, NewLsCmd(flags, app).Register, "ls", "--pages", "0")
	require.Error(t, err)
}

func TestRead_IDs(t *testing.T) {
	var rec recorder
	var url string
	app, flags := newTestApp(t, notificationsMux(&rec, &url))

	out, err := runCmd(t, NewReadCmd(flags, app).Register, "read", "7", "8")
	require.NoError(t, err)

	assert.Contains(t, out, "7 marked as read")
	assert.Contains(t, out, "8 marked as read")
	assert.ElementsMatch(t, []string{
		"PATCH " + apiPrefix + "notification/7/",
		"PATCH " + apiPrefix + "notification/8/",
	}, rec.Calls())
}

func TestRead_All(t *testing.T) {
	var rec recorder
	var url string
	app, flags := newTestApp(t, notificationsMux(&rec, &url))

	out, err := runCmd(t, NewReadCmd(flags, app).Register, "read", "--all")
	require.NoError(t, err)

	assert.Contains(t, out, "All notifications marked as read")
	assert.Equal(t, []string{"POST " + apiPrefix + "notification/read/"}, rec.Calls())
}

func TestRead_ArgumentErrors(t *testing.T) {
	app, flags := newTestApp(t, http.NewServeMux())

	_, err := runCmd(t, NewReadCmd(flags, app).Register, "read")
	require.Error(t, err)

	_, err = runCmd(t, NewReadCmd(flags, app).Register, "read", "--all", "7")
	require.Error(t, err)

	_, err = runCmd(t, NewReadCmd(flags, app).Register, "read", "not-an-id")
	require.Error(t, err)
}

func settingsMux(rec *recorder) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+apiPrefix+"user/u1/user-setting/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, map[string]any{
			"next": nil,
			"results": []map[string]any{
				{"id": "g", "organization": nil, "type": nil, "web": true, "email": false},
				{"id": "a1", "organization": "o1", "organization_name": "Acme", "type": "build.failed", "web": true, "email": true},
				{"id": "a2", "organization": "o1", "organization_name": "Acme", "type": "build.passed", "web": false, "email": false},
				{"id": "a3", "organization": "o1", "organization_name": "Acme", "type": "deploy", "web": true, "email": false},
			},
		})
	})
	mux.HandleFunc("PATCH "+apiPrefix+"user/u1/user-setting/{id}/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("POST "+apiPrefix+"user/u1/organization/{org}/setting/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, map[string]any{})
	})
	return mux
}

func TestPrefs_List(t *testing.T) {
	var rec recorder
	app, flags := newTestApp(t, settingsMux(&rec))

	out, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "(global)")
	assert.Contains(t, out, "[Acme]")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "build.failed")
}

func TestPrefs_ListJSON(t *testing.T) {
	var rec recorder
	app, flags := newTestApp(t, settingsMux(&rec))

	out, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "list", "--json")
	require.NoError(t, err)

	var v struct {
		GlobalID string `json:"global_id"`
		Orgs     []struct {
			ID       string `json:"id"`
			WebCount int    `json:"web_count"`
		} `json:"organizations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "g", v.GlobalID)
	require.Len(t, v.Orgs, 1)
	assert.Equal(t, 2, v.Orgs[0].WebCount)
}

func TestPrefs_SetRowEnablesWebWithEmail(t *testing.T) {
	var rec recorder
	app, flags := newTestApp(t, settingsMux(&rec))

	_, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "set", "a2", "email", "on")
	require.NoError(t, err)

	body := rec.Body("PATCH " + apiPrefix + "user/u1/user-setting/a2/")
	require.NotNil(t, body)
	assert.Equal(t, true, body["web"])
	assert.Equal(t, true, body["email"])
}

func TestPrefs_SetByType(t *testing.T) {
	var rec recorder
	app, flags := newTestApp(t, settingsMux(&rec))

	out, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "set", "--type", "build.*", "web", "off")
	require.NoError(t, err)

	assert.Contains(t, out, "1 row(s) changed", "build.passed is already off")
	assert.Contains(t, rec.Calls(), "PATCH "+apiPrefix+"user/u1/user-setting/a1/")
}

func TestPrefs_Org(t *testing.T) {
	var rec recorder
	app, flags := newTestApp(t, settingsMux(&rec))

	_, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "org", "o1", "web", "off")
	require.NoError(t, err)

	assert.Contains(t, rec.Calls(), "POST "+apiPrefix+"user/u1/organization/o1/setting/")
}

func TestPrefs_GlobalWithYes(t *testing.T) {
	var rec recorder
	app, flags := newTestApp(t, settingsMux(&rec))

	out, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "global", "web", "off", "--yes")
	require.NoError(t, err)

	assert.Contains(t, out, "global web off")
	body := rec.Body("PATCH " + apiPrefix + "user/u1/user-setting/g/")
	require.NotNil(t, body)
	assert.Equal(t, false, body["web"])
}

func TestPrefs_BadArguments(t *testing.T) {
	app, flags := newTestApp(t, http.NewServeMux())

	_, err := runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "set", "a1", "sms", "on")
	require.Error(t, err)

	_, err = runCmd(t, NewPrefsCmd(flags, app).Register, "prefs", "org", "o1", "web", "maybe")
	require.Error(t, err)
}

func TestMute(t *testing.T) {
	var rec recorder
	mux := http.NewServeMux()
	path := apiPrefix + "notification/ignore/projects/task/42/"
	mux.HandleFunc("PUT "+path, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("DELETE "+path, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	app, flags := newTestApp(t, mux)

	out, err := runCmd(t, NewMuteCmd(flags, app).Register, "mute", "--days", "7", "projects", "task", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "muted for 7 day(s)")
	body := rec.Body("PUT " + path)
	require.NotNil(t, body)
	assert.NotNil(t, body["valid_till"])

	out, err = runCmd(t, NewMuteCmd(flags, app).Register, "unmute", "projects", "task", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "unmuted")
	assert.Contains(t, rec.Calls(), "DELETE "+path)
}

func TestMute_RejectsOtherDurations(t *testing.T) {
	app, flags := newTestApp(t, http.NewServeMux())

	_, err := runCmd(t, NewMuteCmd(flags, app).Register, "mute", "--days", "3", "projects", "task", "42")
	require.Error(t, err)

	_, err = runCmd(t, NewMuteCmd(flags, app).Register, "mute")
	require.Error(t, err, "no object and none configured")
}

func TestUnsubscribe(t *testing.T) {
	var rec recorder
	mux := http.NewServeMux()
	mux.HandleFunc("POST /unsubscribe/abc/", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		writeJSON(w, map[string]bool{"success": true})
	})
	app, flags := newTestApp(t, mux)

	link := fmt.Sprintf("%s/unsubscribe/abc/", app.Config.API.BaseURL)
	out, err := runCmd(t, NewUnsubscribeCmd(flags, app).Register, "unsubscribe", link)
	require.NoError(t, err)

	assert.Contains(t, out, "Unsubscribed")
	assert.Equal(t, false, rec.Body("POST /unsubscribe/abc/")["subscribe"])
}

func TestNotices_Empty(t *testing.T) {
	app, flags := newTestApp(t, http.NewServeMux())

	out, err := runCmd(t, NewNoticesCmd(flags, app).Register, "notices")
	require.NoError(t, err)
	assert.Contains(t, out, "No notices")
}

func TestNotices_ListAndClear(t *testing.T) {
	app, flags := newTestApp(t, http.NewServeMux())

	notices, err := app.Notices()
	require.NoError(t, err)
	notices.Warnf("Could not mark notification as read")

	out, err := runCmd(t, NewNoticesCmd(flags, app).Register, "notices")
	require.NoError(t, err)
	assert.Contains(t, out, "Could not mark notification as read")

	_, err = runCmd(t, NewNoticesCmd(flags, app).Register, "notices", "--clear")
	require.NoError(t, err)

	out, err = runCmd(t, NewNoticesCmd(flags, app).Register, "notices", "--json")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestConfigValidate_Valid(t *testing.T) {
	_, flags := newTestApp(t, http.NewServeMux())

	out, err := runCmd(t, NewConfigValidateCmd(flags).Register, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}

func TestCollectIssues(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	issues := collectIssues(cfg.ValidateDeep(""))
	require.NotEmpty(t, issues)

	var fields []string
	for _, is := range issues {
		fields = append(fields, is.Field)
	}
	assert.Contains(t, fields, "api.base_url")
	assert.Nil(t, collectIssues(nil))
}

func TestAPI_RequiresServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	_, err := NewApp(&cfg).API()
	require.ErrorIs(t, err, ErrNoServer)
}

func TestParseSwitch(t *testing.T) {
	for _, s := range []string{"on", "ON", "true", "yes", "1"} {
		v, err := parseSwitch(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"off", "false", "no", "0"} {
		v, err := parseSwitch(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := parseSwitch("maybe")
	require.Error(t, err)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcd...", clip("abcdefghij", 7))
	assert.Equal(t, "a b", clip("a\nb", 0))
}
