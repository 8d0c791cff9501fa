package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/beacon/internal/core/styles"
	"github.com/colonyops/beacon/pkg/tmpl"
)

// OpenTemplateData is passed to widget.open_command.
type OpenTemplateData struct {
	URL   string
	ID    string
	Title string
}

// AudioTemplateData is passed to audio.command.
type AudioTemplateData struct {
	ID      string
	Level   string
	Title   string
	Message string
}

// Validate checks structural validity.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}
	if c.API.BaseURL != "" {
		if u, err := url.Parse(c.API.BaseURL); err != nil || u.Host == "" {
			errs = errs.Append("api.base_url", fmt.Errorf("must be an absolute URL, got %q", c.API.BaseURL))
		}
	}
	if c.API.PageSize < 0 {
		errs = errs.Append("api.page_size", fmt.Errorf("cannot be negative"))
	}
	if c.API.Timeout < 0 {
		errs = errs.Append("api.timeout", fmt.Errorf("cannot be negative"))
	}
	if c.Widget.RenderedPages < 1 {
		errs = errs.Append("widget.rendered_pages", fmt.Errorf("must be at least 1"))
	}
	if _, ok := styles.GetPalette(c.Widget.Theme); !ok {
		errs = errs.Append("widget.theme", fmt.Errorf("unknown theme %q, available: %s", c.Widget.Theme, strings.Join(styles.ThemeNames(), ", ")))
	}
	if c.Live.ReconnectMax < c.Live.ReconnectMin {
		errs = errs.Append("live.reconnect_max", fmt.Errorf("must not be below live.reconnect_min"))
	}
	if o := c.Live.Object; o != nil && (o.AppLabel == "" || o.ModelName == "" || o.ObjectID == "") {
		errs = errs.Append("live.object", fmt.Errorf("app_label, model_name and object_id are all required"))
	}
	if !slices.Contains([]string{LeaseMemory, LeaseSQLite, LeaseRedis}, c.Lease.Backend) {
		errs = errs.Append("lease.backend", fmt.Errorf("must be one of memory, sqlite, redis; got %q", c.Lease.Backend))
	}
	if c.Lease.Backend == LeaseRedis && c.Lease.Redis.Addr == "" {
		errs = errs.Append("lease.redis.addr", fmt.Errorf("required for the redis backend"))
	}
	if c.Lease.TTL < 0 {
		errs = errs.Append("lease.ttl", fmt.Errorf("cannot be negative"))
	}

	return errs.ToError()
}

// ValidateDeep adds checks that need I/O or template parsing.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validateTemplates(),
		criterio.Run("api.base_url", c.API.BaseURL, required),
		criterio.Run("api.user_id", c.API.UserID, required),
	)
}

func (c *Config) validateTemplates() error {
	var errs criterio.FieldErrorsBuilder
	if c.Widget.OpenCommand != "" {
		if _, err := tmpl.Render(c.Widget.OpenCommand, OpenTemplateData{URL: "https://example.com", ID: "1", Title: "t"}); err != nil {
			errs = errs.Append("widget.open_command", fmt.Errorf("template error: %w", err))
		}
	}
	if c.Audio.Command != "" {
		if _, err := tmpl.Render(c.Audio.Command, AudioTemplateData{ID: "1", Level: "info", Title: "t", Message: "m"}); err != nil {
			errs = errs.Append("audio.command", fmt.Errorf("template error: %w", err))
		}
	}
	return errs.ToError()
}

func required(s string) error {
	if s == "" {
		return fmt.Errorf("is required to talk to the server")
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
