package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the config whenever configPath changes and sends each
// successfully parsed result on the returned channel. Invalid edits are
// logged and skipped. The channel closes when ctx ends.
//
// The parent directory is watched so editors that replace the file by
// rename are seen.
func Watch(ctx context.Context, configPath, dataDir string) (<-chan *Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(configPath), err)
	}

	out := make(chan *Config, 1)
	fire := make(chan struct{}, 1)

	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(configPath) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config watcher")
			case <-fire:
				cfg, err := Load(configPath, dataDir)
				if err != nil {
					log.Warn().Err(err).Str("path", configPath).Msg("config reload rejected")
					continue
				}
				log.Info().Str("path", configPath).Msg("config reloaded")
				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
