package backend

import (
	"log"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

type ServerConnection struct {
	Hostname    string
	AltHostname string
	Username    string
	LegacyAuth  bool
}

type ServerConfig struct {
	ServerConnection
	ID       uuid.UUID
	Nickname string
	Default  bool
}

type AppConfig struct {
	LastLaunchedVersion string
	MaxImageCacheSizeMB int
	SavePlayQueue       bool

	// CacheImages enables best-effort local caching of cover images
	// as tiles render them.
	CacheImages bool
}

type PlaybackConfig struct {
	// Filters are the user's exclusion rules, applied to every
	// play / add-to-queue action before tracks reach the queue.
	Filters FilterRuleSet

	RepeatMode string
	Volume     int
}

// Config is shared between the startup goroutine, the queue mutation worker,
// and the file watcher; cross-goroutine access goes through the accessor
// methods, which serialize against live reloads.
type Config struct {
	Application AppConfig
	Servers     []*ServerConfig
	Playback    PlaybackConfig

	mu sync.RWMutex
}

func DefaultConfig(appVersionTag string) *Config {
	return &Config{
		Application: AppConfig{
			LastLaunchedVersion: appVersionTag,
			MaxImageCacheSizeMB: 50,
			SavePlayQueue:       true,
			CacheImages:         true,
		},
		Playback: PlaybackConfig{
			Filters: FilterRuleSet{},
			Volume:  100,
		},
	}
}

func ReadConfigFile(filepath, appVersionTag string) (*Config, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig(appVersionTag)
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}
	return c, nil
}

// FilterRules returns the current exclusion rule set. Safe to call while a
// live reload is in progress.
func (c *Config) FilterRules() FilterRuleSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Playback.Filters
}

// AppSettings returns a copy of the application section.
func (c *Config) AppSettings() AppConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Application
}

func (c *Config) reloadFrom(newCfg *Config) {
	c.mu.Lock()
	c.Application = newCfg.Application
	c.Servers = newCfg.Servers
	c.Playback = newCfg.Playback
	c.mu.Unlock()
}

func (c *Config) marshalTOML() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return toml.Marshal(c)
}

var writeLock sync.Mutex

func (c *Config) WriteConfigFile(filepath string) error {
	if !writeLock.TryLock() {
		return nil // another write in progress
	}
	defer writeLock.Unlock()

	b, err := c.marshalTOML()
	if err != nil {
		return err
	}
	os.WriteFile(filepath, b, 0644)

	return nil
}

// WatchConfigFile reloads the config into c whenever the file is edited
// externally, so a running app picks up filter rule changes without a
// restart. Watch failures are logged and otherwise ignored.
func (c *Config) WatchConfigFile(done <-chan struct{}, filepath, appVersionTag string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("unable to watch config file: %v", err)
		return
	}
	if err := watcher.Add(filepath); err != nil {
		log.Printf("unable to watch config file: %v", err)
		watcher.Close()
		return
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Write) {
					if newCfg, err := ReadConfigFile(filepath, appVersionTag); err == nil {
						c.reloadFrom(newCfg)
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}
