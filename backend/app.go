package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"time"

	"github.com/20after4/configdir"
	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/harmonia-app/harmonia/backend/player"
)

const (
	AppName = "harmonia"

	configFile     = "config.toml"
	savedQueueFile = "saved_queue.json"
)

type App struct {
	Config        *Config
	ServerManager *ServerManager
	ImageManager  *ImageManager
	PlayQueue     *PlayQueue
	QueueService  *QueueService

	appVersionTag string
	configDir     string
	cacheDir      string

	isFirstLaunch bool // set by config file reader
	bgrndCtx      context.Context
	cancel        context.CancelFunc

	lastWrittenCfg []byte
}

func (a *App) VersionTag() string {
	return a.appVersionTag
}

// StartupApp wires the backend together. The two playback engines and the
// notification sink are owned by the caller (the UI layer) and consumed here
// behind their interfaces.
func StartupApp(appVersionTag string, engineOne, engineTwo player.TrackPlayer, notifier Notifier) (*App, error) {
	confDir := configdir.LocalConfig(AppName)
	cacheDir := configdir.LocalCache(AppName)
	configdir.MakePath(confDir)
	configdir.MakePath(cacheDir)

	log.Printf("Starting %s...", AppName)
	log.Printf("Using config dir: %s", confDir)
	log.Printf("Using cache dir: %s", cacheDir)

	a := &App{
		appVersionTag: appVersionTag,
		configDir:     confDir,
		cacheDir:      cacheDir,
	}
	a.bgrndCtx, a.cancel = context.WithCancel(context.Background())
	a.readConfig()

	// settings consulted during wiring are snapshotted before any background
	// goroutine (config writer, file watcher) can touch the live Config
	a.Config.Application.MaxImageCacheSizeMB = clamp(a.Config.Application.MaxImageCacheSizeMB, 1, 500)
	settings := a.Config.Application
	a.startConfigWriter(a.bgrndCtx)
	a.Config.WatchConfigFile(a.bgrndCtx.Done(), a.configFilePath(), appVersionTag)

	a.ServerManager = NewServerManager(AppName, true /*use keyring*/)
	a.PlayQueue = NewPlayQueue(engineOne, engineTwo)
	a.QueueService = NewQueueService(a.bgrndCtx, a.ServerManager, a.Config, a.PlayQueue, notifier)
	a.ImageManager = NewImageManager(a.bgrndCtx, a.ServerManager, cacheDir)
	a.ImageManager.SetMaxOnDiskCacheSizeBytes(int64(settings.MaxImageCacheSizeMB) * 1_048_576)
	a.ImageManager.SetCacheImagesEnabled(settings.CacheImages)

	a.ServerManager.OnLogout(func() {
		a.PlayQueue.StopAndClearPlayQueue()
	})
	if settings.SavePlayQueue {
		a.PlayQueue.OnQueueChange(func() { a.SaveCurrentPlayQueue() })
		a.PlayQueue.OnTrackChange(func(*mediaprovider.Track) { a.SaveCurrentPlayQueue() })
	}

	return a, nil
}

func (a *App) IsFirstLaunch() bool {
	return a.isFirstLaunch
}

// SetTrackFavorite updates the favorite status on the server and keeps the
// in-queue track model in sync.
func (a *App) SetTrackFavorite(trackID string, favorite bool) error {
	if a.ServerManager.Server == nil {
		return ErrNotLoggedIn
	}
	err := a.ServerManager.Server.SetFavorite(
		mediaprovider.RatingFavoriteParameters{TrackIDs: []string{trackID}}, favorite)
	if err != nil {
		return err
	}
	a.PlayQueue.OnTrackFavoriteStatusChanged(trackID, favorite)
	return nil
}

// SaveCurrentPlayQueue persists the play queue for restore on next launch.
func (a *App) SaveCurrentPlayQueue() {
	if a.ServerManager.Server == nil {
		return
	}
	fp := path.Join(a.configDir, savedQueueFile)
	if err := SavePlayQueue(a.ServerManager.ServerID.String(), a.PlayQueue, fp); err != nil {
		log.Printf("error saving play queue: %v", err)
	}
}

// RestoreSavedPlayQueue loads the last saved play queue into the live queue
// without starting playback.
func (a *App) RestoreSavedPlayQueue() error {
	saved, err := LoadPlayQueue(path.Join(a.configDir, savedQueueFile), a.ServerManager)
	if err != nil {
		return err
	}
	a.PlayQueue.SetPlayQueue(saved.Tracks)
	return nil
}

func (a *App) Shutdown() {
	if a.Config.AppSettings().SavePlayQueue {
		a.SaveCurrentPlayQueue()
	}
	a.Config.WriteConfigFile(a.configFilePath())
	a.cancel()
}

func (a *App) readConfig() {
	cfgPath := a.configFilePath()
	var cfgExists bool
	if _, err := os.Stat(cfgPath); err == nil {
		cfgExists = true
	}
	a.isFirstLaunch = !cfgExists
	cfg, err := ReadConfigFile(cfgPath, a.appVersionTag)
	if err != nil {
		log.Printf("Error reading app config file: %v", err)
		cfg = DefaultConfig(a.appVersionTag)
		if cfgExists {
			backupCfgName := fmt.Sprintf("%s.bak", configFile)
			log.Printf("Config file may be malformed: copying to %s", backupCfgName)
			_ = copyFile(cfgPath, path.Join(a.configDir, backupCfgName))
		}
	}
	a.Config = cfg
}

// periodically save config file so abnormal exit won't lose settings
func (a *App) startConfigWriter(ctx context.Context) {
	tick := time.NewTicker(2 * time.Minute)
	go func() {
		for {
			select {
			case <-ctx.Done():
				tick.Stop()
				return
			case <-tick.C:
				if b, err := a.Config.marshalTOML(); err == nil && !bytes.Equal(b, a.lastWrittenCfg) {
					a.Config.WriteConfigFile(a.configFilePath())
					a.lastWrittenCfg = b
				}
			}
		}
	}()
}

func (a *App) configFilePath() string {
	return path.Join(a.configDir, configFile)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func clamp(i, min, max int) int {
	if i < min {
		i = min
	} else if i > max {
		i = max
	}
	return i
}
