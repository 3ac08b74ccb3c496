package backend

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/20after4/configdir"
	"github.com/boxes-ltd/imaging"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	coverArtThumbnailSize = 300

	// remote cover URLs are rewritten to request this resolution before
	// caching, so the cached copy stays useful if the UI later renders larger
	cachedImageResolution = 500

	defaultDiskCacheSizeBytes = 50 * 1_048_576

	downloadWorkers   = 2
	downloadQueueSize = 64
)

var urlSizeParamRegex = regexp.MustCompile(`size=\d+`)

// The ImageManager is responsible for caching cover images locally.
// It keeps an in-memory cache of recently used thumbnails and a larger
// on-disk cache of full covers, written best-effort as tiles render.
// Downloads are deduplicated per cache key and performed by a small
// background worker pool so rendering is never blocked.
type ImageManager struct {
	s              *ServerManager
	baseCacheDir   string
	httpClient     *retryablehttp.Client
	thumbnailCache ImageCache

	cacheImagesEnabled atomic.Bool

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
	downloads  chan downloadTask

	maxOnDiskCacheSizeBytes    int64
	filesWrittenSinceLastPrune bool
}

type downloadTask struct {
	key string
	url string
}

func NewImageManager(ctx context.Context, s *ServerManager, baseCacheDir string) *ImageManager {
	if err := configdir.MakePath(baseCacheDir); err != nil {
		log.Println("failed to create cover cache dir")
		baseCacheDir = ""
	}
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.Logger = nil
	i := &ImageManager{
		s:            s,
		baseCacheDir: baseCacheDir,
		httpClient:   httpClient,
		thumbnailCache: ImageCache{
			MinSize:    24,
			MaxSize:    150,
			DefaultTTL: 1 * time.Minute,
		},
		inFlight:                make(map[string]struct{}),
		downloads:               make(chan downloadTask, downloadQueueSize),
		maxOnDiskCacheSizeBytes: defaultDiskCacheSizeBytes,
	}
	i.cacheImagesEnabled.Store(true)
	s.OnLogout(func() {
		i.thumbnailCache.Clear()
	})
	i.thumbnailCache.OnEvictTaskRan = func() {
		i.pruneOnDiskCache()
	}
	i.thumbnailCache.Init(ctx, 2*time.Minute)
	for w := 0; w < downloadWorkers; w++ {
		go i.downloadWorker(ctx)
	}
	return i
}

func (i *ImageManager) SetMaxOnDiskCacheSizeBytes(size int64) {
	i.maxOnDiskCacheSizeBytes = size
}

// SetCacheImagesEnabled controls whether Store schedules downloads.
// When disabled, already-cached covers remain readable.
func (i *ImageManager) SetCacheImagesEnabled(enabled bool) {
	i.cacheImagesEnabled.Store(enabled)
}

// IsCached reports whether a cover for the given key is present on disk.
// Purely a local check; never touches the network.
func (i *ImageManager) IsCached(key string) bool {
	dir := i.ensureCoverCacheDir()
	if dir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, key))
	return err == nil
}

// PathForKey returns the local path a cover for the given key is (or would
// be) stored at, whether or not it exists yet.
func (i *ImageManager) PathForKey(key string) string {
	return filepath.Join(i.ensureCoverCacheDir(), key)
}

// Store schedules a best-effort download of the cover at remoteURL into the
// local cache under key. It returns immediately; failures are logged and
// swallowed, and a key that is already cached or already downloading is a
// no-op, so at most one download runs per key.
func (i *ImageManager) Store(key, remoteURL string) {
	if !i.cacheImagesEnabled.Load() || i.baseCacheDir == "" || i.IsCached(key) {
		return
	}
	i.inFlightMu.Lock()
	if _, ok := i.inFlight[key]; ok {
		i.inFlightMu.Unlock()
		return
	}
	i.inFlight[key] = struct{}{}
	i.inFlightMu.Unlock()

	url := urlSizeParamRegex.ReplaceAllString(remoteURL, fmt.Sprintf("size=%d", cachedImageResolution))
	select {
	case i.downloads <- downloadTask{key: key, url: url}:
	default:
		// queue full; drop - caching is best-effort
		i.clearInFlight(key)
	}
}

func (i *ImageManager) downloadWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-i.downloads:
			if err := i.fetchAndCacheCover(task); err != nil {
				log.Printf("failed to cache cover %s: %v", task.key, err)
			}
			i.clearInFlight(task.key)
		}
	}
}

func (i *ImageManager) clearInFlight(key string) {
	i.inFlightMu.Lock()
	delete(i.inFlight, key)
	i.inFlightMu.Unlock()
}

func (i *ImageManager) fetchAndCacheCover(task downloadTask) error {
	resp, err := i.httpClient.Get(task.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return err
	}

	// cached covers are immutable: never overwrite an existing file
	dest := i.PathForKey(task.key)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := i.writeJpeg(img, dest); err != nil {
		return err
	}
	i.thumbnailCache.Set(task.key, imaging.Resize(img, coverArtThumbnailSize, 0, imaging.Lanczos))
	return nil
}

// GetCoverThumbnail returns a thumbnail of the cover for the given cache key,
// from memory, disk, or the server, in that order of preference.
func (i *ImageManager) GetCoverThumbnail(key, coverArtID string) (image.Image, error) {
	if img, err := i.thumbnailCache.GetExtendTTL(key, i.thumbnailCache.DefaultTTL); err == nil {
		return img, nil
	}
	if img, ok := i.loadLocalImage(i.PathForKey(key)); ok {
		thumb := imaging.Resize(img, coverArtThumbnailSize, 0, imaging.Lanczos)
		i.thumbnailCache.Set(key, thumb)
		return thumb, nil
	}
	return i.fetchThumbnailFromServer(key, coverArtID)
}

func (i *ImageManager) fetchThumbnailFromServer(key, coverArtID string) (image.Image, error) {
	if i.s.Server == nil {
		return nil, ErrNotLoggedIn
	}
	img, err := i.s.Server.GetCoverArt(coverArtID, coverArtThumbnailSize)
	if err != nil {
		return nil, err
	}
	i.thumbnailCache.Set(key, img)
	return img, nil
}

func (i *ImageManager) ensureCoverCacheDir() string {
	// if user logged out with pending fetches in progress,
	// make sure we don't write to a nil (00000000-*0) cache directory
	if i.baseCacheDir == "" || i.s.ServerID == uuid.Nil {
		return ""
	}
	p := path.Join(i.baseCacheDir, i.s.ServerID.String(), "covers")
	configdir.MakePath(p)
	return p
}

func (i *ImageManager) writeJpeg(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil /*options*/); err != nil {
		return err
	}
	i.filesWrittenSinceLastPrune = true
	return nil
}

func (i *ImageManager) loadLocalImage(path string) (image.Image, bool) {
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if img, _, err := image.Decode(f); err == nil {
			return img, true
		}
	}
	return nil, false
}

func (im *ImageManager) pruneOnDiskCache() {
	if !im.filesWrittenSinceLastPrune {
		return // no new covers cached since last run, no need to walk dir
	}

	// collect list of all cached covers (across servers)
	// we use modTime as a proxy for last accessed time
	type fileInfo struct {
		path    string
		size    int64
		modTime int64
	}
	var allCovers []fileInfo
	var totalSize int64
	filepath.WalkDir(im.baseCacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, "jpg") {
			return nil
		}
		if info, err := d.Info(); err == nil {
			s := info.Size()
			allCovers = append(allCovers,
				fileInfo{path: path, size: s, modTime: info.ModTime().UnixMilli()})
			totalSize += s
		}
		return nil
	})

	if totalSize > im.maxOnDiskCacheSizeBytes {
		// sort and then delete from least recently modified until size is under threshold
		sort.Slice(allCovers, func(i, j int) bool {
			return allCovers[i].modTime < allCovers[j].modTime
		})
		for i := 0; i < len(allCovers) && totalSize > im.maxOnDiskCacheSizeBytes; i++ {
			if err := os.Remove(allCovers[i].path); err == nil {
				totalSize -= allCovers[i].size
			}
		}
	}
	im.filesWrittenSinceLastPrune = false
}
