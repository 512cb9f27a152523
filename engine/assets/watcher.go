package assets

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/prism/engine/core"
)

// AssetWatcher watches the pipeline asset file and re-reads it when it
// changes on disk. The reloaded asset is published through the event
// system; the pipeline picks it up at the next frame boundary.
type AssetWatcher struct {
	path string

	mutex    sync.RWMutex
	current  *PipelineAsset
	fsnotify *fsnotify.Watcher
	done     chan struct{}
	isClosed bool
}

// NewAssetWatcher loads the asset once and starts watching its
// directory (editors replace files by rename, which drops a watch on
// the file itself).
func NewAssetWatcher(path string) (*AssetWatcher, error) {
	asset, err := LoadPipelineAsset(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	aw := &AssetWatcher{
		path:     path,
		current:  asset,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	go aw.start()
	return aw, nil
}

// Current returns the most recently loaded asset.
func (aw *AssetWatcher) Current() *PipelineAsset {
	aw.mutex.RLock()
	defer aw.mutex.RUnlock()
	return aw.current
}

func (aw *AssetWatcher) start() {
	for {
		select {
		case <-aw.done:
			return
		case event, ok := <-aw.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(aw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			aw.reload()
		case err, ok := <-aw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogWarn("asset watcher error: %s", err)
		}
	}
}

func (aw *AssetWatcher) reload() {
	asset, err := LoadPipelineAsset(aw.path)
	if err != nil {
		// Keep the previous settings; a half-written file shows up as
		// a parse error.
		core.LogWarn("pipeline asset reload failed, keeping previous settings: %s", err)
		return
	}
	aw.mutex.Lock()
	aw.current = asset
	aw.mutex.Unlock()

	core.LogInfo("pipeline asset '%s' reloaded", aw.path)
	core.EventFire(core.EVENT_CODE_PIPELINE_ASSET_RELOADED, aw, core.EventContext{
		Type: core.EVENT_CODE_PIPELINE_ASSET_RELOADED,
		Data: aw.path,
	})
}

// Close stops the watcher. It is safe to call more than once.
func (aw *AssetWatcher) Close() error {
	aw.mutex.Lock()
	defer aw.mutex.Unlock()
	if aw.isClosed {
		return nil
	}
	aw.isClosed = true
	close(aw.done)
	return aw.fsnotify.Close()
}
