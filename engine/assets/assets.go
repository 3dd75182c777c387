// Package assets indexes the files under an asset directory, loads them into
// renderer resources and, when watching, reloads shader sources as they
// change on disk.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"weak"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/cinder/engine/assets/loaders"
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

var ErrAssetManagerClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader
	// programs to reload, keyed by the stage path without extension. Weak so
	// a program dropped by the application can still be reclaimed.
	shaders map[string]weak.Pointer[metadata.ShaderProgram]
	// receives EVENT_CODE_SHADER_RELOADED, may be nil
	events *core.EventBus

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

// NewAssetManager indexes root. With watch set, changes below root are
// followed and shader programs loaded through LoadShader are hot reloaded.
func NewAssetManager(root string, watch bool) (*AssetManager, error) {
	am := &AssetManager{
		root:    filepath.Clean(root),
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		shaders: make(map[string]weak.Pointer[metadata.ShaderProgram]),
		done:    make(chan struct{}),
	}
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})

	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		am.fsnotify = fsWatch
	}
	if err := am.watchRecursive(am.root); err != nil {
		am.Shutdown()
		return nil, err
	}
	if am.fsnotify != nil {
		am.wg.Add(1)
		go am.start()
	}
	return am, nil
}

func (am *AssetManager) Root() string {
	return am.root
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Lookup returns the index entry of a file, path relative to the root.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Join(am.root, path)]
	return info, ok
}

// Assets returns every indexed file, sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	infos := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		infos = append(infos, info)
	}
	am.mutex.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

// LoadAsset runs the loader registered for resourceType on a path relative
// to the root.
func (am *AssetManager) LoadAsset(filename string, resourceType metadata.ResourceType, params any) (*loaders.Resource, error) {
	if am.closed() {
		return nil, ErrAssetManagerClosed
	}
	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", resourceType)
	}
	path := filepath.Join(am.root, filename)
	res, err := loader.Load(path, resourceType, params)
	if err != nil {
		return nil, err
	}
	am.touch(res.FullPath, resourceType)
	return res, nil
}

// LoadShader loads "shaders/<name>.vert" and "shaders/<name>.frag" into a
// new program. When watching, the program follows later edits of both files.
func (am *AssetManager) LoadShader(name string) (*metadata.ShaderProgram, error) {
	res, err := am.LoadAsset(filepath.Join("shaders", name), metadata.ResourceTypeShader, nil)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", name, err)
	}
	src := res.Data.(*loaders.ShaderSource)
	program := metadata.NewShaderProgram(name, src.Vertex, src.Fragment)

	if am.fsnotify != nil {
		am.mutex.Lock()
		am.shaders[res.FullPath] = weak.Make(program)
		am.mutex.Unlock()
	}
	return program, nil
}

// LoadTexture decodes "textures/<filename>".
func (am *AssetManager) LoadTexture(filename string, params *loaders.TextureParams) (*metadata.Texture, error) {
	res, err := am.LoadAsset(filepath.Join("textures", filename), metadata.ResourceTypeImage, params)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", filename, err)
	}
	return res.Data.(*metadata.Texture), nil
}

// LoadVertexBuffer reads pre-baked vertex data from "meshes/<filename>".
func (am *AssetManager) LoadVertexBuffer(filename string, stride uint32, usage metadata.BufferUsage) (*metadata.Buffer, error) {
	res, err := am.LoadAsset(filepath.Join("meshes", filename), metadata.ResourceTypeBinary, nil)
	if err != nil {
		return nil, fmt.Errorf("vertex buffer %q: %w", filename, err)
	}
	data := res.Data.([]byte)
	if stride == 0 || len(data)%int(stride) != 0 {
		return nil, fmt.Errorf("vertex buffer %q: %d bytes is not a multiple of stride %d", filename, len(data), stride)
	}
	return metadata.NewVertexBuffer(res.Name, data, stride, usage), nil
}

// Shutdown stops watching. Already loaded resources stay valid.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.fsnotify == nil {
		return nil
	}
	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s != nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("asset watcher: cannot watch %s: %s", e.Name, err)
			}
		}
		return
	}
	// Handle create or modify events
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		am.handleFileEvent(e.Name)
		if determineAssetType(e.Name) == metadata.ResourceTypeShader {
			am.reloadShader(e.Name)
		}
	}
	// Can't stat a deleted path, fsnotify drops its watch by itself
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
	}
}

func (am *AssetManager) reloadShader(path string) {
	base := loaders.ShaderBase(path)
	am.mutex.RLock()
	ref, ok := am.shaders[base]
	am.mutex.RUnlock()
	if !ok {
		return
	}
	program := ref.Value()
	if program == nil {
		am.mutex.Lock()
		if am.shaders[base] == ref {
			delete(am.shaders, base)
		}
		am.mutex.Unlock()
		return
	}
	res, err := am.loaders[metadata.ResourceTypeShader].Load(base, metadata.ResourceTypeShader, nil)
	if err != nil {
		// editors often write files in several steps, the next event retries
		core.LogWarn("shader %q: reload failed: %s", program.Name(), err)
		return
	}
	src := res.Data.(*loaders.ShaderSource)
	vs, fs, _ := program.Source()
	if vs == src.Vertex && fs == src.Fragment {
		return
	}
	program.SetSource(src.Vertex, src.Fragment)
	core.LogInfo("shader %q reloaded", program.Name())

	am.mutex.RLock()
	bus := am.events
	am.mutex.RUnlock()
	if bus != nil {
		var ctx core.EventContext
		ctx.Data.C[0] = program.Name()
		ctx.Data.U64[0] = program.Version()
		bus.Fire(core.EVENT_CODE_SHADER_RELOADED, am, ctx)
	}
}

// SetEventBus makes the manager fire EVENT_CODE_SHADER_RELOADED on bus from
// the watcher goroutine.
func (am *AssetManager) SetEventBus(bus *core.EventBus) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.events = bus
}

// watchRecursive indexes every file under path and, when watching, adds all
// directories to the watch list. Files created before the watch is in place
// are picked up by the walk.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify == nil {
				return nil
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
}

// touch records a load of path. Shader paths have no extension and stand for
// both stage files.
func (am *AssetManager) touch(path string, assetType metadata.ResourceType) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	now := time.Now()
	paths := []string{path}
	if assetType == metadata.ResourceTypeShader {
		paths = []string{path + loaders.VertexStageExtension, path + loaders.FragmentStageExtension}
	}
	for _, p := range paths {
		am.assets[p] = AssetInfo{Path: p, Type: assetType, LastLoaded: now}
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case loaders.VertexStageExtension, loaders.FragmentStageExtension:
		return metadata.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".bin":
		return metadata.ResourceTypeBinary
	default:
		return metadata.ResourceTypeNone
	}
}
