package prefabs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileKind classifies the files a Watcher reports.
type FileKind int

const (
	KindOther FileKind = iota
	KindMesh
	KindSpec
	KindScript
)

func (k FileKind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindSpec:
		return "spec"
	case KindScript:
		return "script"
	default:
		return "other"
	}
}

// KindOf picks a file's kind from its extension.
func KindOf(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nav", ".navpack":
		return KindMesh
	case ".yaml", ".yml":
		return KindSpec
	case ".tengo":
		return KindScript
	default:
		return KindOther
	}
}

type Change struct {
	Path string
	Kind FileKind
}

const debounce = 100 * time.Millisecond

// Watcher reports changed mesh, spec and script files under a set of
// directory trees. Changes to one file are debounced to one per 100ms.
type Watcher struct {
	watcher *fsnotify.Watcher
	Changes chan Change
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := addTree(w, dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// addTree watches dir and every directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Errors)
	defer close(w.Changes)

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(w.watcher, event.Name); err != nil {
						w.report(err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			kind := KindOf(event.Name)
			if kind == KindOther {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Changes <- Change{Path: event.Name, Kind: kind}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-w.closeCh:
			return
		}
	}
}

// report drops errors nobody is reading.
func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}
