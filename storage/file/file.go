// Package file implements the durable storage origin as one file per key
// under a root directory. Writes go through a temp file and rename, so a
// watcher never observes a partial value. Sibling processes sharing the
// directory observe each other's writes via fsnotify.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	st "github.com/unkn0wn-root/entsync/storage"
)

const tmpPrefix = ".tmp-"

type Store struct {
	root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	subs    map[string]map[int]func([]byte) // file name -> handlers
	nextID  int
	wg      sync.WaitGroup
	closed  bool
}

var _ st.WatchableStore = (*Store)(nil)

func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("file storage: root dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		root: root,
		subs: make(map[string]map[int]func([]byte)),
	}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.root, tmpPrefix)
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	// rename is the commit point; readers and watchers see old or new, never half
	return os.Rename(name, s.path(key))
}

func (s *Store) Del(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		err := w.Close()
		s.wg.Wait()
		return err
	}
	return nil
}

// Watch registers fn for changes to key made by any process writing to the
// same directory, this one included. fn receives the new value after a Set
// and nil after a Del.
func (s *Store) Watch(key string, fn func(value []byte)) (func(), error) {
	name := fileName(key)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("file storage: closed")
	}
	if s.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if err := w.Add(s.root); err != nil {
			w.Close()
			s.mu.Unlock()
			return nil, err
		}
		s.watcher = w
		s.wg.Add(1)
		go s.dispatch(w)
	}
	id := s.nextID
	s.nextID++
	if s.subs[name] == nil {
		s.subs[name] = make(map[int]func([]byte))
	}
	s.subs[name][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if m := s.subs[name]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(s.subs, name)
			}
		}
		s.mu.Unlock()
	}, nil
}

func (s *Store) dispatch(w *fsnotify.Watcher) {
	defer s.wg.Done()
	for ev := range w.Events {
		name := filepath.Base(ev.Name)
		if strings.HasPrefix(name, tmpPrefix) {
			continue
		}

		s.mu.Lock()
		m := s.subs[name]
		fns := make([]func([]byte), 0, len(m))
		for _, fn := range m {
			fns = append(fns, fn)
		}
		s.mu.Unlock()
		if len(fns) == 0 {
			continue
		}

		switch {
		case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
			// committed writes arrive as a rename (Create); direct writers
			// produce Write events
			b, err := os.ReadFile(ev.Name)
			if err != nil {
				continue // already deleted again; nothing to deliver
			}
			for _, fn := range fns {
				fn(b)
			}
		case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			for _, fn := range fns {
				fn(nil)
			}
		}
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, fileName(key))
}

// fileName flattens a key into a single path element.
func fileName(key string) string {
	r := strings.NewReplacer(":", "_", "/", "_", string(filepath.Separator), "_")
	return r.Replace(key)
}
