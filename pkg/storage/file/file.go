// Package file stores one json file per competition in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/swimprotocol/log"
	"github.com/mpapenbr/swimprotocol/pkg/storage"
	"github.com/mpapenbr/swimprotocol/pkg/storage/factory"
	"github.com/mpapenbr/swimprotocol/pkg/utils/cache/loadercache"
)

const (
	ext = ".json"

	StoreTypeFile factory.StoreType = "file"
)

type (
	Option  func(*backend)
	backend struct {
		dir     string
		l       *log.Logger
		cache   *loadercache.Cache[string, []byte]
		watch   bool
		watcher *fsnotify.Watcher
		done    chan struct{}
		wg      sync.WaitGroup
	}
)

var (
	_ storage.Backend = (*backend)(nil)

	ErrMissingDir = errors.New("storage dir is required")
)

// WithDir replaces the directory passed to New
func WithDir(dir string) Option {
	return func(b *backend) {
		b.dir = dir
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *backend) {
		b.l = l
	}
}

// WithWatch enables the read cache. Entries are invalidated when the
// directory content changes, also by other processes.
func WithWatch(arg bool) Option {
	return func(b *backend) {
		b.watch = arg
	}
}

// New creates the directory if needed
//
//nolint:ireturn // by factory contract
func New(dir string, opts ...Option) (storage.Backend, error) {
	b := &backend{
		dir: dir,
		l:   log.Default().Named("storage.file"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.dir == "" {
		return nil, ErrMissingDir
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if b.watch {
		if err := b.startWatcher(); err != nil {
			return nil, err
		}
	}
	b.l.Debug("file storage ready",
		log.String("dir", b.dir), log.Bool("watch", b.watch))
	return b, nil
}

func (b *backend) path(key string) (string, error) {
	if err := storage.ValidateID(key); err != nil {
		return "", err
	}
	return filepath.Join(b.dir, key+ext), nil
}

func (b *backend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.cache != nil {
		data, err := b.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), *data...), nil
	}
	data, err := b.read(ctx, key)
	if err != nil {
		return nil, err
	}
	return *data, nil
}

func (b *backend) read(_ context.Context, key string) (*[]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &data, nil
}

// Put writes to a temp file in the same directory, syncs and renames it over
// the target. Readers see either the old or the new content.
func (b *backend) Put(ctx context.Context, key string, data []byte) (err error) {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, "."+key+"-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return err
	}
	b.invalidate(ctx, key)
	return nil
}

func (b *backend) Delete(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	b.invalidate(ctx, key)
	return nil
}

func (b *backend) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}
	ret := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		ret = append(ret, strings.TrimSuffix(name, ext))
	}
	return ret, nil
}

func (b *backend) Close() error {
	if b.watcher == nil {
		return nil
	}
	close(b.done)
	err := b.watcher.Close()
	b.wg.Wait()
	b.watcher = nil
	return err
}

func (b *backend) invalidate(ctx context.Context, key string) {
	if b.cache != nil {
		b.cache.Invalidate(ctx, key)
	}
}

func (b *backend) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch storage dir: %w", err)
	}
	b.watcher = watcher
	b.done = make(chan struct{})
	b.cache = loadercache.New(
		loadercache.WithLoader(b.read),
		loadercache.WithExpiration[string, []byte](0),
		loadercache.WithLogger[string, []byte](b.l.Named("cache")),
	)
	b.wg.Add(1)
	go b.watchLoop()
	return nil
}

func (b *backend) watchLoop() {
	defer b.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
				continue
			}
			b.l.Debug("change detected",
				log.String("file", event.Name), log.String("op", event.Op.String()))
			b.cache.Invalidate(ctx, strings.TrimSuffix(name, ext))
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			// events may have been lost
			b.l.Warn("watcher error", log.ErrorField(err))
			b.cache.InvalidateAll(ctx)
		}
	}
}

func init() {
	factory.Register(StoreTypeFile, func(_ context.Context, opts []Option) (storage.Backend, error) {
		return New("", opts...)
	})
}
