package target

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/pkg/objstore"
)

// ObjectTarget is one object in an object store
type ObjectTarget struct {
	store objstore.Store
	key   string
}

func NewObject(store objstore.Store, key string) *ObjectTarget {
	return &ObjectTarget{store: store, key: key}
}

func (o *ObjectTarget) Key() string { return o.key }
func (o *ObjectTarget) URI() string { return o.store.URI(o.key) }

func (o *ObjectTarget) Exists(ctx context.Context) (bool, error) {
	return o.store.Exists(ctx, o.key)
}

// Read returns the object bytes; a missing object is ErrLookup
func (o *ObjectTarget) Read(ctx context.Context) ([]byte, error) {
	data, err := o.store.Get(ctx, o.key)
	if errors.Is(err, objstore.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", o.URI(), contracts.ErrLookup)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.URI(), err)
	}
	return data, nil
}

// Write stores data in a single Put
func (o *ObjectTarget) Write(ctx context.Context, data []byte) error {
	if err := o.store.Put(ctx, o.key, data); err != nil {
		return fmt.Errorf("write %s: %w: %v", o.URI(), contracts.ErrPersistence, err)
	}
	return nil
}

// NewWriter buffers writes and commits them with one Put on Close
func (o *ObjectTarget) NewWriter(ctx context.Context) *ObjectWriter {
	return &ObjectWriter{ctx: ctx, target: o}
}

// ObjectWriter is an io.WriteCloser over an ObjectTarget
type ObjectWriter struct {
	ctx    context.Context
	target *ObjectTarget
	buf    bytes.Buffer
	closed bool
}

func (w *ObjectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed writer for %s", w.target.URI())
	}
	return w.buf.Write(p)
}

func (w *ObjectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.target.Write(w.ctx, w.buf.Bytes())
}
