package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dlovans/formcraft/pkg/form"
)

// DefaultCacheSize is the number of forms Find keeps decoded.
const DefaultCacheSize = 128

// Collection is the ordered sequence of persisted forms stored under one key.
// Writes replace the whole serialized sequence.
type Collection struct {
	blob  Blob
	key   string
	log   *zap.Logger
	cache *lru.Cache[string, form.Form]

	mu sync.Mutex // serialises read-modify-write cycles
}

// Option configures a Collection.
type Option func(*collectionOptions)

type collectionOptions struct {
	logger    *zap.Logger
	cacheSize int
}

// WithLogger sets the logger used to report unreadable data.
func WithLogger(logger *zap.Logger) Option {
	return func(o *collectionOptions) { o.logger = logger }
}

// WithCacheSize sets the Find cache capacity. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(o *collectionOptions) { o.cacheSize = n }
}

// NewCollection binds a collection to key inside blob. An empty key uses
// DefaultKey.
func NewCollection(blob Blob, key string, opts ...Option) (*Collection, error) {
	if blob == nil {
		return nil, fmt.Errorf("new collection: blob is nil")
	}
	o := collectionOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultKey
	}

	c := &Collection{
		blob: blob,
		key:  key,
		log:  o.logger.With(zap.String("collection", key)),
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, form.Form](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("new collection: cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Key returns the collection key.
func (c *Collection) Key() string { return c.key }

// Append adds one form to the end of the collection. It fails when the
// stored collection cannot be read, so a corrupt collection is never
// silently overwritten.
func (c *Collection) Append(ctx context.Context, f form.Form) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	forms, err := c.read(ctx)
	if err != nil {
		return fmt.Errorf("append %s: %w", f.ID, err)
	}
	forms = append(forms, f.Clone())
	if err := c.write(ctx, forms); err != nil {
		return fmt.Errorf("append %s: %w", f.ID, err)
	}
	return nil
}

// LoadAll returns every persisted form in save order. Missing or unreadable
// storage yields an empty slice; the failure is logged, not returned.
func (c *Collection) LoadAll(ctx context.Context) []form.Form {
	forms, err := c.read(ctx)
	if err != nil {
		c.log.Warn("load forms: treating collection as empty", zap.Error(err))
		return []form.Form{}
	}
	return forms
}

// Find returns the form with the given id.
func (c *Collection) Find(ctx context.Context, id string) (form.Form, error) {
	if c.cache != nil {
		if f, ok := c.cache.Get(id); ok {
			return f.Clone(), nil
		}
	}

	// Held so a concurrent write cannot purge the cache between the load and
	// the Add below.
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.LoadAll(ctx) {
		if f.ID == id {
			if c.cache != nil {
				c.cache.Add(id, f.Clone())
			}
			return f, nil
		}
	}
	return form.Form{}, fmt.Errorf("find %s: %w", id, ErrNotFound)
}

// Remove deletes the form with the given id as a whole.
func (c *Collection) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	forms, err := c.read(ctx)
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	kept := forms[:0]
	for _, f := range forms {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(forms) {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	if err := c.write(ctx, kept); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying blob store.
func (c *Collection) Close() error {
	return c.blob.Close()
}

func (c *Collection) read(ctx context.Context) ([]form.Form, error) {
	data, ok, err := c.blob.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if !ok || len(data) == 0 {
		return []form.Form{}, nil
	}

	var forms []form.Form
	if err := json.Unmarshal(data, &forms); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUnreadable, err)
	}
	if forms == nil {
		forms = []form.Form{}
	}
	return forms, nil
}

// write stores forms under the key. An empty collection deletes the key.
func (c *Collection) write(ctx context.Context, forms []form.Form) error {
	if len(forms) == 0 {
		if err := c.blob.Delete(ctx, c.key); err != nil {
			return err
		}
	} else {
		data, err := json.Marshal(forms)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if err := c.blob.Put(ctx, c.key, data); err != nil {
			return err
		}
	}
	if c.cache != nil {
		c.cache.Purge()
	}
	return nil
}
