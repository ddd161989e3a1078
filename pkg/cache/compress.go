package cache

import (
	"context"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Compressed wraps a Cache and stores values zstd-compressed. Converted
// schematics are already gzip streams, so the gain is mostly on text and
// JSON renderings.
type Compressed struct {
	inner Cache
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner.
func NewCompressed(inner Cache) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Compressed{inner: inner, enc: enc, dec: dec}, nil
}

// Get decompresses a stored value. Entries that fail to decompress are
// dropped and reported as misses.
func (c *Compressed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err != nil || !hit {
		return nil, false, err
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		_ = c.inner.Delete(ctx, key)
		return nil, false, nil
	}
	return out, true, nil
}

// Set compresses and stores data.
func (c *Compressed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, c.enc.EncodeAll(data, nil), ttl)
}

// Delete removes a value.
func (c *Compressed) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Unwrap returns the wrapped cache.
func (c *Compressed) Unwrap() Cache { return c.inner }

// Close releases the codecs and closes the wrapped cache.
func (c *Compressed) Close() error {
	c.dec.Close()
	_ = c.enc.Close()
	return c.inner.Close()
}

// Ensure Compressed implements Cache.
var _ Cache = (*Compressed)(nil)
