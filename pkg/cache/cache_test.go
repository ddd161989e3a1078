package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/schemconv/pkg/observability"
)

func init() {
	retryDelay = time.Millisecond
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		cache Cache
	}{
		{"bare", NewNullCache()},
		{"observed", NewObserved(NewNullCache())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cache
			defer c.Close()

			if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
				t.Errorf("Set error: %v", err)
			}
			data, hit, err := c.Get(ctx, "key")
			if err != nil {
				t.Fatalf("Get error: %v", err)
			}
			if hit || data != nil {
				t.Errorf("Get = %q, hit %v, want a miss", data, hit)
			}
			if err := c.Delete(ctx, "key"); err != nil {
				t.Errorf("Delete error: %v", err)
			}
			if n, err := Clear(ctx, c); n != 0 || err != nil {
				t.Errorf("Clear = %d, %v, want 0, nil", n, err)
			}
		})
	}
}

// exerciseCache runs the behaviour every real backend must share.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := "convert:" + Hash([]byte(t.Name()))

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get(empty) = hit %v, err %v", hit, err)
	}
	value := []byte("schematic bytes")
	if err := c.Set(ctx, key, value, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get = %q, want %q", got, value)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v; want clean miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry was not removed")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	wrapped, err := NewCompressed(fc)
	if err != nil {
		t.Fatal(err)
	}
	c := NewObserved(wrapped)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := Clear(ctx, c)
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if n, err := Clear(ctx, NewNullCache()); n != 0 || err != nil {
		t.Errorf("Clear(null) = %d, %v", n, err)
	}
}

func TestCompressed(t *testing.T) {
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewCompressed(fc)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	exerciseCache(t, c)

	ctx := context.Background()
	value := []byte(strings.Repeat("minecraft:stone\n", 512))
	if err := c.Set(ctx, "text", value, 0); err != nil {
		t.Fatal(err)
	}
	raw, _, _ := fc.Get(ctx, "text")
	if len(raw) >= len(value) {
		t.Errorf("stored %d bytes for %d input; not compressed", len(raw), len(value))
	}
	got, hit, err := c.Get(ctx, "text")
	if err != nil || !hit || !bytes.Equal(got, value) {
		t.Errorf("Get = %d bytes, hit %v, err %v", len(got), hit, err)
	}

	// Entries written without compression are dropped.
	if err := fc.Set(ctx, "plain", []byte("plain"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "plain"); hit || err != nil {
		t.Errorf("plain entry: hit %v, err %v", hit, err)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	mu                sync.Mutex
	hits, misses, set []string
}

func (h *countingHooks) OnCacheHit(_ context.Context, kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits = append(h.hits, kind)
}

func (h *countingHooks) OnCacheMiss(_ context.Context, kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses = append(h.misses, kind)
}

func (h *countingHooks) OnCacheSet(_ context.Context, kind string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set = append(h.set, kind)
}

func TestObserved(t *testing.T) {
	h := &countingHooks{}
	observability.SetCacheHooks(h)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewObserved(fc)
	key := NewDefaultKeyer().RenderKey("abc", RenderKeyOpts{From: "litematic", Output: "text"})

	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("x"), 0)
	_, _, _ = c.Get(ctx, key)

	if len(h.misses) != 1 || len(h.set) != 1 || len(h.hits) != 1 {
		t.Fatalf("events: hits %v, misses %v, sets %v", h.hits, h.misses, h.set)
	}
	if h.hits[0] != "render" {
		t.Errorf("key type = %q, want render", h.hits[0])
	}
}

func TestKeyType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"convert:abc", "convert"},
		{"staging:render:abc", "render"},
		{"plain", "unknown"},
	}
	for _, tt := range tests {
		if got := KeyType(tt.key); got != tt.want {
			t.Errorf("KeyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ck1 := k.ConversionKey("hash", ConversionKeyOpts{From: "litematic", To: "schem"})
	ck2 := k.ConversionKey("hash", ConversionKeyOpts{From: "litematic", To: "litematic"})
	ck3 := k.ConversionKey("hash", ConversionKeyOpts{From: "litematic", To: "schem", DataVersion: 3700})
	if ck1 == ck2 || ck1 == ck3 {
		t.Error("Different ConversionKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ck1, "convert:") {
		t.Errorf("ConversionKey prefix: %s", ck1)
	}
	if ck1 != k.ConversionKey("hash", ConversionKeyOpts{From: "litematic", To: "schem"}) {
		t.Error("ConversionKey should be deterministic")
	}

	rk1 := k.RenderKey("hash", RenderKeyOpts{Output: "text"})
	rk2 := k.RenderKey("hash", RenderKeyOpts{Output: "json"})
	if rk1 == rk2 {
		t.Error("Different RenderKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "team:123:")
	key := scoped.ConversionKey("hash", ConversionKeyOpts{})
	if !strings.HasPrefix(key, "team:123:convert:") {
		t.Errorf("ScopedKeyer ConversionKey should be prefixed: %s", key)
	}
	if KeyType(key) != "convert" {
		t.Errorf("KeyType(%q) = %q", key, KeyType(key))
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.RenderKey("hash", RenderKeyOpts{})
	if !strings.HasPrefix(key, "prefix:render:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("Retryable should unwrap to the cause")
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	errPermanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent error", 5, errPermanent, 1, errPermanent},
		{"recovers", 1, Retryable(ErrNetwork), 2, nil},
		{"gives up", 5, Retryable(ErrNetwork), 3, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("SCHEMCONV_TEST_REDIS")
	if addr == "" {
		t.Skip("SCHEMCONV_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "schemconv-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)

	_ = c.Set(ctx, "x", []byte("1"), time.Minute)
	if n, err := c.Clear(ctx); err != nil || n < 1 {
		t.Errorf("Clear = %d, %v", n, err)
	}
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("SCHEMCONV_TEST_MONGO")
	if uri == "" {
		t.Skip("SCHEMCONV_TEST_MONGO not set")
	}
	ctx := context.Background()
	c, err := NewMongoCache(ctx, MongoOptions{URI: uri, Database: "schemconv_test"})
	if err != nil {
		t.Fatalf("NewMongoCache error: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c)

	_ = c.Set(ctx, "x", []byte("1"), time.Minute)
	if n, err := c.Clear(ctx); err != nil || n < 1 {
		t.Errorf("Clear = %d, %v", n, err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}
