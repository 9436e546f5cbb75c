package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("exists is false for a missing key", func(t *testing.T) {
		ok, err := store.Exists(ctx, "missing.json")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("get reports not found distinctly", func(t *testing.T) {
		_, err := store.Get(ctx, "missing.json")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		var te *TransportError
		assert.False(t, errors.As(err, &te), "not found must not be a transport error")
	})

	t.Run("put then get and exists", func(t *testing.T) {
		payload := []byte("series_id\tyear\tperiod\tvalue\nPRS30006011\t1995\tQ01\t2.6\n")
		require.NoError(t, store.Put(ctx, "pr.data.0.Current", payload))

		ok, err := store.Exists(ctx, "pr.data.0.Current")
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.Get(ctx, "pr.data.0.Current")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("put overwrites unconditionally", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "population_data.json", []byte(`{"data":[]}`)))
		require.NoError(t, store.Put(ctx, "population_data.json", []byte(`[]`)))

		got, err := store.Get(ctx, "population_data.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[]`), got)
	})

	t.Run("put rejects traversal keys", func(t *testing.T) {
		err := store.Put(ctx, "../escape.html", []byte("x"))
		require.Error(t, err)

		var te *TransportError
		assert.True(t, errors.As(err, &te))
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryStore("test-bucket"))
}

func TestFilesystemStore_Contract(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "test-bucket")
	require.NoError(t, err)
	runStoreContract(t, store)
}

func TestSnappyStore_Contract(t *testing.T) {
	runStoreContract(t, NewSnappyStore(NewMemoryStore("test-bucket"), "test-bucket"))
}

func TestSnappyStore_CompressesAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore("test-bucket")
	store := NewSnappyStore(inner, "test-bucket")

	payload := []byte(`[{"Nation":"United States","Year":"2018","Population":322903030}]`)
	require.NoError(t, store.Put(ctx, "population_data.json", payload))

	raw, err := inner.Get(ctx, "population_data.json")
	require.NoError(t, err)
	assert.NotEqual(t, payload, raw)

	got, err := store.Get(ctx, "population_data.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSnappyStore_CorruptObject(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore("test-bucket")
	require.NoError(t, inner.Put(ctx, "k", []byte{0xff, 0xff, 0xff, 0xff}))

	_, err := NewSnappyStore(inner, "test-bucket").Get(ctx, "k")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "get", te.Op)
	assert.Equal(t, "test-bucket", te.Bucket)
	assert.Contains(t, err.Error(), "blobstore get test-bucket/k")
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("test-bucket")

	payload := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", payload))
	payload[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'z'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore("test-bucket")
	_, err := store.Exists(ctx, "k")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"pr.data.0.Current", false},
		{"population_data.json", false},
		{"reports/2024/plot.html", false},
		{"", true},
		{"   ", true},
		{"/abs.json", true},
		{"../up.json", true},
		{"a/../b", true},
		{"a//b", true},
		{"a/./b", true},
		{`a\b`, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("https://{bucket}.s3.amazonaws.com/{key}", "rearc-quest", "Population_by_Year_and_Nation.html")
	assert.Equal(t, "https://rearc-quest.s3.amazonaws.com/Population_by_Year_and_Nation.html", got)

	got = PublicURL("http://localhost:8080/v1/artifacts/{key}", "ignored", "plot.html")
	assert.Equal(t, "http://localhost:8080/v1/artifacts/plot.html", got)
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransportError{Op: "put", Bucket: "b", Key: "k", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "put b/k")
}
