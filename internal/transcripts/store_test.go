package transcripts

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"subgen/internal/subtitles"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "transcripts.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	key := Key{MediaHash: "abc", Model: "small", Language: "en", WordTimestamps: true}
	segments := []subtitles.Segment{
		{Start: 0, End: 1.5, Text: "hello", Words: []subtitles.Word{{Text: "hello", Start: 0, End: 1.5, Timed: true}}},
		{Start: 2, End: 3, Text: "123", Words: []subtitles.Word{{Text: "123"}}},
	}
	if err := store.Put(ctx, Entry{Key: key, Source: "/media/a.mp4", DetectedLanguage: "en", Segments: segments}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if !reflect.DeepEqual(got.Segments, segments) {
		t.Fatalf("segments = %#v\nwant %#v", got.Segments, segments)
	}
	if got.Source != "/media/a.mp4" || got.DetectedLanguage != "en" || got.SegmentCount != 2 || !got.WordTimestamps {
		t.Fatalf("unexpected entry %#v", got)
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Fatalf("unexpected created at %v", got.CreatedAt)
	}
}

func TestGetDistinguishesKeyFields(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := Key{MediaHash: "abc", Model: "small"}
	if err := store.Put(ctx, Entry{Key: base, Segments: []subtitles.Segment{{Start: 0, End: 1, Text: "x"}}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	for name, key := range map[string]Key{
		"model":    {MediaHash: "abc", Model: "medium"},
		"language": {MediaHash: "abc", Model: "small", Language: "fr"},
		"words":    {MediaHash: "abc", Model: "small", WordTimestamps: true},
		"hash":     {MediaHash: "def", Model: "small"},
	} {
		got, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("%s: Get: %v", name, err)
		}
		if got != nil {
			t.Fatalf("%s: expected miss, got %#v", name, got)
		}
	}
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	key := Key{MediaHash: "abc", Model: "small"}
	for _, text := range []string{"first", "second"} {
		if err := store.Put(ctx, Entry{Key: key, Segments: []subtitles.Segment{{Start: 0, End: 1, Text: text}}}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	got, err := store.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Segments[0].Text != "second" {
		t.Fatalf("expected replacement, got %q", got.Segments[0].Text)
	}
	entries, err := store.List(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry, got %d %v", len(entries), err)
	}
}

func TestPutRequiresKey(t *testing.T) {
	if err := openTestStore(t).Put(context.Background(), Entry{}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestListAndClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	now := time.Now()
	for i, hash := range []string{"old", "new"} {
		entry := Entry{Key: Key{MediaHash: hash, Model: "tiny"}, CreatedAt: now.Add(time.Duration(i) * time.Minute)}
		if err := store.Put(ctx, entry); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].MediaHash != "new" || entries[1].MediaHash != "old" {
		t.Fatalf("unexpected list order %#v", entries)
	}
	if entries[0].Segments != nil {
		t.Fatal("expected list to omit segments")
	}

	removed, err := store.Clear(ctx)
	if err != nil || removed != 2 {
		t.Fatalf("Clear = %d, %v", removed, err)
	}
	if entries, _ := store.List(ctx); len(entries) != 0 {
		t.Fatalf("expected empty store, got %d", len(entries))
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "t.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key := Key{MediaHash: "abc", Model: "base"}
	if err := store.Put(ctx, Entry{Key: key}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	got, err := store.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("expected entry after reopen, got %v %v", got, err)
	}
	if len(got.Segments) != 0 {
		t.Fatalf("expected empty segments, got %#v", got.Segments)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if !isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy detection")
	}
	if isSQLiteBusy(errors.New("no such table")) || isSQLiteBusy(nil) {
		t.Fatal("unexpected busy detection")
	}
}

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success after 3 attempts, got %d %v", attempts, err)
	}
}
