package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func collectItems(t *testing.T, src *Source) (map[string]domain.ContentItem, []error) {
	t.Helper()

	items, errs := src.Fetch(context.Background())

	collected := make(map[string]domain.ContentItem)
	var errList []error
	for items != nil || errs != nil {
		select {
		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			collected[item.Path] = item
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			errList = append(errList, err)
		}
	}
	return collected, errList
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSource_Fetch(t *testing.T) {
	t.Run("streams text files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "readme.md", "# Hello")
		writeFile(t, dir, "notes.txt", "plain notes")
		writeFile(t, dir, "sub/main.go", "package main")

		src := New(domain.Collection{Locator: dir})
		defer src.Close()

		items, errs := collectItems(t, src)

		assert.Empty(t, errs)
		require.Len(t, items, 3)
		assert.Equal(t, "text/markdown", items["readme.md"].ContentType)
		assert.Equal(t, "text/x-go", items["sub/main.go"].ContentType)
		assert.Equal(t, []byte("# Hello"), items["readme.md"].Content)
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "visible.txt", "visible")
		writeFile(t, dir, ".hidden.txt", "hidden")
		writeFile(t, dir, ".git/config", "[core]")

		src := New(domain.Collection{Locator: dir})
		defer src.Close()

		items, errs := collectItems(t, src)

		assert.Empty(t, errs)
		require.Len(t, items, 1)
		assert.Contains(t, items, "visible.txt")
	})

	t.Run("skips binary content", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "doc.md", "text")
		writeFile(t, dir, "image.png", "\x89PNG")
		writeFile(t, dir, "archive.zip", "PK")

		src := New(domain.Collection{Locator: dir})
		defer src.Close()

		items, _ := collectItems(t, src)

		require.Len(t, items, 1)
		assert.Contains(t, items, "doc.md")
	})

	t.Run("include masks select content", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "keep.md", "keep")
		writeFile(t, dir, "drop.txt", "drop")
		writeFile(t, dir, "sub/also.md", "keep")

		src := New(domain.Collection{Locator: dir, Include: []string{"*.md"}})
		defer src.Close()

		items, _ := collectItems(t, src)

		require.Len(t, items, 2)
		assert.Contains(t, items, "keep.md")
		assert.Contains(t, items, "sub/also.md")
	})

	t.Run("exclude masks override include", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "keep.md", "keep")
		writeFile(t, dir, "drop.md", "drop")

		src := New(domain.Collection{
			Locator: dir,
			Include: []string{"*.md"},
			Exclude: []string{"drop.md"},
		})
		defer src.Close()

		items, _ := collectItems(t, src)

		require.Len(t, items, 1)
		assert.Contains(t, items, "keep.md")
	})

	t.Run("missing root reports an error without items", func(t *testing.T) {
		src := New(domain.Collection{Locator: filepath.Join(t.TempDir(), "nope")})
		defer src.Close()

		items, errs := collectItems(t, src)

		assert.Empty(t, items)
		assert.NotEmpty(t, errs)
	})

	t.Run("cancelled context stops the scan", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < 20; i++ {
			writeFile(t, dir, "file-"+string(rune('a'+i))+".txt", "content")
		}

		src := New(domain.Collection{Locator: dir})
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		items, _ := src.Fetch(ctx)
		count := 0
		for range items {
			count++
		}
		assert.Less(t, count, 20)
	})
}

func TestSource_Watch(t *testing.T) {
	t.Run("streams created files", func(t *testing.T) {
		dir := t.TempDir()
		src := New(domain.Collection{Locator: dir})
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		items, err := src.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, dir, "new.md", "# New")

		select {
		case item := <-items:
			assert.Equal(t, "new.md", item.Path)
			assert.Equal(t, "text/markdown", item.ContentType)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watch event")
		}
	})

	t.Run("ignores hidden files", func(t *testing.T) {
		dir := t.TempDir()
		src := New(domain.Collection{Locator: dir})
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		items, err := src.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, dir, ".hidden.md", "hidden")
		writeFile(t, dir, "visible.md", "visible")

		select {
		case item := <-items:
			assert.Equal(t, "visible.md", item.Path)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for watch event")
		}
	})

	t.Run("missing root fails", func(t *testing.T) {
		src := New(domain.Collection{Locator: filepath.Join(t.TempDir(), "nope")})
		defer src.Close()

		_, err := src.Watch(context.Background())
		assert.Error(t, err)
	})
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"file", "text/plain"},
		{"doc.md", "text/markdown"},
		{"doc.markdown", "text/markdown"},
		{"code.go", "text/x-go"},
		{"script.py", "text/x-python"},
		{"lib.rs", "text/x-rust"},
		{"app.ts", "text/typescript"},
		{"config.yaml", "text/yaml"},
		{"config.yml", "text/yaml"},
		{"config.toml", "text/toml"},
		{"script.sh", "text/x-shellscript"},
		{"query.sql", "text/x-sql"},
		{"data.json", "application/json"},
		{"page.html", "text/html"},
		{"image.png", "image/png"},
		{"file.zzzzunknown", "application/octet-stream"},
		{"FILE.MD", "text/markdown"},
		{"File.Yaml", "text/yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := detectMIMEType(tt.filename)
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, ";")
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/./file", false},
		{"file.hidden", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}
