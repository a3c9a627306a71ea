// Package filesystem provides a content source that scans a local
// directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ContentSource = (*Source)(nil)

// maxFileSize is the largest file the source will read. Bigger files are
// skipped with a per-item error.
const maxFileSize = 4 << 20 // 4 MiB

// fallbackMIMETypes covers extensions Go's mime package doesn't know or
// reports unhelpfully.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
}

// Source streams text files from a directory tree as content items.
// Include/exclude masks from the collection filter what gets streamed.
type Source struct {
	root    string
	include []string
	exclude []string
	watcher *fsnotify.Watcher
}

// New creates a filesystem source rooted at the collection's locator.
func New(col domain.Collection) *Source {
	return &Source{
		root:    col.Locator,
		include: col.Include,
		exclude: col.Exclude,
	}
}

// Kind returns the source kind identifier.
func (s *Source) Kind() string {
	return "filesystem"
}

// Fetch walks the tree and streams every matching text file. Unreadable
// files are reported on the error channel without stopping the scan.
func (s *Source) Fetch(ctx context.Context) (<-chan domain.ContentItem, <-chan error) {
	items := make(chan domain.ContentItem)
	errs := make(chan error, 16)

	go func() {
		defer close(items)
		defer close(errs)

		walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.reportErr(errs, fmt.Errorf("walk %s: %w", path, err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != s.root && isHidden(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item, skip, err := s.loadItem(path, d)
			if err != nil {
				s.reportErr(errs, err)
				return nil
			}
			if skip {
				return nil
			}

			select {
			case items <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if walkErr != nil && ctx.Err() == nil {
			s.reportErr(errs, fmt.Errorf("scan %s: %w", s.root, walkErr))
		}
	}()

	return items, errs
}

// Watch streams items as files are created or modified under the root.
// Removals are not streamed; a re-scan reconciles them.
func (s *Source) Watch(ctx context.Context) (<-chan domain.ContentItem, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = watcher

	// Watch the root and every non-hidden subdirectory.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.root, err)
	}

	items := make(chan domain.ContentItem)

	go func() {
		defer close(items)
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				item, ok := s.handleFsEvent(watcher, event)
				if !ok {
					continue
				}
				select {
				case items <- item:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return items, nil
}

// Close releases the watcher if one is active.
func (s *Source) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// handleFsEvent turns a create or write event into a content item.
// Directory creates register a new watch instead.
func (s *Source) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.ContentItem, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return domain.ContentItem{}, false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return domain.ContentItem{}, false
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !isHidden(filepath.Base(event.Name)) {
			watcher.Add(event.Name)
		}
		return domain.ContentItem{}, false
	}

	entry := fs.FileInfoToDirEntry(info)
	item, skip, err := s.loadItem(event.Name, entry)
	if err != nil || skip {
		return domain.ContentItem{}, false
	}
	return item, true
}

// loadItem reads one file into a content item, applying every filter.
func (s *Source) loadItem(path string, d fs.DirEntry) (domain.ContentItem, bool, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if isHidden(rel) || !s.matchesMasks(rel) {
		return domain.ContentItem{}, true, nil
	}

	contentType := detectMIMEType(path)
	if !isTextType(contentType) {
		return domain.ContentItem{}, true, nil
	}

	info, err := d.Info()
	if err != nil {
		return domain.ContentItem{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return domain.ContentItem{}, false, fmt.Errorf("skip %s: %d bytes exceeds limit", rel, info.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ContentItem{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.ContentItem{
		ID:          rel,
		Path:        rel,
		ContentType: contentType,
		Content:     content,
	}, false, nil
}

// matchesMasks applies the collection's include and exclude globs to a
// slash-separated relative path. Masks match against the full relative
// path and against the base name.
func (s *Source) matchesMasks(rel string) bool {
	if matchesAny(s.exclude, rel) {
		return false
	}
	if len(s.include) == 0 {
		return true
	}
	return matchesAny(s.include, rel)
}

func matchesAny(masks []string, rel string) bool {
	base := filepath.Base(rel)
	for _, mask := range masks {
		if ok, _ := filepath.Match(mask, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(mask, base); ok {
			return true
		}
	}
	return false
}

func (s *Source) reportErr(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
		// Error channel full, drop. The scan itself keeps going.
	}
}

// isHidden reports whether any path element starts with a dot.
// "." and ".." are not considered hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// detectMIMEType returns the MIME type for a filename, without charset
// parameters. Files with no extension are assumed to be plain text.
func detectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "text/plain"
	}

	if mimeType, ok := fallbackMIMETypes[ext]; ok {
		return mimeType
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// isTextType reports whether a MIME type is indexable text.
func isTextType(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/toml", "application/x-yaml":
		return true
	}
	return false
}
