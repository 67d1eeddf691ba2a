// Package source loads remote-config documents from local files and keeps
// the published snapshot current when the file changes. The file is the
// delivery boundary: whatever transport fetched the document (CDN sync,
// config pull, operator copy) lands it on disk, and this package picks it
// up.
package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/snapshot"
	"github.com/ratewave/featuregate/internal/validation"
)

// LoadFile reads and decodes a config document. JSON is canonical; YAML is
// accepted for hand-authored documents and converted through JSON so both
// forms share the schema's field names.
func LoadFile(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		jsonData, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
		data = jsonData
	}
	return schema.Decode(data)
}

// yamlToJSON re-encodes YAML as JSON so json struct tags apply.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(raw))
}

// normalizeYAML rewrites map[any]any trees (yaml.v3 emits these for some
// documents) into map[string]any so they marshal as JSON objects.
func normalizeYAML(v any) any {
	switch value := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		for k, item := range value {
			value[k] = normalizeYAML(item)
		}
		return value
	case []any:
		for i, item := range value {
			value[i] = normalizeYAML(item)
		}
		return value
	default:
		return value
	}
}

// Publish validates a document and swaps it into the current snapshot.
// Validation errors block publication.
func Publish(doc *schema.Document) (*snapshot.Snapshot, error) {
	result := validation.ValidateDocument(doc)
	if !result.Valid {
		return nil, fmt.Errorf("config document invalid: %v", result.Errors)
	}
	s := snapshot.Build(doc)
	snapshot.Update(s)
	return s, nil
}

// Watch reloads and republishes the config file on every write until the
// stop channel closes. A broken rewrite keeps the previous snapshot live and
// logs the failure; losing flags to a half-written file would be worse than
// serving slightly stale ones.
func Watch(path string, log *slog.Logger, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: editors and atomic-rename writers
	// replace the inode on save.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				reload(path, log)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func reload(path string, log *slog.Logger) {
	doc, err := LoadFile(path)
	if err != nil {
		log.Error("config reload failed, keeping previous snapshot", "path", path, "error", err)
		return
	}
	s, err := Publish(doc)
	if err != nil {
		log.Error("config rejected, keeping previous snapshot", "path", path, "error", err)
		return
	}
	log.Info("config reloaded", "path", path, "features", len(doc.Features), "etag", s.ETag)
}
