package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JSONFile keeps every profile in a single indented JSON object keyed by
// user id. Writes go to a temp file that is renamed over the original.
type JSONFile struct {
	path string
}

// OpenJSONFile prepares a JSON medium at path, creating the parent
// directory. The file itself is created on first write.
func OpenJSONFile(path string) (*JSONFile, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return nil, fmt.Errorf("profile file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}
	return &JSONFile{path: path}, nil
}

func (f *JSONFile) Path() string { return f.path }

func (f *JSONFile) ReadAll(ctx context.Context) (map[string]Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Profile{}, nil
	}
	return decodeDocument(f.path, data)
}

// decodeDocument accepts any JSON scalar as an attribute value so that a
// hand-edited file with numbers or booleans still loads.
func decodeDocument(name string, data []byte) (map[string]Profile, error) {
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	out := make(map[string]Profile, len(raw))
	for id, attrs := range raw {
		p := make(Profile, len(attrs))
		for k, v := range attrs {
			switch v := v.(type) {
			case nil:
			case string:
				p[k] = v
			default:
				p[k] = fmt.Sprint(v)
			}
		}
		out[id] = p
	}
	return out, nil
}

func (f *JSONFile) WriteAll(ctx context.Context, profiles map[string]Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profiles); err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp for %s: %w", f.path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing temp for %s: %w", f.path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp for %s: %w", f.path, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

func (f *JSONFile) Close() error { return nil }
