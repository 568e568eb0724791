package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/utils"
)

const keyHashLen = 12

// FileBackend keeps one JSON file per scope, replaced atomically on save.
type FileBackend struct {
	dir    string
	hasher *utils.Hasher
}

// NewFileBackend creates the directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("record directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	return &FileBackend{dir: dir, hasher: utils.DefaultHasher()}, nil
}

// Load reads the record for key
func (b *FileBackend) Load(ctx context.Context, key string) (*Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(b.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rec Record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode record: %w", err)
	}
	return &rec, true, nil
}

// Save writes to a temp file, syncs it, then renames it over the old record.
func (b *FileBackend) Save(ctx context.Context, key string, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	path := b.pathFor(key)
	tmp, err := os.CreateTemp(b.dir, "record-*.json")
	if err != nil {
		return err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Delete removes the record for key; missing records are not an error
func (b *FileBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(b.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Close is a no-op
func (b *FileBackend) Close() error { return nil }

// pathFor keeps a readable prefix of the key and disambiguates with a hash,
// since distinct project paths can sanitize to the same name.
func (b *FileBackend) pathFor(key string) string {
	name := fmt.Sprintf("%s-%s.json", sanitizeKey(key), b.hasher.ShortHash(key, keyHashLen))
	return filepath.Join(b.dir, name)
}

func sanitizeKey(key string) string {
	base := filepath.Base(strings.TrimRight(filepath.ToSlash(key), "/"))
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
		if sb.Len() >= 48 {
			break
		}
	}
	out := strings.Trim(sb.String(), "._")
	if out == "" {
		return "scope"
	}
	return out
}
