package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/camden-git/portfoliobackend/logging"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("media object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Uploaded    time.Time `json:"uploaded"`
}

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key, contentType string, data io.Reader) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]ObjectInfo, error)
}

const (
	objectsDir = "objects"
	metaDir    = "meta"
)

type sidecar struct {
	ContentType string    `json:"content_type"`
	Uploaded    time.Time `json:"uploaded"`
}

// LocalStorage implements Store on the local filesystem. Object bodies live
// under objects/ and their content type under meta/{key}.json.
type LocalStorage struct {
	basePath string
	log      *logging.Logger
}

func NewLocalStorage(basePath string, log *logging.Logger) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}
	for _, dir := range []string{objectsDir, metaDir} {
		if err := os.MkdirAll(filepath.Join(absBasePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory '%s': %w", dir, err)
		}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &LocalStorage{basePath: absBasePath, log: log}, nil
}

// ValidateKey rejects keys that are empty or would escape the storage directory.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") || strings.ContainsRune(key, 0) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// fullPath resolves a key inside dir and checks it stays below the base path.
func (ls *LocalStorage) fullPath(dir, name string) (string, error) {
	root := filepath.Join(ls.basePath, dir)
	full := filepath.Join(root, filepath.Clean(name))
	if !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", name)
	}
	return full, nil
}

func (ls *LocalStorage) paths(key string) (string, string, error) {
	if err := ValidateKey(key); err != nil {
		return "", "", err
	}
	objPath, err := ls.fullPath(objectsDir, key)
	if err != nil {
		return "", "", err
	}
	metaPath, err := ls.fullPath(metaDir, key+".json")
	if err != nil {
		return "", "", err
	}
	return objPath, metaPath, nil
}

func (ls *LocalStorage) Put(ctx context.Context, key, contentType string, data io.Reader) (ObjectInfo, error) {
	objPath, metaPath, err := ls.paths(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(objPath), ".upload-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to create temp file for '%s': %w", key, err)
	}
	size, err := io.Copy(tmp, data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return ObjectInfo{}, fmt.Errorf("failed to write data for '%s': %w", key, err)
	}
	if err := os.Rename(tmp.Name(), objPath); err != nil {
		os.Remove(tmp.Name())
		return ObjectInfo{}, fmt.Errorf("failed to move object into place '%s': %w", key, err)
	}

	meta := sidecar{ContentType: contentType, Uploaded: time.Now().UTC()}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to encode metadata for '%s': %w", key, err)
	}
	if err := os.WriteFile(metaPath, encoded, 0644); err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to write metadata for '%s': %w", key, err)
	}

	ls.log.Debug(ls.log.WithField(ctx, "key", key), "media.store: saved object")
	return ObjectInfo{Key: key, Size: size, ContentType: contentType, Uploaded: meta.Uploaded}, nil
}

func (ls *LocalStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	objPath, metaPath, err := ls.paths(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	fi, err := os.Stat(objPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}
	return ls.describe(key, fi, metaPath), nil
}

func (ls *LocalStorage) describe(key string, fi os.FileInfo, metaPath string) ObjectInfo {
	info := ObjectInfo{Key: key, Size: fi.Size(), Uploaded: fi.ModTime().UTC()}
	if raw, err := os.ReadFile(metaPath); err == nil {
		var meta sidecar
		if json.Unmarshal(raw, &meta) == nil {
			info.ContentType = meta.ContentType
			if !meta.Uploaded.IsZero() {
				info.Uploaded = meta.Uploaded
			}
		}
	}
	if info.ContentType == "" {
		info.ContentType = ContentTypeFor(key)
	}
	return info
}

func (ls *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := ls.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	objPath, _, _ := ls.paths(key)
	file, err := os.Open(objPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to open object '%s': %w", key, err)
	}
	return file, info, nil
}

// Delete removes an object and its metadata. Missing objects return ErrNotFound.
func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	objPath, metaPath, err := ls.paths(key)
	if err != nil {
		return err
	}
	if err := os.Remove(objPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete object '%s': %w", key, err)
	}
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata for '%s': %w", key, err)
	}
	ls.log.Debug(ls.log.WithField(ctx, "key", key), "media.store: deleted object")
	return nil
}

func (ls *LocalStorage) List(ctx context.Context) ([]ObjectInfo, error) {
	root := filepath.Join(ls.basePath, objectsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		metaPath := filepath.Join(ls.basePath, metaDir, entry.Name()+".json")
		objects = append(objects, ls.describe(entry.Name(), fi, metaPath))
	}
	return objects, nil
}
