package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
	iopath "path"
	"path/filepath"
	"strings"

	mljeterrors "mljet.io/mljet/pkg/errors"
)

const (
	DefaultFileMode = 0o644
	DefaultDirMode  = 0o755
)

type LocalOptions struct {
	Basepath string `json:"basepath,omitempty"`
}

func NewDefaultLocalOptions() *LocalOptions {
	return &LocalOptions{
		Basepath: "data/mljet",
	}
}

var _ Provider = &LocalProvider{}

// LocalProvider keeps objects on the local filesystem with a .meta sidecar
// per object. Used for tests and single-node runs without S3.
type LocalProvider struct {
	basepath string
}

func NewLocalProvider(options *LocalOptions) (*LocalProvider, error) {
	if err := os.MkdirAll(options.Basepath, DefaultDirMode); err != nil {
		return nil, err
	}
	return &LocalProvider{basepath: options.Basepath}, nil
}

type localObjectMeta struct {
	ContentType     string `json:"contentType,omitempty"`
	ContentLength   int64  `json:"contentLength,omitempty"`
	ContentEncoding string `json:"contentEncoding,omitempty"`
}

func (f *LocalProvider) Put(ctx context.Context, key string, content ObjectContent) error {
	if err := f.writemeta(key, content); err != nil {
		return err
	}
	return f.writedata(key, content)
}

func (f *LocalProvider) PutLocation(ctx context.Context, key string) (string, error) {
	return "", mljeterrors.NewUnsupportedError("PutLocation is not supported for local storage")
}

func (f *LocalProvider) Get(ctx context.Context, key string) (ObjectContent, error) {
	meta, err := f.readmeta(key)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectContent{}, mljeterrors.NewStorageUnknownError(key)
		}
		return ObjectContent{}, err
	}
	stream, err := os.Open(iopath.Join(f.basepath, key))
	if err != nil {
		return ObjectContent{}, err
	}
	return ObjectContent{
		ContentType:     meta.ContentType,
		ContentLength:   meta.ContentLength,
		ContentEncoding: meta.ContentEncoding,
		Content:         stream,
	}, nil
}

func (f *LocalProvider) GetLocation(ctx context.Context, key string) (string, error) {
	return "", mljeterrors.NewUnsupportedError("GetLocation is not supported for local storage")
}

func (f *LocalProvider) Remove(ctx context.Context, key string, recursive bool) error {
	if recursive {
		return os.RemoveAll(iopath.Join(f.basepath, key))
	}
	os.Remove(iopath.Join(f.basepath, key+".meta"))
	return os.Remove(iopath.Join(f.basepath, key))
}

func (f *LocalProvider) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(iopath.Join(f.basepath, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (f *LocalProvider) List(ctx context.Context, prefix string, recursive bool) ([]ObjectMeta, error) {
	base := iopath.Join(f.basepath, prefix)
	out := []ObjectMeta{}
	if recursive {
		err := filepath.WalkDir(base, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || strings.HasSuffix(path, ".meta") {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}
			out = append(out, ObjectMeta{
				Key:          filepath.ToSlash(rel),
				Size:         fi.Size(),
				LastModified: fi.ModTime(),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	files, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, fi := range files {
		if fi.IsDir() || strings.HasSuffix(fi.Name(), ".meta") {
			continue
		}
		finfo, err := fi.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectMeta{
			Key:          fi.Name(),
			Size:         finfo.Size(),
			LastModified: finfo.ModTime(),
		})
	}
	return out, nil
}

func (f *LocalProvider) writemeta(key string, content ObjectContent) error {
	meta := localObjectMeta{
		ContentType:     content.ContentType,
		ContentLength:   content.ContentLength,
		ContentEncoding: content.ContentEncoding,
	}
	jsonData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	metafile := iopath.Join(f.basepath, key+".meta")
	if err := os.MkdirAll(iopath.Dir(metafile), DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(metafile, jsonData, DefaultFileMode)
}

func (f *LocalProvider) writedata(key string, content ObjectContent) error {
	datafile := iopath.Join(f.basepath, key)
	fi, err := os.OpenFile(datafile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return err
	}
	defer fi.Close()
	_, err = io.Copy(fi, content.Content)
	return err
}

func (f *LocalProvider) readmeta(key string) (*localObjectMeta, error) {
	raw, err := os.ReadFile(iopath.Join(f.basepath, key+".meta"))
	if err != nil {
		return nil, err
	}
	var meta localObjectMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
