package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/opencontainers/go-digest"

	"mljet.io/mljet/pkg/client/progress"
	"mljet.io/mljet/pkg/storage"
	"mljet.io/mljet/pkg/types"
)

const UploadConcurrency = 5

// UploadedChannel records where one channel directory landed in storage.
type UploadedChannel struct {
	Channel types.DataChannel
	Files   int
	Bytes   int64
}

// UploadChannels walks basedir and uploads every subdirectory as a data
// channel under prefix, returning channels ready to reference from a
// training job spec.
func UploadChannels(ctx context.Context, provider storage.Provider, basedir, prefix, contentType string) ([]UploadedChannel, error) {
	entries, err := os.ReadDir(basedir)
	if err != nil {
		return nil, err
	}

	uploaded := []UploadedChannel{}
	p := progress.NewMultiBar(os.Stdout, 40, UploadConcurrency)
	go p.Run(ctx)

	results := make([]*UploadedChannel, len(entries))
	for i, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		i, name := i, entry.Name()
		channeldir := filepath.Join(basedir, name)
		channelkey := path.Join(prefix, name)

		p.Go(name, "pending", func(b *progress.Bar) error {
			result, err := uploadDir(ctx, provider, channeldir, channelkey, contentType, b)
			if err != nil {
				return err
			}
			result.Channel = types.DataChannel{Name: name, URI: channelkey, ContentType: contentType}
			results[i] = result
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	for _, result := range results {
		if result != nil {
			uploaded = append(uploaded, *result)
		}
	}
	if len(uploaded) == 0 {
		return nil, fmt.Errorf("no channel directories under %s", basedir)
	}
	sort.Slice(uploaded, func(i, j int) bool { return uploaded[i].Channel.Name < uploaded[j].Channel.Name })
	return uploaded, nil
}

func uploadDir(ctx context.Context, provider storage.Provider, dir, keyprefix, contentType string, bar *progress.Bar) (*UploadedChannel, error) {
	type file struct {
		local string
		key   string
		size  int64
	}
	files := []file{}
	var total int64
	err := filepath.WalkDir(dir, func(local string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, local)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, file{local: local, key: path.Join(keyprefix, filepath.ToSlash(rel)), size: fi.Size()})
		total += fi.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &UploadedChannel{Files: len(files), Bytes: total}
	bar.SetProgress(0, total)
	for _, f := range files {
		if err := uploadFile(ctx, provider, f.local, f.key, f.size, contentType, bar); err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.key, err)
		}
	}
	bar.SetStatus(path.Base(keyprefix), "done")
	return result, nil
}

func uploadFile(ctx context.Context, provider storage.Provider, local, key string, size int64, contentType string, bar *progress.Bar) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	dgst, err := digest.FromReader(f)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return err
	}
	body := bar.WrapReader(f, dgst.Hex()[:8], bar.Total, "uploading", "uploaded", "failed")
	defer body.Close()
	return provider.Put(ctx, key, storage.ObjectContent{
		ContentType:   contentType,
		ContentLength: size,
		Content:       body,
	})
}
