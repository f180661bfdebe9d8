package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	StaticsFsPath = "/uploads/"
)

type localStorage struct {
	uploadDirPath string
	publicURL     string
}

func newLocalStorage(opts *Config) (*localStorage, error) {
	if opts.LocalDir == "" {
		return nil, errors.New("media: local dir is required")
	}
	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = StaticsFsPath
	}
	return &localStorage{
		uploadDirPath: opts.LocalDir,
		publicURL:     publicURL,
	}, nil
}

func (s *localStorage) put(_ context.Context, key, _ string, content []byte) error {
	dst := filepath.Join(s.uploadDirPath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, bytes.NewReader(content))
	return err
}

func (s *localStorage) remove(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := os.Remove(filepath.Join(s.uploadDirPath, filepath.FromSlash(key)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *localStorage) url(key string) string {
	return joinURL(s.publicURL, key)
}
