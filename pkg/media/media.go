package media

import (
	"context"
	"fmt"
	"path"
	"strings"
)

type Provider string

const (
	Local Provider = "local"
	S3    Provider = "s3"
)

type Client interface {
	// Upload stores file under subPath and, for images, every rendition.
	Upload(ctx context.Context, file *File, subPath string, renditions []Rendition) (*UploadedFileInfo, error)
	Remove(ctx context.Context, paths ...string) error
	URL(storagePath string) string
	Provider() Provider
}

type Config struct {
	LocalDir  string
	PublicURL string

	S3AccessKey   string
	S3SecretKey   string
	S3EndpointURL string
	S3BucketName  string
	S3PathPrefix  string
	S3Region      string
}

// storage is the provider specific part of a Client.
type storage interface {
	put(ctx context.Context, key, contentType string, content []byte) error
	remove(ctx context.Context, keys []string) error
	url(key string) string
}

type client struct {
	provider Provider
	storage  storage
}

func New(provider Provider, options *Config) (Client, error) {
	var s storage
	var err error
	switch provider {
	case Local:
		s, err = newLocalStorage(options)

	case S3:
		s, err = newS3Storage(options)

	default:
		err = fmt.Errorf("unsupported media provider: %s", provider)
	}

	if err != nil {
		return nil, err
	}
	return &client{provider: provider, storage: s}, nil
}

func (c *client) Provider() Provider {
	return c.provider
}

func (c *client) Upload(ctx context.Context, file *File, subPath string, renditions []Rendition) (*UploadedFileInfo, error) {
	hash := generateHash()
	info := &UploadedFileInfo{
		Name:        file.Name,
		Mime:        file.Mime,
		Ext:         getExt(file.Name),
		Size:        int64(len(file.Content)),
		Provider:    c.provider,
		StoragePath: path.Join(subPath, generateFileName(file.Name, hash)),
		Renditions:  map[string]string{},
	}

	if err := c.storage.put(ctx, info.StoragePath, file.Mime, file.Content); err != nil {
		return nil, err
	}

	if !file.IsImage() || len(renditions) == 0 {
		return info, nil
	}

	img, err := decodeImage(file.Content)
	if err != nil {
		_ = c.storage.remove(ctx, []string{info.StoragePath})
		return nil, err
	}
	info.Width = int64(img.Bounds().Dx())
	info.Height = int64(img.Bounds().Dy())

	rendered, err := Render(ctx, img, renditions)
	if err != nil {
		_ = c.storage.remove(ctx, []string{info.StoragePath})
		return nil, err
	}

	for name, content := range rendered {
		p := path.Join(subPath, generateRenditionName(file.Name, hash, name))
		if err := c.storage.put(ctx, p, "image/png", content); err != nil {
			_ = c.storage.remove(ctx, info.Paths())
			return nil, err
		}
		info.Renditions[name] = p
	}
	return info, nil
}

func (c *client) Remove(ctx context.Context, paths ...string) error {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			keys = append(keys, p)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.storage.remove(ctx, keys)
}

func (c *client) URL(storagePath string) string {
	if storagePath == "" {
		return ""
	}
	return c.storage.url(storagePath)
}

func joinURL(base, key string) string {
	if base == "" {
		return "/" + strings.TrimPrefix(key, "/")
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
