package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/samber/lo"
)

const (
	HashLength = 32
)

type File struct {
	Name    string `json:"name"`
	Mime    string `json:"mime"`
	Content []byte `json:"content"`
}

func (file *File) IsImage() bool {
	return strings.HasPrefix(file.Mime, "image/")
}

type UploadedFileInfo struct {
	Name        string            `json:"name"`
	Mime        string            `json:"mime"`
	Ext         string            `json:"ext"`
	Width       int64             `json:"width"`
	Height      int64             `json:"height"`
	Size        int64             `json:"size"`
	StoragePath string            `json:"storage_path"`
	Renditions  map[string]string `json:"renditions"`
	Provider    Provider          `json:"provider"`
}

// Paths lists the original and every rendition path.
func (info *UploadedFileInfo) Paths() []string {
	paths := make([]string, 0, len(info.Renditions)+1)
	paths = append(paths, info.StoragePath)
	for _, p := range info.Renditions {
		paths = append(paths, p)
	}
	return paths
}

func getExt(fileName string) string {
	return path.Ext(fileName)
}

func generateHash() string {
	return lo.RandomString(HashLength, lo.AlphanumericCharset)
}

func generateFileName(filename, hash string) string {
	return hash + "_" + strings.ReplaceAll(filename, " ", "-")
}

// generateRenditionName keeps renditions next to the original, always as png.
func generateRenditionName(filename, hash, rendition string) string {
	base := strings.TrimSuffix(strings.ReplaceAll(filename, " ", "-"), path.Ext(filename))
	return "conversions/" + hash + "_" + base + "-" + rendition + ".png"
}

func decodeImage(content []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	return img, nil
}
