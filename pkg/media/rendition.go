package media

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/sync/errgroup"
)

type FitMode string

const (
	// FitCrop scales and center crops to exactly Width x Height.
	FitCrop FitMode = "crop"
	// FitContain scales down to fit inside Width x Height keeping the aspect ratio.
	FitContain FitMode = "contain"
)

// Rendition is a named derived image.
type Rendition struct {
	Name   string
	Width  uint
	Height uint
	Fit    FitMode
}

var (
	AvatarRenditions = []Rendition{
		{Name: "80x80", Width: 80, Height: 80, Fit: FitCrop},
		{Name: "320x320", Width: 320, Height: 320, Fit: FitCrop},
	}

	MemeRenditions = []Rendition{
		{Name: "icon-32", Width: 32, Height: 32, Fit: FitCrop},
		{Name: "icon-80", Width: 80, Height: 80, Fit: FitCrop},
		{Name: "icon-160", Width: 160, Height: 160, Fit: FitCrop},
		{Name: "preview", Width: 600, Height: 600, Fit: FitContain},
		{Name: "blockchain", Width: 512, Height: 512, Fit: FitCrop},
	}
)

func (r Rendition) apply(img image.Image) image.Image {
	if r.Fit == FitContain {
		return resize.Thumbnail(r.Width, r.Height, img, resize.Lanczos3)
	}
	return imaging.Fill(img, int(r.Width), int(r.Height), imaging.Center, imaging.Lanczos)
}

// Render produces every rendition of img as png bytes, keyed by rendition
// name. Renditions are generated concurrently.
func Render(ctx context.Context, img image.Image, renditions []Rendition) (map[string][]byte, error) {
	out := make([][]byte, len(renditions))

	g, ctx := errgroup.WithContext(ctx)
	for i, r := range renditions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf := new(bytes.Buffer)
			if err := imaging.Encode(buf, r.apply(img), imaging.PNG); err != nil {
				return err
			}
			out[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(renditions))
	for i, r := range renditions {
		result[r.Name] = out[i]
	}
	return result, nil
}
