// Package picture turns encoded images into fixed size grayscale vectors.
package picture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // registers decoder
	_ "image/jpeg" // registers decoder
	_ "image/png"  // registers decoder
	"os"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/mdobak/go-xerrors"
	_ "golang.org/x/image/bmp"  // registers decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // registers decoder
	_ "golang.org/x/image/webp" // registers decoder
)

type Filter int

const (
	NearestNeighbor Filter = iota
	Bicubic
)

func (f Filter) String() string {
	if f == Bicubic {
		return "bicubic"
	}
	return "nearest"
}

func ParseFilter(name string) Filter {
	if name == "bicubic" {
		return Bicubic
	}
	return NearestNeighbor
}

func (f Filter) scaler() draw.Scaler {
	if f == Bicubic {
		return draw.CatmullRom
	}
	return draw.NearestNeighbor
}

// Decode returns the image and its registered format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", xerrors.New(fmt.Errorf("%w: %v", model.ErrDecode, err))
	}
	return img, format, nil
}

// Grayscale resizes img to width×height and converts it to 8 bit luminance.
func Grayscale(img image.Image, width, height int, filter Filter) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}

	// resample in RGBA first so the filter sees colour before luminance
	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	filter.scaler().Scale(resized, resized.Bounds(), img, b, draw.Src, nil)
	draw.Draw(dst, dst.Bounds(), resized, image.Point{}, draw.Src)
	return dst
}

// Flatten copies the gray pixels row by row into a vector.
func Flatten(gray *image.Gray) model.ImageVector {
	b := gray.Bounds()
	res := make(model.ImageVector, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			res = append(res, float64(gray.GrayAt(x, y).Y))
		}
	}
	return res
}

func Featurize(data []byte, width, height int, filter Filter) (model.ImageVector, error) {
	if width <= 0 || height <= 0 || width > constants.MaxImageSide || height > constants.MaxImageSide {
		return nil, xerrors.New(fmt.Errorf("%w: target size %dx%d", model.ErrInvalidArgument, width, height))
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: image has no pixels", model.ErrDecode))
	}
	return Flatten(Grayscale(img, width, height, filter)), nil
}

func FeaturizeFile(path string, width, height int, filter Filter) (model.ImageVector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("error reading image file: %w", err))
	}
	return Featurize(data, width, height, filter)
}

// Luma is the value Featurize produces for a single colour.
func Luma(c color.Color) float64 {
	return float64(color.GrayModel.Convert(c).(color.Gray).Y)
}
