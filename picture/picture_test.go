package picture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFeaturizeSameSizeIsRowMajor(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}

	vec, err := Featurize(encodePNG(t, img), 3, 2, NearestNeighbor)
	require.NoError(t, err)
	assert.Equal(t, model.ImageVector{0, 10, 20, 30, 40, 50}, vec)
}

func TestFeaturizeNearestNeighborUpscale(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix = []uint8{10, 20, 30, 40}

	vec, err := Featurize(encodePNG(t, img), 4, 4, NearestNeighbor)
	require.NoError(t, err)
	assert.Equal(t, model.ImageVector{
		10, 10, 20, 20,
		10, 10, 20, 20,
		30, 30, 40, 40,
		30, 30, 40, 40,
	}, vec)
}

func TestFeaturizeConvertsColourToLuminance(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, red)
		}
	}

	for _, filter := range []Filter{NearestNeighbor, Bicubic} {
		vec, err := Featurize(encodePNG(t, img), 2, 3, filter)
		require.NoError(t, err)
		require.Len(t, vec, 6)
		for _, v := range vec {
			assert.InDelta(t, Luma(red), v, 1, filter.String())
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 255.0)
		}
	}
}

func TestFeaturizeErrors(t *testing.T) {
	_, err := Featurize([]byte("not an image"), 10, 10, NearestNeighbor)
	assert.ErrorIs(t, err, model.ErrDecode)

	img := image.NewGray(image.Rect(0, 0, 1, 1))
	_, err = Featurize(encodePNG(t, img), 0, 10, NearestNeighbor)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = Featurize(encodePNG(t, img), constants.MaxImageSide+1, 10, NearestNeighbor)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = FeaturizeFile("missing.png", 10, 10, NearestNeighbor)
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	assert.Equal(t, Bicubic, ParseFilter("bicubic"))
	assert.Equal(t, NearestNeighbor, ParseFilter("nearest"))
	assert.Equal(t, NearestNeighbor, ParseFilter(""))
}
