package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func encoded(t *testing.T, encode func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	return buf.Bytes()
}

// icoFile builds an icon file holding the given entry payloads.
// sizes gives the directory width and height byte of each entry.
func icoFile(sizes [][2]byte, payloads ...[]byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, uint16(len(payloads))})
	offset := icoHeaderLen + icoEntryLen*len(payloads)
	for i, p := range payloads {
		buf.Write([]byte{sizes[i][0], sizes[i][1], 0, 0})
		binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
		binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(p)), uint32(offset)})
		offset += len(p)
	}
	for _, p := range payloads {
		buf.Write(p)
	}
	return buf.Bytes()
}

// dib32 builds a 32-bit icon bitmap of one colour with an empty mask.
func dib32(w, h int, bgra [4]byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, struct {
		Size        uint32
		Width       int32
		Height      int32
		Planes      uint16
		BitCount    uint16
		Compression uint32
		ImageSize   uint32
		XPPM, YPPM  int32
		Used, Impt  uint32
	}{Size: 40, Width: int32(w), Height: int32(2 * h), Planes: 1, BitCount: 32})
	for i := 0; i < w*h; i++ {
		buf.Write(bgra[:])
	}
	buf.Write(make([]byte, ((w+31)/32)*4*h))
	return buf.Bytes()
}

func TestDecodeFrame(t *testing.T) {
	img := solid(30, 20, color.RGBA{R: 200, A: 255})

	tests := []struct {
		name string
		data []byte
	}{
		{"a.png", encoded(t, func(b *bytes.Buffer) error { return png.Encode(b, img) })},
		{"a.jpg", encoded(t, func(b *bytes.Buffer) error { return jpeg.Encode(b, img, nil) })},
		{"a.bmp", encoded(t, func(b *bytes.Buffer) error { return bmp.Encode(b, img) })},
		{"a.tiff", encoded(t, func(b *bytes.Buffer) error { return tiff.Encode(b, img, nil) })},
		{"a.ico", icoFile([][2]byte{{30, 20}}, dib32(30, 20, [4]byte{0, 0, 200, 255}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeFrame(writeFile(t, tt.name, tt.data))
			require.NoError(t, err)
			assert.Equal(t, domain.Frame{Width: 30, Height: 20}, frame)
		})
	}
}

func TestDecodeFrame_Failures(t *testing.T) {
	_, err := DecodeFrame(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, domain.ErrAnalysisFailed)

	_, err = DecodeFrame(writeFile(t, "fake.jpg", []byte("not an image at all")))
	assert.ErrorIs(t, err, domain.ErrAnalysisFailed)

	_, err = DecodeFrame(writeFile(t, "empty.png", nil))
	assert.ErrorIs(t, err, domain.ErrAnalysisFailed)
}

func TestLoad_ICO(t *testing.T) {
	small := encoded(t, func(b *bytes.Buffer) error { return png.Encode(b, solid(16, 16, color.White)) })
	large := dib32(48, 32, [4]byte{0, 0, 255, 255})

	path := writeFile(t, "favicon.ico", icoFile([][2]byte{{16, 16}, {48, 32}}, small, large))
	img, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.Frame{Width: 48, Height: 32}, FrameOf(img))
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestLoad_ICOWithPNG(t *testing.T) {
	payload := encoded(t, func(b *bytes.Buffer) error { return png.Encode(b, solid(256, 128, color.Black)) })

	// Width 0 in the directory means 256
	frame, err := DecodeFrame(writeFile(t, "big.ico", icoFile([][2]byte{{0, 128}}, payload)))
	require.NoError(t, err)
	assert.Equal(t, domain.Frame{Width: 256, Height: 128}, frame)
}

func TestICO_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{0, 0, 1, 0}},
		{"no entries", []byte{0, 0, 1, 0, 0, 0}},
		{"truncated directory", []byte{0, 0, 1, 0, 2, 0, 16, 16}},
		{"payload out of range", icoFile([][2]byte{{16, 16}}, []byte{1, 2, 3})[:icoHeaderLen+icoEntryLen+1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeICOConfig(bytes.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestThumbnail(t *testing.T) {
	img := solid(400, 200, color.White)

	thumb := Thumbnail(img, 100)
	assert.Equal(t, domain.Frame{Width: 100, Height: 50}, FrameOf(thumb))

	assert.Same(t, img, Thumbnail(img, 1000))
	assert.Same(t, img, Thumbnail(img, 0))

	tall := Thumbnail(solid(100, 300, color.White), 150)
	assert.Equal(t, domain.Frame{Width: 50, Height: 150}, FrameOf(tall))
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(solid(8, 8, color.White))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 8, cfg.Width)
}
