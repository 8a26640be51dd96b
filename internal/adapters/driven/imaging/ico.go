package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

// Icons are small; anything larger is not worth reading.
const maxICOSize = 16 << 20

const (
	icoHeaderLen  = 6
	icoEntryLen   = 16
	bmpFileHeader = 14
)

var (
	errICOFormat = errors.New("ico: invalid format")
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
)

func init() {
	image.RegisterFormat("ico", "\x00\x00\x01\x00", decodeICO, decodeICOConfig)
}

// decodeICO decodes the largest image in an ICO file.
func decodeICO(r io.Reader) (image.Image, error) {
	payload, err := largestICOImage(r)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(payload, pngSignature) {
		return png.Decode(bytes.NewReader(payload))
	}
	data, err := dibToBMP(payload)
	if err != nil {
		return nil, err
	}
	return bmp.Decode(bytes.NewReader(data))
}

func decodeICOConfig(r io.Reader) (image.Config, error) {
	payload, err := largestICOImage(r)
	if err != nil {
		return image.Config{}, err
	}
	if bytes.HasPrefix(payload, pngSignature) {
		return png.DecodeConfig(bytes.NewReader(payload))
	}
	data, err := dibToBMP(payload)
	if err != nil {
		return image.Config{}, err
	}
	return bmp.DecodeConfig(bytes.NewReader(data))
}

// largestICOImage returns the payload of the directory entry with the most
// pixels, preferring the higher bit depth on a tie.
func largestICOImage(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxICOSize))
	if err != nil {
		return nil, err
	}
	if len(data) < icoHeaderLen || binary.LittleEndian.Uint16(data[0:2]) != 0 || binary.LittleEndian.Uint16(data[2:4]) != 1 {
		return nil, errICOFormat
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 || len(data) < icoHeaderLen+count*icoEntryLen {
		return nil, errICOFormat
	}

	var best []byte
	bestPixels, bestBPP := -1, -1
	for i := 0; i < count; i++ {
		e := data[icoHeaderLen+i*icoEntryLen:]
		w, h := int(e[0]), int(e[1])
		if w == 0 {
			w = 256
		}
		if h == 0 {
			h = 256
		}
		bpp := int(binary.LittleEndian.Uint16(e[6:8]))
		size := int(binary.LittleEndian.Uint32(e[8:12]))
		offset := int(binary.LittleEndian.Uint32(e[12:16]))
		if size <= 0 || offset < 0 || offset > len(data) || size > len(data)-offset {
			continue
		}
		if w*h > bestPixels || (w*h == bestPixels && bpp > bestBPP) {
			best = data[offset : offset+size]
			bestPixels, bestBPP = w*h, bpp
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no readable image", errICOFormat)
	}
	return best, nil
}

// dibToBMP wraps an icon's device-independent bitmap in a BMP file header.
// Icon bitmaps store the colour rows and the transparency mask together,
// so the header height is twice the image height.
func dibToBMP(dib []byte) ([]byte, error) {
	if len(dib) < 40 {
		return nil, fmt.Errorf("%w: short bitmap header", errICOFormat)
	}
	headerLen := binary.LittleEndian.Uint32(dib[0:4])
	if headerLen < 40 || int(headerLen) > len(dib) {
		return nil, fmt.Errorf("%w: bitmap header length %d", errICOFormat, headerLen)
	}

	bpp := binary.LittleEndian.Uint16(dib[14:16])
	var palette uint32
	if bpp <= 8 {
		palette = binary.LittleEndian.Uint32(dib[32:36])
		if palette == 0 {
			palette = 1 << bpp
		}
	}

	out := make([]byte, bmpFileHeader+len(dib))
	copy(out[bmpFileHeader:], dib)
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:6], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[10:14], bmpFileHeader+headerLen+palette*4)

	height := int32(binary.LittleEndian.Uint32(dib[8:12]))
	binary.LittleEndian.PutUint32(out[bmpFileHeader+8:bmpFileHeader+12], uint32(height/2))
	return out, nil
}
