/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package imaging converts images between the common file formats and the
// planar sample layout consumed by the codec.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/llrice/llrice-go/internal"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const (
	MAX_CHANNELS = 4
)

// RawImage holds the samples of an image as one plane per channel
// (grey, RGB or RGBA), each sample stored on 16 bits whatever the depth.
type RawImage struct {
	Width    int
	Height   int
	Depth    int // bits per sample: 8 or 16
	Channels [][]uint16
}

// NewRawImage creates an image with all samples set to 0
func NewRawImage(width, height, channels, depth int) (*RawImage, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("Invalid image dimensions: %dx%d", width, height)
	}

	if channels != 1 && channels != 3 && channels != MAX_CHANNELS {
		return nil, errors.Errorf("Invalid number of channels: %d (must be 1, 3 or 4)", channels)
	}

	if depth != 8 && depth != 16 {
		return nil, errors.Errorf("Invalid sample depth: %d (must be 8 or 16)", depth)
	}

	this := &RawImage{Width: width, Height: height, Depth: depth}
	this.Channels = make([][]uint16, channels)

	for i := range this.Channels {
		this.Channels[i] = make([]uint16, width*height)
	}

	return this, nil
}

// MaxSample returns the largest sample value for the image depth
func (this *RawImage) MaxSample() int {
	return 1<<uint(this.Depth) - 1
}

// Size returns the number of bytes of the uncompressed samples
func (this *RawImage) Size() int64 {
	return int64(this.Width*this.Height*len(this.Channels)) * int64(this.Depth/8)
}

func is16Bits(img image.Image) bool {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return true
	default:
		return false
	}
}

// Non premultiplied images are read directly: a premultiplied round trip
// loses the colour of transparent pixels.
func sampleAt(img image.Image, x, y int) color.NRGBA64 {
	switch src := img.(type) {
	case *image.NRGBA:
		c := src.NRGBAAt(x, y)
		return color.NRGBA64{R: uint16(c.R) * 0x101, G: uint16(c.G) * 0x101, B: uint16(c.B) * 0x101, A: uint16(c.A) * 0x101}

	case *image.NRGBA64:
		return src.NRGBA64At(x, y)

	default:
		return color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
	}
}

// FromImage extracts the samples of a decoded image. Grey images yield one
// channel, others three or four (if not opaque).
func FromImage(img image.Image) (*RawImage, error) {
	rect := img.Bounds()
	depth := 8

	if is16Bits(img) {
		depth = 16
	}

	channels := 3

	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		channels = 1
	default:
		if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() == false {
			channels = 4
		}
	}

	this, err := NewRawImage(rect.Dx(), rect.Dy(), channels, depth)

	if err != nil {
		return nil, err
	}

	shift := uint(16 - depth)
	idx := 0

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := sampleAt(img, x, y)

			if channels == 1 {
				this.Channels[0][idx] = c.R >> shift
			} else {
				this.Channels[0][idx] = c.R >> shift
				this.Channels[1][idx] = c.G >> shift
				this.Channels[2][idx] = c.B >> shift

				if channels == 4 {
					this.Channels[3][idx] = c.A >> shift
				}
			}

			idx++
		}
	}

	return this, nil
}

// ToImage returns an image.Image backed by a copy of the samples
func (this *RawImage) ToImage() (image.Image, error) {
	rect := image.Rect(0, 0, this.Width, this.Height)
	n := this.Width * this.Height

	switch {
	case len(this.Channels) == 1 && this.Depth == 8:
		img := image.NewGray(rect)

		for i := 0; i < n; i++ {
			img.Pix[i] = uint8(this.Channels[0][i])
		}

		return img, nil

	case len(this.Channels) == 1:
		img := image.NewGray16(rect)

		for i := 0; i < n; i++ {
			img.Pix[2*i] = uint8(this.Channels[0][i] >> 8)
			img.Pix[2*i+1] = uint8(this.Channels[0][i])
		}

		return img, nil

	case (len(this.Channels) == 3 || len(this.Channels) == 4) && this.Depth == 8:
		img := image.NewNRGBA(rect)

		for i := 0; i < n; i++ {
			img.Pix[4*i] = uint8(this.Channels[0][i])
			img.Pix[4*i+1] = uint8(this.Channels[1][i])
			img.Pix[4*i+2] = uint8(this.Channels[2][i])
			img.Pix[4*i+3] = 0xFF

			if len(this.Channels) == 4 {
				img.Pix[4*i+3] = uint8(this.Channels[3][i])
			}
		}

		return img, nil

	case len(this.Channels) == 3 || len(this.Channels) == 4:
		img := image.NewNRGBA64(rect)

		for i := 0; i < n; i++ {
			a := uint16(0xFFFF)

			if len(this.Channels) == 4 {
				a = this.Channels[3][i]
			}

			img.SetNRGBA64(i%this.Width, i/this.Width, color.NRGBA64{
				R: this.Channels[0][i], G: this.Channels[1][i], B: this.Channels[2][i], A: a})
		}

		return img, nil

	default:
		return nil, errors.Errorf("Cannot convert an image with %d channels", len(this.Channels))
	}
}

// Decode reads an image in one of the supported formats (PNG, BMP, TIFF,
// binary PGM and PPM). The format is detected from the first bytes.
func Decode(r io.Reader) (*RawImage, string, error) {
	data, err := io.ReadAll(r)

	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	magic := internal.GetMagicType(data)
	format := internal.GetFormatName(magic)

	if internal.IsImage(magic) == false {
		return nil, format, errors.Errorf("Unsupported image format: %s", format)
	}

	var img image.Image

	switch magic {
	case internal.PGM_MAGIC, internal.PPM_MAGIC:
		raw, err := ReadPNM(bytes.NewReader(data))
		return raw, format, err

	case internal.PNG_MAGIC:
		img, err = png.Decode(bytes.NewReader(data))

	case internal.BMP_MAGIC:
		img, err = bmp.Decode(bytes.NewReader(data))

	default:
		img, err = tiff.Decode(bytes.NewReader(data))
	}

	if err != nil {
		return nil, format, errors.Wrapf(err, "Cannot decode %s image", format)
	}

	raw, err := FromImage(img)
	return raw, format, err
}

// Encode writes the image in the provided format (PNG, BMP, TIFF, PGM,
// PPM or PNM). BMP only supports 8 bit samples.
func Encode(w io.Writer, img *RawImage, format string) error {
	format = strings.ToUpper(format)

	if format == "PGM" || format == "PPM" || format == "PNM" {
		return WritePNM(w, img)
	}

	if format == "BMP" && img.Depth != 8 {
		return errors.Errorf("Cannot encode %d bit samples as BMP", img.Depth)
	}

	dst, err := img.ToImage()

	if err != nil {
		return err
	}

	switch format {
	case "PNG":
		err = png.Encode(w, dst)

	case "BMP":
		err = bmp.Encode(w, dst)

	case "TIFF", "TIF":
		err = tiff.Encode(w, dst, &tiff.Options{Compression: tiff.Deflate})

	default:
		return errors.Errorf("Unsupported image format: '%s'", format)
	}

	return errors.WithStack(err)
}

// FormatFromName returns the image format matching the extension of the
// provided file name (PNM for unknown extensions).
func FormatFromName(name string) string {
	ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))

	switch ext {
	case "PNG", "BMP", "TIFF", "PGM", "PPM":
		return ext

	case "TIF":
		return "TIFF"

	default:
		return "PNM"
	}
}

// Load reads an image file
func Load(name string) (*RawImage, string, error) {
	f, err := os.Open(name)

	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	defer f.Close()
	return Decode(f)
}

// Save writes an image file in the format given by the file extension
func Save(name string, img *RawImage) error {
	out, err := os.Create(name)

	if err != nil {
		return errors.WithStack(err)
	}

	if err = Encode(out, img, FormatFromName(name)); err != nil {
		out.Close()
		return err
	}

	return errors.WithStack(out.Close())
}
