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

package imaging

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ReadPNM reads a binary PGM (P5) or PPM (P6) image. A maximum sample
// value above 255 selects 16 bit (big endian) samples.
func ReadPNM(r io.Reader) (*RawImage, error) {
	br := bufio.NewReader(r)
	var magic [2]byte

	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, errors.Wrap(err, "Cannot read PNM header")
	}

	channels := 0

	if magic[0] == 'P' && magic[1] == '5' {
		channels = 1
	} else if magic[0] == 'P' && magic[1] == '6' {
		channels = 3
	} else {
		return nil, errors.Errorf("Invalid PNM magic: %q", magic[:])
	}

	var fields [3]int

	for i := range fields {
		v, err := readPNMInt(br)

		if err != nil {
			return nil, err
		}

		fields[i] = v
	}

	width, height, maxVal := fields[0], fields[1], fields[2]

	if maxVal <= 0 || maxVal > 65535 {
		return nil, errors.Errorf("Invalid PNM maximum value: %d", maxVal)
	}

	depth := 8

	if maxVal > 255 {
		depth = 16
	}

	img, err := NewRawImage(width, height, channels, depth)

	if err != nil {
		return nil, err
	}

	bps := depth / 8
	row := make([]byte, width*channels*bps)
	idx := 0

	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, errors.Wrapf(err, "Cannot read PNM row %d", y)
		}

		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				pos := (x*channels + c) * bps
				v := uint16(row[pos])

				if bps == 2 {
					v = v<<8 | uint16(row[pos+1])
				}

				if int(v) > maxVal {
					return nil, errors.Errorf("Invalid PNM sample %d (maximum value %d)", v, maxVal)
				}

				img.Channels[c][idx] = v
			}

			idx++
		}
	}

	return img, nil
}

// Skip white spaces and comments then parse a decimal value. Exactly one
// white space follows the last header field.
func readPNMInt(br *bufio.Reader) (int, error) {
	var b byte
	var err error

	for {
		if b, err = br.ReadByte(); err != nil {
			return 0, errors.Wrap(err, "Cannot read PNM header")
		}

		if b == '#' {
			if _, err = br.ReadString('\n'); err != nil {
				return 0, errors.Wrap(err, "Cannot read PNM header")
			}

			continue
		}

		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			break
		}
	}

	val := 0

	for {
		if b < '0' || b > '9' {
			return 0, errors.Errorf("Invalid character in PNM header: %q", b)
		}

		val = 10*val + int(b-'0')

		if val > 1<<24 {
			return 0, errors.Errorf("Invalid PNM header value: %d", val)
		}

		if b, err = br.ReadByte(); err != nil {
			return 0, errors.Wrap(err, "Cannot read PNM header")
		}

		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			return val, nil
		}
	}
}

// WritePNM writes a grey image as PGM (P5) and a colour image as PPM (P6).
// The alpha channel of RGBA images is dropped.
func WritePNM(w io.Writer, img *RawImage) error {
	channels := len(img.Channels)
	magic := "P6"

	if channels == 1 {
		magic = "P5"
	} else if channels < 3 {
		return errors.Errorf("Cannot write an image with %d channels as PNM", channels)
	} else {
		channels = 3
	}

	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n%d\n", magic, img.Width, img.Height, img.MaxSample()); err != nil {
		return errors.WithStack(err)
	}

	bps := img.Depth / 8
	row := make([]byte, img.Width*channels*bps)
	idx := 0

	for y := 0; y < img.Height; y++ {
		pos := 0

		for x := 0; x < img.Width; x++ {
			for c := 0; c < channels; c++ {
				v := img.Channels[c][idx]

				if bps == 2 {
					row[pos] = byte(v >> 8)
					pos++
				}

				row[pos] = byte(v)
				pos++
			}

			idx++
		}

		if _, err := bw.Write(row); err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(bw.Flush())
}
