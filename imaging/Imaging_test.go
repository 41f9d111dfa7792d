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
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func randomImage(t *testing.T, rnd *rand.Rand, width, height, channels, depth int) *RawImage {
	t.Helper()
	img, err := NewRawImage(width, height, channels, depth)

	if err != nil {
		t.Fatal(err)
	}

	maxVal := img.MaxSample()

	for c := range img.Channels {
		for i := range img.Channels[c] {
			// Smooth gradient plus noise
			v := (i%width)*maxVal/width + rnd.Intn(maxVal/16+1)

			if v > maxVal {
				v = maxVal
			}

			img.Channels[c][i] = uint16(v)
		}
	}

	if channels == 4 {
		// Keep alpha non zero and not fully opaque
		for i := range img.Channels[3] {
			img.Channels[3][i] = uint16(1 + rnd.Intn(maxVal-1))
		}
	}

	return img
}

func TestMEDPredictor(t *testing.T) {
	tests := []struct {
		a, b, c  int32
		expected int32
	}{
		{10, 20, 25, 10},
		{10, 20, 5, 20},
		{10, 20, 15, 15},
		{20, 10, 15, 15},
		{7, 7, 7, 7},
		{-3, 4, 0, 1},
	}

	for _, tt := range tests {
		if p := medPredict(tt.a, tt.b, tt.c); p != tt.expected {
			t.Errorf("medPredict(%d, %d, %d): expected %d, got %d", tt.a, tt.b, tt.c, tt.expected, p)
		}
	}

	plane := []int32{
		1, 2, 3,
		4, 5, 6,
	}

	res := make([]int32, len(plane))
	PredictResiduals(plane, 3, 2, res)

	// predictions: 0,1,2 / 1,max(4,2)=4 (c=1 <= min),5
	if diff := cmp.Diff([]int32{1, 1, 1, 3, 1, 1}, res); diff != "" {
		t.Errorf("residuals (-want +got):\n%s", diff)
	}
}

func TestRCT(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	n := 1000
	r, g, b := make([]int32, n), make([]int32, n), make([]int32, n)

	for i := 0; i < n; i++ {
		r[i], g[i], b[i] = int32(rnd.Intn(65536)), int32(rnd.Intn(65536)), int32(rnd.Intn(65536))
	}

	r0 := append([]int32(nil), r...)
	g0 := append([]int32(nil), g...)
	b0 := append([]int32(nil), b...)
	ForwardRCT(r, g, b)

	if diff := cmp.Diff(g0, g); diff == "" {
		t.Error("colour transform did not modify the green channel")
	}

	InverseRCT(r, g, b)

	if diff := cmp.Diff([][]int32{r0, g0, b0}, [][]int32{r, g, b}); diff != "" {
		t.Errorf("colour transform round trip (-want +got):\n%s", diff)
	}
}

func TestResiduals(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))

	for _, channels := range []int{1, 3, 4} {
		for _, depth := range []int{8, 16} {
			for _, rct := range []bool{false, true} {
				name := fmt.Sprintf("channels=%d/depth=%d/rct=%t", channels, depth, rct)

				t.Run(name, func(t *testing.T) {
					img := randomImage(t, rnd, 1+rnd.Intn(50), 1+rnd.Intn(50), channels, depth)
					residuals, err := ToResiduals(img, rct)

					if err != nil {
						t.Fatal(err)
					}

					img2, err := FromResiduals(residuals, img.Width, img.Height, depth, rct)

					if err != nil {
						t.Fatal(err)
					}

					if diff := cmp.Diff(img, img2); diff != "" {
						t.Errorf("image mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}

	// Out of range reconstruction
	if _, err := FromResiduals([][]int32{{256}}, 1, 1, 8, false); err == nil {
		t.Error("expected error for out of range sample")
	}

	if _, err := FromResiduals([][]int32{{1, 2}}, 1, 1, 8, false); err == nil {
		t.Error("expected error for invalid channel size")
	}
}

func TestPNM(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))

	for _, channels := range []int{1, 3} {
		for _, depth := range []int{8, 16} {
			img := randomImage(t, rnd, 17, 11, channels, depth)
			var buf bytes.Buffer

			if err := WritePNM(&buf, img); err != nil {
				t.Fatal(err)
			}

			img2, err := ReadPNM(&buf)

			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(img, img2); diff != "" {
				t.Errorf("PNM %d/%d mismatch (-want +got):\n%s", channels, depth, diff)
			}
		}
	}

	img, err := ReadPNM(bytes.NewReader([]byte("P5\n# comment\n2 1\n255\n\x07\x09")))

	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([][]uint16{{7, 9}}, img.Channels); diff != "" {
		t.Errorf("PGM samples (-want +got):\n%s", diff)
	}

	invalid := []string{
		"P4\n2 1\n255\n\x00\x00",
		"P5\n2 1\n0\n\x00\x00",
		"P5\n2 1\n100\n\x07\xFF",
		"P5\n2 x\n255\n\x00\x00",
		"P5\n2 1\n255\n\x00",
	}

	for _, s := range invalid {
		if _, err := ReadPNM(bytes.NewReader([]byte(s))); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestImageFormats(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))

	tests := []struct {
		format   string
		channels int
		depth    int
	}{
		{"PNG", 1, 8},
		{"PNG", 1, 16},
		{"PNG", 3, 8},
		{"PNG", 3, 16},
		{"PNG", 4, 8},
		{"BMP", 3, 8},
		{"TIFF", 1, 8},
		{"TIFF", 3, 8},
		{"TIFF", 3, 16},
		{"PPM", 3, 16},
		{"PGM", 1, 8},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s/%d/%d", tt.format, tt.channels, tt.depth)

		t.Run(name, func(t *testing.T) {
			img := randomImage(t, rnd, 23, 9, tt.channels, tt.depth)
			var buf bytes.Buffer

			if err := Encode(&buf, img, tt.format); err != nil {
				t.Fatal(err)
			}

			img2, format, err := Decode(&buf)

			if err != nil {
				t.Fatal(err)
			}

			if format != tt.format {
				t.Errorf("expected format %s, got %s", tt.format, format)
			}

			if diff := cmp.Diff(img, img2); diff != "" {
				t.Errorf("image mismatch (-want +got):\n%s", diff)
			}
		})
	}

	img := randomImage(t, rnd, 4, 4, 3, 16)

	if err := Encode(&bytes.Buffer{}, img, "BMP"); err == nil {
		t.Error("expected error for 16 bit BMP")
	}

	if _, _, err := Decode(bytes.NewReader([]byte("GIF89a"))); err == nil {
		t.Error("expected error for unsupported format")
	}

	// Known container, not an image: the format is still reported
	llr := []byte{'L', 'L', 'R', 1, 0, 0, 0, 0}

	if _, format, err := Decode(bytes.NewReader(llr)); err == nil || format != "LLR" {
		t.Errorf("expected error and LLR format, got %q, %v", format, err)
	}

	if FormatFromName("a/b.tif") != "TIFF" || FormatFromName("x.png") != "PNG" || FormatFromName("x") != "PNM" {
		t.Error("invalid format from file name")
	}
}
