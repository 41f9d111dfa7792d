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
	"sync"

	"github.com/pkg/errors"
)

// ForwardRCT applies the reversible colour transform in place:
// b -= g, r -= g, g += (b+r) >> 2.
func ForwardRCT(r, g, b []int32) {
	for i := range g {
		b[i] -= g[i]
		r[i] -= g[i]
		g[i] += (b[i] + r[i]) >> 2
	}
}

// InverseRCT reverts ForwardRCT in place
func InverseRCT(r, g, b []int32) {
	for i := range g {
		g[i] -= (b[i] + r[i]) >> 2
		r[i] += g[i]
		b[i] += g[i]
	}
}

// ToResiduals turns the samples of the image into one residual plane per
// channel. The colour transform (if requested) is applied to the RGB
// channels before prediction.
func ToResiduals(img *RawImage, rct bool) ([][]int32, error) {
	if img == nil || len(img.Channels) == 0 {
		return nil, errors.New("Invalid empty image")
	}

	n := img.Width * img.Height
	planes := make([][]int32, len(img.Channels))

	for c := range planes {
		if len(img.Channels[c]) != n {
			return nil, errors.Errorf("Invalid size of channel %d: expected %d, got %d", c, n, len(img.Channels[c]))
		}

		planes[c] = make([]int32, n)

		for i, v := range img.Channels[c] {
			planes[c][i] = int32(v)
		}
	}

	if rct && len(planes) >= 3 {
		ForwardRCT(planes[0], planes[1], planes[2])
	}

	residuals := make([][]int32, len(planes))
	var wg sync.WaitGroup

	for c := range planes {
		residuals[c] = make([]int32, n)
		wg.Add(1)

		go func(c int) {
			PredictResiduals(planes[c], img.Width, img.Height, residuals[c])
			wg.Done()
		}(c)
	}

	wg.Wait()
	return residuals, nil
}

// FromResiduals rebuilds the image from the residual planes. Returns an error if
// a reconstructed sample does not fit in 'depth' bits.
func FromResiduals(residuals [][]int32, width, height, depth int, rct bool) (*RawImage, error) {
	img, err := NewRawImage(width, height, len(residuals), depth)

	if err != nil {
		return nil, err
	}

	n := width * height
	planes := make([][]int32, len(residuals))

	for c := range residuals {
		if len(residuals[c]) != n {
			return nil, errors.Errorf("Invalid size of channel %d: expected %d, got %d", c, n, len(residuals[c]))
		}

		planes[c] = make([]int32, n)
		ReconstructPlane(residuals[c], width, height, planes[c])
	}

	if rct && len(planes) >= 3 {
		InverseRCT(planes[0], planes[1], planes[2])
	}

	maxVal := int32(img.MaxSample())

	for c := range planes {
		for i, v := range planes[c] {
			if v < 0 || v > maxVal {
				return nil, errors.Errorf("Invalid sample %d at position %d of channel %d", v, i, c)
			}

			img.Channels[c][i] = uint16(v)
		}
	}

	return img, nil
}
