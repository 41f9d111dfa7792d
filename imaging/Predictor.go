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

// Median edge detector (LOCO-I). 'a' is the left neighbour, 'b' the one
// above and 'c' the one above left.
func medPredict(a, b, c int32) int32 {
	mn, mx := a, b

	if a > b {
		mn, mx = b, a
	}

	if c >= mx {
		return mn
	}

	if c <= mn {
		return mx
	}

	return a + b - c
}

// Prediction of sample (x, y) from the already visited samples. The first
// row uses the left neighbour, the first column the upper one.
func predictAt(plane []int32, width, x, y int) int32 {
	idx := y*width + x

	if y == 0 {
		if x == 0 {
			return 0
		}

		return plane[idx-1]
	}

	if x == 0 {
		return plane[idx-width]
	}

	return medPredict(plane[idx-1], plane[idx-width], plane[idx-width-1])
}

// PredictResiduals writes into dst the difference between each sample of
// the plane and its prediction (raster order).
func PredictResiduals(plane []int32, width, height int, dst []int32) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			dst[idx] = plane[idx] - predictAt(plane, width, x, y)
		}
	}
}

// ReconstructPlane inverts PredictResiduals. 'residuals' and 'dst' must not
// overlap.
func ReconstructPlane(residuals []int32, width, height int, dst []int32) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			dst[idx] = residuals[idx] + predictAt(dst, width, x, y)
		}
	}
}
