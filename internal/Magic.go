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

package internal

import (
	"encoding/binary"
)

const (
	NO_MAGIC   = 0
	PNG_MAGIC  = 0x89504E47
	TIFF_LE    = 0x49492A00 // II*\0
	TIFF_BE    = 0x4D4D002A // MM\0*
	LLR_MAGIC  = 0x4C4C5200 // LLR + revision
	RIFF_MAGIC = 0x52494646
	BMP_MAGIC  = 0x424D
	PGM_MAGIC  = 0x5035 // bin only
	PPM_MAGIC  = 0x5036 // bin only
)

// GetMagicType checks the first bytes of the slice against the image and
// stream signatures known to the codec. The revision byte of an LLR stream
// is ignored.
func GetMagicType(src []byte) uint {
	if len(src) < 4 {
		return NO_MAGIC
	}

	key := uint(binary.BigEndian.Uint32(src))

	switch key {
	case PNG_MAGIC, TIFF_LE, TIFF_BE, RIFF_MAGIC:
		return key
	}

	if key&^0xFF == LLR_MAGIC {
		return LLR_MAGIC
	}

	key16 := key >> 16

	if key16 == BMP_MAGIC {
		return key16
	}

	if (key16 == PGM_MAGIC) || (key16 == PPM_MAGIC) {
		subkey := (key >> 8) & 0xFF

		if (subkey == 0x09) || (subkey == 0x0A) || (subkey == 0x0D) || (subkey == 0x20) {
			return key16
		}
	}

	return NO_MAGIC
}

// GetFormatName returns the short name of a format given its magic value
func GetFormatName(magic uint) string {
	switch magic {
	case PNG_MAGIC:
		return "PNG"
	case TIFF_LE, TIFF_BE:
		return "TIFF"
	case BMP_MAGIC:
		return "BMP"
	case PGM_MAGIC:
		return "PGM"
	case PPM_MAGIC:
		return "PPM"
	case LLR_MAGIC:
		return "LLR"
	case RIFF_MAGIC:
		return "RIFF"
	default:
		return "UNKNOWN"
	}
}

// IsImage returns true if the magic value is an image format the codec
// can load.
func IsImage(magic uint) bool {
	switch magic {
	case PNG_MAGIC, TIFF_LE, TIFF_BE, BMP_MAGIC, PGM_MAGIC, PPM_MAGIC:
		return true
	default:
	}

	return false
}
