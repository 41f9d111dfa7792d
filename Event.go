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

package llrice

import (
	"fmt"
	"strings"
	"time"
)

const (
	EVT_COMPRESSION_START     = 0 // Compression starts
	EVT_DECOMPRESSION_START   = 1 // Decompression starts
	EVT_BEFORE_ENTROPY        = 4 // Channel entropy encoding/decoding starts
	EVT_AFTER_ENTROPY         = 5 // Channel entropy encoding/decoding ends
	EVT_COMPRESSION_END       = 6 // Compression ends
	EVT_DECOMPRESSION_END     = 7 // Decompression ends
	EVT_AFTER_HEADER_DECODING = 8 // Stream header decoding ends
	EVT_CHANNEL_INFO          = 9 // Display channel information

	EVT_HASH_NONE   = 0
	EVT_HASH_64BITS = 64
)

var eventNames = map[int]string{
	EVT_COMPRESSION_START:     "COMPRESSION_START",
	EVT_DECOMPRESSION_START:   "DECOMPRESSION_START",
	EVT_BEFORE_ENTROPY:        "BEFORE_ENTROPY",
	EVT_AFTER_ENTROPY:         "AFTER_ENTROPY",
	EVT_COMPRESSION_END:       "COMPRESSION_END",
	EVT_DECOMPRESSION_END:     "DECOMPRESSION_END",
	EVT_AFTER_HEADER_DECODING: "AFTER_HEADER_DECODING",
	EVT_CHANNEL_INFO:          "CHANNEL_INFO",
}

// ChannelStats describes the coding of one residual channel
type ChannelStats struct {
	Codec    string // RLGR, RICE, NONE or RLE (empty if not known yet)
	Symbols  int    // number of residuals in the channel
	Bits     uint64 // coded bits, page padding excluded
	Size     int64  // payload bytes (coded side) or residual bytes (plane side)
	Hash     uint64
	HashType int
}

// BitsPerSymbol returns the average code length or 0 if nothing was coded
func (this ChannelStats) BitsPerSymbol() float64 {
	if this.Symbols == 0 || this.Bits == 0 {
		return 0
	}

	return float64(this.Bits) / float64(this.Symbols)
}

// Event a compression/decompression event. Stream level events have
// an id of -1, channel events carry the channel index and its stats.
type Event struct {
	eventType int
	id        int
	stats     ChannelStats
	eventTime time.Time
	msg       string
}

// NewEventFromString creates a new Event instance that wraps a message
func NewEventFromString(evtType, id int, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, id: id, msg: msg, eventTime: evtTime}
}

// NewEvent creates a new Event instance with size and hash info.
// Returns nil if the hashType is not in { EVT_HASH_NONE, EVT_HASH_64BITS }
func NewEvent(evtType, id int, size int64, hash uint64, hashType int, evtTime time.Time) *Event {
	return NewChannelEvent(evtType, id, ChannelStats{Size: size, Hash: hash, HashType: hashType}, evtTime)
}

// NewChannelEvent creates a new Event instance for channel 'id'.
// Returns nil if the hash type is not in { EVT_HASH_NONE, EVT_HASH_64BITS }
func NewChannelEvent(evtType, id int, stats ChannelStats, evtTime time.Time) *Event {
	if stats.HashType != EVT_HASH_NONE && stats.HashType != EVT_HASH_64BITS {
		return nil
	}

	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, id: id, stats: stats, eventTime: evtTime}
}

// Type returns the type info
func (this *Event) Type() int {
	return this.eventType
}

// ID returns the channel index or -1
func (this *Event) ID() int {
	return this.id
}

// Time returns the time info
func (this *Event) Time() time.Time {
	return this.eventTime
}

// Size returns the size info
func (this *Event) Size() int64 {
	return this.stats.Size
}

// Hash returns the hash info
func (this *Event) Hash() uint64 {
	return this.stats.Hash
}

// HashType returns EVT_HASH_NONE or EVT_HASH_64BITS
func (this *Event) HashType() int {
	return this.stats.HashType
}

// Stats returns the channel statistics
func (this *Event) Stats() ChannelStats {
	return this.stats
}

// String returns the wrapped message if any, a JSON object otherwise
func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "{ \"type\":\"%s\"", eventNames[this.eventType])

	if this.id >= 0 {
		fmt.Fprintf(&sb, ", \"channel\": %d", this.id)
	}

	if len(this.stats.Codec) > 0 {
		fmt.Fprintf(&sb, ", \"codec\":\"%s\"", this.stats.Codec)
	}

	if this.stats.Symbols > 0 {
		fmt.Fprintf(&sb, ", \"symbols\":%d", this.stats.Symbols)
	}

	if this.stats.Bits > 0 {
		fmt.Fprintf(&sb, ", \"bits\":%d", this.stats.Bits)
	}

	fmt.Fprintf(&sb, ", \"size\":%d, \"time\":%d", this.stats.Size, this.eventTime.UnixNano()/1000000)

	if this.stats.HashType != EVT_HASH_NONE {
		fmt.Fprintf(&sb, ", \"hash\": %016x", this.stats.Hash)
	}

	sb.WriteString(" }")
	return sb.String()
}

// Listener is an interface implemented by event processors
type Listener interface {
	// ProcessEvent is the method called whenever a Listener receives an event.
	ProcessEvent(evt *Event)
}
