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

package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	llrice "github.com/llrice/llrice-go"
	"github.com/pkg/errors"
)

// An implementation of Listener to display channel information (verbose
// option of the ImageCompressor/ImageDecompressor)

const (
	ENCODING = 0
	DECODING = 1
)

type channelInfo struct {
	time0     time.Time
	time1     time.Time
	inSize    int64
	outSize   int64
	hash      uint64
	hashing   bool
	completed bool
	stats     llrice.ChannelStats
}

// InfoPrinter contains all the data required to print one event
type InfoPrinter struct {
	writer   io.Writer
	infoType uint
	infos    map[int]channelInfo
	lock     sync.Mutex
	level    uint
}

// NewInfoPrinter creates a new instance of InfoPrinter.
// Verbosity: 2 displays the header, 3 one line per channel, 4 all events.
func NewInfoPrinter(infoLevel, infoType uint, writer io.Writer) (*InfoPrinter, error) {
	if writer == nil {
		return nil, errors.New("Invalid null writer parameter")
	}

	this := &InfoPrinter{}
	this.infoType = infoType & 1
	this.level = infoLevel
	this.writer = writer
	this.infos = make(map[int]channelInfo)
	return this, nil
}

// ProcessEvent receives an event and writes a log record to the internal writer
func (this *InfoPrinter) ProcessEvent(evt *llrice.Event) {
	id := evt.ID()

	switch evt.Type() {
	case llrice.EVT_BEFORE_ENTROPY:
		this.lock.Lock()
		this.infos[id] = channelInfo{time0: evt.Time(), inSize: evt.Size()}
		this.lock.Unlock()

		if this.level >= 4 {
			this.println(evt.String())
		}

	case llrice.EVT_AFTER_ENTROPY:
		this.lock.Lock()
		ci, exists := this.infos[id]

		if exists == true {
			ci.time1 = evt.Time()
			ci.outSize = evt.Size()
			ci.hash = evt.Hash()
			ci.hashing = evt.HashType() != llrice.EVT_HASH_NONE
			ci.stats = evt.Stats()
			ci.completed = true
			this.infos[id] = ci
		}

		this.lock.Unlock()

		if this.level >= 4 {
			this.println(evt.String())
		}

	case llrice.EVT_COMPRESSION_END, llrice.EVT_DECOMPRESSION_END:
		// Channels are coded concurrently: display them in order at the end
		if this.level >= 3 {
			this.printChannels()
		}

		if this.level >= 4 {
			this.println(evt.String())
		}

	case llrice.EVT_AFTER_HEADER_DECODING:
		if this.level >= 2 {
			this.println(evt.String())
		}

	default:
		if this.level >= 4 {
			this.println(evt.String())
		}
	}
}

func (this *InfoPrinter) printChannels() {
	this.lock.Lock()
	defer this.lock.Unlock()

	for id := 0; id < len(this.infos); id++ {
		ci, exists := this.infos[id]

		if exists == false || ci.completed == false {
			continue
		}

		durationMS := ci.time1.Sub(ci.time0).Nanoseconds() / int64(time.Millisecond)
		msg := fmt.Sprintf("Channel %d: %d => %d [%d ms]", id, ci.inSize, ci.outSize, durationMS)

		if len(ci.stats.Codec) > 0 {
			msg += fmt.Sprintf(" %s %.2f bits/symbol", ci.stats.Codec, ci.stats.BitsPerSymbol())
		}

		// Add compression ratio for encoding
		if this.infoType == ENCODING && ci.inSize != 0 {
			msg += fmt.Sprintf(" (%d%%)", uint64(ci.outSize)*100/uint64(ci.inSize))
		}

		// Optionally add hash
		if ci.hashing == true {
			msg += fmt.Sprintf("  [%016x]", ci.hash)
		}

		fmt.Fprintln(this.writer, msg)
	}

	this.infos = make(map[int]channelInfo)
}

func (this *InfoPrinter) println(msg string) {
	this.lock.Lock()
	fmt.Fprintln(this.writer, msg)
	this.lock.Unlock()
}
