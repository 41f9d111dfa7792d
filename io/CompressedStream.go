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

// Package io provides the implementations of a Writer and a Reader
// used to respectively store and restore the residual channels of an
// image in the paged stream format.
package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	llrice "github.com/llrice/llrice-go"
	"github.com/llrice/llrice-go/bitstream"
	"github.com/llrice/llrice-go/entropy"
	"github.com/llrice/llrice-go/hash"
	"github.com/octu0/runlength"
	"github.com/pkg/errors"
)

// Stream layout: a header (3 pages) followed by one frame per channel.
// Frame: one page {payload length u32, method u8, reserved}, one page
// with the XXHash64 of the payload if FLAG_CHECKSUM is set, then the
// payload padded to whole pages.
// Channels are independent: each one is coded by its own task with its
// own page store.

const (
	METHOD_ENTROPY = uint8(0) // symbol coder given by the header
	METHOD_RLE     = uint8(1) // byte run length coding of the zig-zag residuals

	DEFAULT_RING_SIZE = bitstream.DEFAULT_RING_CAPACITY
	MIN_RING_SIZE     = 4
	MAX_RING_SIZE     = bitstream.MAX_RING_CAPACITY
	_MAX_CONCURRENCY  = 64
	_FRAME_SIZE       = bitstream.PAGE_BYTES
	_HASH_SEED        = uint64(STREAM_MAGIC)
	_MAX_PAYLOAD_SIZE = math.MaxUint32
)

// IOError an extended error containing a message and a code value
type IOError struct {
	msg  string
	code int
}

// Error returns the underlying error
func (this IOError) Error() string {
	return fmt.Sprintf("%v (code %v)", this.msg, this.code)
}

// Message returns the message string associated with the error
func (this IOError) Message() string {
	return this.msg
}

// ErrorCode returns the code value associated with the error
func (this IOError) ErrorCode() int {
	return this.code
}

// Convert a recovered panic into an IOError. Synchronization faults mean
// the producer and the consumer of the stream disagree.
func panicToIOError(r any, code int) *IOError {
	if se, ok := r.(*bitstream.SyncError); ok {
		return &IOError{msg: se.Error(), code: llrice.ERR_SYNC}
	}

	if err, ok := r.(error); ok {
		return &IOError{msg: err.Error(), code: code}
	}

	return &IOError{msg: fmt.Sprintf("%v", r), code: code}
}

func errorToIOError(err error, code int) *IOError {
	if bitstream.IsSyncError(err) {
		code = llrice.ERR_SYNC
	}

	return &IOError{msg: err.Error(), code: code}
}

type channelFrame struct {
	method  uint8
	length  int // payload bytes (padding excluded)
	payload []byte
	hash    uint64
}

type codecConfig struct {
	entropyType uint32
	rle         bool
	checksum    bool
	jobs        int
	ringSize    uint
	ctx         map[string]any
}

func newCodecConfig(ctx map[string]any) (*codecConfig, error) {
	if ctx == nil {
		return nil, &IOError{msg: "Invalid null context parameter", code: llrice.ERR_INVALID_PARAM}
	}

	cfg := &codecConfig{jobs: 1, ringSize: DEFAULT_RING_SIZE}
	cfg.ctx = make(map[string]any, len(ctx))

	for k, v := range ctx {
		cfg.ctx[k] = v
	}

	if val, hasKey := ctx["jobs"]; hasKey {
		jobs, _ := val.(uint)

		if jobs == 0 || jobs > _MAX_CONCURRENCY {
			errMsg := fmt.Sprintf("The number of jobs must be in [1..%d], got %v", _MAX_CONCURRENCY, val)
			return nil, &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
		}

		cfg.jobs = int(jobs)
	}

	if val, hasKey := ctx["ringSize"]; hasKey {
		ringSize, _ := val.(uint)

		if ringSize < MIN_RING_SIZE || ringSize > MAX_RING_SIZE {
			errMsg := fmt.Sprintf("The ring size must be in [%d..%d], got %v", MIN_RING_SIZE, MAX_RING_SIZE, val)
			return nil, &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
		}

		cfg.ringSize = ringSize
	}

	if val, hasKey := ctx["checksum"]; hasKey {
		cfg.checksum, _ = val.(bool)
	}

	return cfg, nil
}

// Writer a Writer that writes the residual channels of an image to an
// io.Writer.
type Writer struct {
	os        io.Writer
	cfg       *codecConfig
	logBase   uint
	model     bool
	listeners []llrice.Listener
	written   uint64
}

type encodingTask struct {
	id        int
	plane     []int32
	cfg       *codecConfig
	listeners []llrice.Listener
	wg        *sync.WaitGroup
}

type encodingTaskResult struct {
	frame channelFrame
	err   *IOError
}

// NewWriter creates a new instance of Writer.
// The writer writes the compressed channels to the provided os.
func NewWriter(os io.Writer, entropy string, jobs uint, checksum bool) (*Writer, error) {
	ctx := make(map[string]any)
	ctx["entropy"] = entropy
	ctx["jobs"] = jobs
	ctx["checksum"] = checksum
	return NewWriterWithCtx(os, ctx)
}

// NewWriterWithCtx creates a new instance of Writer using a map of
// parameters. Recognized keys: 'entropy' (RLGR, RICE, NONE, RLE), 'jobs',
// 'checksum', 'ringSize', 'logBase' and 'paramModel' (NONE, CM).
func NewWriterWithCtx(os io.Writer, ctx map[string]any) (*Writer, error) {
	if os == nil {
		return nil, &IOError{msg: "Invalid null output stream parameter", code: llrice.ERR_INVALID_PARAM}
	}

	cfg, err := newCodecConfig(ctx)

	if err != nil {
		return nil, err
	}

	this := &Writer{}
	this.os = os
	this.cfg = cfg
	name, _ := ctx["entropy"].(string)

	if name == "" {
		name = "RLGR"
	}

	if name == "RLE" || name == "rle" {
		// Byte planes use run length coding, the others RLGR
		cfg.rle = true
		name = "RLGR"
	}

	if cfg.entropyType, err = entropy.GetType(name); err != nil {
		return nil, &IOError{msg: err.Error(), code: llrice.ERR_INVALID_CODEC}
	}

	this.logBase = entropy.DEFAULT_LOG_BASE

	if val, hasKey := ctx["logBase"]; hasKey {
		this.logBase, _ = val.(uint)

		if this.logBase > 31 {
			errMsg := fmt.Sprintf("The log base must be in [0..31], got %d", this.logBase)
			return nil, &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
		}
	}

	cfg.ctx["logBase"] = this.logBase
	modelName, _ := ctx["paramModel"].(string)
	modelType, err := entropy.GetParamModelType(modelName)

	if err != nil {
		return nil, &IOError{msg: err.Error(), code: llrice.ERR_INVALID_PARAM}
	}

	this.model = modelType != entropy.PARAM_MODEL_NONE
	this.listeners = make([]llrice.Listener, 0)
	return this, nil
}

// AddListener adds an event listener to this writer.
// Returns true if the listener has been added.
func (this *Writer) AddListener(bl llrice.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this writer.
// Returns true if the listener has been removed.
func (this *Writer) RemoveListener(bl llrice.Listener) bool {
	return removeListener(&this.listeners, bl)
}

func removeListener(listeners *[]llrice.Listener, bl llrice.Listener) bool {
	if bl == nil {
		return false
	}

	for i, e := range *listeners {
		if e == bl {
			*listeners = append((*listeners)[:i], (*listeners)[i+1:]...)
			return true
		}
	}

	return false
}

// Write encodes the provided channels (one residual per sample) and writes
// the header and the channel frames. The header width, height and depth
// must be set; the other fields are filled by the writer.
func (this *Writer) Write(hdr *Header, planes [][]int32) error {
	if hdr == nil {
		return &IOError{msg: "Invalid null header parameter", code: llrice.ERR_INVALID_PARAM}
	}

	if len(planes) > MAX_CHANNELS {
		errMsg := fmt.Sprintf("Invalid number of channels: %d (must be in [1..%d])", len(planes), MAX_CHANNELS)
		return &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
	}

	hdr.Revision = STREAM_REVISION
	hdr.Channels = uint8(len(planes))
	hdr.Entropy = uint8(this.cfg.entropyType)
	hdr.LogBase = uint8(this.logBase)
	hdr.Flags &= FLAG_RCT

	if this.cfg.checksum {
		hdr.Flags |= FLAG_CHECKSUM
	}

	if this.model {
		hdr.Flags |= FLAG_PARAM_MODEL
	}

	header, err := hdr.MarshalBinary()

	if err != nil {
		return err
	}

	for i := range planes {
		if len(planes[i]) != hdr.Symbols() {
			errMsg := fmt.Sprintf("Invalid size of channel %d: expected %d, got %d", i, hdr.Symbols(), len(planes[i]))
			return &IOError{msg: errMsg, code: llrice.ERR_INVALID_PARAM}
		}
	}

	// Protect against future concurrent modification of the list of listeners
	listeners := make([]llrice.Listener, len(this.listeners))
	copy(listeners, this.listeners)
	results := make([]encodingTaskResult, len(planes))

	// Invoke as many go routines as allowed
	for first := 0; first < len(planes); first += this.cfg.jobs {
		wg := sync.WaitGroup{}

		for id := first; id < len(planes) && id < first+this.cfg.jobs; id++ {
			task := encodingTask{
				id:        id,
				plane:     planes[id],
				cfg:       this.cfg,
				listeners: listeners,
				wg:        &wg}

			wg.Add(1)
			go task.encode(&results[id])
		}

		wg.Wait()
	}

	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}

	if err := this.write(header); err != nil {
		return err
	}

	for i := range results {
		if err := this.writeFrame(&results[i].frame); err != nil {
			return err
		}
	}

	return nil
}

func (this *Writer) write(buf []byte) error {
	n, err := this.os.Write(buf)
	this.written += uint64(n)

	if err != nil {
		return &IOError{msg: errors.Wrap(err, "Cannot write to output stream").Error(), code: llrice.ERR_WRITE_FILE}
	}

	return nil
}

func (this *Writer) writeFrame(frame *channelFrame) error {
	var buf [2 * _FRAME_SIZE]byte
	binary.BigEndian.PutUint32(buf[0:], uint32(frame.length))
	buf[4] = frame.method
	size := _FRAME_SIZE

	if this.cfg.checksum {
		binary.BigEndian.PutUint64(buf[_FRAME_SIZE:], frame.hash)
		size += _FRAME_SIZE
	}

	if err := this.write(buf[0:size]); err != nil {
		return err
	}

	return this.write(frame.payload)
}

// GetWritten returns the number of bytes written so far
func (this *Writer) GetWritten() uint64 {
	return this.written
}

// Zig-zag residuals all below 256 can be run length coded as bytes
func byteResiduals(plane []int32) ([]byte, bool) {
	res := make([]byte, len(plane))

	for i, v := range plane {
		u := entropy.ToUnsigned(v)

		if u > 0xFF {
			return nil, false
		}

		res[i] = byte(u)
	}

	return res, true
}

func (this *encodingTask) encode(res *encodingTaskResult) {
	defer func() {
		if r := recover(); r != nil {
			res.err = panicToIOError(r, llrice.ERR_PROCESS_BLOCK)
		}

		this.wg.Done()
	}()

	if len(this.listeners) > 0 {
		stats := llrice.ChannelStats{Symbols: len(this.plane), Size: int64(4 * len(this.plane))}
		notifyListeners(this.listeners, llrice.NewChannelEvent(llrice.EVT_BEFORE_ENTROPY, this.id, stats, time.Now()))
	}

	frame := &res.frame
	frame.method = METHOD_ENTROPY
	var bits uint64

	if this.cfg.rle {
		if data, ok := byteResiduals(this.plane); ok {
			var buf bytes.Buffer

			if err := runlength.NewEncoder(&buf).Encode(data); err != nil {
				res.err = &IOError{msg: errors.Wrap(err, "Run length encoding failed").Error(), code: llrice.ERR_PROCESS_BLOCK}
				return
			}

			frame.method = METHOD_RLE
			frame.length = buf.Len()
			bits = uint64(8 * frame.length)
			frame.payload = padToPage(buf.Bytes())
		}
	}

	if frame.method == METHOD_ENTROPY {
		store := bitstream.NewPageStore(len(this.plane)/16 + 4)
		obs, err := bitstream.NewPagedOutputBitStream(store, this.cfg.ringSize)

		if err != nil {
			res.err = &IOError{msg: err.Error(), code: llrice.ERR_CREATE_COMPRESSOR}
			return
		}

		ee, err := entropy.NewEntropyEncoder(obs, this.cfg.ctx, this.cfg.entropyType)

		if err != nil {
			res.err = &IOError{msg: err.Error(), code: llrice.ERR_CREATE_COMPRESSOR}
			return
		}

		if _, err = ee.Write(this.plane); err != nil {
			res.err = errorToIOError(err, llrice.ERR_PROCESS_BLOCK)
			return
		}

		ee.Flush()

		// Reserved pages never filled are dropped
		pages := int((obs.Written() + bitstream.PAGE_BITS - 1) / bitstream.PAGE_BITS)
		frame.length = pages * bitstream.PAGE_BYTES
		frame.payload = store.Bytes()[0:frame.length]
		bits = obs.Written()
	}

	if err := checkPayloadSize(this.id, frame.length); err != nil {
		res.err = err.(*IOError)
		return
	}

	hashType := llrice.EVT_HASH_NONE

	if this.cfg.checksum {
		hasher, _ := hash.NewXXHash64(_HASH_SEED)
		hasher.Write(frame.payload[0:frame.length])
		frame.hash = hasher.Sum64()
		hashType = llrice.EVT_HASH_64BITS
	}

	if len(this.listeners) > 0 {
		stats := llrice.ChannelStats{
			Codec:    codecName(frame.method, this.cfg.entropyType),
			Symbols:  len(this.plane),
			Bits:     bits,
			Size:     int64(frame.length),
			Hash:     frame.hash,
			HashType: hashType,
		}

		notifyListeners(this.listeners, llrice.NewChannelEvent(llrice.EVT_AFTER_ENTROPY, this.id, stats, time.Now()))
	}
}

// The frame stores the payload length on 32 bits
func checkPayloadSize(id, length int) error {
	if uint64(length) > _MAX_PAYLOAD_SIZE {
		errMsg := fmt.Sprintf("Payload of channel %d too large: %d bytes (max %d)", id, length, uint64(_MAX_PAYLOAD_SIZE))
		return &IOError{msg: errMsg, code: llrice.ERR_PROCESS_BLOCK}
	}

	return nil
}

func codecName(method byte, entropyType uint32) string {
	if method == METHOD_RLE {
		return "RLE"
	}

	name, _ := entropy.GetName(entropyType)
	return name
}

func padToPage(buf []byte) []byte {
	if r := len(buf) % bitstream.PAGE_BYTES; r != 0 {
		buf = append(buf, make([]byte, bitstream.PAGE_BYTES-r)...)
	}

	return buf
}

func notifyListeners(listeners []llrice.Listener, evt *llrice.Event) {
	defer func() {
		//nolint
		if r := recover(); r != nil {
			//lint:ignore SA9003
			// Ignore panics in listeners
		}
	}()

	for _, bl := range listeners {
		bl.ProcessEvent(evt)
	}
}

// Reader a Reader that reads the residual channels of an image from an
// io.Reader.
type Reader struct {
	is        io.Reader
	cfg       *codecConfig
	header    *Header
	listeners []llrice.Listener
	read      uint64
}

type decodingTask struct {
	id        int
	frame     *channelFrame
	count     int
	cfg       *codecConfig
	listeners []llrice.Listener
	wg        *sync.WaitGroup
}

type decodingTaskResult struct {
	plane []int32
	err   *IOError
}

// NewReader creates a new instance of Reader.
// The reader reads the compressed channels from the provided is.
func NewReader(is io.Reader, jobs uint) (*Reader, error) {
	ctx := make(map[string]any)
	ctx["jobs"] = jobs
	return NewReaderWithCtx(is, ctx)
}

// NewReaderWithCtx creates a new instance of Reader using a map of
// parameters. Recognized keys: 'jobs' and 'ringSize'.
func NewReaderWithCtx(is io.Reader, ctx map[string]any) (*Reader, error) {
	if is == nil {
		return nil, &IOError{msg: "Invalid null input stream parameter", code: llrice.ERR_INVALID_PARAM}
	}

	cfg, err := newCodecConfig(ctx)

	if err != nil {
		return nil, err
	}

	this := &Reader{}
	this.is = is
	this.cfg = cfg
	this.listeners = make([]llrice.Listener, 0)
	return this, nil
}

// AddListener adds an event listener to this reader.
// Returns true if the listener has been added.
func (this *Reader) AddListener(bl llrice.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this reader.
// Returns true if the listener has been removed.
func (this *Reader) RemoveListener(bl llrice.Listener) bool {
	return removeListener(&this.listeners, bl)
}

func (this *Reader) readFull(buf []byte, what string) error {
	n, err := io.ReadFull(this.is, buf)
	this.read += uint64(n)

	if err != nil {
		errMsg := errors.Wrapf(err, "Cannot read %s", what).Error()
		return &IOError{msg: errMsg, code: llrice.ERR_READ_FILE}
	}

	return nil
}

// ReadHeader reads and checks the stream header (once)
func (this *Reader) ReadHeader() (*Header, error) {
	if this.header != nil {
		return this.header, nil
	}

	buf := make([]byte, HEADER_SIZE)

	if err := this.readFull(buf, "stream header"); err != nil {
		return nil, err
	}

	hdr := &Header{}

	if err := hdr.UnmarshalBinary(buf); err != nil {
		return nil, err
	}

	if _, err := entropy.GetName(uint32(hdr.Entropy)); err != nil {
		return nil, &IOError{msg: err.Error(), code: llrice.ERR_INVALID_CODEC}
	}

	this.header = hdr
	this.cfg.checksum = hdr.HasFlag(FLAG_CHECKSUM)
	this.cfg.entropyType = uint32(hdr.Entropy)
	this.cfg.ctx["logBase"] = uint(hdr.LogBase)

	if hdr.HasFlag(FLAG_PARAM_MODEL) {
		this.cfg.ctx["paramModel"] = "CM"
	} else {
		this.cfg.ctx["paramModel"] = "NONE"
	}

	if len(this.listeners) > 0 {
		name, _ := entropy.GetName(this.cfg.entropyType)
		msg := fmt.Sprintf("{ \"type\":\"AFTER_HEADER_DECODING\", \"revision\":%d, \"width\":%d, \"height\":%d, "+
			"\"channels\":%d, \"depth\":%d, \"entropy\":\"%s\", \"checksum\":%t, \"rct\":%t }",
			hdr.Revision, hdr.Width, hdr.Height, hdr.Channels, hdr.Depth, name,
			this.cfg.checksum, hdr.HasFlag(FLAG_RCT))
		notifyListeners(this.listeners, llrice.NewEventFromString(llrice.EVT_AFTER_HEADER_DECODING, -1, msg, time.Now()))
	}

	return hdr, nil
}

func (this *Reader) readFrame(count int) (*channelFrame, error) {
	var buf [_FRAME_SIZE]byte

	if err := this.readFull(buf[:], "channel frame"); err != nil {
		return nil, err
	}

	frame := &channelFrame{}
	frame.length = int(binary.BigEndian.Uint32(buf[0:]))
	frame.method = buf[4]

	if frame.method != METHOD_ENTROPY && frame.method != METHOD_RLE {
		errMsg := fmt.Sprintf("Invalid channel coding method: %d", frame.method)
		return nil, &IOError{msg: errMsg, code: llrice.ERR_INVALID_FILE}
	}

	// At most 2 Rice codes of 64 bits per symbol
	if uint64(frame.length) > 16*uint64(count)+bitstream.PAGE_BYTES {
		errMsg := fmt.Sprintf("Invalid channel payload length: %d", frame.length)
		return nil, &IOError{msg: errMsg, code: llrice.ERR_INVALID_FILE}
	}

	if this.cfg.checksum {
		if err := this.readFull(buf[:], "channel checksum"); err != nil {
			return nil, err
		}

		frame.hash = binary.BigEndian.Uint64(buf[:])
	}

	size := (frame.length + bitstream.PAGE_BYTES - 1) &^ (bitstream.PAGE_BYTES - 1)
	payload, err := this.readPayload(size)

	if err != nil {
		return nil, err
	}

	frame.payload = payload
	return frame, nil
}

// The length in the frame is not trusted: the buffer only grows with the
// bytes actually read.
func (this *Reader) readPayload(size int) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, this.is, int64(size))
	this.read += uint64(n)

	if err != nil {
		errMsg := errors.Wrap(err, "Cannot read channel payload").Error()
		return nil, &IOError{msg: errMsg, code: llrice.ERR_READ_FILE}
	}

	return buf.Bytes(), nil
}

// Read reads the header (if not already read) and all the channels.
// Returns one residual plane per channel.
func (this *Reader) Read() (*Header, [][]int32, error) {
	hdr, err := this.ReadHeader()

	if err != nil {
		return nil, nil, err
	}

	count := hdr.Symbols()
	frames := make([]*channelFrame, hdr.Channels)

	for i := range frames {
		if frames[i], err = this.readFrame(count); err != nil {
			return nil, nil, err
		}
	}

	listeners := make([]llrice.Listener, len(this.listeners))
	copy(listeners, this.listeners)
	results := make([]decodingTaskResult, len(frames))

	for first := 0; first < len(frames); first += this.cfg.jobs {
		wg := sync.WaitGroup{}

		for id := first; id < len(frames) && id < first+this.cfg.jobs; id++ {
			task := decodingTask{
				id:        id,
				frame:     frames[id],
				count:     count,
				cfg:       this.cfg,
				listeners: listeners,
				wg:        &wg}

			wg.Add(1)
			go task.decode(&results[id])
		}

		wg.Wait()
	}

	planes := make([][]int32, len(results))

	for i, r := range results {
		if r.err != nil {
			return nil, nil, r.err
		}

		planes[i] = r.plane
	}

	return hdr, planes, nil
}

// GetRead returns the number of bytes read so far
func (this *Reader) GetRead() uint64 {
	return this.read
}

func (this *decodingTask) decode(res *decodingTaskResult) {
	defer func() {
		if r := recover(); r != nil {
			res.err = panicToIOError(r, llrice.ERR_PROCESS_BLOCK)
		}

		this.wg.Done()
	}()

	frame := this.frame
	hashType := llrice.EVT_HASH_NONE

	if this.cfg.checksum {
		hasher, _ := hash.NewXXHash64(_HASH_SEED)
		hasher.Write(frame.payload[0:frame.length])

		if h := hasher.Sum64(); h != frame.hash {
			errMsg := fmt.Sprintf("Corrupted channel %d: expected checksum %016x, got %016x", this.id, frame.hash, h)
			res.err = &IOError{msg: errMsg, code: llrice.ERR_CRC_CHECK}
			return
		}

		hashType = llrice.EVT_HASH_64BITS
	}

	stats := llrice.ChannelStats{
		Codec:    codecName(frame.method, this.cfg.entropyType),
		Symbols:  this.count,
		Size:     int64(frame.length),
		Hash:     frame.hash,
		HashType: hashType,
	}

	if len(this.listeners) > 0 {
		notifyListeners(this.listeners, llrice.NewChannelEvent(llrice.EVT_BEFORE_ENTROPY, this.id, stats, time.Now()))
	}

	res.plane = make([]int32, this.count)

	if frame.method == METHOD_RLE {
		data, err := runlength.NewDecoder().Decode(bytes.NewReader(frame.payload[0:frame.length]))

		if err != nil {
			res.err = &IOError{msg: errors.Wrap(err, "Run length decoding failed").Error(), code: llrice.ERR_PROCESS_BLOCK}
			return
		}

		if len(data) != this.count {
			errMsg := fmt.Sprintf("Invalid size of channel %d: expected %d, got %d", this.id, this.count, len(data))
			res.err = &IOError{msg: errMsg, code: llrice.ERR_INVALID_FILE}
			return
		}

		for i := range data {
			res.plane[i] = entropy.ToSigned(uint32(data[i]))
		}

		stats.Bits = uint64(8 * frame.length)
	} else {
		store, err := bitstream.NewPageStoreFromBytes(frame.payload)

		if err != nil {
			res.err = &IOError{msg: err.Error(), code: llrice.ERR_INVALID_FILE}
			return
		}

		// Pages reserved by the encoder but never filled
		store.Pad(int(this.cfg.ringSize))
		ibs, err := bitstream.NewPagedInputBitStream(store, this.cfg.ringSize)

		if err != nil {
			res.err = &IOError{msg: err.Error(), code: llrice.ERR_CREATE_DECOMPRESSOR}
			return
		}

		ed, err := entropy.NewEntropyDecoder(ibs, this.cfg.ctx, this.cfg.entropyType, this.count)

		if err != nil {
			res.err = &IOError{msg: err.Error(), code: llrice.ERR_CREATE_DECOMPRESSOR}
			return
		}

		if _, err = ed.Read(res.plane); err != nil {
			res.err = errorToIOError(err, llrice.ERR_PROCESS_BLOCK)
			return
		}

		stats.Bits = ibs.Read()
	}

	if len(this.listeners) > 0 {
		stats.Size = int64(4 * this.count)
		stats.Hash = 0
		stats.HashType = llrice.EVT_HASH_NONE
		notifyListeners(this.listeners, llrice.NewChannelEvent(llrice.EVT_AFTER_ENTROPY, this.id, stats, time.Now()))
	}
}
