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
	"os"
	"path/filepath"
	"strings"
	"time"

	llrice "github.com/llrice/llrice-go"
	"github.com/llrice/llrice-go/imaging"
	"github.com/llrice/llrice-go/internal"
	lio "github.com/llrice/llrice-go/io"
)

const (
	_COMP_DEFAULT_CONCURRENCY = 1
	_COMP_MAX_CONCURRENCY     = 64
	_COMP_NONE                = "NONE"
)

// ImageCompressor main image compressor struct
type ImageCompressor struct {
	verbosity    uint
	overwrite    bool
	checksum     bool
	rct          bool
	inputName    string
	outputName   string
	entropyCodec string
	paramModel   string
	ringSize     uint
	jobs         uint
	listeners    []llrice.Listener
}

type fileResult struct {
	code    int
	read    uint64
	written uint64
}

type fileTask interface {
	call() (int, uint64, uint64)
}

// NewImageCompressor creates a new instance of ImageCompressor given
// a map of argument name/value pairs.
func NewImageCompressor(argsMap map[string]any) (*ImageCompressor, error) {
	this := &ImageCompressor{}
	this.listeners = make([]llrice.Listener, 0)
	this.rct = true

	if force, prst := argsMap["overwrite"]; prst == true {
		this.overwrite = force.(bool)
		delete(argsMap, "overwrite")
	}

	this.inputName = argsMap["inputName"].(string)
	delete(argsMap, "inputName")
	this.outputName = argsMap["outputName"].(string)
	delete(argsMap, "outputName")
	this.entropyCodec = "RLGR"

	if codec, prst := argsMap["entropy"]; prst == true {
		this.entropyCodec = codec.(string)
		delete(argsMap, "entropy")
	}

	this.paramModel = "NONE"

	if model, prst := argsMap["paramModel"]; prst == true {
		this.paramModel = model.(string)
		delete(argsMap, "paramModel")
	}

	this.ringSize = lio.DEFAULT_RING_SIZE

	if ring, prst := argsMap["ringSize"]; prst == true {
		this.ringSize = ring.(uint)
		delete(argsMap, "ringSize")
	}

	if check, prst := argsMap["checksum"]; prst == true {
		this.checksum = check.(bool)
		delete(argsMap, "checksum")
	}

	if rct, prst := argsMap["transform"]; prst == true {
		this.rct = rct.(bool)
		delete(argsMap, "transform")
	}

	this.verbosity = argsMap["verbose"].(uint)
	delete(argsMap, "verbose")
	this.jobs = checkJobs(argsMap["jobs"].(uint), this.verbosity)
	delete(argsMap, "jobs")

	// Validate the codec parameters once for all files
	if _, err := lio.NewWriterWithCtx(io.Discard, this.streamCtx(1)); err != nil {
		return nil, err
	}

	if this.verbosity > 0 && len(argsMap) > 0 {
		for k := range argsMap {
			log.Println("Ignoring invalid option ["+k+"]", this.verbosity > 0)
		}
	}

	return this, nil
}

func checkJobs(concurrency, verbosity uint) uint {
	if concurrency == 0 {
		return _COMP_DEFAULT_CONCURRENCY
	}

	if concurrency > _COMP_MAX_CONCURRENCY {
		if verbosity > 0 {
			fmt.Printf("Warning: the number of jobs is too high, defaulting to %v\n", _COMP_MAX_CONCURRENCY)
		}

		return _COMP_MAX_CONCURRENCY
	}

	return concurrency
}

func (this *ImageCompressor) streamCtx(jobs uint) map[string]any {
	ctx := make(map[string]any)
	ctx["entropy"] = this.entropyCodec
	ctx["paramModel"] = this.paramModel
	ctx["ringSize"] = this.ringSize
	ctx["checksum"] = this.checksum
	ctx["jobs"] = jobs
	return ctx
}

// AddListener adds an event listener to this compressor.
// Returns true if the listener has been added.
func (this *ImageCompressor) AddListener(bl llrice.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this compressor.
// Returns true if the listener has been removed.
func (this *ImageCompressor) RemoveListener(bl llrice.Listener) bool {
	for i, e := range this.listeners {
		if e == bl {
			this.listeners = append(this.listeners[:i], this.listeners[i+1:]...)
			return true
		}
	}

	return false
}

func fileWorker(tasks <-chan fileTask, cancel <-chan bool, results chan<- fileResult) {
	// Pull tasks from channel and run them
	more := true

	for more {
		select {
		case t, m := <-tasks:
			more = m

			if more {
				res, read, written := t.call()
				results <- fileResult{code: res, read: read, written: written}
				more = res == 0
			}

		case c := <-cancel:
			more = !c
		}
	}
}

// Run the tasks with at most 'jobs' workers. Stops at the first failure.
// Returns the error code and the total numbers of bytes read and written.
func runFileTasks(tasks []fileTask, jobs uint) (int, uint64, uint64) {
	if len(tasks) == 1 {
		return tasks[0].call()
	}

	// Create channels for task synchronization
	taskChan := make(chan fileTask, len(tasks))
	results := make(chan fileResult, len(tasks))
	cancel := make(chan bool, jobs)

	// Push tasks to channel. The workers are the consumers.
	for _, t := range tasks {
		taskChan <- t
	}

	close(taskChan)

	// Create one worker per job. A worker calls several tasks sequentially.
	for j := uint(0); j < jobs; j++ {
		go fileWorker(taskChan, cancel, results)
	}

	res := 0
	read := uint64(0)
	written := uint64(0)

	// Wait for all task results
	for i := 0; i < len(tasks); i++ {
		result := <-results
		read += result.read
		written += result.written

		if result.code != 0 {
			// Exit early
			res = result.code
			break
		}
	}

	for j := uint(0); j < jobs; j++ {
		cancel <- true
	}

	return res, read, written
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// Open the output file, checking for overwriting. Returns an error code or 0.
func createOutputFile(inputName, outputName string, overwrite bool) (io.WriteCloser, int) {
	if strings.ToUpper(outputName) == _COMP_NONE {
		return nopWriteCloser{io.Discard}, 0
	}

	if _, err := os.Stat(outputName); err == nil {
		if overwrite == false {
			fmt.Printf("File '%v' exists and the 'force' command ", outputName)
			fmt.Println("line option has not been provided")
			return nil, llrice.ERR_OVERWRITE_FILE
		}

		path1, _ := filepath.Abs(inputName)
		path2, _ := filepath.Abs(outputName)

		if path1 == path2 {
			fmt.Println("The input and output files must be different")
			return nil, llrice.ERR_CREATE_FILE
		}
	}

	output, err := os.Create(outputName)

	if err != nil && overwrite {
		// Attempt to create the full folder hierarchy to file
		if err = os.MkdirAll(filepath.Dir(outputName), os.ModePerm); err == nil {
			output, err = os.Create(outputName)
		}
	}

	if err != nil {
		fmt.Printf("Cannot open output file '%v' for writing: %v\n", outputName, err)
		return nil, llrice.ERR_CREATE_FILE
	}

	return output, 0
}

func formatDuration(delta int64) string {
	if delta >= 100000 {
		return fmt.Sprintf("%.1f s", float64(delta)/1000)
	}

	return fmt.Sprintf("%.0f ms", float64(delta))
}

// Compress is the main function to compress the image or images based on
// the input name provided at construction. Files are processed concurrently
// depending on the number of jobs provided at construction.
// Returns exit code, number of bytes written.
func (this *ImageCompressor) Compress() (int, uint64) {
	before := time.Now()
	files, err := createFileList(this.inputName, make([]FileData, 0, 16))

	if err != nil {
		fmt.Printf("Cannot access input '%v': %v\n", this.inputName, err)
		return llrice.ERR_OPEN_FILE, 0
	}

	// Only keep images when processing a directory
	if len(files) > 1 {
		images := files[:0]

		for _, f := range files {
			if strings.HasSuffix(f.Path, STREAM_EXT) == false {
				images = append(images, f)
			}
		}

		files = images
	}

	if len(files) == 0 {
		fmt.Printf("Cannot open input file '%v'\n", this.inputName)
		return llrice.ERR_OPEN_FILE, 0
	}

	nbFiles := len(files)
	printFlag := this.verbosity > 1

	if nbFiles > 1 {
		log.Println(fmt.Sprintf("%d files to compress\n", nbFiles), this.verbosity > 0)
	} else {
		log.Println(fmt.Sprintf("%d file to compress\n", nbFiles), this.verbosity > 0)
	}

	log.Println(fmt.Sprintf("Verbosity set to %v", this.verbosity), printFlag)
	log.Println(fmt.Sprintf("Overwrite set to %t", this.overwrite), printFlag)
	log.Println(fmt.Sprintf("Checksum set to %t", this.checksum), printFlag)
	log.Println(fmt.Sprintf("Using %s entropy codec (Rice parameter model: %s)", this.entropyCodec, this.paramModel), printFlag)
	log.Println(fmt.Sprintf("Reservation ring set to %d pages", this.ringSize), printFlag)
	log.Println(fmt.Sprintf("Colour transform set to %t", this.rct), printFlag)
	log.Println(fmt.Sprintf("Using %d job(s)", this.jobs), printFlag)

	// Limit verbosity level when files are processed concurrently
	if this.jobs > 1 && nbFiles > 1 && this.verbosity > 1 {
		log.Println("Warning: limiting verbosity to 1 due to concurrent processing of input files.\n", true)
		this.verbosity = 1
	}

	if this.verbosity > 2 {
		if listener, err := NewInfoPrinter(this.verbosity, ENCODING, os.Stdout); err == nil {
			this.AddListener(listener)
		}
	}

	inputIsDir := false
	specialOutput := strings.ToUpper(this.outputName) == _COMP_NONE

	if fi, err := os.Stat(this.inputName); err == nil && fi.IsDir() {
		inputIsDir = true

		if len(this.outputName) > 0 && specialOutput == false {
			if fi, err = os.Stat(this.outputName); err != nil || fi.IsDir() == false {
				fmt.Println("Output must be an existing directory (or 'NONE')")
				return llrice.ERR_CREATE_FILE, 0
			}
		}
	}

	jobsPerTask, _ := llrice.ComputeJobsPerTask(make([]uint, nbFiles), this.jobs, uint(nbFiles))
	tasks := make([]fileTask, nbFiles)

	for i, f := range files {
		oName := this.outputName

		if len(oName) == 0 {
			oName = f.Path + STREAM_EXT
		} else if inputIsDir == true && specialOutput == false {
			rel, _ := filepath.Rel(this.inputName, f.Path)
			oName = filepath.Join(this.outputName, rel+STREAM_EXT)
		}

		tasks[i] = &fileCompressTask{
			inputName:  f.Path,
			outputName: oName,
			overwrite:  this.overwrite,
			rct:        this.rct,
			verbosity:  this.verbosity,
			ctx:        this.streamCtx(jobsPerTask[i]),
			listeners:  this.listeners,
		}
	}

	workers := this.jobs

	if workers > uint(nbFiles) {
		workers = uint(nbFiles)
	}

	res, read, written := runFileTasks(tasks, workers)

	if nbFiles > 1 {
		delta := time.Since(before).Nanoseconds() / 1000000 // convert to ms
		log.Println("", this.verbosity > 0)
		log.Println(fmt.Sprintf("Total encoding time: %v", formatDuration(delta)), this.verbosity > 0)
		log.Println(fmt.Sprintf("Total output size: %d bytes", written), this.verbosity > 0)

		if read > 0 {
			log.Println(fmt.Sprintf("Compression ratio: %f", float64(written)/float64(read)), this.verbosity > 0)
		}
	}

	return res, written
}

func notifyListeners(listeners []llrice.Listener, evt *llrice.Event) {
	defer func() {
		//nolint
		if r := recover(); r != nil {
			// Ignore panics in listeners
		}
	}()

	for _, bl := range listeners {
		bl.ProcessEvent(evt)
	}
}

type fileCompressTask struct {
	inputName  string
	outputName string
	overwrite  bool
	rct        bool
	verbosity  uint
	ctx        map[string]any
	listeners  []llrice.Listener
}

func (this *fileCompressTask) call() (int, uint64, uint64) {
	printFlag := this.verbosity > 2
	log.Println("Input file name set to '"+this.inputName+"'", printFlag)
	log.Println("Output file name set to '"+this.outputName+"'", printFlag)
	before := time.Now()
	img, format, err := imaging.Load(this.inputName)

	if err != nil {
		if format == internal.GetFormatName(internal.LLR_MAGIC) {
			fmt.Printf("File '%v' is already compressed\n", this.inputName)
		} else {
			fmt.Printf("Cannot load image '%v': %v\n", this.inputName, err)
		}

		return llrice.ERR_OPEN_FILE, 0, 0
	}

	read := uint64(img.Size())
	log.Println(fmt.Sprintf("\nEncoding %s (%s, %dx%d, %d channel(s), %d bits) ...", this.inputName,
		format, img.Width, img.Height, len(img.Channels), img.Depth), this.verbosity > 1)

	if len(this.listeners) > 0 {
		evt := llrice.NewEvent(llrice.EVT_COMPRESSION_START, -1, img.Size(), 0, llrice.EVT_HASH_NONE, time.Now())
		notifyListeners(this.listeners, evt)
	}

	rct := this.rct && len(img.Channels) >= 3
	residuals, err := imaging.ToResiduals(img, rct)

	if err != nil {
		fmt.Printf("Cannot process image '%v': %v\n", this.inputName, err)
		return llrice.ERR_PROCESS_BLOCK, read, 0
	}

	output, code := createOutputFile(this.inputName, this.outputName, this.overwrite)

	if code != 0 {
		return code, read, 0
	}

	defer output.Close()
	w, err := lio.NewWriterWithCtx(output, this.ctx)

	if err != nil {
		fmt.Printf("Cannot create compressed stream: %v\n", err)
		return llrice.ERR_CREATE_COMPRESSOR, read, 0
	}

	for _, bl := range this.listeners {
		w.AddListener(bl)
	}

	hdr := &lio.Header{Width: uint32(img.Width), Height: uint32(img.Height), Depth: uint8(img.Depth)}

	if rct {
		hdr.Flags = lio.FLAG_RCT
	}

	if err = w.Write(hdr, residuals); err != nil {
		fmt.Printf("%v\n", err)

		if ioerr, isIOErr := err.(*lio.IOError); isIOErr == true {
			return ioerr.ErrorCode(), read, w.GetWritten()
		}

		return llrice.ERR_PROCESS_BLOCK, read, w.GetWritten()
	}

	if err = output.Close(); err != nil {
		fmt.Printf("Cannot close output file '%v': %v\n", this.outputName, err)
		return llrice.ERR_WRITE_FILE, read, w.GetWritten()
	}

	written := w.GetWritten()
	delta := time.Since(before).Nanoseconds() / 1000000 // convert to ms
	log.Println("", this.verbosity > 1)
	log.Println(fmt.Sprintf("Encoding:          %v", formatDuration(delta)), this.verbosity > 1)
	log.Println(fmt.Sprintf("Input size:        %d", read), this.verbosity > 1)
	log.Println(fmt.Sprintf("Output size:       %d", written), this.verbosity > 1)
	log.Println(fmt.Sprintf("Compression ratio: %f", float64(written)/float64(read)), this.verbosity > 1)
	log.Println(fmt.Sprintf("Encoding %v: %v => %v bytes in %v", this.inputName, read, written,
		formatDuration(delta)), this.verbosity == 1)

	if delta > 0 {
		log.Println(fmt.Sprintf("Throughput (KB/s): %d", ((int64(read*1000))>>10)/delta), this.verbosity > 1)
	}

	log.Println("", this.verbosity > 1)

	if len(this.listeners) > 0 {
		evt := llrice.NewEvent(llrice.EVT_COMPRESSION_END, -1, int64(written), 0, llrice.EVT_HASH_NONE, time.Now())
		notifyListeners(this.listeners, evt)
	}

	return 0, read, written
}
