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
	"os"
	"path/filepath"
	"strings"
	"time"

	llrice "github.com/llrice/llrice-go"
	"github.com/llrice/llrice-go/imaging"
	lio "github.com/llrice/llrice-go/io"
)

const (
	_DECOMP_DEFAULT_EXT = ".pnm"
)

// ImageDecompressor main image decompressor struct
type ImageDecompressor struct {
	verbosity  uint
	overwrite  bool
	inputName  string
	outputName string
	jobs       uint
	listeners  []llrice.Listener
}

// NewImageDecompressor creates a new instance of ImageDecompressor given
// a map of argument name/value pairs.
func NewImageDecompressor(argsMap map[string]any) (*ImageDecompressor, error) {
	this := &ImageDecompressor{}
	this.listeners = make([]llrice.Listener, 0)

	if force, prst := argsMap["overwrite"]; prst == true {
		this.overwrite = force.(bool)
		delete(argsMap, "overwrite")
	}

	this.inputName = argsMap["inputName"].(string)
	delete(argsMap, "inputName")
	this.outputName = argsMap["outputName"].(string)
	delete(argsMap, "outputName")
	this.verbosity = argsMap["verbose"].(uint)
	delete(argsMap, "verbose")
	this.jobs = checkJobs(argsMap["jobs"].(uint), this.verbosity)
	delete(argsMap, "jobs")

	if this.verbosity > 0 && len(argsMap) > 0 {
		for k := range argsMap {
			log.Println("Ignoring invalid option ["+k+"]", this.verbosity > 0)
		}
	}

	return this, nil
}

// AddListener adds an event listener to this decompressor.
// Returns true if the listener has been added.
func (this *ImageDecompressor) AddListener(bl llrice.Listener) bool {
	if bl == nil {
		return false
	}

	this.listeners = append(this.listeners, bl)
	return true
}

// RemoveListener removes an event listener from this decompressor.
// Returns true if the listener has been removed.
func (this *ImageDecompressor) RemoveListener(bl llrice.Listener) bool {
	for i, e := range this.listeners {
		if e == bl {
			this.listeners = append(this.listeners[:i], this.listeners[i+1:]...)
			return true
		}
	}

	return false
}

// Name of the image restored from a stream: the stream extension is
// removed (foo.png.llr => foo.png), otherwise a PNM extension is added.
func defaultImageName(streamName string) string {
	if strings.HasSuffix(streamName, STREAM_EXT) {
		name := strings.TrimSuffix(streamName, STREAM_EXT)

		if len(filepath.Ext(name)) > 0 {
			return name
		}

		return name + _DECOMP_DEFAULT_EXT
	}

	return streamName + _DECOMP_DEFAULT_EXT
}

// Decompress is the main function to decompress the stream or streams based
// on the input name provided at construction. Files are processed
// concurrently depending on the number of jobs provided at construction.
// Returns exit code, number of bytes read.
func (this *ImageDecompressor) Decompress() (int, uint64) {
	before := time.Now()
	files, err := createFileList(this.inputName, make([]FileData, 0, 16))

	if err != nil {
		fmt.Printf("Cannot access input '%v': %v\n", this.inputName, err)
		return llrice.ERR_OPEN_FILE, 0
	}

	// Only keep streams when processing a directory
	if len(files) > 1 {
		streams := files[:0]

		for _, f := range files {
			if strings.HasSuffix(f.Path, STREAM_EXT) {
				streams = append(streams, f)
			}
		}

		files = streams
	}

	if len(files) == 0 {
		fmt.Printf("Cannot open input file '%v'\n", this.inputName)
		return llrice.ERR_OPEN_FILE, 0
	}

	nbFiles := len(files)
	printFlag := this.verbosity > 1

	if nbFiles > 1 {
		log.Println(fmt.Sprintf("%d files to decompress\n", nbFiles), this.verbosity > 0)
	} else {
		log.Println(fmt.Sprintf("%d file to decompress\n", nbFiles), this.verbosity > 0)
	}

	log.Println(fmt.Sprintf("Verbosity set to %v", this.verbosity), printFlag)
	log.Println(fmt.Sprintf("Overwrite set to %t", this.overwrite), printFlag)
	log.Println(fmt.Sprintf("Using %d job(s)", this.jobs), printFlag)

	// Limit verbosity level when files are processed concurrently
	if this.jobs > 1 && nbFiles > 1 && this.verbosity > 1 {
		log.Println("Warning: limiting verbosity to 1 due to concurrent processing of input files.\n", true)
		this.verbosity = 1
	}

	if this.verbosity > 1 {
		if listener, err := NewInfoPrinter(this.verbosity, DECODING, os.Stdout); err == nil {
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
			oName = defaultImageName(f.Path)
		} else if inputIsDir == true && specialOutput == false {
			rel, _ := filepath.Rel(this.inputName, f.Path)
			oName = filepath.Join(this.outputName, defaultImageName(rel))
		}

		tasks[i] = &fileDecompressTask{
			inputName:  f.Path,
			outputName: oName,
			overwrite:  this.overwrite,
			verbosity:  this.verbosity,
			jobs:       jobsPerTask[i],
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
		log.Println(fmt.Sprintf("Total decoding time: %v", formatDuration(delta)), this.verbosity > 0)
		log.Println(fmt.Sprintf("Total output size: %d bytes", written), this.verbosity > 0)
	}

	return res, read
}

type fileDecompressTask struct {
	inputName  string
	outputName string
	overwrite  bool
	verbosity  uint
	jobs       uint
	listeners  []llrice.Listener
}

func (this *fileDecompressTask) call() (int, uint64, uint64) {
	printFlag := this.verbosity > 2
	log.Println("Input file name set to '"+this.inputName+"'", printFlag)
	log.Println("Output file name set to '"+this.outputName+"'", printFlag)
	before := time.Now()
	input, err := os.Open(this.inputName)

	if err != nil {
		fmt.Printf("Cannot open input file '%v': %v\n", this.inputName, err)
		return llrice.ERR_OPEN_FILE, 0, 0
	}

	defer input.Close()
	ctx := make(map[string]any)
	ctx["jobs"] = this.jobs
	r, err := lio.NewReaderWithCtx(input, ctx)

	if err != nil {
		fmt.Printf("Cannot create compressed stream: %v\n", err)
		return llrice.ERR_CREATE_DECOMPRESSOR, 0, 0
	}

	for _, bl := range this.listeners {
		r.AddListener(bl)
	}

	log.Println("\nDecoding "+this.inputName+" ...", this.verbosity > 1)

	if len(this.listeners) > 0 {
		evt := llrice.NewEvent(llrice.EVT_DECOMPRESSION_START, -1, 0, 0, llrice.EVT_HASH_NONE, time.Now())
		notifyListeners(this.listeners, evt)
	}

	hdr, planes, err := r.Read()

	if err != nil {
		fmt.Printf("%v\n", err)

		if ioerr, isIOErr := err.(*lio.IOError); isIOErr == true {
			return ioerr.ErrorCode(), r.GetRead(), 0
		}

		return llrice.ERR_PROCESS_BLOCK, r.GetRead(), 0
	}

	read := r.GetRead()
	img, err := imaging.FromResiduals(planes, int(hdr.Width), int(hdr.Height), int(hdr.Depth), hdr.HasFlag(lio.FLAG_RCT))

	if err != nil {
		fmt.Printf("Cannot rebuild image from '%v': %v\n", this.inputName, err)
		return llrice.ERR_INVALID_FILE, read, 0
	}

	output, code := createOutputFile(this.inputName, this.outputName, this.overwrite)

	if code != 0 {
		return code, read, 0
	}

	defer output.Close()

	if err = imaging.Encode(output, img, imaging.FormatFromName(this.outputName)); err != nil {
		fmt.Printf("Cannot write image '%v': %v\n", this.outputName, err)
		return llrice.ERR_WRITE_FILE, read, 0
	}

	if err = output.Close(); err != nil {
		fmt.Printf("Cannot close output file '%v': %v\n", this.outputName, err)
		return llrice.ERR_WRITE_FILE, read, 0
	}

	written := uint64(img.Size())
	delta := time.Since(before).Nanoseconds() / 1000000 // convert to ms
	log.Println("", this.verbosity > 1)
	log.Println(fmt.Sprintf("Decoding:          %v", formatDuration(delta)), this.verbosity > 1)
	log.Println(fmt.Sprintf("Input size:        %d", read), this.verbosity > 1)
	log.Println(fmt.Sprintf("Output size:       %d", written), this.verbosity > 1)
	log.Println(fmt.Sprintf("Decoding %v: %v => %v bytes in %v", this.inputName, read, written,
		formatDuration(delta)), this.verbosity == 1)

	if delta > 0 {
		log.Println(fmt.Sprintf("Throughput (KB/s): %d", ((int64(written*1000))>>10)/delta), this.verbosity > 1)
	}

	log.Println("", this.verbosity > 1)

	if len(this.listeners) > 0 {
		evt := llrice.NewEvent(llrice.EVT_DECOMPRESSION_END, -1, int64(written), 0, llrice.EVT_HASH_NONE, time.Now())
		notifyListeners(this.listeners, evt)
	}

	return 0, read, written
}
