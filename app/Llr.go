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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	llrice "github.com/llrice/llrice-go"
)

const (
	//ARG_IDX_COMPRESS   = 0
	//ARG_IDX_DECOMPRESS = 1
	ARG_IDX_INPUT   = 2
	ARG_IDX_OUTPUT  = 3
	ARG_IDX_ENTROPY = 4
	ARG_IDX_MODEL   = 5
	ARG_IDX_JOBS    = 6
	ARG_IDX_VERBOSE = 7
	ARG_IDX_RING    = 8
	APP_HEADER      = "Llr 1.0 (C) 2026, lossless image compressor"
	STREAM_EXT      = ".llr"
)

var (
	CMD_LINE_ARGS = []string{
		"-c", "-d", "-i", "-o", "-e", "-m", "-j", "-v", "-r", "-x", "-f", "-h",
	}
	mutex sync.Mutex
	log   = Printer{os: bufio.NewWriter(os.Stdout)}
)

func main() {
	argsMap := make(map[string]any)

	if code := processCommandLine(os.Args, argsMap); code != 0 {
		os.Exit(exitStatus(code))
	}

	mode := argsMap["mode"].(string)
	delete(argsMap, "mode")
	status := llrice.EXIT_FAILURE

	if mode == "c" {
		status = exitStatus(compress(argsMap))
	} else if mode == "d" {
		status = exitStatus(decompress(argsMap))
	} else if mode == "h" {
		status = llrice.EXIT_SUCCESS
	} else {
		println("Missing arguments: try --help or -h")
	}

	os.Exit(status)
}

// Collapse the error codes into the process status
func exitStatus(code int) int {
	switch code {
	case 0:
		return llrice.EXIT_SUCCESS
	case llrice.ERR_UNKNOWN:
		return llrice.EXIT_UNEXPECTED
	default:
		return llrice.EXIT_FAILURE
	}
}

func compress(argsMap map[string]any) (code int) {
	runtime.GOMAXPROCS(runtime.NumCPU())

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("An unexpected error occurred during compression: %v\n", r)
			code = llrice.ERR_UNKNOWN
		}
	}()

	ic, err := NewImageCompressor(argsMap)

	if err != nil {
		fmt.Printf("Failed to create image compressor: %v\n", err)
		return llrice.ERR_CREATE_COMPRESSOR
	}

	code, _ = ic.Compress()
	return code
}

func decompress(argsMap map[string]any) (code int) {
	runtime.GOMAXPROCS(runtime.NumCPU())

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("An unexpected error occurred during decompression: %v\n", r)
			code = llrice.ERR_UNKNOWN
		}
	}()

	id, err := NewImageDecompressor(argsMap)

	if err != nil {
		fmt.Printf("Failed to create image decompressor: %v\n", err)
		return llrice.ERR_CREATE_DECOMPRESSOR
	}

	code, _ = id.Decompress()
	return code
}

func printHelp(mode string) {
	log.Println("", true)
	log.Println("   -h, --help", true)
	log.Println("        display this message\n", true)
	log.Println("   -v, --verbose=<level>", true)
	log.Println("        set the verbosity level [0..4]", true)
	log.Println("        0=silent, 1=default, 2=display configuration and header,", true)
	log.Println("        3=display channel sizes and timings, 4=display all events\n", true)
	log.Println("   -f, --force", true)
	log.Println("        overwrite the output file if it already exists\n", true)
	log.Println("   -i, --input=<inputName>", true)
	log.Println("        mandatory name of the input file or directory", true)
	log.Println("        When the source is a directory, all files in it will be processed.\n", true)
	log.Println("   -o, --output=<outputName>", true)

	if mode == "c" {
		log.Println("        optional name of the output file or directory (defaults to", true)
		log.Println("        <inputName"+STREAM_EXT+">) or 'none'.\n", true)
	} else if mode == "d" {
		log.Println("        optional name of the output file or directory (defaults to", true)
		log.Println("        <inputName.pnm>) or 'none'. The image format is given by the", true)
		log.Println("        extension: png, bmp, tif, pgm, ppm or pnm.\n", true)
	} else {
		log.Println("        optional name of the output file or 'none'.\n", true)
	}

	if mode != "d" {
		log.Println("   -e, --entropy=<codec>", true)
		log.Println("        entropy codec [RLGR|RICE|RLE|NONE] (default is RLGR)\n", true)
		log.Println("   -m, --model=<model>", true)
		log.Println("        Rice parameter model for RLGR [NONE|CM] (default is NONE)\n", true)
		log.Println("   -r, --ring=<pages>", true)
		log.Println("        size of the reservation ring in pages [4..32] (default is 4)\n", true)
		log.Println("   -x, --checksum", true)
		log.Println("        enable channel checksum\n", true)
		log.Println("   --no-rct", true)
		log.Println("        disable the reversible colour transform\n", true)
	}

	log.Println("   -j, --jobs=<jobs>", true)
	log.Println("        maximum number of jobs the program may start concurrently", true)
	log.Println("        (default is 1, maximum is 64).\n", true)
	log.Println("", true)

	if mode != "d" {
		log.Println("EG. llr -c -i foo.png -o none -e RLGR -m CM -v 3\n", true)
		log.Println("EG. llr --compress --input=foo.ppm --output=foo.llr --force --checksum --jobs=3\n", true)
	}

	if mode != "c" {
		log.Println("EG. llr -d -i foo.llr -o foo.png -f -v 2\n", true)
		log.Println("EG. llr --decompress --input=foo.llr --force --verbose=2 --jobs=2\n", true)
	}
}

// Returns an error code or 0. The argsMap is filled with the options.
func processCommandLine(args []string, argsMap map[string]any) int {
	verbose := 1
	overwrite := false
	checksum := false
	rct := true
	inputName := ""
	outputName := ""
	codec := ""
	model := ""
	tasks := 0
	ringSize := 0
	ctx := -1
	mode := " "

	for i, arg := range args {
		if i == 0 {
			continue
		}

		arg = strings.TrimSpace(arg)

		if arg == "-o" {
			ctx = ARG_IDX_OUTPUT
			continue
		}

		if arg == "-v" {
			ctx = ARG_IDX_VERBOSE
			continue
		}

		// Extract verbosity, output and mode first
		if arg == "--compress" || arg == "-c" {
			if mode == "d" {
				fmt.Println("Both compression and decompression options were provided.")
				return llrice.ERR_INVALID_PARAM
			}

			mode = "c"
			continue
		}

		if arg == "--decompress" || arg == "-d" {
			if mode == "c" {
				fmt.Println("Both compression and decompression options were provided.")
				return llrice.ERR_INVALID_PARAM
			}

			mode = "d"
			continue
		}

		if strings.HasPrefix(arg, "--verbose=") || ctx == ARG_IDX_VERBOSE {
			var err error
			verboseLevel := strings.TrimSpace(strings.TrimPrefix(arg, "--verbose="))

			if verbose, err = strconv.Atoi(verboseLevel); err != nil || verbose < 0 || verbose > 4 {
				fmt.Printf("Invalid verbosity level provided on command line: %v\n", arg)
				return llrice.ERR_INVALID_PARAM
			}
		} else if strings.HasPrefix(arg, "--output=") || ctx == ARG_IDX_OUTPUT {
			outputName = strings.TrimSpace(strings.TrimPrefix(arg, "--output="))
		}

		ctx = -1
	}

	if verbose >= 1 {
		log.Println("\n"+APP_HEADER+"\n", true)
	}

	ctx = -1

	for i, arg := range args {
		if i == 0 {
			continue
		}

		arg = strings.TrimSpace(arg)

		if arg == "--help" || arg == "-h" {
			printHelp(mode)
			argsMap["mode"] = "h"
			return 0
		}

		if arg == "--compress" || arg == "-c" || arg == "--decompress" || arg == "-d" {
			if ctx != -1 {
				log.Println("Warning: ignoring option ["+CMD_LINE_ARGS[ctx]+"] with no value.", verbose > 0)
			}

			ctx = -1
			continue
		}

		if arg == "--force" || arg == "-f" {
			if ctx != -1 {
				log.Println("Warning: ignoring option ["+CMD_LINE_ARGS[ctx]+"] with no value.", verbose > 0)
			}

			overwrite = true
			ctx = -1
			continue
		}

		if arg == "--checksum" || arg == "-x" {
			if ctx != -1 {
				log.Println("Warning: ignoring option ["+CMD_LINE_ARGS[ctx]+"] with no value.", verbose > 0)
			}

			checksum = true
			ctx = -1
			continue
		}

		if arg == "--no-rct" {
			rct = false
			ctx = -1
			continue
		}

		if ctx == -1 {
			idx := -1

			for i, v := range CMD_LINE_ARGS {
				if arg == v {
					idx = i
					break
				}
			}

			if idx != -1 {
				ctx = idx
				continue
			}
		}

		if strings.HasPrefix(arg, "--input=") || ctx == ARG_IDX_INPUT {
			inputName = strings.TrimPrefix(arg, "--input=")
			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--entropy=") || ctx == ARG_IDX_ENTROPY {
			codec = strings.ToUpper(strings.TrimPrefix(arg, "--entropy="))
			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--model=") || ctx == ARG_IDX_MODEL {
			model = strings.ToUpper(strings.TrimPrefix(arg, "--model="))
			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--ring=") || ctx == ARG_IDX_RING {
			var err error
			str := strings.TrimPrefix(arg, "--ring=")

			if ringSize, err = strconv.Atoi(str); err != nil || ringSize < 4 || ringSize > 32 {
				fmt.Printf("Invalid ring size provided on command line: %v\n", str)
				return llrice.ERR_INVALID_PARAM
			}

			ctx = -1
			continue
		}

		if strings.HasPrefix(arg, "--jobs=") || ctx == ARG_IDX_JOBS {
			var err error
			str := strings.TrimPrefix(arg, "--jobs=")

			if tasks, err = strconv.Atoi(str); err != nil || tasks < 1 {
				fmt.Printf("Invalid number of jobs provided on command line: %v\n", str)
				return llrice.ERR_INVALID_PARAM
			}

			ctx = -1
			continue
		}

		if !strings.HasPrefix(arg, "--verbose=") && !strings.HasPrefix(arg, "--output=") && ctx == -1 {
			log.Println("Warning: ignoring unknown option ["+arg+"]", verbose > 0)
		}

		ctx = -1
	}

	if inputName == "" {
		fmt.Printf("Missing input file name, exiting ...\n")
		return llrice.ERR_MISSING_PARAM
	}

	if ctx != -1 {
		log.Println("Warning: ignoring option with missing value ["+CMD_LINE_ARGS[ctx]+"]", verbose > 0)
	}

	argsMap["verbose"] = uint(verbose)
	argsMap["mode"] = mode
	argsMap["inputName"] = inputName
	argsMap["outputName"] = outputName
	argsMap["jobs"] = uint(tasks)

	if overwrite == true {
		argsMap["overwrite"] = overwrite
	}

	if mode == "c" {
		if len(codec) > 0 {
			argsMap["entropy"] = codec
		}

		if len(model) > 0 {
			argsMap["paramModel"] = model
		}

		if ringSize > 0 {
			argsMap["ringSize"] = uint(ringSize)
		}

		if checksum == true {
			argsMap["checksum"] = checksum
		}

		argsMap["transform"] = rct
	}

	return 0
}

// FileData a basic structure encapsulating a file path and size
type FileData struct {
	Path string
	Size int64
}

func createFileList(target string, fileList []FileData) ([]FileData, error) {
	fi, err := os.Stat(target)

	if err != nil {
		return fileList, err
	}

	if fi.Mode().IsRegular() {
		if fi.Name()[0] != '.' {
			fileList = append(fileList, FileData{Path: target, Size: fi.Size()})
		}

		return fileList, nil
	}

	err = filepath.Walk(target, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if fi.Mode().IsRegular() && fi.Name()[0] != '.' {
			fileList = append(fileList, FileData{Path: path, Size: fi.Size()})
		}

		return err
	})

	sort.Slice(fileList, func(i, j int) bool {
		return strings.Compare(fileList[i].Path, fileList[j].Path) < 0
	})

	return fileList, err
}

// Printer a buffered printer (required in concurrent code)
type Printer struct {
	os *bufio.Writer
}

// Println concurrently safe version of Println
func (this *Printer) Println(msg string, print bool) {
	if print == true {
		mutex.Lock()

		// Best effort, ignore error
		if w, _ := this.os.Write([]byte(msg + "\n")); w > 0 {
			_ = this.os.Flush()
		}

		mutex.Unlock()
	}
}
