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

package bitstream

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	SYNC_RING_OVERFLOW     = 1 // reservation ring is full
	SYNC_RING_EMPTY        = 2 // no reserved page left to take
	SYNC_READ_PAST_END     = 3 // read cursor would pass the write cursor
	SYNC_RESERVE_TOO_LARGE = 4 // reservation larger than the window can hold
	SYNC_BAD_HANDLE        = 5 // page handle outside of the store
	SYNC_UNRESERVED        = 6 // access beyond the reserved bits
	SYNC_VALUE_TOO_WIDE    = 7 // value does not fit in the declared bit count
)

// SyncError is raised (as a panic value) when the producer and the consumer
// of a paged bitstream disagree. The remainder of the stream is unusable.
type SyncError struct {
	kind int
	op   string
	msg  string
}

// NewSyncError creates a SyncError of the provided kind for operation 'op'
func NewSyncError(kind int, op, format string, args ...any) *SyncError {
	return &SyncError{kind: kind, op: op, msg: fmt.Sprintf(format, args...)}
}

// Error returns the error message
func (this *SyncError) Error() string {
	return fmt.Sprintf("%s: %s (sync error)", this.op, this.msg)
}

// Kind returns one of the SYNC_XXX values
func (this *SyncError) Kind() int {
	return this.kind
}

// Op returns the name of the failing operation
func (this *SyncError) Op() string {
	return this.op
}

// IsSyncError returns true if the cause of err is a SyncError
func IsSyncError(err error) bool {
	_, ok := errors.Cause(err).(*SyncError)
	return ok
}

// RecoverSyncError converts a SyncError panic into an error stored in *err.
// It must be deferred. Panics carrying any other value are propagated.
func RecoverSyncError(err *error) {
	if r := recover(); r != nil {
		se, ok := r.(*SyncError)

		if ok == false {
			panic(r)
		}

		*err = errors.WithStack(se)
	}
}
