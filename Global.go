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
	"github.com/pkg/errors"
)

// ComputeJobsPerTask distributes 'jobs' among 'tasks' (files or channels).
// Each task gets at least one job; the remainder goes to the first tasks.
// The result is stored in jobsPerTask (which must hold 'tasks' values).
func ComputeJobsPerTask(jobsPerTask []uint, jobs, tasks uint) ([]uint, error) {
	if tasks == 0 {
		return jobsPerTask, errors.New("Invalid number of tasks provided: 0")
	}

	if jobs == 0 {
		return jobsPerTask, errors.New("Invalid number of jobs provided: 0")
	}

	if uint(len(jobsPerTask)) < tasks {
		return jobsPerTask, errors.Errorf("Invalid jobs per task slice length: %d (must be at least %d)", len(jobsPerTask), tasks)
	}

	var q, r uint

	if jobs <= tasks {
		q = 1
		r = 0
	} else {
		q = jobs / tasks
		r = jobs - q*tasks
	}

	for i := uint(0); i < tasks; i++ {
		jobsPerTask[i] = q
	}

	n := uint(0)

	for r != 0 {
		jobsPerTask[n]++
		r--
		n++

		if n == tasks {
			n = 0
		}
	}

	return jobsPerTask, nil
}
