// Copyright © 2025 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cerrors

// FatalError marks an error that must not be retried by a supervisor.
type FatalError struct {
	Err error
}

// NewFatalError creates a new FatalError.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// Unwrap returns the wrapped error.
func (f *FatalError) Unwrap() error {
	return f.Err
}

// Error returns the error message.
func (f *FatalError) Error() string {
	return f.Err.Error()
}

// IsFatalError checks if the error is or wraps a FatalError.
func IsFatalError(err error) bool {
	var fe *FatalError
	return As(err, &fe)
}
