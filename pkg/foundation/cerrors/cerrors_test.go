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

package cerrors_test

import (
	"testing"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/matryer/is"
)

func TestLogOrReplace(t *testing.T) {
	errA := cerrors.New("a")
	errB := cerrors.New("b")

	testCases := []struct {
		name       string
		err        error
		newErr     error
		want       error
		wantLogged bool
	}{
		{name: "both nil", err: nil, newErr: nil, want: nil},
		{name: "only old", err: errA, newErr: nil, want: errA},
		{name: "only new", err: nil, newErr: errB, want: errB},
		{name: "both set", err: errA, newErr: errB, want: errA, wantLogged: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			logged := false
			got := cerrors.LogOrReplace(tc.err, tc.newErr, func() { logged = true })
			is.Equal(got, tc.want)
			is.Equal(logged, tc.wantLogged)
		})
	}
}

func TestGetStackTrace(t *testing.T) {
	is := is.New(t)

	err := cerrors.Errorf("outer: %w", cerrors.New("inner"))
	frames, ok := cerrors.GetStackTrace(err).([]cerrors.Frame)
	is.True(ok)
	is.Equal(len(frames), 2)
	for _, f := range frames {
		is.Equal(f.Func, "github.com/conduitio/conduit-flow/pkg/foundation/cerrors_test.TestGetStackTrace")
	}

	is.Equal(cerrors.GetStackTrace(nil), []cerrors.Frame(nil))
}

func TestFatalError(t *testing.T) {
	is := is.New(t)

	inner := cerrors.New("boom")
	err := cerrors.Errorf("wrapped: %w", cerrors.NewFatalError(inner))

	is.True(cerrors.IsFatalError(err))
	is.True(cerrors.Is(err, inner))
	is.True(!cerrors.IsFatalError(inner))
	is.Equal(cerrors.NewFatalError(inner).Error(), "boom")
}
