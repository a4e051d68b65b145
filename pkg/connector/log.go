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

package connector

import (
	"context"
	"sync/atomic"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/record"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Log is an exporter writing every record to the log as JSON.
type Log struct {
	name   string
	level  zerolog.Level
	logger log.CtxLogger

	exported atomic.Int64
}

func NewLog(name string, level zerolog.Level, logger log.CtxLogger) *Log {
	logger = logger.WithComponent("connector.Log")
	logger.Logger = logger.With().Str(log.DestinationField, name).Logger()
	return &Log{
		name:   name,
		level:  level,
		logger: logger,
	}
}

func (l *Log) Name() string { return l.name }

// Exported returns the number of records written so far.
func (l *Log) Exported() int64 {
	return l.exported.Load()
}

func (l *Log) Export(ctx context.Context, b record.Batch) error {
	for _, r := range b.Records {
		raw, err := json.Marshal(r)
		if err != nil {
			return cerrors.Errorf("failed to encode record %s: %w", r.Position, err)
		}
		l.logger.WithLevel(ctx, l.level).
			RawJSON("record", raw).
			Msg("record exported")
	}
	l.exported.Add(int64(b.Len()))
	return nil
}
