// Copyright © 2022 Meroxa, Inc.
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

package builtin

import (
	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/processor"
)

const (
	insertFieldKeyName     = "insertfieldkey"
	insertFieldPayloadName = "insertfieldpayload"

	insertFieldConfigStaticField    = "static.field"
	insertFieldConfigStaticValue    = "static.value"
	insertFieldConfigTimestampField = "timestamp.field"
	insertFieldConfigPositionField  = "position.field"
)

func init() {
	processor.GlobalBuilderRegistry.MustRegister(insertFieldKeyName, InsertFieldKey)
	processor.GlobalBuilderRegistry.MustRegister(insertFieldPayloadName, InsertFieldPayload)
}

// InsertFieldKey builds a stage inserting the configured fields into the
// structured key of every record. Raw keys are not supported.
func InsertFieldKey(config processor.Config) (processor.Stage, error) {
	return insertField(insertFieldKeyName, recordKeyGetSetter{}, config)
}

// InsertFieldPayload builds a stage inserting the configured fields into the
// structured payload of every record. Raw payloads are not supported.
func InsertFieldPayload(config processor.Config) (processor.Stage, error) {
	return insertField(insertFieldPayloadName, recordPayloadGetSetter{}, config)
}

func insertField(
	transformName string,
	getSetter recordDataGetSetter,
	config processor.Config,
) (processor.Stage, error) {
	var (
		err error

		staticFieldName  string
		staticFieldValue string
		timestampField   string
		positionField    string
	)

	timestampField = config.Settings[insertFieldConfigTimestampField]
	positionField = config.Settings[insertFieldConfigPositionField]
	staticFieldName, ok := config.Settings[insertFieldConfigStaticField]
	if ok {
		if staticFieldValue, err = getConfigFieldString(config, insertFieldConfigStaticValue); err != nil {
			return nil, cerrors.Errorf("%s: %w", transformName, err)
		}
	}
	if staticFieldName == "" && timestampField == "" && positionField == "" {
		return nil, cerrors.Errorf("%s: no fields configured to be inserted", transformName)
	}

	return &recordFunc{
		stage: stage{name: config.Name},
		fn: func(r opencdc.Record) (opencdc.Record, error) {
			d, err := structuredData(transformName, getSetter.Get(r))
			if err != nil {
				return opencdc.Record{}, err
			}

			if staticFieldName != "" {
				d[staticFieldName] = staticFieldValue
			}
			if timestampField != "" {
				// records without a creation time get no timestamp field
				if createdAt, err := r.Metadata.GetCreatedAt(); err == nil {
					d[timestampField] = createdAt
				}
			}
			if positionField != "" {
				d[positionField] = r.Position
			}
			return getSetter.Set(r, d), nil
		},
	}, nil
}
