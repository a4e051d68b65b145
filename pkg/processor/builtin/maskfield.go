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
	"reflect"
	"strconv"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/processor"
)

const (
	maskFieldKeyName     = "maskfieldkey"
	maskFieldPayloadName = "maskfieldpayload"

	maskFieldConfigField       = "field"
	maskFieldConfigReplacement = "replacement"
)

func init() {
	processor.GlobalBuilderRegistry.MustRegister(maskFieldKeyName, MaskFieldKey)
	processor.GlobalBuilderRegistry.MustRegister(maskFieldPayloadName, MaskFieldPayload)
}

// MaskFieldKey builds a stage masking a field of the structured key. String
// fields are replaced with the replacement, numeric fields with the
// replacement parsed as a number, other fields with their zero value.
func MaskFieldKey(config processor.Config) (processor.Stage, error) {
	return maskField(maskFieldKeyName, recordKeyGetSetter{}, config)
}

// MaskFieldPayload builds a stage masking a field of the structured
// payload, see MaskFieldKey.
func MaskFieldPayload(config processor.Config) (processor.Stage, error) {
	return maskField(maskFieldPayloadName, recordPayloadGetSetter{}, config)
}

func maskField(
	transformName string,
	getSetter recordDataGetSetter,
	config processor.Config,
) (processor.Stage, error) {
	fieldName, err := getConfigFieldString(config, maskFieldConfigField)
	if err != nil {
		return nil, cerrors.Errorf("%s: %w", transformName, err)
	}
	replacement := config.Settings[maskFieldConfigReplacement]

	return &recordFunc{
		stage: stage{name: config.Name},
		fn: func(r opencdc.Record) (opencdc.Record, error) {
			d, err := structuredData(transformName, getSetter.Get(r))
			if err != nil {
				return opencdc.Record{}, err
			}

			v, ok := d[fieldName]
			if !ok {
				return r, nil
			}
			switch v.(type) {
			case nil:
				// nothing to mask
			case string:
				d[fieldName] = replacement
			case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64: // any numeric type
				// ignore error, i is going to be zero if it fails anyway
				i, _ := strconv.Atoi(replacement)
				d[fieldName] = i
			default:
				d[fieldName] = reflect.New(reflect.TypeOf(v)).Elem().Interface()
			}
			return getSetter.Set(r, d), nil
		},
	}, nil
}
