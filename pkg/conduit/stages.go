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

package conduit

import (
	"fmt"
	"strconv"

	"github.com/alexeyco/simpletable"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/spf13/cobra"
)

func newStagesCommand(registry func() *processor.BuilderRegistry) *cobra.Command {
	return &cobra.Command{
		Use:     "stages",
		Aliases: []string{"ls"},
		Short:   "List the stage types that can be used in a pipeline",
		Example: "conduit-flow stages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry()
			if reg == nil {
				return cerrors.New("no stage registry configured")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), stagesTable(reg.Types()))
			return err
		},
	}
}

func stagesTable(types []string) string {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "#"},
			{Align: simpletable.AlignCenter, Text: "TYPE"},
		},
	}
	for i, typ := range types {
		r := []*simpletable.Cell{
			{Align: simpletable.AlignRight, Text: strconv.Itoa(i + 1)},
			{Align: simpletable.AlignLeft, Text: typ},
		}
		table.Body.Cells = append(table.Body.Cells, r)
	}
	table.SetStyle(simpletable.StyleCompact)
	return table.String()
}
