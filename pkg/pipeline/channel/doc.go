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

/*
Package channel provides the bounded point-to-point channels that connect the
nodes of a pipeline.

Channels come in two modes. A Local channel has a single-owner sender that is
meant to be used from one goroutine only, it can not be cloned and closing it
needs no synchronization. A Shared channel has a sender that can be cloned and
handed to any number of goroutines; the channel is closed once the last clone
is closed, and its receiver can be closed to make pending and future sends
fail. Both modes expose the same Send/TrySend/Recv/TryRecv surface, so code
that wires and drives nodes is written once and instantiated per mode.

Each endpoint exists in a raw form and in a form with metrics attached. Wire
takes care of instrumenting a freshly created channel exactly once: endpoints
that already carry metrics are returned unchanged.
*/
package channel
