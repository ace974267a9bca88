/**
# Copyright (c) 2022, NVIDIA CORPORATION.  All rights reserved.
#
# Licensed under the Apache License, Version 2.0 (the "License");
# you may not use this file except in compliance with the License.
# You may obtain a copy of the License at
#
#     http://www.apache.org/licenses/LICENSE-2.0
#
# Unless required by applicable law or agreed to in writing, software
# distributed under the License is distributed on an "AS IS" BASIS,
# WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
# See the License for the specific language governing permissions and
# limitations under the License.
**/

package resource

import (
	"fmt"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

type null struct{}

var _ Manager = (*null)(nil)

// NewNullManager returns a manager for devices whose vendor interface is not
// available. Both probes fail so such devices classify as Unreadable, and
// every query is unsupported.
func NewNullManager() Manager {
	return &null{}
}

// Init is a no-op for the null manager
func (l *null) Init() error {
	return nil
}

// Shutdown is a no-op for the null manager
func (l *null) Shutdown() error {
	return nil
}

// ProbeRead always fails
func (l *null) ProbeRead(d *gpu.Device) error {
	return fmt.Errorf("%w: no query interface for %v", gpu.ErrDeviceProbeFailed, d.Vendor)
}

// ProbeWrite always fails
func (l *null) ProbeWrite(d *gpu.Device) error {
	return fmt.Errorf("%w: no query interface for %v", gpu.ErrDeviceProbeFailed, d.Vendor)
}

// QueryStatic is not supported
func (l *null) QueryStatic(*gpu.Device) (gpu.Attributes, error) {
	return nil, unsupported("static")
}

// QueryDynamic is not supported
func (l *null) QueryDynamic(*gpu.Device) (gpu.Attributes, error) {
	return nil, unsupported("dynamic")
}

// QueryInfo is not supported
func (l *null) QueryInfo(*gpu.Device) (gpu.Attributes, error) {
	return nil, unsupported("info")
}

// QueryState is not supported
func (l *null) QueryState(*gpu.Device) (gpu.Attributes, error) {
	return nil, unsupported("state")
}

// QueryPStates is not supported
func (l *null) QueryPStates(*gpu.Device) (gpu.PStateTable, error) {
	return nil, unsupported("pstates")
}

// QueryPPM is not supported
func (l *null) QueryPPM(*gpu.Device) (gpu.PPMTable, error) {
	return gpu.PPMTable{}, unsupported("ppm")
}
