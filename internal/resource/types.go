/**
# Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

// Manager defines the capability set a vendor backend implements. Queries
// that the backend cannot answer return gpu.ErrSensorSetUnsupported.
//
//go:generate moq -rm -fmt=goimports -stub -out manager_mock.go . Manager
type Manager interface {
	Init() error
	Shutdown() error
	ProbeRead(*gpu.Device) error
	ProbeWrite(*gpu.Device) error
	QueryStatic(*gpu.Device) (gpu.Attributes, error)
	QueryDynamic(*gpu.Device) (gpu.Attributes, error)
	QueryInfo(*gpu.Device) (gpu.Attributes, error)
	QueryState(*gpu.Device) (gpu.Attributes, error)
	QueryPStates(*gpu.Device) (gpu.PStateTable, error)
	QueryPPM(*gpu.Device) (gpu.PPMTable, error)
}

// Query dispatches a base sensor set to the matching query of the manager.
func Query(m Manager, d *gpu.Device, set gpu.SensorSet) (gpu.Attributes, error) {
	switch set {
	case gpu.Static:
		return m.QueryStatic(d)
	case gpu.Dynamic:
		return m.QueryDynamic(d)
	case gpu.Info:
		return m.QueryInfo(d)
	case gpu.State:
		return m.QueryState(d)
	}
	return nil, fmt.Errorf("%w: %v is not a base set", gpu.ErrSensorSetUnsupported, set)
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %v", gpu.ErrSensorSetUnsupported, what)
}
