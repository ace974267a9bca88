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
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

type withFallBack struct {
	name     string
	wraps    Manager
	fallback Manager
}

// NewFallbackToNullOnInitError creates a manager that becomes a Null manager
// on the first Init error. The devices it serves then classify as Unreadable
// instead of failing the pass.
func NewFallbackToNullOnInitError(name string, m Manager) Manager {
	return &withFallBack{
		name:     name,
		wraps:    m,
		fallback: NewNullManager(),
	}
}

// Init calls the Init function and if this does not succeed falls back to a Null manager.
func (m *withFallBack) Init() error {
	err := m.wraps.Init()
	if err != nil {
		klog.Warningf("Failed to initialize %v manager; its devices will be unreadable: %v", m.name, err)
		m.wraps = m.fallback
	}
	return nil
}

// Shutdown delegates to the wrapped manager
func (m *withFallBack) Shutdown() error {
	return m.wraps.Shutdown()
}

// ProbeRead delegates to the wrapped manager
func (m *withFallBack) ProbeRead(d *gpu.Device) error {
	return m.wraps.ProbeRead(d)
}

// ProbeWrite delegates to the wrapped manager
func (m *withFallBack) ProbeWrite(d *gpu.Device) error {
	return m.wraps.ProbeWrite(d)
}

// QueryStatic delegates to the wrapped manager
func (m *withFallBack) QueryStatic(d *gpu.Device) (gpu.Attributes, error) {
	return m.wraps.QueryStatic(d)
}

// QueryDynamic delegates to the wrapped manager
func (m *withFallBack) QueryDynamic(d *gpu.Device) (gpu.Attributes, error) {
	return m.wraps.QueryDynamic(d)
}

// QueryInfo delegates to the wrapped manager
func (m *withFallBack) QueryInfo(d *gpu.Device) (gpu.Attributes, error) {
	return m.wraps.QueryInfo(d)
}

// QueryState delegates to the wrapped manager
func (m *withFallBack) QueryState(d *gpu.Device) (gpu.Attributes, error) {
	return m.wraps.QueryState(d)
}

// QueryPStates delegates to the wrapped manager
func (m *withFallBack) QueryPStates(d *gpu.Device) (gpu.PStateTable, error) {
	return m.wraps.QueryPStates(d)
}

// QueryPPM delegates to the wrapped manager
func (m *withFallBack) QueryPPM(d *gpu.Device) (gpu.PPMTable, error) {
	return m.wraps.QueryPPM(d)
}
