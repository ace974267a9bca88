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

package gpu

import "strconv"

// PState is one performance state row as reported by the vendor interface.
type PState struct {
	// Domain is the clock domain the state belongs to, e.g. SCLK or MCLK.
	Domain string `json:"domain"`
	Index  int    `json:"index"`
	// Label is the level name reported by the driver when it is not a
	// number, e.g. S for the deep sleep level. Index is -1 for such rows.
	Label     string `json:"label,omitempty"`
	ClockMHz  int    `json:"clockMHz"`
	VoltageMV int    `json:"voltageMV,omitempty"`
	Current   bool   `json:"current,omitempty"`
}

// Level returns the level name as the driver reports it.
func (p PState) Level() string {
	if p.Label != "" {
		return p.Label
	}
	return strconv.Itoa(p.Index)
}

// PStateTable is an ordered sequence of performance states.
type PStateTable []PState

// PPMode is one power/performance mode profile.
type PPMode struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Current bool     `json:"current,omitempty"`
	Params  []string `json:"params,omitempty"`
}

// PPMTable is an ordered sequence of power/performance modes.
type PPMTable struct {
	Header []string `json:"header,omitempty"`
	Modes  []PPMode `json:"modes"`
}

// Len returns the number of modes in the table.
func (t PPMTable) Len() int {
	return len(t.Modes)
}

// EmptyPPMTable returns a table with no modes.
func EmptyPPMTable() PPMTable {
	return PPMTable{Modes: []PPMode{}}
}

// PlatformInfo holds compute platform details attached to a matching device.
type PlatformInfo struct {
	PlatformName    string            `json:"platformName"`
	PlatformVersion string            `json:"platformVersion,omitempty"`
	DeviceName      string            `json:"deviceName"`
	DeviceVersion   string            `json:"deviceVersion,omitempty"`
	DriverVersion   string            `json:"driverVersion,omitempty"`
	OpenCLCVersion  string            `json:"openCLCVersion,omitempty"`
	ComputeUnits    int               `json:"computeUnits,omitempty"`
	MaxWorkGroup    int               `json:"maxWorkGroupSize,omitempty"`
	GlobalMemory    uint64            `json:"globalMemoryBytes,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
}
