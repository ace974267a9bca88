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

import (
	"fmt"
	"strings"
)

// SensorSet names a bundle of related device attributes read together.
type SensorSet string

// Constants representing the sensor sets
const (
	// Static attributes are fixed at boot: model, memory size, bus path.
	Static SensorSet = "static"
	// Dynamic attributes change continuously: temperature, utilization, power draw.
	Dynamic SensorSet = "dynamic"
	// Info attributes are descriptive driver metadata.
	Info SensorSet = "info"
	// State attributes are discrete current modes: power state, fan mode.
	State SensorSet = "state"
	// All is the union of the other sets.
	All SensorSet = "all"
)

// BaseSets are the sets All expands to, in read order.
var BaseSets = []SensorSet{Static, Dynamic, Info, State}

// Expand returns the base sets covered by s.
func (s SensorSet) Expand() []SensorSet {
	if s == All {
		return BaseSets
	}
	return []SensorSet{s}
}

// ParseSensorSet converts a user supplied name to a SensorSet.
func ParseSensorSet(name string) (SensorSet, error) {
	s := SensorSet(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case Static, Dynamic, Info, State, All:
		return s, nil
	}
	return "", fmt.Errorf("unknown sensor set %q", name)
}
