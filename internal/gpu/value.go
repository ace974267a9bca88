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
	"strconv"
)

// Value is a typed attribute value with an optional unit.
type Value struct {
	Raw  interface{} `json:"value"`
	Unit string      `json:"unit,omitempty"`
}

// Int returns an integer valued attribute.
func Int(v int64, unit string) Value {
	return Value{Raw: v, Unit: unit}
}

// Float returns a floating point valued attribute.
func Float(v float64, unit string) Value {
	return Value{Raw: v, Unit: unit}
}

// String returns a string valued attribute.
func String(v string) Value {
	return Value{Raw: v}
}

// Bool returns a boolean valued attribute.
func Bool(v bool) Value {
	return Value{Raw: v}
}

// Number returns the value as a float64 if it is numeric.
func (v Value) Number() (float64, bool) {
	switch n := v.Raw.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (v Value) String() string {
	var s string
	switch r := v.Raw.(type) {
	case float64:
		s = strconv.FormatFloat(r, 'f', -1, 64)
	case nil:
		return ""
	default:
		s = fmt.Sprint(r)
	}
	if v.Unit != "" {
		return s + " " + v.Unit
	}
	return s
}

// Attributes maps attribute names to values.
type Attributes map[string]Value
