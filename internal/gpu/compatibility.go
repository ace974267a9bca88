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
	"encoding/json"
)

// Compatibility is the read/write capability level of a device as determined
// by live probing.
type Compatibility int

// The zero value is Unreadable so that freshly enumerated devices are never
// treated as readable before they are classified.
const (
	Unreadable Compatibility = iota
	ReadOnly
	WriteOnly
	ReadWrite
)

// CompatibilityFromProbes maps the outcome of a read and a write probe to a
// compatibility class.
func CompatibilityFromProbes(readOK, writeOK bool) Compatibility {
	switch {
	case readOK && writeOK:
		return ReadWrite
	case readOK:
		return ReadOnly
	case writeOK:
		return WriteOnly
	}
	return Unreadable
}

// Readable returns true if the read probe succeeded.
func (c Compatibility) Readable() bool {
	return c == ReadWrite || c == ReadOnly
}

// Writable returns true if the write probe succeeded.
func (c Compatibility) Writable() bool {
	return c == ReadWrite || c == WriteOnly
}

func (c Compatibility) String() string {
	switch c {
	case ReadWrite:
		return "Readable+Writable"
	case ReadOnly:
		return "Readable"
	case WriteOnly:
		return "Writable"
	case Unreadable:
		return "Unreadable"
	}
	return "Invalid"
}

// MarshalJSON renders the compatibility by name.
func (c Compatibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}
