/*
 * Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package v1

import (
	"encoding/json"
	"fmt"
	"time"
)

// durationNone is how a disabled duration is written.
const durationNone = "none"

// Duration wraps a time.Duration with custom JSON marshaling/unmarshaling.
// The zero value means no limit and is written as "none".
type Duration time.Duration

// IsNone returns true if the duration disables the limit it configures.
func (d *Duration) IsNone() bool {
	return d != nil && *d == 0
}

// String returns a human-readable representation of the duration.
func (d Duration) String() string {
	if d.IsNone() {
		return durationNone
	}
	return time.Duration(d).String()
}

// MarshalJSON marshals 'Duration' to its raw bytes representation
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON unmarshals raw bytes into a 'Duration' type.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		return d.parse(value)
	default:
		return fmt.Errorf("invalid duration")
	}
}

// parse parses a duration string, handling the special "none" value.
func (d *Duration) parse(value string) error {
	if value == durationNone {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %v", value)
	}
	*d = Duration(parsed)
	return nil
}

// DurationValue implements cli.Generic for parsing duration flags with "none" support
type DurationValue struct {
	Value *Duration
}

// NewDurationValue creates a new DurationValue with the given default duration
func NewDurationValue(d time.Duration) *DurationValue {
	duration := Duration(d)
	return &DurationValue{Value: &duration}
}

// Set implements cli.Generic
func (d *DurationValue) Set(value string) error {
	return d.Value.parse(value)
}

// String implements cli.Generic
func (d *DurationValue) String() string {
	if d.Value == nil {
		return ""
	}
	return d.Value.String()
}
