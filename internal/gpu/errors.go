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

import "errors"

var (
	// ErrNoGpuSubsystem is reported when the host has no enumerable GPU devices.
	ErrNoGpuSubsystem = errors.New("no GPU subsystem found")
	// ErrDeviceProbeFailed marks a read or write probe that did not succeed.
	ErrDeviceProbeFailed = errors.New("device probe failed")
	// ErrSensorSetUnsupported is returned by a vendor backend for queries it cannot answer.
	ErrSensorSetUnsupported = errors.New("sensor set unsupported")
	// ErrPlatformUnavailable is reported when no compute platform can be queried.
	ErrPlatformUnavailable = errors.New("compute platform unavailable")
)
