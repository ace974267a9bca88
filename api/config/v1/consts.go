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

import "time"

// Defaults for flags that are not plain literals.
const (
	DefaultSensors         = "static"
	DefaultFormat          = "compact"
	DefaultSysfsRoot       = "/sys"
	DefaultPlatformCommand = "clinfo"
	DefaultProbeTimeout    = 5 * time.Second
	DefaultMonitorInterval = 2 * time.Second
)

// Command line flag names - Common flags
const (
	FlagConfigFile      = "config-file"
	FlagSysfsRoot       = "sysfs-root"
	FlagPCIIDs          = "pci-ids"
	FlagProbeTimeout    = "probe-timeout"
	FlagFailOnInitError = "fail-on-init-error"
	FlagPlatformCommand = "platform-command"
)

// Command line flag names - Output flags
const (
	FlagSensors    = "sensors"
	FlagShort      = "short"
	FlagFormat     = "format"
	FlagPStates    = "pstates"
	FlagPPM        = "ppm"
	FlagClinfo     = "clinfo"
	FlagOutputFile = "output-file"
)

// Command line flag names - Monitor specific flags
const (
	FlagInterval       = "interval"
	FlagCount          = "count"
	FlagMetricsAddress = "metrics-address"
)
