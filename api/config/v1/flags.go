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
	"fmt"
	"time"

	cli "github.com/urfave/cli/v2"
)

// prt returns a reference to whatever type is passed into it
func ptr[T any](x T) *T {
	return &x
}

// updateFromCLIFlag conditionally updates the config flag at 'pflag' to the value of the CLI flag with name 'flagName'
func updateFromCLIFlag[T any](pflag **T, c *cli.Context, flagName string) {
	if c.IsSet(flagName) || *pflag == (*T)(nil) {
		switch flag := any(pflag).(type) {
		case **string:
			*flag = ptr(c.String(flagName))
		case **bool:
			*flag = ptr(c.Bool(flagName))
		case **int:
			*flag = ptr(c.Int(flagName))
		case **Duration:
			*flag = ptr(durationFromCLI(c, flagName))
		default:
			panic(fmt.Errorf("unsupported flag type for %v: %T", flagName, flag))
		}
	}
}

// durationFromCLI reads a flag declared either as a DurationValue generic
// flag or as a plain duration flag.
func durationFromCLI(c *cli.Context, flagName string) Duration {
	if v, ok := c.Generic(flagName).(*DurationValue); ok && v.Value != nil {
		return *v.Value
	}
	return Duration(c.Duration(flagName))
}

// Flags holds the full list of flags used to configure gpu-ls.
type Flags struct {
	CommandLineFlags
}

// CommandLineFlags holds the list of command line flags used to configure gpu-ls.
type CommandLineFlags struct {
	SysfsRoot       *string                  `json:"sysfsRoot,omitempty"       yaml:"sysfsRoot,omitempty"`
	PCIIDs          *string                  `json:"pciIDs,omitempty"          yaml:"pciIDs,omitempty"`
	ProbeTimeout    *Duration                `json:"probeTimeout,omitempty"    yaml:"probeTimeout,omitempty"`
	FailOnInitError *bool                    `json:"failOnInitError,omitempty" yaml:"failOnInitError,omitempty"`
	PlatformCommand *string                  `json:"platformCommand,omitempty" yaml:"platformCommand,omitempty"`
	Output          *OutputCommandLineFlags  `json:"output,omitempty"          yaml:"output,omitempty"`
	Monitor         *MonitorCommandLineFlags `json:"monitor,omitempty"         yaml:"monitor,omitempty"`
}

// OutputCommandLineFlags holds the flags that select what is read and how it is rendered.
type OutputCommandLineFlags struct {
	Sensors    *string `json:"sensors"    yaml:"sensors"`
	Short      *bool   `json:"short"      yaml:"short"`
	Format     *string `json:"format"     yaml:"format"`
	PStates    *bool   `json:"pstates"    yaml:"pstates"`
	PPM        *bool   `json:"ppm"        yaml:"ppm"`
	Clinfo     *bool   `json:"clinfo"     yaml:"clinfo"`
	OutputFile *string `json:"outputFile" yaml:"outputFile"`
}

// MonitorCommandLineFlags holds the list of command line flags specific to the monitor command.
type MonitorCommandLineFlags struct {
	Interval       *Duration `json:"interval"       yaml:"interval"`
	Count          *int      `json:"count"          yaml:"count"`
	MetricsAddress *string   `json:"metricsAddress" yaml:"metricsAddress"`
}

// UpdateFromCLIFlags updates Flags from settings in the cli Flags if they are set.
func (f *Flags) UpdateFromCLIFlags(c *cli.Context, flags []cli.Flag) {
	for _, flag := range flags {
		for _, n := range flag.Names() {
			// Common flags
			switch n {
			case FlagSysfsRoot:
				updateFromCLIFlag(&f.SysfsRoot, c, n)
			case FlagPCIIDs:
				updateFromCLIFlag(&f.PCIIDs, c, n)
			case FlagProbeTimeout:
				updateFromCLIFlag(&f.ProbeTimeout, c, n)
			case FlagFailOnInitError:
				updateFromCLIFlag(&f.FailOnInitError, c, n)
			case FlagPlatformCommand:
				updateFromCLIFlag(&f.PlatformCommand, c, n)
			}
			// Output flags
			if f.Output == nil {
				f.Output = &OutputCommandLineFlags{}
			}
			switch n {
			case FlagSensors:
				updateFromCLIFlag(&f.Output.Sensors, c, n)
			case FlagShort:
				updateFromCLIFlag(&f.Output.Short, c, n)
			case FlagFormat:
				updateFromCLIFlag(&f.Output.Format, c, n)
			case FlagPStates:
				updateFromCLIFlag(&f.Output.PStates, c, n)
			case FlagPPM:
				updateFromCLIFlag(&f.Output.PPM, c, n)
			case FlagClinfo:
				updateFromCLIFlag(&f.Output.Clinfo, c, n)
			case FlagOutputFile:
				updateFromCLIFlag(&f.Output.OutputFile, c, n)
			}
			// Monitor specific flags
			if f.Monitor == nil {
				f.Monitor = &MonitorCommandLineFlags{}
			}
			switch n {
			case FlagInterval:
				updateFromCLIFlag(&f.Monitor.Interval, c, n)
			case FlagCount:
				updateFromCLIFlag(&f.Monitor.Count, c, n)
			case FlagMetricsAddress:
				updateFromCLIFlag(&f.Monitor.MetricsAddress, c, n)
			}
		}
	}
}

// ProbeTimeoutDuration returns the per-call timeout; zero means none.
func (f *Flags) ProbeTimeoutDuration() time.Duration {
	if f.ProbeTimeout == nil {
		return DefaultProbeTimeout
	}
	return time.Duration(*f.ProbeTimeout)
}
