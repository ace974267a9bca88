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

package platform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

const defaultTimeout = 10 * time.Second

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Lister queries the compute platform tool for its devices.
type Lister struct {
	command string
	run     Runner
	timeout time.Duration
}

// Option configures a Lister.
type Option func(*Lister)

// WithRunner overrides how the platform tool is executed.
func WithRunner(r Runner) Option {
	return func(l *Lister) {
		l.run = r
	}
}

// WithTimeout bounds a single invocation of the platform tool.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Lister) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// NewLister creates a Lister for the given command. An empty command means
// no compute platform is installed.
func NewLister(command string, opts ...Option) *Lister {
	l := &Lister{
		command: command,
		run:     runCommand,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns the devices reported by the compute platform.
func (l *Lister) List(ctx context.Context) ([]Device, error) {
	if l.command == "" {
		return nil, gpu.ErrPlatformUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	out, err := l.run(ctx, l.command, "--raw")
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", gpu.ErrPlatformUnavailable, l.command, err)
	}
	devices, err := Parse(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gpu.ErrPlatformUnavailable, err)
	}
	klog.V(4).Infof("Compute platform reported %d device(s) with a PCI location", len(devices))
	return devices, nil
}

// Merge attaches platform information to the devices whose topology key
// matches a platform device and clears it on all others. Platform devices
// without a match are ignored. It returns the number of matched devices.
func Merge(devices []*gpu.Device, platform []Device) int {
	byKey := make(map[gpu.TopologyKey]gpu.PlatformInfo, len(platform))
	for _, p := range platform {
		if _, exists := byKey[p.Key]; exists {
			klog.Warningf("Duplicate compute platform device at %v; keeping the first", p.Key)
			continue
		}
		byKey[p.Key] = p.Info
	}

	matched := 0
	for _, d := range devices {
		info, ok := byKey[d.TopologyKey()]
		if !ok {
			d.Platform = nil
			continue
		}
		d.Platform = &info
		matched++
	}
	return matched
}
