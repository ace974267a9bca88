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

package inventory

import (
	"time"

	"github.com/NVIDIA/go-nvlib/pkg/pciids"

	"github.com/NVIDIA/gpu-inventory/internal/discover"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
)

// DefaultProbeTimeout bounds every individual vendor call.
const DefaultProbeTimeout = 5 * time.Second

type options struct {
	sysfsRoot       string
	pciidsPath      string
	platformCommand string
	probeTimeout    time.Duration
	failOnInitError bool

	prober   Prober
	managers ManagerSet
	lister   Lister
	names    pciids.Interface
}

// Option configures how an inventory is built.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{
		sysfsRoot:       probe.DefaultSysfsRoot,
		platformCommand: probe.DefaultPlatformCommand,
		probeTimeout:    DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.prober == nil {
		o.prober = probe.New(
			probe.WithSysfsRoot(o.sysfsRoot),
			probe.WithPlatformCommand(o.platformCommand),
		)
	}
	return o
}

func (o *options) discoverOptions() []discover.Option {
	opts := []discover.Option{
		discover.WithSysfsRoot(o.sysfsRoot),
		discover.WithPCIIDsPath(o.pciidsPath),
	}
	if o.names != nil {
		opts = append(opts, discover.WithNames(o.names))
	}
	return opts
}

// WithSysfsRoot sets the sysfs mount point.
func WithSysfsRoot(root string) Option {
	return func(o *options) {
		o.sysfsRoot = root
	}
}

// WithPCIIDsPath sets the pci.ids database used for model names.
func WithPCIIDsPath(path string) Option {
	return func(o *options) {
		o.pciidsPath = path
	}
}

// WithPCINames overrides the PCI name database.
func WithPCINames(names pciids.Interface) Option {
	return func(o *options) {
		o.names = names
	}
}

// WithPlatformCommand sets the compute platform tool. An empty command
// disables compute platform details.
func WithPlatformCommand(command string) Option {
	return func(o *options) {
		o.platformCommand = command
	}
}

// WithProbeTimeout bounds every vendor call. Zero disables the bound.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.probeTimeout = timeout
	}
}

// WithFailOnInitError makes a vendor interface that cannot be initialized
// fatal instead of falling back to the null interface.
func WithFailOnInitError(fail bool) Option {
	return func(o *options) {
		o.failOnInitError = fail
	}
}

// WithProber overrides the host probe.
func WithProber(p Prober) Option {
	return func(o *options) {
		o.prober = p
	}
}

// WithManagers overrides the vendor interfaces selected from the probe.
func WithManagers(m ManagerSet) Option {
	return func(o *options) {
		o.managers = m
	}
}

// WithLister overrides how the compute platform is listed.
func WithLister(l Lister) Option {
	return func(o *options) {
		o.lister = l
	}
}
