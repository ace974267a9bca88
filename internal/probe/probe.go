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

package probe

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/go-nvlib/pkg/nvlib/info"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

// DefaultSysfsRoot is where sysfs is expected to be mounted.
const DefaultSysfsRoot = "/sys"

// DefaultPlatformCommand is the tool used to list compute platform devices.
const DefaultPlatformCommand = "clinfo"

// amdOverdriveMask is the ppfeaturemask bit that enables clock and voltage overrides.
const amdOverdriveMask = 0x4000

// Interface reports whether a vendor query interface is callable on the host.
type Interface struct {
	Available bool
	Reason    string
}

// Capabilities describes what the host offers for GPU discovery.
type Capabilities struct {
	SysfsRoot      string
	NoGpuSubsystem bool
	Vendors        map[gpu.Vendor]Interface

	AMDFeatureMask uint64
	AMDOverdrive   bool

	// PlatformCommand is the resolved path of the compute platform tool, or
	// empty if none is installed.
	PlatformCommand string
}

// Available returns true if the query interface for the vendor was detected.
func (c Capabilities) Available(v gpu.Vendor) bool {
	return c.Vendors[v].Available
}

// HasComputePlatform returns true if a compute platform tool was found.
func (c Capabilities) HasComputePlatform() bool {
	return c.PlatformCommand != ""
}

// nvmlDetector is the subset of the go-nvlib info interface used here.
type nvmlDetector interface {
	HasNvml() (bool, string)
}

// Prober detects host capabilities.
type Prober struct {
	sysfsRoot       string
	nvml            nvmlDetector
	lookPath        func(string) (string, error)
	platformCommand string
}

// Option configures a Prober.
type Option func(*Prober)

// WithSysfsRoot sets the sysfs mount point.
func WithSysfsRoot(root string) Option {
	return func(p *Prober) {
		p.sysfsRoot = root
	}
}

// WithNvmlDetector overrides the NVML library detection.
func WithNvmlDetector(d nvmlDetector) Option {
	return func(p *Prober) {
		p.nvml = d
	}
}

// WithLookPath overrides how executables are resolved.
func WithLookPath(f func(string) (string, error)) Option {
	return func(p *Prober) {
		p.lookPath = f
	}
}

// WithPlatformCommand sets the compute platform tool to look for. An empty
// command disables compute platform detection.
func WithPlatformCommand(cmd string) Option {
	return func(p *Prober) {
		p.platformCommand = cmd
	}
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		sysfsRoot:       DefaultSysfsRoot,
		lookPath:        exec.LookPath,
		platformCommand: DefaultPlatformCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.nvml == nil {
		p.nvml = info.New()
	}
	return p
}

// Probe inspects the host. Missing vendor interfaces are not errors; they are
// recorded as unavailable.
func (p *Prober) Probe() Capabilities {
	caps := Capabilities{
		SysfsRoot: p.sysfsRoot,
		Vendors:   make(map[gpu.Vendor]Interface),
	}

	if _, err := os.Stat(filepath.Join(p.sysfsRoot, "class", "drm")); err != nil {
		klog.Warningf("No DRM class found under %v: %v", p.sysfsRoot, err)
		caps.NoGpuSubsystem = true
	}

	// logWithReason logs the result of each detection in the same format for every vendor
	logWithReason := func(v gpu.Vendor, available bool, reason string) {
		tag := string(v)
		if !available {
			tag = "non-" + tag
		}
		klog.Infof("Detected %v platform: %v", tag, reason)
		caps.Vendors[v] = Interface{Available: available, Reason: reason}
	}

	amd, reason := p.hasKernelModule("amdgpu")
	logWithReason(gpu.VendorAMD, amd, reason)
	if amd {
		caps.AMDFeatureMask, caps.AMDOverdrive = p.amdFeatureMask()
	}

	nvml, reason := p.nvml.HasNvml()
	logWithReason(gpu.VendorNVIDIA, nvml, reason)

	intel, reason := p.hasKernelModule("i915")
	if !intel {
		intel, reason = p.hasKernelModule("xe")
	}
	logWithReason(gpu.VendorIntel, intel, reason)

	logWithReason(gpu.VendorOther, !caps.NoGpuSubsystem, "generic sysfs interface")

	if p.platformCommand != "" {
		path, err := p.lookPath(p.platformCommand)
		if err != nil {
			klog.Infof("No compute platform found: %v", err)
		} else {
			klog.Infof("Detected compute platform tool: %v", path)
			caps.PlatformCommand = path
		}
	}

	return caps
}

func (p *Prober) hasKernelModule(name string) (bool, string) {
	path := filepath.Join(p.sysfsRoot, "module", name)
	if _, err := os.Stat(path); err != nil {
		return false, fmt.Sprintf("kernel module %v not loaded", name)
	}
	return true, fmt.Sprintf("found %v", path)
}

func (p *Prober) amdFeatureMask() (uint64, bool) {
	path := filepath.Join(p.sysfsRoot, "module", "amdgpu", "parameters", "ppfeaturemask")
	data, err := os.ReadFile(path)
	if err != nil {
		klog.V(4).Infof("Unable to read %v: %v", path, err)
		return 0, false
	}
	mask, err := strconv.ParseUint(strings.TrimSpace(string(data)), 0, 64)
	if err != nil {
		klog.Warningf("Invalid ppfeaturemask %q: %v", strings.TrimSpace(string(data)), err)
		return 0, false
	}
	return mask, mask&amdOverdriveMask != 0
}
