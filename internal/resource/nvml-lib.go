/**
# Copyright (c) 2022, NVIDIA CORPORATION.  All rights reserved.
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

package resource

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/NVIDIA/go-nvlib/pkg/nvpci"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/logger"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
)

// nvmlInterface is the subset of the NVML library used to look up devices.
type nvmlInterface interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	SystemGetDriverVersion() (string, nvml.Return)
	SystemGetCudaDriverVersion() (int, nvml.Return)
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(int) (nvmlDevice, nvml.Return)
}

// nvmlDevice is the subset of an NVML device handle that is queried.
type nvmlDevice interface {
	GetName() (string, nvml.Return)
	GetUUID() (string, nvml.Return)
	GetPciInfo() (nvml.PciInfo, nvml.Return)
	GetVbiosVersion() (string, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
	GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return)
	GetPowerUsage() (uint32, nvml.Return)
	GetPowerManagementLimit() (uint32, nvml.Return)
	GetEnforcedPowerLimit() (uint32, nvml.Return)
	GetFanSpeed() (uint32, nvml.Return)
	GetClockInfo(nvml.ClockType) (uint32, nvml.Return)
	GetMaxClockInfo(nvml.ClockType) (uint32, nvml.Return)
	GetPerformanceState() (nvml.Pstates, nvml.Return)
	GetCurrPcieLinkGeneration() (int, nvml.Return)
	GetCurrPcieLinkWidth() (int, nvml.Return)
	GetMaxPcieLinkGeneration() (int, nvml.Return)
	GetMaxPcieLinkWidth() (int, nvml.Return)
	GetAPIRestriction(nvml.RestrictedAPI) (nvml.EnableState, nvml.Return)
	GetPersistenceMode() (nvml.EnableState, nvml.Return)
	GetComputeMode() (nvml.ComputeMode, nvml.Return)
}

// nvmlPackage adapts the package level NVML functions to nvmlInterface.
type nvmlPackage struct{}

func (nvmlPackage) Init() nvml.Return     { return nvml.Init() }
func (nvmlPackage) Shutdown() nvml.Return { return nvml.Shutdown() }
func (nvmlPackage) SystemGetDriverVersion() (string, nvml.Return) {
	return nvml.SystemGetDriverVersion()
}
func (nvmlPackage) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return nvml.SystemGetCudaDriverVersion()
}
func (nvmlPackage) DeviceGetCount() (int, nvml.Return) { return nvml.DeviceGetCount() }
func (nvmlPackage) DeviceGetHandleByIndex(i int) (nvmlDevice, nvml.Return) {
	return nvml.DeviceGetHandleByIndex(i)
}

var nvmlComputeModes = map[nvml.ComputeMode]string{
	nvml.COMPUTEMODE_DEFAULT:           "Default",
	nvml.COMPUTEMODE_EXCLUSIVE_THREAD:  "Exclusive_Thread",
	nvml.COMPUTEMODE_PROHIBITED:        "Prohibited",
	nvml.COMPUTEMODE_EXCLUSIVE_PROCESS: "Exclusive_Process",
}

var nvmlClockDomains = []struct {
	domain string
	clock  nvml.ClockType
}{
	{"GRAPHICS", nvml.CLOCK_GRAPHICS},
	{"SM", nvml.CLOCK_SM},
	{"MEM", nvml.CLOCK_MEM},
}

type nvmlLib struct {
	sync.Mutex
	nvml  nvmlInterface
	nvpci nvpci.Interface
	euid  func() int

	handles map[string]nvmlDevice
}

var _ Manager = (*nvmlLib)(nil)

// NewNVMLManager creates a new manager that uses NVML to query devices
func NewNVMLManager(caps probe.Capabilities) Manager {
	return &nvmlLib{
		nvml: nvmlPackage{},
		nvpci: nvpci.New(
			nvpci.WithLogger(logger.ToKlog),
			nvpci.WithPCIDevicesRoot(filepath.Join(caps.SysfsRoot, "bus", "pci", "devices")),
		),
		euid: unix.Geteuid,
	}
}

// Init loads NVML and maps every NVML handle to its PCI address.
func (l *nvmlLib) Init() error {
	ret := l.nvml.Init()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("failed to initialize NVML: %v", nvmlErrorString(ret))
	}

	count, ret := l.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		_ = l.nvml.Shutdown()
		return fmt.Errorf("error getting device count: %v", nvmlErrorString(ret))
	}

	handles := make(map[string]nvmlDevice)
	for i := 0; i < count; i++ {
		device, ret := l.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			klog.Warningf("Error getting handle for device %d: %v", i, nvmlErrorString(ret))
			continue
		}
		pci, ret := device.GetPciInfo()
		if ret != nvml.SUCCESS {
			klog.Warningf("Error getting PCI info for device %d: %v", i, nvmlErrorString(ret))
			continue
		}
		address := fmt.Sprintf("%04x:%02x:%02x.0", pci.Domain, pci.Bus, pci.Device)
		handles[gpu.NormalizeBDF(address)] = device
	}

	l.Lock()
	defer l.Unlock()
	l.handles = handles
	return nil
}

// Shutdown releases NVML
func (l *nvmlLib) Shutdown() error {
	ret := l.nvml.Shutdown()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("error shutting down NVML: %v", nvmlErrorString(ret))
	}
	return nil
}

func (l *nvmlLib) handle(d *gpu.Device) (nvmlDevice, error) {
	l.Lock()
	defer l.Unlock()
	h, ok := l.handles[gpu.NormalizeBDF(d.PCIAddress)]
	if !ok {
		return nil, fmt.Errorf("%w: no NVML handle for %v", gpu.ErrDeviceProbeFailed, d.PCIAddress)
	}
	return h, nil
}

// ProbeRead checks that the device answers a basic NVML query.
func (l *nvmlLib) ProbeRead(d *gpu.Device) error {
	h, err := l.handle(d)
	if err != nil {
		return err
	}
	if _, ret := h.GetName(); ret != nvml.SUCCESS {
		return fmt.Errorf("%w: %v", gpu.ErrDeviceProbeFailed, nvmlErrorString(ret))
	}
	return nil
}

// ProbeWrite checks whether application clocks may be changed by the current
// user. Nothing is written.
func (l *nvmlLib) ProbeWrite(d *gpu.Device) error {
	h, err := l.handle(d)
	if err != nil {
		return err
	}
	if l.euid() == 0 {
		return nil
	}
	state, ret := h.GetAPIRestriction(nvml.RESTRICTED_API_SET_APPLICATION_CLOCKS)
	if ret != nvml.SUCCESS {
		return fmt.Errorf("%w: %v", gpu.ErrDeviceProbeFailed, nvmlErrorString(ret))
	}
	if state != nvml.FEATURE_DISABLED {
		return fmt.Errorf("%w: application clocks are restricted to root", gpu.ErrDeviceProbeFailed)
	}
	return nil
}

// QueryStatic returns attributes fixed at boot.
func (l *nvmlLib) QueryStatic(d *gpu.Device) (gpu.Attributes, error) {
	h, err := l.handle(d)
	if err != nil {
		return nil, err
	}
	c := newCollector()
	c.identity(d)
	if name, ret := h.GetName(); ret == nvml.SUCCESS {
		c.set("model", gpu.String(name))
	}
	if uuid, ret := h.GetUUID(); ret == nvml.SUCCESS {
		c.set("uuid", gpu.String(uuid))
	}
	if v, ret := h.GetVbiosVersion(); ret == nvml.SUCCESS {
		c.set("vbios_version", gpu.String(v))
	}
	if mem, ret := h.GetMemoryInfo(); ret == nvml.SUCCESS {
		c.set("vram_total", gpu.Int(int64(mem.Total/mib), "MiB"))
	}
	for _, cd := range nvmlClockDomains {
		if v, ret := h.GetMaxClockInfo(cd.clock); ret == nvml.SUCCESS {
			c.set("max_clock_"+strings.ToLower(cd.domain), gpu.Int(int64(v), "MHz"))
		}
	}
	if node, err := l.numaNode(d); err == nil {
		c.set("numa_node", gpu.Int(int64(node), ""))
	}
	return c.attrs, nil
}

// QueryDynamic returns continuously changing values.
func (l *nvmlLib) QueryDynamic(d *gpu.Device) (gpu.Attributes, error) {
	h, err := l.handle(d)
	if err != nil {
		return nil, err
	}
	c := newCollector()
	if u, ret := h.GetUtilizationRates(); ret == nvml.SUCCESS {
		c.set("gpu_busy", gpu.Int(int64(u.Gpu), "%"))
		c.set("mem_busy", gpu.Int(int64(u.Memory), "%"))
	}
	if mem, ret := h.GetMemoryInfo(); ret == nvml.SUCCESS {
		c.set("vram_used", gpu.Int(int64(mem.Used/mib), "MiB"))
	}
	if t, ret := h.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		c.set("temp_edge", gpu.Float(float64(t), "C"))
	}
	if p, ret := h.GetPowerUsage(); ret == nvml.SUCCESS {
		c.set("power", gpu.Float(float64(p)/1000, "W"))
	}
	if f, ret := h.GetFanSpeed(); ret == nvml.SUCCESS {
		c.set("fan_pwm", gpu.Int(int64(f), "%"))
	}
	for _, cd := range nvmlClockDomains {
		if v, ret := h.GetClockInfo(cd.clock); ret == nvml.SUCCESS {
			c.set(strings.ToLower(cd.domain)+"_clock", gpu.Int(int64(v), "MHz"))
		}
	}
	return c.attrs, nil
}

// QueryInfo returns driver and link metadata.
func (l *nvmlLib) QueryInfo(d *gpu.Device) (gpu.Attributes, error) {
	h, err := l.handle(d)
	if err != nil {
		return nil, err
	}
	c := newCollector()
	c.set("driver", gpu.String(d.Driver))
	if v, ret := l.nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		c.set("driver_version", gpu.String(v))
	}
	if v, ret := l.nvml.SystemGetCudaDriverVersion(); ret == nvml.SUCCESS {
		c.set("cuda_version", gpu.String(fmt.Sprintf("%d.%d", v/1000, v%1000/10)))
	}
	if v, ret := h.GetCurrPcieLinkGeneration(); ret == nvml.SUCCESS {
		c.set("pcie_link_gen", gpu.Int(int64(v), ""))
	}
	if v, ret := h.GetCurrPcieLinkWidth(); ret == nvml.SUCCESS {
		c.set("pcie_link_width", gpu.Int(int64(v), ""))
	}
	if v, ret := h.GetMaxPcieLinkGeneration(); ret == nvml.SUCCESS {
		c.set("pcie_max_link_gen", gpu.Int(int64(v), ""))
	}
	if v, ret := h.GetMaxPcieLinkWidth(); ret == nvml.SUCCESS {
		c.set("pcie_max_link_width", gpu.Int(int64(v), ""))
	}
	if v, ret := h.GetPowerManagementLimit(); ret == nvml.SUCCESS {
		c.set("power_cap", gpu.Float(float64(v)/1000, "W"))
	}
	return c.attrs, nil
}

// QueryState returns the current performance state.
func (l *nvmlLib) QueryState(d *gpu.Device) (gpu.Attributes, error) {
	h, err := l.handle(d)
	if err != nil {
		return nil, err
	}
	c := newCollector()
	if p, ret := h.GetPerformanceState(); ret == nvml.SUCCESS && p <= nvml.PSTATE_15 {
		c.set("pstate", gpu.String(fmt.Sprintf("P%d", int(p))))
	}
	if v, ret := h.GetEnforcedPowerLimit(); ret == nvml.SUCCESS {
		c.set("power_limit_enforced", gpu.Float(float64(v)/1000, "W"))
	}
	if v, ret := h.GetPersistenceMode(); ret == nvml.SUCCESS {
		c.set("persistence_mode", gpu.Bool(v == nvml.FEATURE_ENABLED))
	}
	if v, ret := h.GetComputeMode(); ret == nvml.SUCCESS {
		if name, ok := nvmlComputeModes[v]; ok {
			c.set("compute_mode", gpu.String(name))
		}
	}
	return c.attrs, nil
}

// QueryPStates reports, per clock domain, the P0 maximum clock and, when the
// device is in a lower state, the current state and clock.
func (l *nvmlLib) QueryPStates(d *gpu.Device) (gpu.PStateTable, error) {
	h, err := l.handle(d)
	if err != nil {
		return nil, err
	}
	current := -1
	if p, ret := h.GetPerformanceState(); ret == nvml.SUCCESS && p <= nvml.PSTATE_15 {
		current = int(p)
	}

	table := gpu.PStateTable{}
	for _, cd := range nvmlClockDomains {
		maxClock, ret := h.GetMaxClockInfo(cd.clock)
		if ret != nvml.SUCCESS {
			continue
		}
		table = append(table, gpu.PState{
			Domain:   cd.domain,
			Index:    0,
			ClockMHz: int(maxClock),
			Current:  current == 0,
		})
		if current <= 0 {
			continue
		}
		if clock, ret := h.GetClockInfo(cd.clock); ret == nvml.SUCCESS {
			table = append(table, gpu.PState{
				Domain:   cd.domain,
				Index:    current,
				ClockMHz: int(clock),
				Current:  true,
			})
		}
	}
	return table, nil
}

// QueryPPM is not supported through NVML
func (l *nvmlLib) QueryPPM(*gpu.Device) (gpu.PPMTable, error) {
	return gpu.PPMTable{}, unsupported("ppm")
}

func (l *nvmlLib) numaNode(d *gpu.Device) (int, error) {
	if l.nvpci == nil {
		return 0, fmt.Errorf("no PCI lookup configured")
	}
	pci, err := l.nvpci.GetGPUByPciBusID(d.PCIAddress)
	if err != nil {
		return 0, err
	}
	if pci == nil {
		return 0, fmt.Errorf("no NVIDIA PCI device at %v", d.PCIAddress)
	}
	return pci.NumaNode, nil
}

// nvmlErrorString describes an NVML return code without calling into the
// library, which is not loaded when Init fails.
func nvmlErrorString(ret nvml.Return) string {
	switch ret {
	case nvml.ERROR_LIBRARY_NOT_FOUND:
		return "NVML library not found"
	case nvml.ERROR_DRIVER_NOT_LOADED:
		return "driver not loaded"
	case nvml.ERROR_UNINITIALIZED:
		return "NVML not initialized"
	case nvml.ERROR_NOT_SUPPORTED:
		return "not supported"
	case nvml.ERROR_NO_PERMISSION:
		return "insufficient permissions"
	case nvml.ERROR_GPU_IS_LOST:
		return "GPU is lost"
	}
	return fmt.Sprintf("NVML error %d", int32(ret))
}
