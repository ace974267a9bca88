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

package resource

import (
	"testing"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

type fakeNvml struct {
	initRet nvml.Return
	devices []*fakeNvmlDevice
}

func (f *fakeNvml) Init() nvml.Return     { return f.initRet }
func (f *fakeNvml) Shutdown() nvml.Return { return nvml.SUCCESS }
func (f *fakeNvml) SystemGetDriverVersion() (string, nvml.Return) {
	return "550.54.14", nvml.SUCCESS
}
func (f *fakeNvml) SystemGetCudaDriverVersion() (int, nvml.Return) {
	return 12040, nvml.SUCCESS
}
func (f *fakeNvml) DeviceGetCount() (int, nvml.Return) { return len(f.devices), nvml.SUCCESS }
func (f *fakeNvml) DeviceGetHandleByIndex(i int) (nvmlDevice, nvml.Return) {
	return f.devices[i], nvml.SUCCESS
}

type fakeNvmlDevice struct {
	bus        uint32
	pstate     nvml.Pstates
	restricted nvml.EnableState
	nameRet    nvml.Return
}

var _ nvmlDevice = (*fakeNvmlDevice)(nil)

func (d *fakeNvmlDevice) GetName() (string, nvml.Return) { return "NVIDIA A100", d.nameRet }
func (d *fakeNvmlDevice) GetUUID() (string, nvml.Return) {
	return "GPU-8a2c0f3e-0000-0000-0000-000000000000", nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetPciInfo() (nvml.PciInfo, nvml.Return) {
	return nvml.PciInfo{Domain: 0, Bus: d.bus, Device: 0}, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetVbiosVersion() (string, nvml.Return) { return "92.00.45.00.03", nvml.SUCCESS }
func (d *fakeNvmlDevice) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{Total: 40 * 1024 * mib, Used: 1024 * mib}, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetUtilizationRates() (nvml.Utilization, nvml.Return) {
	return nvml.Utilization{Gpu: 37, Memory: 4}, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return) {
	return 41, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetPowerUsage() (uint32, nvml.Return)          { return 61500, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetPowerManagementLimit() (uint32, nvml.Return) { return 250000, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetEnforcedPowerLimit() (uint32, nvml.Return)   { return 250000, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetFanSpeed() (uint32, nvml.Return)             { return 0, nvml.ERROR_NOT_SUPPORTED }
func (d *fakeNvmlDevice) GetClockInfo(c nvml.ClockType) (uint32, nvml.Return) {
	if c == nvml.CLOCK_MEM {
		return 1215, nvml.SUCCESS
	}
	return 210, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetMaxClockInfo(c nvml.ClockType) (uint32, nvml.Return) {
	if c == nvml.CLOCK_MEM {
		return 1215, nvml.SUCCESS
	}
	return 1410, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetPerformanceState() (nvml.Pstates, nvml.Return) {
	return d.pstate, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetCurrPcieLinkGeneration() (int, nvml.Return) { return 4, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetCurrPcieLinkWidth() (int, nvml.Return)      { return 16, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetMaxPcieLinkGeneration() (int, nvml.Return)  { return 4, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetMaxPcieLinkWidth() (int, nvml.Return)       { return 16, nvml.SUCCESS }
func (d *fakeNvmlDevice) GetPersistenceMode() (nvml.EnableState, nvml.Return) {
	return nvml.FEATURE_ENABLED, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetComputeMode() (nvml.ComputeMode, nvml.Return) {
	return nvml.COMPUTEMODE_EXCLUSIVE_PROCESS, nvml.SUCCESS
}
func (d *fakeNvmlDevice) GetAPIRestriction(nvml.RestrictedAPI) (nvml.EnableState, nvml.Return) {
	return d.restricted, nvml.SUCCESS
}

func newTestNvmlLib(euid int, devices ...*fakeNvmlDevice) *nvmlLib {
	return &nvmlLib{
		nvml: &fakeNvml{initRet: nvml.SUCCESS, devices: devices},
		euid: func() int { return euid },
	}
}

func TestNvmlProbes(t *testing.T) {
	testCases := []struct {
		description   string
		euid          int
		device        *fakeNvmlDevice
		address       string
		expectedRead  bool
		expectedWrite bool
	}{
		{
			description:   "root can write",
			euid:          0,
			device:        &fakeNvmlDevice{bus: 0x3b, restricted: nvml.FEATURE_ENABLED},
			address:       "0000:3b:00.0",
			expectedRead:  true,
			expectedWrite: true,
		},
		{
			description:   "unrestricted clocks are writable by users",
			euid:          1000,
			device:        &fakeNvmlDevice{bus: 0x3b, restricted: nvml.FEATURE_DISABLED},
			address:       "3b:00.0",
			expectedRead:  true,
			expectedWrite: true,
		},
		{
			description:  "restricted clocks are read only for users",
			euid:         1000,
			device:       &fakeNvmlDevice{bus: 0x3b, restricted: nvml.FEATURE_ENABLED},
			address:      "0000:3b:00.0",
			expectedRead: true,
		},
		{
			description: "failing name query is unreadable",
			euid:        1000,
			device:      &fakeNvmlDevice{bus: 0x3b, restricted: nvml.FEATURE_ENABLED, nameRet: nvml.ERROR_GPU_IS_LOST},
			address:     "0000:3b:00.0",
		},
		{
			description: "device without NVML handle",
			euid:        0,
			device:      &fakeNvmlDevice{bus: 0x3b},
			address:     "0000:af:00.0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			l := newTestNvmlLib(tc.euid, tc.device)
			require.NoError(t, l.Init())

			d := &gpu.Device{Vendor: gpu.VendorNVIDIA, PCIAddress: tc.address}
			readErr := l.ProbeRead(d)
			writeErr := l.ProbeWrite(d)
			require.Equal(t, tc.expectedRead, readErr == nil)
			require.Equal(t, tc.expectedWrite, writeErr == nil)
			if readErr != nil {
				require.ErrorIs(t, readErr, gpu.ErrDeviceProbeFailed)
			}
		})
	}
}

func TestNvmlQueries(t *testing.T) {
	l := newTestNvmlLib(0, &fakeNvmlDevice{bus: 0x3b, pstate: nvml.PSTATE_2})
	require.NoError(t, l.Init())
	d := &gpu.Device{Vendor: gpu.VendorNVIDIA, PCIAddress: "0000:3b:00.0", Card: "card1", Driver: "nvidia"}

	static, err := l.QueryStatic(d)
	require.NoError(t, err)
	require.Equal(t, "NVIDIA A100", static["model"].String())
	require.Equal(t, "40960 MiB", static["vram_total"].String())
	require.NotContains(t, static, "numa_node")

	dynamic, err := l.QueryDynamic(d)
	require.NoError(t, err)
	require.Equal(t, "37 %", dynamic["gpu_busy"].String())
	require.Equal(t, "61.5 W", dynamic["power"].String())
	require.NotContains(t, dynamic, "fan_pwm")

	info, err := l.QueryInfo(d)
	require.NoError(t, err)
	require.Equal(t, "550.54.14", info["driver_version"].String())
	require.Equal(t, "12.4", info["cuda_version"].String())

	state, err := l.QueryState(d)
	require.NoError(t, err)
	require.Equal(t, "P2", state["pstate"].String())
	require.Equal(t, "true", state["persistence_mode"].String())
	require.Equal(t, "Exclusive_Process", state["compute_mode"].String())

	pstates, err := l.QueryPStates(d)
	require.NoError(t, err)
	require.Equal(t, gpu.PStateTable{
		{Domain: "GRAPHICS", Index: 0, ClockMHz: 1410},
		{Domain: "GRAPHICS", Index: 2, ClockMHz: 210, Current: true},
		{Domain: "SM", Index: 0, ClockMHz: 1410},
		{Domain: "SM", Index: 2, ClockMHz: 210, Current: true},
		{Domain: "MEM", Index: 0, ClockMHz: 1215},
		{Domain: "MEM", Index: 2, ClockMHz: 1215, Current: true},
	}, pstates)

	ppm, err := l.QueryPPM(d)
	require.ErrorIs(t, err, gpu.ErrSensorSetUnsupported)
	require.Equal(t, 0, ppm.Len())
}

func TestNvmlInitFailure(t *testing.T) {
	l := &nvmlLib{
		nvml: &fakeNvml{initRet: nvml.ERROR_LIBRARY_NOT_FOUND},
		euid: func() int { return 0 },
	}
	require.Error(t, l.Init())
}
