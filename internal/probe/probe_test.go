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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

type fakeNvml bool

func (f fakeNvml) HasNvml() (bool, string) {
	if f {
		return true, "found libnvidia-ml.so.1"
	}
	return false, "libnvidia-ml.so.1 not found"
}

func lookPathIn(found map[string]string) func(string) (string, error) {
	return func(name string) (string, error) {
		if p, ok := found[name]; ok {
			return p, nil
		}
		return "", fmt.Errorf("%v: executable file not found in $PATH", name)
	}
}

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestProbe(t *testing.T) {
	testCases := []struct {
		description  string
		setup        func(root string)
		nvml         bool
		paths        map[string]string
		expectNoGpu  bool
		expectAMD    bool
		expectNVIDIA bool
		expectIntel  bool
		expectOD     bool
		expectCL     string
	}{
		{
			description: "empty host has no gpu subsystem",
			setup:       func(string) {},
			expectNoGpu: true,
		},
		{
			description: "amdgpu with overdrive and clinfo",
			setup: func(root string) {
				require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "drm"), 0755))
				writeFile(t, filepath.Join(root, "module", "amdgpu", "parameters", "ppfeaturemask"), "0xfffd7fff\n")
			},
			paths:     map[string]string{"clinfo": "/usr/bin/clinfo"},
			expectAMD: true,
			expectOD:  true,
			expectCL:  "/usr/bin/clinfo",
		},
		{
			description: "amdgpu without overdrive",
			setup: func(root string) {
				require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "drm"), 0755))
				writeFile(t, filepath.Join(root, "module", "amdgpu", "parameters", "ppfeaturemask"), "0xfffd3fff\n")
			},
			expectAMD: true,
		},
		{
			description: "nvml and xe",
			setup: func(root string) {
				require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "drm"), 0755))
				require.NoError(t, os.MkdirAll(filepath.Join(root, "module", "xe"), 0755))
			},
			nvml:         true,
			expectNVIDIA: true,
			expectIntel:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			root := t.TempDir()
			tc.setup(root)

			p := New(
				WithSysfsRoot(root),
				WithNvmlDetector(fakeNvml(tc.nvml)),
				WithLookPath(lookPathIn(tc.paths)),
			)
			caps := p.Probe()

			require.Equal(t, tc.expectNoGpu, caps.NoGpuSubsystem)
			require.Equal(t, tc.expectAMD, caps.Available(gpu.VendorAMD))
			require.Equal(t, tc.expectNVIDIA, caps.Available(gpu.VendorNVIDIA))
			require.Equal(t, tc.expectIntel, caps.Available(gpu.VendorIntel))
			require.Equal(t, !tc.expectNoGpu, caps.Available(gpu.VendorOther))
			require.Equal(t, tc.expectOD, caps.AMDOverdrive)
			require.Equal(t, tc.expectCL, caps.PlatformCommand)
			require.Equal(t, tc.expectCL != "", caps.HasComputePlatform())
		})
	}
}

func TestProbeWithoutPlatformCommand(t *testing.T) {
	p := New(
		WithSysfsRoot(t.TempDir()),
		WithNvmlDetector(fakeNvml(false)),
		WithLookPath(lookPathIn(map[string]string{"clinfo": "/usr/bin/clinfo"})),
		WithPlatformCommand(""),
	)
	require.False(t, p.Probe().HasComputePlatform())
}
