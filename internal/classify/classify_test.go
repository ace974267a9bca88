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

package classify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/resource"
	rt "github.com/NVIDIA/gpu-inventory/internal/resource/testing"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		description string
		readable    bool
		writable    bool
		expected    gpu.Compatibility
	}{
		{
			description: "both probes fail",
			expected:    gpu.Unreadable,
		},
		{
			description: "read only",
			readable:    true,
			expected:    gpu.ReadOnly,
		},
		{
			description: "write only",
			writable:    true,
			expected:    gpu.WriteOnly,
		},
		{
			description: "read and write",
			readable:    true,
			writable:    true,
			expected:    gpu.ReadWrite,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			m := rt.NewManagerMock(tc.readable, tc.writable)
			c := New(resource.Managers{gpu.VendorAMD: m}, time.Second)

			d := &gpu.Device{Vendor: gpu.VendorAMD}
			require.Equal(t, tc.expected, c.Classify(context.Background(), d))
			require.Len(t, m.ProbeReadCalls(), 1)
			require.Len(t, m.ProbeWriteCalls(), 1)
		})
	}
}

func TestClassifyAll(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	hanging := rt.NewManagerMock(true, true)
	hanging.ProbeReadFunc = func(*gpu.Device) error {
		<-block
		return nil
	}
	managers := resource.Managers{
		gpu.VendorAMD:    rt.NewManagerMock(true, true),
		gpu.VendorNVIDIA: hanging,
	}
	devices := []*gpu.Device{
		{ID: 0, Vendor: gpu.VendorAMD},
		{ID: 1, Vendor: gpu.VendorNVIDIA},
		{ID: 2, Vendor: gpu.VendorIntel},
	}

	c := New(managers, 50*time.Millisecond)
	require.NoError(t, c.ClassifyAll(context.Background(), devices))

	require.Equal(t, gpu.ReadWrite, devices[0].Compatibility)
	require.Equal(t, gpu.WriteOnly, devices[1].Compatibility)
	require.Equal(t, gpu.Unreadable, devices[2].Compatibility)
}
