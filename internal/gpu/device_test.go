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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompatibilityFromProbes(t *testing.T) {
	testCases := []struct {
		description string
		readOK      bool
		writeOK     bool
		expected    Compatibility
		readable    bool
		writable    bool
	}{
		{
			description: "read and write",
			readOK:      true,
			writeOK:     true,
			expected:    ReadWrite,
			readable:    true,
			writable:    true,
		},
		{
			description: "read only",
			readOK:      true,
			expected:    ReadOnly,
			readable:    true,
		},
		{
			description: "write only",
			writeOK:     true,
			expected:    WriteOnly,
			writable:    true,
		},
		{
			description: "neither",
			expected:    Unreadable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			c := CompatibilityFromProbes(tc.readOK, tc.writeOK)
			require.Equal(t, tc.expected, c)
			require.Equal(t, tc.readable, c.Readable())
			require.Equal(t, tc.writable, c.Writable())
		})
	}
}

func TestZeroDeviceIsUnreadable(t *testing.T) {
	var d Device
	require.Equal(t, Unreadable, d.Compatibility)
	require.Equal(t, "Unreadable", d.Compatibility.String())
}

func TestSetAttributesReplaces(t *testing.T) {
	d := &Device{}
	d.SetAttributes(Dynamic, Attributes{"temp": Int(40, "C"), "stale": Int(1, "")})
	d.SetAttributes(Dynamic, Attributes{"temp": Int(42, "C")})

	require.Equal(t, Attributes{"temp": Int(42, "C")}, d.Attributes(Dynamic))
	require.True(t, d.HasSet(Dynamic))
	require.False(t, d.HasSet(Static))

	d.SetAttributes(State, nil)
	require.NotNil(t, d.Attributes(State))
	require.Empty(t, d.Attributes(State))
}

func TestClearReadings(t *testing.T) {
	testCases := []struct {
		description     string
		pstates         PStateTable
		ppm             PPMTable
		expectedPStates PStateTable
		expectedPPM     PPMTable
	}{
		{
			description: "tables never read stay unread",
		},
		{
			description:     "read tables become empty",
			pstates:         PStateTable{{Domain: "SCLK", Index: 0, ClockMHz: 500}},
			ppm:             PPMTable{Header: []string{"NUM"}, Modes: []PPMode{{Index: 0, Name: "BOOTUP_DEFAULT"}}},
			expectedPStates: PStateTable{},
			expectedPPM:     EmptyPPMTable(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			platform := &PlatformInfo{DeviceName: "gfx1030"}
			d := &Device{Card: "card0", Compatibility: ReadOnly, PStates: tc.pstates, PPM: tc.ppm, Platform: platform}
			d.SetAttributes(Static, Attributes{"model": String("x")})
			d.SetAttributes(Dynamic, Attributes{"temp": Int(40, "C")})

			d.ClearReadings()

			require.Empty(t, d.AllAttributes())
			for _, set := range BaseSets {
				require.False(t, d.HasSet(set))
			}
			require.Equal(t, tc.expectedPStates, d.PStates)
			require.Equal(t, tc.expectedPPM, d.PPM)
			require.Equal(t, "card0", d.Card)
			require.Equal(t, ReadOnly, d.Compatibility)
			require.Same(t, platform, d.Platform)
		})
	}
}

func TestAllAttributesIsUnion(t *testing.T) {
	d := &Device{}
	d.SetAttributes(Static, Attributes{"model": String("x")})
	d.SetAttributes(Dynamic, Attributes{"temp": Int(40, "C")})
	d.SetAttributes(State, Attributes{"pstate": Int(0, "")})

	all := d.Attributes(All)
	require.Len(t, all, 3)
	require.Contains(t, all, "model")
	require.Contains(t, all, "temp")
	require.Contains(t, all, "pstate")
}

func TestParseSensorSet(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		expected    SensorSet
		expectError bool
	}{
		{description: "lower case", input: "dynamic", expected: Dynamic},
		{description: "mixed case with spaces", input: " Static ", expected: Static},
		{description: "all", input: "ALL", expected: All},
		{description: "unknown", input: "thermal", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			s, err := ParseSensorSet(tc.input)
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, s)
		})
	}

	require.Equal(t, BaseSets, All.Expand())
	require.Equal(t, []SensorSet{Info}, Info.Expand())
}

func TestResolveVendor(t *testing.T) {
	require.Equal(t, VendorAMD, ResolveVendor(0x1002, ""))
	require.Equal(t, VendorNVIDIA, ResolveVendor(0x10de, "vfio-pci"))
	require.Equal(t, VendorIntel, ResolveVendor(0x8086, ""))
	require.Equal(t, VendorNVIDIA, ResolveVendor(0x1234, "nouveau"))
	require.Equal(t, VendorOther, ResolveVendor(0x1a03, "ast"))
}

func TestTopologyKey(t *testing.T) {
	testCases := []struct {
		description string
		address     string
		expected    string
	}{
		{description: "zero domain is dropped", address: "0000:03:00.0", expected: "03:00.0"},
		{description: "long zero domain is dropped", address: "00000000:0A:00.0", expected: "0a:00.0"},
		{description: "no domain", address: "03:00.0", expected: "03:00.0"},
		{description: "non zero domain is kept", address: "0001:03:00.0", expected: "0001:03:00.0"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			require.Equal(t, tc.expected, NormalizeBDF(tc.address))
		})
	}

	a := (&Device{Vendor: VendorAMD, PCIAddress: "0000:03:00.0"}).TopologyKey()
	require.Equal(t, NewTopologyKey(VendorAMD, "03:00.0"), a)
	require.NotEqual(t, NewTopologyKey(VendorNVIDIA, "03:00.0"), a)
}

func TestDeviceJSON(t *testing.T) {
	d := &Device{ID: 1, Card: "card1", Vendor: VendorAMD, Compatibility: ReadOnly}
	d.SetAttributes(Dynamic, Attributes{"gpu_busy": Int(12, "%")})

	b, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "Readable", decoded["compatibility"])
	require.Equal(t, "card1", decoded["card"])
	require.NotContains(t, decoded, "ppm")
	require.Contains(t, decoded["attributes"], "dynamic")
}

func TestValueString(t *testing.T) {
	require.Equal(t, "42 C", Int(42, "C").String())
	require.Equal(t, "1.5 W", Float(1.5, "W").String())
	require.Equal(t, "auto", String("auto").String())
	n, ok := Int(3, "").Number()
	require.True(t, ok)
	require.Equal(t, float64(3), n)
	_, ok = String("x").Number()
	require.False(t, ok)
}
