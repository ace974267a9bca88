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
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

var (
	// [AMD*]   CL_PLATFORM_NAME   AMD Accelerated Parallel Processing
	// [AMD/0]  CL_DEVICE_NAME     gfx1030
	rawLinePattern = regexp.MustCompile(`^\s*\[([^\]/*]+)(\*|/([0-9]+))\]\s+(CL_[A-Z0-9_]+)\s*(.*)$`)
	bdfPattern     = regexp.MustCompile(`(?:[0-9a-fA-F]{4}:)?[0-9a-fA-F]{2}:[0-9a-fA-F]{2}\.[0-7]`)
)

var abbreviationVendors = map[string]gpu.Vendor{
	"AMD":   gpu.VendorAMD,
	"NV":    gpu.VendorNVIDIA,
	"INTEL": gpu.VendorIntel,
	"ROCM":  gpu.VendorAMD,
}

// Device is one device reported by the compute platform together with the
// key used to match it to an enumerated GPU.
type Device struct {
	Key  gpu.TopologyKey
	Info gpu.PlatformInfo
}

type rawPlatform struct {
	name    string
	version string
}

type rawDevice struct {
	platform string
	index    int
	props    map[string]string
}

// Parse reads the output of clinfo --raw. Devices for which no PCI location
// is reported are dropped since they cannot be matched.
func Parse(r io.Reader) ([]Device, error) {
	platforms := make(map[string]*rawPlatform)
	devices := make(map[string]*rawDevice)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := rawLinePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		abbr := strings.TrimSpace(m[1])
		key, value := m[4], strings.TrimSpace(m[5])

		if m[2] == "*" {
			p, ok := platforms[abbr]
			if !ok {
				p = &rawPlatform{}
				platforms[abbr] = p
			}
			switch key {
			case "CL_PLATFORM_NAME":
				p.name = value
			case "CL_PLATFORM_VERSION":
				p.version = value
			}
			continue
		}

		id := abbr + "/" + m[3]
		d, ok := devices[id]
		if !ok {
			index, _ := strconv.Atoi(m[3])
			d = &rawDevice{platform: abbr, index: index, props: make(map[string]string)}
			devices[id] = d
		}
		d.props[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading platform listing: %w", err)
	}

	var ids []string
	for id := range devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := devices[ids[i]], devices[ids[j]]
		if a.platform != b.platform {
			return a.platform < b.platform
		}
		return a.index < b.index
	})

	var result []Device
	for _, id := range ids {
		d := devices[id]
		bdf, ok := d.bdf()
		if !ok {
			continue
		}
		p := platforms[d.platform]
		if p == nil {
			p = &rawPlatform{name: d.platform}
		}
		result = append(result, Device{
			Key:  gpu.NewTopologyKey(d.vendor(), bdf),
			Info: d.info(p),
		})
	}
	return result, nil
}

func (d *rawDevice) vendor() gpu.Vendor {
	if fields := strings.Fields(d.props["CL_DEVICE_VENDOR_ID"]); len(fields) > 0 {
		if id, err := strconv.ParseUint(fields[0], 0, 32); err == nil {
			if v := gpu.VendorFromPCIID(uint16(id)); v != gpu.VendorOther {
				return v
			}
		}
	}
	if v, ok := abbreviationVendors[strings.ToUpper(d.platform)]; ok {
		return v
	}
	return gpu.VendorOther
}

// bdf returns the PCI location from whichever vendor extension reported it.
func (d *rawDevice) bdf() (string, bool) {
	for _, key := range []string{
		"CL_DEVICE_PCI_BUS_INFO_KHR",
		"CL_DEVICE_TOPOLOGY_AMD",
		"CL_DEVICE_TOPOLOGY_NV",
		"CL_DEVICE_PCI_BUS_ID_NV",
	} {
		if s, ok := d.props[key]; ok {
			if bdf := bdfPattern.FindString(s); bdf != "" {
				return bdf, true
			}
		}
	}

	bus, ok := d.number("CL_DEVICE_PCI_BUS_ID_NV")
	if !ok {
		return "", false
	}
	slot, ok := d.number("CL_DEVICE_PCI_SLOT_ID_NV")
	if !ok {
		return "", false
	}
	domain, _ := d.number("CL_DEVICE_PCI_DOMAIN_ID_NV")
	return fmt.Sprintf("%04x:%02x:%02x.%x", domain, bus, slot>>3, slot&7), true
}

// number parses the leading decimal or 0x-prefixed value of a property.
func (d *rawDevice) number(key string) (uint64, bool) {
	fields := strings.Fields(d.props[key])
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(fields[0], 0, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

var mappedProperties = map[string]bool{
	"CL_DEVICE_NAME":                true,
	"CL_DEVICE_VERSION":             true,
	"CL_DRIVER_VERSION":             true,
	"CL_DEVICE_OPENCL_C_VERSION":    true,
	"CL_DEVICE_MAX_COMPUTE_UNITS":   true,
	"CL_DEVICE_MAX_WORK_GROUP_SIZE": true,
	"CL_DEVICE_GLOBAL_MEM_SIZE":     true,
}

func (d *rawDevice) info(p *rawPlatform) gpu.PlatformInfo {
	info := gpu.PlatformInfo{
		PlatformName:    p.name,
		PlatformVersion: p.version,
		DeviceName:      d.props["CL_DEVICE_NAME"],
		DeviceVersion:   d.props["CL_DEVICE_VERSION"],
		DriverVersion:   d.props["CL_DRIVER_VERSION"],
		OpenCLCVersion:  d.props["CL_DEVICE_OPENCL_C_VERSION"],
		Properties:      make(map[string]string),
	}
	info.ComputeUnits, _ = strconv.Atoi(d.props["CL_DEVICE_MAX_COMPUTE_UNITS"])
	info.MaxWorkGroup, _ = strconv.Atoi(d.props["CL_DEVICE_MAX_WORK_GROUP_SIZE"])
	info.GlobalMemory, _ = strconv.ParseUint(d.props["CL_DEVICE_GLOBAL_MEM_SIZE"], 10, 64)
	for k, v := range d.props {
		if !mappedProperties[k] {
			info.Properties[k] = v
		}
	}
	return info
}
