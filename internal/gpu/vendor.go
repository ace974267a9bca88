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

// Vendor identifies the company whose interface is used to query a device.
type Vendor string

// Constants representing the supported GPU vendors
const (
	VendorAMD    Vendor = "AMD"
	VendorNVIDIA Vendor = "NVIDIA"
	VendorIntel  Vendor = "INTEL"
	VendorOther  Vendor = "OTHER"
)

// PCI vendor ids
const (
	PCIVendorAMD    uint16 = 0x1002
	PCIVendorNVIDIA uint16 = 0x10de
	PCIVendorIntel  uint16 = 0x8086
)

// Vendors lists the known vendors in display order.
var Vendors = []Vendor{VendorAMD, VendorNVIDIA, VendorIntel, VendorOther}

var driverVendors = map[string]Vendor{
	"amdgpu":  VendorAMD,
	"radeon":  VendorAMD,
	"nvidia":  VendorNVIDIA,
	"nouveau": VendorNVIDIA,
	"i915":    VendorIntel,
	"xe":      VendorIntel,
}

// VendorFromPCIID maps a PCI vendor id to a Vendor.
func VendorFromPCIID(id uint16) Vendor {
	switch id {
	case PCIVendorAMD:
		return VendorAMD
	case PCIVendorNVIDIA:
		return VendorNVIDIA
	case PCIVendorIntel:
		return VendorIntel
	}
	return VendorOther
}

// ResolveVendor determines the vendor of a device from its PCI vendor id,
// falling back to the name of the kernel driver bound to it.
func ResolveVendor(id uint16, driver string) Vendor {
	if v := VendorFromPCIID(id); v != VendorOther {
		return v
	}
	if v, ok := driverVendors[driver]; ok {
		return v
	}
	return VendorOther
}
