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
	"fmt"
	"strings"
)

// Device is the record kept for one physical GPU.
//
// The identity fields are set by the enumerator and are not modified
// afterwards. Compatibility is owned by the classifier; attribute sets and
// tables are owned by whichever reader is currently operating on the device.
type Device struct {
	ID                int
	Card              string
	Vendor            Vendor
	VendorID          uint16
	DeviceID          uint16
	SubsystemVendorID uint16
	SubsystemDeviceID uint16
	Model             string
	PCIAddress        string
	Driver            string
	// DevicePath is the sysfs directory of the PCI device backing the card.
	DevicePath string
	// HwmonPath is the first hwmon directory of the device, if any.
	HwmonPath string

	Compatibility Compatibility

	sets map[SensorSet]Attributes

	PStates  PStateTable
	PPM      PPMTable
	Platform *PlatformInfo
}

// SetAttributes replaces the attributes belonging to a base sensor set.
// A nil map is stored as an empty set.
func (d *Device) SetAttributes(set SensorSet, attrs Attributes) {
	if d.sets == nil {
		d.sets = make(map[SensorSet]Attributes)
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	d.sets[set] = attrs
}

// ClearReadings drops every attribute set and empties the tables that have
// been read. Identity, compatibility and platform details are kept.
func (d *Device) ClearReadings() {
	d.sets = nil
	if d.PStates != nil {
		d.PStates = PStateTable{}
	}
	if d.PPM.Modes != nil {
		d.PPM = EmptyPPMTable()
	}
}

// Attributes returns the attributes last read for a sensor set. For All the
// union of the base sets is returned.
func (d *Device) Attributes(set SensorSet) Attributes {
	if set == All {
		return d.AllAttributes()
	}
	return d.sets[set]
}

// HasSet returns true if the sensor set has been read.
func (d *Device) HasSet(set SensorSet) bool {
	_, ok := d.sets[set]
	return ok
}

// AllAttributes returns the union of all base sets read so far.
func (d *Device) AllAttributes() Attributes {
	all := make(Attributes)
	for _, set := range BaseSets {
		for k, v := range d.sets[set] {
			all[k] = v
		}
	}
	return all
}

// TopologyKey returns the vendor qualified bus location of the device in
// bus:device.function form.
func (d *Device) TopologyKey() TopologyKey {
	return NewTopologyKey(d.Vendor, d.PCIAddress)
}

func (d *Device) String() string {
	return fmt.Sprintf("%s (%s %s)", d.Card, d.Vendor, d.PCIAddress)
}

// MarshalJSON renders the device including its attribute sets.
func (d *Device) MarshalJSON() ([]byte, error) {
	sets := make(map[SensorSet]Attributes, len(d.sets))
	for k, v := range d.sets {
		sets[k] = v
	}
	return json.Marshal(struct {
		ID            int                      `json:"id"`
		Card          string                   `json:"card"`
		Vendor        Vendor                   `json:"vendor"`
		Model         string                   `json:"model"`
		PCIAddress    string                   `json:"pciAddress"`
		Driver        string                   `json:"driver"`
		Compatibility Compatibility            `json:"compatibility"`
		Attributes    map[SensorSet]Attributes `json:"attributes,omitempty"`
		PStates       PStateTable              `json:"pstates,omitempty"`
		PPM           *PPMTable                `json:"ppm,omitempty"`
		Platform      *PlatformInfo            `json:"platform,omitempty"`
	}{
		ID:            d.ID,
		Card:          d.Card,
		Vendor:        d.Vendor,
		Model:         d.Model,
		PCIAddress:    d.PCIAddress,
		Driver:        d.Driver,
		Compatibility: d.Compatibility,
		Attributes:    sets,
		PStates:       d.PStates,
		PPM:           ppmOrNil(d.PPM),
		Platform:      d.Platform,
	})
}

func ppmOrNil(t PPMTable) *PPMTable {
	if t.Modes == nil {
		return nil
	}
	return &t
}

// TopologyKey identifies a device by vendor and PCI location.
type TopologyKey struct {
	Vendor Vendor
	BDF    string
}

// NewTopologyKey builds a key from a vendor and a PCI address. The PCI domain
// is dropped when it is zero so that addresses with and without a domain
// compare equal.
func NewTopologyKey(vendor Vendor, address string) TopologyKey {
	return TopologyKey{Vendor: vendor, BDF: NormalizeBDF(address)}
}

// NormalizeBDF lowercases a PCI address and strips a zero domain.
func NormalizeBDF(address string) string {
	a := strings.ToLower(strings.TrimSpace(address))
	parts := strings.Split(a, ":")
	if len(parts) == 3 && strings.Trim(parts[0], "0") == "" {
		return parts[1] + ":" + parts[2]
	}
	return a
}

func (k TopologyKey) String() string {
	return string(k.Vendor) + "/" + k.BDF
}
