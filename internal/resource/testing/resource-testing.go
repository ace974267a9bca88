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

package testing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/resource"
)

// Card describes a DRM card node and the PCI device behind it.
type Card struct {
	Index    int
	Address  string
	Class    uint32
	VendorID uint16
	DeviceID uint16
	Driver   string
	// Files are written to the PCI device directory.
	Files map[string]string
	// Hwmon files are written to device/hwmon/hwmon0 when set.
	Hwmon map[string]string
}

// Sysfs builds a fake sysfs tree rooted at Root.
type Sysfs struct {
	t    require.TestingT
	Root string
}

// NewSysfs creates the DRM class directory under root.
func NewSysfs(t require.TestingT, root string) *Sysfs {
	s := &Sysfs{t: t, Root: root}
	s.mkdir("class", "drm")
	return s
}

// NewAMDCard returns a Card bound to amdgpu with a minimal set of readable files.
func NewAMDCard(index int, address string) Card {
	return Card{
		Index:    index,
		Address:  address,
		Class:    0x030000,
		VendorID: gpu.PCIVendorAMD,
		DeviceID: 0x73bf,
		Driver:   "amdgpu",
		Files: map[string]string{
			"pp_dpm_sclk":                       "0: 500Mhz\n1: 1500Mhz *\n2: 2500Mhz\n",
			"pp_dpm_mclk":                       "0: 96Mhz\n1: 1000Mhz *\n",
			"power_dpm_force_performance_level": "auto\n",
			"power_dpm_state":                   "performance\n",
			"gpu_busy_percent":                  "12\n",
			"mem_info_vram_total":               fmt.Sprintf("%d\n", 16*1024*1024*1024),
			"mem_info_vram_used":                fmt.Sprintf("%d\n", 512*1024*1024),
		},
		Hwmon: map[string]string{
			"temp1_input":    "45000\n",
			"temp1_label":    "edge\n",
			"power1_average": "35000000\n",
		},
	}
}

// AddCard creates the card node, its PCI device and the driver link, and
// returns the card directory.
func (s *Sysfs) AddCard(c Card) string {
	pciDir := s.mkdir("bus", "pci", "devices", c.Address)
	s.write(pciDir, "class", fmt.Sprintf("0x%06x", c.Class))
	s.write(pciDir, "vendor", fmt.Sprintf("0x%04x", c.VendorID))
	s.write(pciDir, "device", fmt.Sprintf("0x%04x", c.DeviceID))
	s.write(pciDir, "subsystem_vendor", fmt.Sprintf("0x%04x", c.VendorID))
	s.write(pciDir, "subsystem_device", "0x0e3a")
	s.write(pciDir, "uevent", fmt.Sprintf("DRIVER=%s\nPCI_SLOT_NAME=%s\n", c.Driver, c.Address))
	for name, contents := range c.Files {
		s.write(pciDir, name, contents)
	}
	if c.Hwmon != nil {
		hwmon := s.mkdir("bus", "pci", "devices", c.Address, "hwmon", "hwmon0")
		for name, contents := range c.Hwmon {
			s.write(hwmon, name, contents)
		}
	}
	if c.Driver != "" {
		driverDir := s.mkdir("bus", "pci", "drivers", c.Driver)
		s.symlink(driverDir, filepath.Join(pciDir, "driver"))
		s.mkdir("module", c.Driver)
	}

	cardDir := s.mkdir("class", "drm", fmt.Sprintf("card%d", c.Index))
	s.symlink(pciDir, filepath.Join(cardDir, "device"))
	return cardDir
}

// AddMalformedCard creates a card node whose device link points nowhere.
func (s *Sysfs) AddMalformedCard(index int) {
	cardDir := s.mkdir("class", "drm", fmt.Sprintf("card%d", index))
	s.symlink(filepath.Join(s.Root, "missing"), filepath.Join(cardDir, "device"))
}

// AddModule creates a kernel module directory with the specified parameters.
func (s *Sysfs) AddModule(name string, parameters map[string]string) {
	dir := s.mkdir("module", name, "parameters")
	for p, v := range parameters {
		s.write(dir, p, v)
	}
}

// DevicePath returns the path through which the managers read a card.
func (s *Sysfs) DevicePath(index int) string {
	return filepath.Join(s.Root, "class", "drm", fmt.Sprintf("card%d", index), "device")
}

func (s *Sysfs) mkdir(elem ...string) string {
	dir := filepath.Join(append([]string{s.Root}, elem...)...)
	require.NoError(s.t, os.MkdirAll(dir, 0755))
	return dir
}

func (s *Sysfs) write(dir, name, contents string) {
	require.NoError(s.t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

func (s *Sysfs) symlink(target, link string) {
	require.NoError(s.t, os.Symlink(target, link))
}

// NewManagerMock creates a mocked manager whose probes succeed as specified
// and whose queries return a single attribute naming the set.
func NewManagerMock(readable bool, writable bool) *resource.ManagerMock {
	probe := func(ok bool) func(*gpu.Device) error {
		return func(d *gpu.Device) error {
			if ok {
				return nil
			}
			return fmt.Errorf("%w: mocked", gpu.ErrDeviceProbeFailed)
		}
	}
	query := func(set gpu.SensorSet) func(*gpu.Device) (gpu.Attributes, error) {
		return func(d *gpu.Device) (gpu.Attributes, error) {
			return gpu.Attributes{string(set): gpu.String(d.Card)}, nil
		}
	}
	return &resource.ManagerMock{
		InitFunc:         func() error { return nil },
		ShutdownFunc:     func() error { return nil },
		ProbeReadFunc:    probe(readable),
		ProbeWriteFunc:   probe(writable),
		QueryStaticFunc:  query(gpu.Static),
		QueryDynamicFunc: query(gpu.Dynamic),
		QueryInfoFunc:    query(gpu.Info),
		QueryStateFunc:   query(gpu.State),
		QueryPStatesFunc: func(*gpu.Device) (gpu.PStateTable, error) {
			return gpu.PStateTable{
				{Domain: "SCLK", Index: 0, ClockMHz: 500},
				{Domain: "SCLK", Index: 1, ClockMHz: 1500, Current: true},
			}, nil
		},
		QueryPPMFunc: func(*gpu.Device) (gpu.PPMTable, error) {
			return gpu.PPMTable{
				Header: []string{"NUM", "MODE_NAME"},
				Modes: []gpu.PPMode{
					{Index: 0, Name: "BOOTUP_DEFAULT", Current: true, Params: []string{}},
					{Index: 1, Name: "COMPUTE", Params: []string{}},
				},
			}, nil
		},
	}
}

// WithErrorOnInit sets the Init function for the ManagerMock to error if called.
func WithErrorOnInit(m *resource.ManagerMock, err error) *resource.ManagerMock {
	m.InitFunc = func() error {
		return err
	}
	return m
}
