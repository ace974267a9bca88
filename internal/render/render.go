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

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/inventory"
)

// Format selects how an inventory is rendered.
type Format string

// Constants representing the output formats
const (
	FormatCompact Format = "compact"
	FormatListing Format = "listing"
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatCompact, FormatListing, FormatTable, FormatJSON}

// ParseFormat converts a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Options control the amount of detail rendered.
type Options struct {
	// Short limits output to the identity and a small set of key readings.
	Short bool
	// IncludePlatform adds compute platform details to the output.
	IncludePlatform bool
}

// Inventory is the view of an inventory the renderers need.
type Inventory interface {
	ID() string
	Devices() []*gpu.Device
	VendorCounts() map[gpu.Vendor]int
	CapabilityCounts() inventory.CapabilityCounts
}

// shortKeys are the attributes shown by the short table.
var shortKeys = []string{
	"model",
	"pci_address",
	"driver",
	"temp_edge",
	"power",
	"gpu_busy",
	"vram_used",
	"vram_total",
}

// Render writes the inventory to w in the requested format.
func Render(w io.Writer, format Format, inv Inventory, opts Options) error {
	switch format {
	case FormatCompact:
		return Compact(w, inv)
	case FormatListing:
		return Listing(w, inv, opts)
	case FormatTable:
		return Table(w, inv, opts)
	case FormatJSON:
		return JSON(w, inv, opts)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Compact writes one line per device.
func Compact(w io.Writer, inv Inventory) error {
	for _, d := range inv.Devices() {
		_, err := fmt.Fprintf(w, "%-3d %-7s %-6s %-13s %-18s %s\n",
			d.ID, d.Card, d.Vendor, d.PCIAddress, d.Compatibility, modelOf(d))
		if err != nil {
			return err
		}
	}
	return nil
}

// Listing writes every attribute read so far, grouped by device and sensor
// set, followed by any tables that were read.
func Listing(w io.Writer, inv Inventory, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Inventory %s\n", inv.ID())
	fmt.Fprintf(&b, "%s\n", summaryLine(inv))

	for _, d := range inv.Devices() {
		fmt.Fprintf(&b, "\n%s: %s %s\n", d.Card, d.Vendor, modelOf(d))
		fmt.Fprintf(&b, "  PCI address:   %s\n", d.PCIAddress)
		fmt.Fprintf(&b, "  Driver:        %s\n", d.Driver)
		fmt.Fprintf(&b, "  Compatibility: %s\n", d.Compatibility)

		sets := gpu.BaseSets
		if opts.Short {
			sets = []gpu.SensorSet{gpu.Static}
		}
		for _, set := range sets {
			if !d.HasSet(set) {
				continue
			}
			writeAttributes(&b, set, d.Attributes(set))
		}
		if opts.Short {
			continue
		}

		if len(d.PStates) > 0 {
			b.WriteString("  [pstates]\n")
			for _, p := range d.PStates {
				fmt.Fprintf(&b, "    %-8s %2s: %5d MHz", p.Domain, p.Level(), p.ClockMHz)
				if p.VoltageMV > 0 {
					fmt.Fprintf(&b, " %5d mV", p.VoltageMV)
				}
				if p.Current {
					b.WriteString(" *")
				}
				b.WriteString("\n")
			}
		}
		if d.PPM.Len() > 0 {
			b.WriteString("  [ppm]\n")
			if len(d.PPM.Header) > 0 {
				fmt.Fprintf(&b, "    %s\n", strings.Join(d.PPM.Header, " "))
			}
			for _, m := range d.PPM.Modes {
				current := ""
				if m.Current {
					current = "*"
				}
				fmt.Fprintf(&b, "    %2d %s%s %s\n", m.Index, m.Name, current, strings.Join(m.Params, " "))
			}
		}
		if opts.IncludePlatform && d.Platform != nil {
			writePlatform(&b, d.Platform)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeAttributes(b *strings.Builder, set gpu.SensorSet, attrs gpu.Attributes) {
	fmt.Fprintf(b, "  [%s]\n", set)
	if len(attrs) == 0 {
		b.WriteString("    (none)\n")
		return
	}
	for _, k := range sortedKeys(attrs) {
		fmt.Fprintf(b, "    %-24s %s\n", k+":", attrs[k])
	}
}

func writePlatform(b *strings.Builder, p *gpu.PlatformInfo) {
	b.WriteString("  [platform]\n")
	rows := [][2]string{
		{"platform", p.PlatformName},
		{"platform_version", p.PlatformVersion},
		{"device_name", p.DeviceName},
		{"device_version", p.DeviceVersion},
		{"driver_version", p.DriverVersion},
		{"opencl_c_version", p.OpenCLCVersion},
		{"compute_units", fmt.Sprint(p.ComputeUnits)},
		{"max_work_group", fmt.Sprint(p.MaxWorkGroup)},
		{"global_memory", fmt.Sprint(p.GlobalMemory)},
	}
	for _, r := range rows {
		if r[1] == "" || r[1] == "0" {
			continue
		}
		fmt.Fprintf(b, "    %-24s %s\n", r[0]+":", r[1])
	}
}

// Table writes a grid with one column per device and one row per attribute.
func Table(w io.Writer, inv Inventory, opts Options) error {
	devices := inv.Devices()
	headers := []string{""}
	for _, d := range devices {
		headers = append(headers, d.Card)
	}

	rows := [][]string{
		deviceRow("vendor", devices, func(_ int, d *gpu.Device) string { return string(d.Vendor) }),
		deviceRow("compatibility", devices, func(_ int, d *gpu.Device) string { return d.Compatibility.String() }),
	}

	all := make([]gpu.Attributes, len(devices))
	keys := make(map[string]bool)
	for i, d := range devices {
		all[i] = d.AllAttributes()
		for k := range all[i] {
			keys[k] = true
		}
	}

	var order []string
	if opts.Short {
		order = shortKeys
	} else {
		for k := range keys {
			order = append(order, k)
		}
		sort.Strings(order)
	}
	for _, k := range order {
		rows = append(rows, deviceRow(k, devices, func(i int, _ *gpu.Device) string {
			v, ok := all[i][k]
			if !ok {
				return ""
			}
			return v.String()
		}))
	}
	if opts.IncludePlatform {
		rows = append(rows, deviceRow("platform", devices, func(_ int, d *gpu.Device) string {
			if d.Platform == nil {
				return ""
			}
			return d.Platform.DeviceName
		}))
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.String(), summaryLine(inv))
	return err
}

func deviceRow(name string, devices []*gpu.Device, value func(int, *gpu.Device) string) []string {
	row := []string{name}
	for i, d := range devices {
		row = append(row, value(i, d))
	}
	return row
}

type jsonInventory struct {
	ID           string                     `json:"id"`
	Vendors      map[gpu.Vendor]int         `json:"vendors"`
	Capabilities inventory.CapabilityCounts `json:"capabilities"`
	Devices      []json.RawMessage          `json:"devices"`
}

// JSON writes the whole inventory as an indented JSON document.
func JSON(w io.Writer, inv Inventory, opts Options) error {
	out := jsonInventory{
		ID:           inv.ID(),
		Vendors:      inv.VendorCounts(),
		Capabilities: inv.CapabilityCounts(),
		Devices:      []json.RawMessage{},
	}
	for _, d := range inv.Devices() {
		view := *d
		if !opts.IncludePlatform {
			view.Platform = nil
		}
		data, err := json.Marshal(&view)
		if err != nil {
			return fmt.Errorf("error marshalling %v: %w", d, err)
		}
		out.Devices = append(out.Devices, data)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling inventory: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func summaryLine(inv Inventory) string {
	vendors := inv.VendorCounts()
	var parts []string
	for _, v := range gpu.Vendors {
		if n := vendors[v]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", v, n))
		}
	}
	c := inv.CapabilityCounts()
	return fmt.Sprintf("Devices: %d [%s] RW: %d R: %d W: %d Unreadable: %d",
		c.Total, strings.Join(parts, ", "), c.RW, c.ROnly, c.WOnly, c.Unreadable)
}

func modelOf(d *gpu.Device) string {
	if d.Model != "" {
		return d.Model
	}
	return fmt.Sprintf("[%04x:%04x]", d.VendorID, d.DeviceID)
}

func sortedKeys(attrs gpu.Attributes) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
