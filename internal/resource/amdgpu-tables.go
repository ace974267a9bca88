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
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

var (
	// 0: 300Mhz *
	// S: 19Mhz *
	dpmLinePattern = regexp.MustCompile(`^\s*([0-9]+|[A-Za-z]):\s*([0-9]+)\s*[Mm][Hh]z\s*(\*)?\s*$`)
	// 0:        852Mhz        800mV
	odLinePattern = regexp.MustCompile(`^\s*([0-9]+):\s*([0-9]+)\s*[Mm][Hh]z(?:\s+([0-9]+)\s*mV)?`)
	// 1 3D_FULL_SCREEN *:    0  100 ...
	ppmModePattern = regexp.MustCompile(`^\s*([0-9]+)\s+([A-Za-z0-9_]+)\s*(\*)?\s*:(.*)$`)
	//                    0(       GFXCLK)       0       5 ...
	ppmClockPattern = regexp.MustCompile(`^\s*[0-9]+\(\s*([A-Za-z0-9_]+)\)\s*(.*)$`)
)

// odSections maps the sections of pp_od_clk_voltage that hold pstate rows to
// the clock domain reported for them.
var odSections = map[string]string{
	"OD_SCLK":       "SCLK",
	"OD_MCLK":       "MCLK",
	"OD_VDDC_CURVE": "VDDC_CURVE",
}

// parseDPM parses a pp_dpm_* file. Rows keep the order the driver reports.
func parseDPM(domain string, contents string) gpu.PStateTable {
	table := gpu.PStateTable{}
	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		m := dpmLinePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		row := gpu.PState{Domain: domain, Current: m[3] == "*"}
		row.ClockMHz, _ = strconv.Atoi(m[2])
		if index, err := strconv.Atoi(m[1]); err == nil {
			row.Index = index
		} else {
			row.Index = -1
			row.Label = strings.ToUpper(m[1])
		}
		table = append(table, row)
	}
	return table
}

// currentDPMLevel returns the row marked as active.
func currentDPMLevel(contents string) (gpu.PState, bool) {
	for _, row := range parseDPM("", contents) {
		if row.Current {
			return row, true
		}
	}
	return gpu.PState{}, false
}

// parseODClockVoltage parses the overdrive table of pp_od_clk_voltage.
func parseODClockVoltage(contents string) gpu.PStateTable {
	table := gpu.PStateTable{}
	domain := ""
	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasSuffix(line, ":") && strings.HasPrefix(line, "OD_") {
			domain = odSections[strings.TrimSuffix(line, ":")]
			continue
		}
		if domain == "" {
			continue
		}
		m := odLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, _ := strconv.Atoi(m[1])
		clock, _ := strconv.Atoi(m[2])
		voltage := 0
		if m[3] != "" {
			voltage, _ = strconv.Atoi(m[3])
		}
		table = append(table, gpu.PState{
			Domain:    domain,
			Index:     index,
			ClockMHz:  clock,
			VoltageMV: voltage,
		})
	}
	return table
}

// parsePowerProfileMode parses pp_power_profile_mode. Both the single row per
// profile layout and the per clock domain layout of newer ASICs are handled;
// in the latter every clock domain row is appended to the params of its
// profile.
func parsePowerProfileMode(contents string) gpu.PPMTable {
	table := gpu.EmptyPPMTable()
	scanner := bufio.NewScanner(strings.NewReader(contents))
	var current *gpu.PPMode
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if table.Header == nil && len(table.Modes) == 0 && ppmModePattern.FindStringSubmatch(line) == nil {
			table.Header = strings.Fields(line)
			continue
		}
		if m := ppmModePattern.FindStringSubmatch(line); m != nil {
			index, _ := strconv.Atoi(m[1])
			table.Modes = append(table.Modes, gpu.PPMode{
				Index:   index,
				Name:    m[2],
				Current: m[3] == "*",
				Params:  strings.Fields(m[4]),
			})
			current = &table.Modes[len(table.Modes)-1]
			continue
		}
		if m := ppmClockPattern.FindStringSubmatch(line); m != nil && current != nil {
			current.Params = append(current.Params, strings.Join(append([]string{m[1]}, strings.Fields(m[2])...), " "))
		}
	}
	return table
}

// currentPowerProfile returns the name of the active profile.
func currentPowerProfile(table gpu.PPMTable) (string, bool) {
	for _, mode := range table.Modes {
		if mode.Current {
			return mode.Name, true
		}
	}
	return "", false
}
