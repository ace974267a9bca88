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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

const namespace = "gpu_inventory"

var (
	attributeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "attribute"),
		"Numeric GPU attribute as last read from the vendor interface.",
		[]string{"card", "vendor", "set", "name", "unit"}, nil,
	)
	compatibilityDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "compatibility"),
		"Compatibility class of a GPU; the active class has the value 1.",
		[]string{"card", "vendor", "class"}, nil,
	)
	devicesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "devices"),
		"Number of GPUs per vendor.",
		[]string{"vendor"}, nil,
	)
)

var classes = []gpu.Compatibility{gpu.ReadWrite, gpu.ReadOnly, gpu.WriteOnly, gpu.Unreadable}

type sample struct {
	desc   *prometheus.Desc
	value  float64
	labels []string
}

// Collector exposes the last observed state of an inventory. The state is
// copied on Update so scrapes never touch the device records.
type Collector struct {
	sync.RWMutex
	samples []sample
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Update replaces the exported state with the given devices.
func (c *Collector) Update(devices []*gpu.Device) {
	var samples []sample
	vendors := make(map[gpu.Vendor]int)
	for _, d := range devices {
		vendors[d.Vendor]++
		vendor := string(d.Vendor)

		for _, class := range classes {
			value := 0.0
			if d.Compatibility == class {
				value = 1
			}
			samples = append(samples, sample{compatibilityDesc, value, []string{d.Card, vendor, class.String()}})
		}

		for _, set := range gpu.BaseSets {
			for name, v := range d.Attributes(set) {
				n, ok := v.Number()
				if !ok {
					continue
				}
				samples = append(samples, sample{attributeDesc, n, []string{d.Card, vendor, string(set), name, v.Unit}})
			}
		}
	}
	for _, v := range gpu.Vendors {
		samples = append(samples, sample{devicesDesc, float64(vendors[v]), []string{string(v)}})
	}

	c.Lock()
	defer c.Unlock()
	c.samples = samples
}

// Describe describes all metrics.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- attributeDesc
	ch <- compatibilityDesc
	ch <- devicesDesc
}

// Collect collects all metrics.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.RLock()
	defer c.RUnlock()
	for _, s := range c.samples {
		ch <- prometheus.MustNewConstMetric(s.desc, prometheus.GaugeValue, s.value, s.labels...)
	}
}
