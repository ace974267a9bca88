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
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/resource"
)

// Managers returns the manager serving a vendor.
type Managers interface {
	For(gpu.Vendor) resource.Manager
}

// Classifier assigns a compatibility class to devices from one read probe
// and one write probe each. Probes are not retried.
type Classifier struct {
	managers Managers
	timeout  time.Duration
}

// New creates a Classifier. A zero timeout lets each probe block as long as
// the vendor interface does.
func New(managers Managers, timeout time.Duration) *Classifier {
	return &Classifier{
		managers: managers,
		timeout:  timeout,
	}
}

// Classify probes a single device and returns its class. A probe that fails
// or times out counts as a negative result.
func (c *Classifier) Classify(ctx context.Context, d *gpu.Device) gpu.Compatibility {
	m := c.managers.For(d.Vendor)

	_, readErr := resource.Call(ctx, c.timeout, func() (struct{}, error) {
		return struct{}{}, m.ProbeRead(d)
	})
	_, writeErr := resource.Call(ctx, c.timeout, func() (struct{}, error) {
		return struct{}{}, m.ProbeWrite(d)
	})
	if readErr != nil {
		klog.V(4).Infof("Read probe failed for %v: %v", d, readErr)
	}
	if writeErr != nil {
		klog.V(4).Infof("Write probe failed for %v: %v", d, writeErr)
	}

	return gpu.CompatibilityFromProbes(readErr == nil, writeErr == nil)
}

// ClassifyAll classifies every device, one worker per device, and sets the
// Compatibility field of each. Readings of a device that is no longer
// readable are cleared. It returns once all workers are done.
func (c *Classifier) ClassifyAll(ctx context.Context, devices []*gpu.Device) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range devices {
		d := d
		g.Go(func() error {
			d.Compatibility = c.Classify(ctx, d)
			if !d.Compatibility.Readable() {
				d.ClearReadings()
			}
			klog.Infof("Classified %v as %v", d, d.Compatibility)
			return nil
		})
	}
	return g.Wait()
}
