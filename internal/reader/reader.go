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

package reader

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/resource"
)

// Outcome is the result of reading one sensor set from one device.
type Outcome int

const (
	// Read means the set was queried and stored.
	Read Outcome = iota
	// Skipped means the device is not readable; nothing was touched.
	Skipped
	// Unsupported means the vendor backend has no such set; the set was
	// stored empty.
	Unsupported
	// Failed means the query errored; the set was stored empty.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Read:
		return "read"
	case Skipped:
		return "skipped"
	case Unsupported:
		return "unsupported"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Summary counts the outcomes of a read over several devices.
type Summary struct {
	Read        int `json:"read"`
	Skipped     int `json:"skipped"`
	Unsupported int `json:"unsupported"`
	Failed      int `json:"failed"`
}

func (s *Summary) add(o Outcome) {
	switch o {
	case Read:
		s.Read++
	case Skipped:
		s.Skipped++
	case Unsupported:
		s.Unsupported++
	case Failed:
		s.Failed++
	}
}

// Managers returns the manager serving a vendor.
type Managers interface {
	For(gpu.Vendor) resource.Manager
}

// Reader fills device records from the vendor backends.
type Reader struct {
	managers Managers
	timeout  time.Duration
}

// New creates a Reader. The timeout bounds every individual backend query.
func New(managers Managers, timeout time.Duration) *Reader {
	return &Reader{
		managers: managers,
		timeout:  timeout,
	}
}

// ReadSet reads a sensor set from a device and replaces the attributes
// previously stored for it. All reads every base set; its outcome is Read if
// any base set was read.
func (r *Reader) ReadSet(ctx context.Context, d *gpu.Device, set gpu.SensorSet) Outcome {
	if !d.Compatibility.Readable() {
		return Skipped
	}
	if set != gpu.All {
		return r.readBaseSet(ctx, d, set)
	}

	outcome := Unsupported
	for _, base := range gpu.BaseSets {
		switch r.readBaseSet(ctx, d, base) {
		case Read:
			outcome = Read
		case Failed:
			if outcome != Read {
				outcome = Failed
			}
		}
	}
	return outcome
}

func (r *Reader) readBaseSet(ctx context.Context, d *gpu.Device, set gpu.SensorSet) Outcome {
	m := r.managers.For(d.Vendor)
	attrs, err := resource.Call(ctx, r.timeout, func() (gpu.Attributes, error) {
		return resource.Query(m, d, set)
	})
	switch {
	case err == nil:
		d.SetAttributes(set, attrs)
		return Read
	case errors.Is(err, gpu.ErrSensorSetUnsupported):
		d.SetAttributes(set, nil)
		return Unsupported
	default:
		klog.Warningf("Failed to read %v attributes of %v: %v", set, d, err)
		d.SetAttributes(set, nil)
		return Failed
	}
}

// ReadPStates replaces the pstate table of a device. Devices that are not
// readable or whose backend has no table get an empty table.
func (r *Reader) ReadPStates(ctx context.Context, d *gpu.Device) Outcome {
	if !d.Compatibility.Readable() {
		d.PStates = gpu.PStateTable{}
		return Skipped
	}
	m := r.managers.For(d.Vendor)
	table, err := resource.Call(ctx, r.timeout, func() (gpu.PStateTable, error) {
		return m.QueryPStates(d)
	})
	if table == nil || err != nil {
		table = gpu.PStateTable{}
	}
	d.PStates = table
	return outcomeOf(err, d, "pstates")
}

// ReadPPM replaces the power/performance mode table of a device. Devices that
// are not readable or whose backend has no table get an empty table.
func (r *Reader) ReadPPM(ctx context.Context, d *gpu.Device) Outcome {
	if !d.Compatibility.Readable() {
		d.PPM = gpu.EmptyPPMTable()
		return Skipped
	}
	m := r.managers.For(d.Vendor)
	table, err := resource.Call(ctx, r.timeout, func() (gpu.PPMTable, error) {
		return m.QueryPPM(d)
	})
	if table.Modes == nil || err != nil {
		table = gpu.EmptyPPMTable()
	}
	d.PPM = table
	return outcomeOf(err, d, "ppm")
}

func outcomeOf(err error, d *gpu.Device, what string) Outcome {
	switch {
	case err == nil:
		return Read
	case errors.Is(err, gpu.ErrSensorSetUnsupported):
		return Unsupported
	}
	klog.Warningf("Failed to read %v of %v: %v", what, d, err)
	return Failed
}

// ReadSetAll reads a sensor set from every device, one worker per device.
func (r *Reader) ReadSetAll(ctx context.Context, devices []*gpu.Device, set gpu.SensorSet) Summary {
	return r.forEach(ctx, devices, func(ctx context.Context, d *gpu.Device) Outcome {
		return r.ReadSet(ctx, d, set)
	})
}

// ReadPStatesAll reads the pstate table of every device, one worker per device.
func (r *Reader) ReadPStatesAll(ctx context.Context, devices []*gpu.Device) Summary {
	return r.forEach(ctx, devices, r.ReadPStates)
}

// ReadPPMAll reads the power/performance mode table of every device, one
// worker per device.
func (r *Reader) ReadPPMAll(ctx context.Context, devices []*gpu.Device) Summary {
	return r.forEach(ctx, devices, r.ReadPPM)
}

// forEach runs f on every device concurrently and waits for all of them. Each
// worker owns its device until the barrier.
func (r *Reader) forEach(ctx context.Context, devices []*gpu.Device, f func(context.Context, *gpu.Device) Outcome) Summary {
	outcomes := make([]Outcome, len(devices))
	var g errgroup.Group
	for i, d := range devices {
		i, d := i, d
		g.Go(func() error {
			outcomes[i] = f(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	var s Summary
	for _, o := range outcomes {
		s.add(o)
	}
	return s
}
