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

package resource

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
	"github.com/NVIDIA/gpu-inventory/internal/probe"
)

// Managers holds the manager selected for every vendor.
type Managers map[gpu.Vendor]Manager

// NewManagers is a factory method that creates a Manager per vendor based on
// the detected host capabilities.
func NewManagers(caps probe.Capabilities, failOnInitError bool) Managers {
	managers := make(Managers)
	for _, v := range gpu.Vendors {
		managers[v] = WithConfig(v, getManager(v, caps), failOnInitError)
	}
	return managers
}

// WithConfig modifies a manager depending on the specified config.
// If failure on a call to init is allowed, the manager is wrapped to allow fallback to a Null manager.
func WithConfig(v gpu.Vendor, manager Manager, failOnInitError bool) Manager {
	if failOnInitError {
		return manager
	}
	return NewFallbackToNullOnInitError(string(v), manager)
}

// getManager returns the resource manager for a vendor depending on the
// system configuration.
func getManager(v gpu.Vendor, caps probe.Capabilities) Manager {
	if !caps.Available(v) {
		klog.Infof("Using null manager for %v devices", v)
		return NewNullManager()
	}

	switch v {
	case gpu.VendorAMD:
		klog.Info("Using amdgpu manager")
		return NewAMDGPUManager(caps)
	case gpu.VendorNVIDIA:
		klog.Info("Using NVML manager")
		return NewNVMLManager(caps)
	}
	klog.Infof("Using sysfs manager for %v devices", v)
	return NewSysfsManager(caps)
}

// For returns the manager serving a vendor, or a Null manager if none is set.
func (m Managers) For(v gpu.Vendor) Manager {
	if manager, ok := m[v]; ok {
		return manager
	}
	return NewNullManager()
}

// Init initializes every manager. All managers are attempted; the errors of
// those that failed are joined.
func (m Managers) Init() error {
	var errs []error
	for _, v := range gpu.Vendors {
		manager, ok := m[v]
		if !ok {
			continue
		}
		if err := manager.Init(); err != nil {
			errs = append(errs, fmt.Errorf("failed to initialize %v manager: %w", v, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown shuts down every manager.
func (m Managers) Shutdown() error {
	var errs []error
	for _, v := range gpu.Vendors {
		manager, ok := m[v]
		if !ok {
			continue
		}
		if err := manager.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down %v manager: %w", v, err))
		}
	}
	return errors.Join(errs...)
}
