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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/gpu-inventory/internal/gpu"
)

func scrape(t *testing.T, s *Server) string {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollector(t *testing.T) {
	d := &gpu.Device{Card: "card0", Vendor: gpu.VendorAMD, Compatibility: gpu.ReadOnly}
	d.SetAttributes(gpu.Dynamic, gpu.Attributes{
		"temp_edge":  gpu.Float(45, "C"),
		"power":      gpu.Float(35.5, "W"),
		"fan_mode":   gpu.String("auto"),
		"overdrive":  gpu.Bool(true),
		"gpu_busy":   gpu.Int(12, "%"),
		"vram_total": gpu.Int(16368, "MiB"),
	})

	c := NewCollector()
	s := NewServer("127.0.0.1:0", c)

	body := scrape(t, s)
	require.NotContains(t, body, "gpu_inventory_attribute{")

	c.Update([]*gpu.Device{d})
	s.ObserveRefresh("ok")
	body = scrape(t, s)

	expected := []string{
		`gpu_inventory_attribute{card="card0",name="temp_edge",set="dynamic",unit="C",vendor="AMD"} 45`,
		`gpu_inventory_attribute{card="card0",name="power",set="dynamic",unit="W",vendor="AMD"} 35.5`,
		`gpu_inventory_attribute{card="card0",name="gpu_busy",set="dynamic",unit="%",vendor="AMD"} 12`,
		`gpu_inventory_compatibility{card="card0",class="Readable",vendor="AMD"} 1`,
		`gpu_inventory_compatibility{card="card0",class="Unreadable",vendor="AMD"} 0`,
		`gpu_inventory_devices{vendor="AMD"} 1`,
		`gpu_inventory_devices{vendor="NVIDIA"} 0`,
		`gpu_inventory_refreshes_total{outcome="ok"}`,
	}
	for _, e := range expected {
		require.Contains(t, body, e)
	}
	require.NotContains(t, body, `name="fan_mode"`)
	require.NotContains(t, body, `name="overdrive"`)

	c.Update(nil)
	body = scrape(t, s)
	require.NotContains(t, body, "gpu_inventory_attribute{")
	require.Contains(t, body, `gpu_inventory_devices{vendor="AMD"} 0`)
}

type fakeHTTPServer struct {
	listening chan struct{}
	stopped   chan struct{}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.listening)
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	close(f.stopped)
	return nil
}

func TestServerRun(t *testing.T) {
	fake := &fakeHTTPServer{listening: make(chan struct{}), stopped: make(chan struct{})}
	s := NewServer("127.0.0.1:0", NewCollector())
	s.factory = func(string, http.Handler) httpServer { return fake }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	<-fake.listening
	cancel()
	require.NoError(t, <-errCh)
}
