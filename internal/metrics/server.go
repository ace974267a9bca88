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
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

const defaultShutdownTimeout = 5 * time.Second

var refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "refreshes_total",
	Help:      "Total inventory refreshes grouped by outcome.",
}, []string{"outcome"})

type httpServer interface {
	ListenAndServe() error
	Shutdown(context.Context) error
}

// Server serves the metrics of a Collector over HTTP.
type Server struct {
	addr      string
	collector *Collector
	registry  *prometheus.Registry
	factory   func(addr string, handler http.Handler) httpServer
	httpSrv   httpServer
}

// NewServer creates a server listening on addr.
func NewServer(addr string, collector *Collector) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector, refreshes)
	return &Server{
		addr:      addr,
		collector: collector,
		registry:  registry,
		factory: func(addr string, handler http.Handler) httpServer {
			return &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
		},
	}
}

// Handler returns the HTTP handler exposing the metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// ObserveRefresh counts one refresh with the given outcome.
func (s *Server) ObserveRefresh(outcome string) {
	refreshes.WithLabelValues(outcome).Inc()
}

// Run blocks until the context is cancelled or the HTTP server fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = s.factory(s.addr, s.Handler())

	errCh := make(chan error, 1)
	go func() {
		klog.Infof("Serving metrics on %v", s.addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	err := s.httpSrv.Shutdown(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	klog.Info("Metrics server stopped")
	return nil
}
