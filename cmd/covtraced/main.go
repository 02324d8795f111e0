// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

// Command covtraced is a small service showing the tracing middleware at work.
//
// Spans are exported if OTEL_EXPORTER_OTLP_ENDPOINT is set.
// Route /relay calls COVTRACE_DOWNSTREAM_URL if set. Coverage is attached to sampled spans if built with
//
//	go build -cover -covermode=atomic ./cmd/covtraced
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/nokia/covtrace"
	"github.com/nokia/covtrace/trace/provider"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	cfg, err := covtrace.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	traceCfg, err := provider.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	tp, err := provider.New(context.Background(), traceCfg)
	if err != nil {
		log.Fatal(err)
	}

	var tracer trace.Tracer
	if tp != nil {
		provider.Install(tp)
		tracer = tp.Tracer("covtraced")
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Error("Trace provider shutdown: ", err)
			}
		}()
	} else {
		log.Info("OTLP endpoint not set, requests are not traced")
	}

	mw := covtrace.NewFromConfig(tracer, cfg).Skip("/metrics", "/healthz")
	client := covtrace.NewClient()

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.HandleFunc("/hello/{name}", hello).Methods(http.MethodGet)
	if downstream := os.Getenv("COVTRACE_DOWNSTREAM_URL"); downstream != "" {
		base, err := url.Parse(downstream)
		if err != nil || base.Host == "" {
			log.Fatalf("Invalid COVTRACE_DOWNSTREAM_URL %q", downstream)
		}
		router.HandleFunc("/relay", relay(client, base)).Methods(http.MethodGet)
	}

	addr := os.Getenv("COVTRACE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Infof("Listening on %s, coverage sample rate %.2f%%", addr, cfg.SampleRate)
	if err := covtrace.NewServer().Addr(addr).Middleware(mw).Handler(router).Graceful(time.Second).ListenAndServe(); err != nil {
		log.Error(err)
	}
}

func hello(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "nobody" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"hello": name})
}

// relay calls the path in query parameter "path" on the downstream base URL, continuing the trace of the request.
func relay(client *http.Client, base *url.URL) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := base.JoinPath(r.URL.Query().Get("path"))
		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			log.Warn("Relay failed: ", err)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
	}
}
