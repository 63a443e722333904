// Command btidxbench loads cmd/btidxbench's settings, opens the B+Tree
// index core alongside a Pebble-backed LSM comparison backend, sweeps each
// through the same insert-and-mixed-workload suite, and writes the results
// to a CSV — the same shape as the teacher's final_thesis_results.csv,
// extended with Prometheus counters served over HTTP and an optional
// latency chart rendered with gonum/plot.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relstore/btreeidx/btreeidx"
	"github.com/relstore/btreeidx/compare"
	"github.com/relstore/btreeidx/compare/lsm"
	"github.com/relstore/btreeidx/config"
	"github.com/relstore/btreeidx/metrics"
	"github.com/relstore/btreeidx/pagedfile"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults baked in if omitted)")
	scale := flag.Int("n", 50000, "number of keys to load per structure")
	csvPath := flag.String("csv", "btidxbench_results.csv", "output CSV path")
	plotPath := flag.String("plot", "", "if set, render a latency-by-structure chart to this PNG path")
	skipCompare := flag.Bool("index-only", false, "skip the Pebble/LSM comparison backend")
	flag.Parse()

	log := slog.Default()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("btidxbench: config load failed, using defaults", "err", err)
		} else {
			cfg = loaded
		}
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.Warn("btidxbench: sentry init failed", "err", err)
		} else {
			defer sentry.Flush(2_000_000_000)
			defer sentry.Recover()
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	go serveMetrics(cfg.Metrics.ListenAddr, reg, log)

	f, err := os.Create(*csvPath)
	if err != nil {
		fatal(log, errors.Wrap(err, "btidxbench: create csv"))
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"})

	dir, err := os.MkdirTemp("", "btidxbench")
	if err != nil {
		fatal(log, errors.Wrap(err, "btidxbench: mkdtemp"))
	}
	defer os.RemoveAll(dir)

	cachePages := []int{16, 64, 256}
	for _, cp := range cachePages {
		idxPath := dir + "/index.idx"
		os.Remove(idxPath)
		idx, err := btreeidx.Open(idxPath, pagedfile.ReadWrite, cp, btreeidx.WithMetrics(m), btreeidx.WithLogger(log))
		if err != nil {
			fatal(log, errors.Wrapf(err, "btidxbench: open index (cache=%d)", cp))
		}
		adapter, err := newIndexAdapter(idx, idxPath+".values")
		if err != nil {
			fatal(log, errors.Wrap(err, "btidxbench: open value heap"))
		}
		runSuite(w, "BTreeIndex", fmt.Sprintf("cache=%d", cp), adapter, *scale)
		adapter.Close()
		idx.Close()
	}

	if !*skipCompare {
		lsmDir := dir + "/compare-lsm"
		store, err := lsm.Open(lsmDir)
		if err != nil {
			log.Warn("btidxbench: comparison lsm open failed", "err", err)
		} else {
			runSuite(w, "ComparePebble", "default", store, *scale)
			store.Close()
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fatal(log, errors.Wrap(err, "btidxbench: flush csv"))
	}

	if *plotPath != "" {
		if err := renderLatencyChart(*csvPath, *plotPath); err != nil {
			log.Error("btidxbench: plot failed", "err", err)
		}
	}

	log.Info("btidxbench: sweep complete", "csv", *csvPath)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info("btidxbench: serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("btidxbench: metrics server stopped", "err", err)
	}
}

func fatal(log *slog.Logger, err error) {
	log.Error("btidxbench: fatal", "err", err)
	sentry.CaptureException(err)
	sentry.Flush(2_000_000_000)
	os.Exit(1)
}

var _ compare.Index = (*indexAdapter)(nil)
