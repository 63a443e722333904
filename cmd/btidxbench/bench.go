package main

import (
	"encoding/csv"
	"math/rand"
	"runtime"
	"strconv"
	"time"

	"github.com/relstore/btreeidx/compare"
)

// BenchResult is one row of the sweep's output CSV.
type BenchResult struct {
	Structure string
	Config    string
	TestType  string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

// MemStats is a point-in-time sample of the Go heap.
type MemStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

// sampleMem forces a GC so the sample reflects live data rather than
// whatever's still waiting to be collected.
func sampleMem() MemStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemStats{AllocMB: m.Alloc / 1024 / 1024, HeapObjects: m.HeapObjects}
}

func recordRow(w *csv.Writer, r BenchResult) {
	w.Write([]string{
		r.Structure,
		r.Config,
		r.TestType,
		strconv.FormatInt(r.LatencyNs, 10),
		strconv.FormatUint(r.MemMB, 10),
		strconv.FormatUint(r.Objects, 10),
	})
}

// workloadKind names one of the mixed-operation scenarios the sweep drives
// against each backend.
type workloadKind string

const (
	workloadOLTP      workloadKind = "OLTP (90/10 read/write)"
	workloadOLAP      workloadKind = "OLAP (10/90 read/write)"
	workloadReporting workloadKind = "Reporting (range scan)"
)

// runWorkload drives ops operations of the given mix against idx. For
// Reporting it runs an inclusive range scan over [key, key+100] per op
// instead.
func runWorkload(idx compare.Index, kind workloadKind, ops int) {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		// Keys start at 1: the BTreeIndex backend reserves 0 as its
		// on-page empty-slot sentinel and rejects it as a live key.
		key := int64(rand.Intn(ops) + 1)

		switch kind {
		case workloadOLTP:
			if choice < 90 {
				_, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case workloadOLAP:
			if choice < 10 {
				_, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case workloadReporting:
			it, err := idx.Range(key, key+100)
			if err == nil && it != nil {
				for it.Next() {
				}
				it.Close()
			}
		}
	}
}

// runSuite loads n keys into idx, samples memory, then drives each of the
// three mixed workloads, recording one BenchResult row per phase.
func runSuite(w *csv.Writer, structure, config string, idx compare.Index, n int) {
	start := time.Now()
	for k := 1; k <= n; k++ {
		_ = idx.Insert(int64(k), []byte("v"))
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(max(n, 1))

	stats := sampleMem()
	recordRow(w, BenchResult{structure, config, "Footprint_SteadyState", insertLatency, stats.AllocMB, stats.HeapObjects})

	start = time.Now()
	runWorkload(idx, workloadOLTP, n/2)
	recordRow(w, BenchResult{structure, config, "Workload_OLTP", time.Since(start).Nanoseconds() / int64(max(n/2, 1)), sampleMem().AllocMB, 0})

	start = time.Now()
	runWorkload(idx, workloadOLAP, n/2)
	recordRow(w, BenchResult{structure, config, "Workload_OLAP", time.Since(start).Nanoseconds() / int64(max(n/2, 1)), sampleMem().AllocMB, 0})

	start = time.Now()
	runWorkload(idx, workloadReporting, 100)
	recordRow(w, BenchResult{structure, config, "Workload_Range", time.Since(start).Nanoseconds() / 100, sampleMem().AllocMB, 0})
}
