package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type providerStat struct {
	calls int64
	bytes int64
}

var (
	warnCounts  sync.Map // map[string]*int64
	errorCounts sync.Map // map[string]*int64
	providers   sync.Map // map[string]*providerStat
	cacheHits   int64
	cacheMisses int64
)

func recordWarn(component string) {
	v, _ := warnCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func recordError(component string) {
	v, _ := errorCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

// RecordUpstreamCall tracks a completed upstream request and the size of
// its response body.
func RecordUpstreamCall(provider string, size int) {
	v, _ := providers.LoadOrStore(provider, &providerStat{})
	ps := v.(*providerStat)
	atomic.AddInt64(&ps.calls, 1)
	atomic.AddInt64(&ps.bytes, int64(size))
}

func IncrementCacheHit() {
	atomic.AddInt64(&cacheHits, 1)
}

func IncrementCacheMiss() {
	atomic.AddInt64(&cacheMisses, 1)
}

// StartReport begins periodic logging of runtime and upstream statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(log)
			}
		}
	}()
}

func logReport(log *Log) {
	providerData := map[string]map[string]int64{}
	providers.Range(func(k, v any) bool {
		name := k.(string)
		ps := v.(*providerStat)
		providerData[name] = map[string]int64{
			"calls": atomic.LoadInt64(&ps.calls),
			"bytes": atomic.LoadInt64(&ps.bytes),
		}
		return true
	})

	warnData := map[string]int64{}
	warnCounts.Range(func(k, v any) bool {
		warnData[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	errorData := map[string]int64{}
	errorCounts.Range(func(k, v any) bool {
		errorData[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fields := Fields{
		"warns":        warnData,
		"errors":       errorData,
		"providers":    providerData,
		"cache_hits":   atomic.LoadInt64(&cacheHits),
		"cache_misses": atomic.LoadInt64(&cacheMisses),
		"goroutines":   runtime.NumGoroutine(),
		"heap_mb":      int64(memStats.HeapAlloc) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")
}
