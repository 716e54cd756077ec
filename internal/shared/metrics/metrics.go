package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	llmCallsTotal          atomic.Uint64
	llmFailuresTotal       atomic.Uint64
	resumesExtractedTotal  atomic.Uint64
	interviewsStartedTotal atomic.Uint64
	interviewTurnsTotal    atomic.Uint64
	entitlementDenied      atomic.Uint64

	llmDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// ObserveLLMCall records one completion call and its duration in milliseconds.
func ObserveLLMCall(durationMs float64, failed bool) {
	llmCallsTotal.Add(1)
	if failed {
		llmFailuresTotal.Add(1)
	}
	if durationMs < 0 {
		durationMs = 0
	}
	llmDuration.Observe(durationMs)
}

func IncResumeExtracted()   { resumesExtractedTotal.Add(1) }
func IncInterviewStarted()  { interviewsStartedTotal.Add(1) }
func IncInterviewTurn()     { interviewTurnsTotal.Add(1) }
func IncEntitlementDenied() { entitlementDenied.Add(1) }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "llm_calls_total", "Total completion calls", llmCallsTotal.Load())
	writeCounter(&buf, "llm_failures_total", "Completion calls that failed", llmFailuresTotal.Load())
	writeCounter(&buf, "resumes_extracted_total", "Resumes extracted and stored", resumesExtractedTotal.Load())
	writeCounter(&buf, "interviews_started_total", "Interview sessions started", interviewsStartedTotal.Load())
	writeCounter(&buf, "interview_turns_total", "Answers submitted to running sessions", interviewTurnsTotal.Load())
	writeCounter(&buf, "entitlement_denied_total", "Interview starts denied for lack of trials", entitlementDenied.Load())
	writeHistogram(&buf, "llm_duration_ms", "Completion latency in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe adds value to the first bucket whose bound holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
