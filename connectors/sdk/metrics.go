// Copyright 2025 The azstor Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sdk

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ConnectorMetrics tracks storage traffic for a single connector: read and
// write operation counts with latency quantiles, plus the byte and object
// volumes that matter for object storage (payload transferred, listings
// returned, SAS tokens minted).
type ConnectorMetrics struct {
	connectorType string

	readsTotal       int64
	writesTotal      int64
	errorsTotal      int64
	connectsTotal    int64
	disconnectsTotal int64

	bytesDownloaded int64
	bytesUploaded   int64
	objectsListed   int64
	sasTokensIssued int64

	readDurationTotal  int64
	writeDurationTotal int64

	connected int32

	readLatencies  *LatencyWindow
	writeLatencies *LatencyWindow
}

// NewConnectorMetrics creates a metrics collector for the given connector type
func NewConnectorMetrics(connectorType string) *ConnectorMetrics {
	return &ConnectorMetrics{
		connectorType:  connectorType,
		readLatencies:  NewLatencyWindow(defaultWindowSize),
		writeLatencies: NewLatencyWindow(defaultWindowSize),
	}
}

// RecordRead records a read operation (listing, download, metadata fetch)
func (m *ConnectorMetrics) RecordRead(duration time.Duration, err error) {
	atomic.AddInt64(&m.readsTotal, 1)
	atomic.AddInt64(&m.readDurationTotal, int64(duration))
	if err != nil {
		atomic.AddInt64(&m.errorsTotal, 1)
	}
	m.readLatencies.Observe(duration)
}

// RecordWrite records a write operation (upload, delete, container management)
func (m *ConnectorMetrics) RecordWrite(duration time.Duration, err error) {
	atomic.AddInt64(&m.writesTotal, 1)
	atomic.AddInt64(&m.writeDurationTotal, int64(duration))
	if err != nil {
		atomic.AddInt64(&m.errorsTotal, 1)
	}
	m.writeLatencies.Observe(duration)
}

// RecordConnect marks the connector connected
func (m *ConnectorMetrics) RecordConnect() {
	atomic.AddInt64(&m.connectsTotal, 1)
	atomic.StoreInt32(&m.connected, 1)
}

// RecordDisconnect marks the connector disconnected
func (m *ConnectorMetrics) RecordDisconnect() {
	atomic.AddInt64(&m.disconnectsTotal, 1)
	atomic.StoreInt32(&m.connected, 0)
}

// RecordError counts an error outside the read/write paths
func (m *ConnectorMetrics) RecordError() {
	atomic.AddInt64(&m.errorsTotal, 1)
}

// AddBytesDownloaded counts payload bytes returned to callers
func (m *ConnectorMetrics) AddBytesDownloaded(n int64) {
	atomic.AddInt64(&m.bytesDownloaded, n)
}

// AddBytesUploaded counts payload bytes sent to the storage service
func (m *ConnectorMetrics) AddBytesUploaded(n int64) {
	atomic.AddInt64(&m.bytesUploaded, n)
}

// AddObjectsListed counts entries returned by listing and peek operations
func (m *ConnectorMetrics) AddObjectsListed(n int64) {
	atomic.AddInt64(&m.objectsListed, n)
}

// RecordSASIssued counts a minted SAS token or presigned URL
func (m *ConnectorMetrics) RecordSASIssued() {
	atomic.AddInt64(&m.sasTokensIssued, 1)
}

// Snapshot returns a point-in-time copy of all counters and latency quantiles
func (m *ConnectorMetrics) Snapshot() *MetricsSnapshot {
	reads := atomic.LoadInt64(&m.readsTotal)
	writes := atomic.LoadInt64(&m.writesTotal)

	var avgRead, avgWrite time.Duration
	if reads > 0 {
		avgRead = time.Duration(atomic.LoadInt64(&m.readDurationTotal) / reads)
	}
	if writes > 0 {
		avgWrite = time.Duration(atomic.LoadInt64(&m.writeDurationTotal) / writes)
	}

	return &MetricsSnapshot{
		ConnectorType:    m.connectorType,
		ReadsTotal:       reads,
		WritesTotal:      writes,
		ErrorsTotal:      atomic.LoadInt64(&m.errorsTotal),
		ConnectsTotal:    atomic.LoadInt64(&m.connectsTotal),
		DisconnectsTotal: atomic.LoadInt64(&m.disconnectsTotal),
		Connected:        atomic.LoadInt32(&m.connected) == 1,
		BytesDownloaded:  atomic.LoadInt64(&m.bytesDownloaded),
		BytesUploaded:    atomic.LoadInt64(&m.bytesUploaded),
		ObjectsListed:    atomic.LoadInt64(&m.objectsListed),
		SASTokensIssued:  atomic.LoadInt64(&m.sasTokensIssued),
		AvgReadLatency:   avgRead,
		AvgWriteLatency:  avgWrite,
		ReadLatencyP50:   m.readLatencies.Quantile(0.5),
		ReadLatencyP95:   m.readLatencies.Quantile(0.95),
		ReadLatencyP99:   m.readLatencies.Quantile(0.99),
		WriteLatencyP50:  m.writeLatencies.Quantile(0.5),
		WriteLatencyP95:  m.writeLatencies.Quantile(0.95),
		WriteLatencyP99:  m.writeLatencies.Quantile(0.99),
	}
}

// Reset zeroes all counters and latency samples
func (m *ConnectorMetrics) Reset() {
	atomic.StoreInt64(&m.readsTotal, 0)
	atomic.StoreInt64(&m.writesTotal, 0)
	atomic.StoreInt64(&m.errorsTotal, 0)
	atomic.StoreInt64(&m.connectsTotal, 0)
	atomic.StoreInt64(&m.disconnectsTotal, 0)
	atomic.StoreInt64(&m.bytesDownloaded, 0)
	atomic.StoreInt64(&m.bytesUploaded, 0)
	atomic.StoreInt64(&m.objectsListed, 0)
	atomic.StoreInt64(&m.sasTokensIssued, 0)
	atomic.StoreInt64(&m.readDurationTotal, 0)
	atomic.StoreInt64(&m.writeDurationTotal, 0)

	m.readLatencies.Reset()
	m.writeLatencies.Reset()
}

// MetricsSnapshot is a point-in-time view of a connector's traffic
type MetricsSnapshot struct {
	ConnectorType    string        `json:"connector_type"`
	ReadsTotal       int64         `json:"reads_total"`
	WritesTotal      int64         `json:"writes_total"`
	ErrorsTotal      int64         `json:"errors_total"`
	ConnectsTotal    int64         `json:"connects_total"`
	DisconnectsTotal int64         `json:"disconnects_total"`
	Connected        bool          `json:"connected"`
	BytesDownloaded  int64         `json:"bytes_downloaded"`
	BytesUploaded    int64         `json:"bytes_uploaded"`
	ObjectsListed    int64         `json:"objects_listed"`
	SASTokensIssued  int64         `json:"sas_tokens_issued"`
	AvgReadLatency   time.Duration `json:"avg_read_latency"`
	AvgWriteLatency  time.Duration `json:"avg_write_latency"`
	ReadLatencyP50   time.Duration `json:"read_latency_p50"`
	ReadLatencyP95   time.Duration `json:"read_latency_p95"`
	ReadLatencyP99   time.Duration `json:"read_latency_p99"`
	WriteLatencyP50  time.Duration `json:"write_latency_p50"`
	WriteLatencyP95  time.Duration `json:"write_latency_p95"`
	WriteLatencyP99  time.Duration `json:"write_latency_p99"`
}

const defaultWindowSize = 2048

// LatencyWindow keeps the most recent N latency samples in a fixed-size ring
// and answers quantile queries over whatever the ring currently holds.
type LatencyWindow struct {
	samples []time.Duration
	next    int
	count   int
	mu      sync.Mutex
}

// NewLatencyWindow creates a window holding up to size samples
func NewLatencyWindow(size int) *LatencyWindow {
	if size <= 0 {
		size = defaultWindowSize
	}
	return &LatencyWindow{samples: make([]time.Duration, size)}
}

// Observe adds a sample, overwriting the oldest once the window is full
func (w *LatencyWindow) Observe(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	if w.count < len(w.samples) {
		w.count++
	}
}

// Quantile returns the q-th quantile (0..1) of the current window, or zero
// when no samples have been observed
func (w *LatencyWindow) Quantile(q float64) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.count == 0 {
		return 0
	}

	sorted := make([]time.Duration, w.count)
	copy(sorted, w.samples[:w.count])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(w.count-1) * q)
	return sorted[idx]
}

// Len returns the number of samples currently held
func (w *LatencyWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Reset discards all samples
func (w *LatencyWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = 0
	w.count = 0
}

// Timer measures the duration of a single storage operation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// RecordTo passes the elapsed time and outcome to a metrics callback
func (t *Timer) RecordTo(record func(time.Duration, error), err error) {
	record(t.Duration(), err)
}
