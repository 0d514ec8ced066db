package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

type recordedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    string
}

type recordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newRecordingServer(status int, body string) *recordingServer {
	rs := &recordingServer{status: status, body: body}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    string(payload),
		})
		rs.mu.Unlock()
		w.WriteHeader(rs.status)
		_, _ = io.WriteString(w, rs.body)
	}))
	return rs
}

func (rs *recordingServer) Requests() []recordedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]recordedRequest(nil), rs.requests...)
}

type scriptedTransport struct {
	mu       sync.Mutex
	requests []TransportRequest
	response TransportResponse
	err      error
}

func (*scriptedTransport) Kind() string {
	return "scripted"
}

func (s *scriptedTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return TransportResponse{}, s.err
	}
	return s.response, nil
}

func (s *scriptedTransport) Requests() []TransportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransportRequest(nil), s.requests...)
}

type metricCall struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []metricCall
}

func (r *recordingMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, metricCall{Kind: "counter", Name: name, Value: float64(value), Tags: tags})
}

func (r *recordingMetrics) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, metricCall{Kind: "histogram", Name: name, Value: value, Tags: tags})
}

func (r *recordingMetrics) Calls() []metricCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metricCall(nil), r.calls...)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type capturingLogger struct {
	mu       *sync.Mutex
	messages *[]string
}

func newCapturingLogger() capturingLogger {
	return capturingLogger{mu: &sync.Mutex{}, messages: &[]string{}}
}

func (c capturingLogger) record(level string, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.messages = append(*c.messages, level+": "+msg)
}

func (c capturingLogger) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), *c.messages...)
}

func (c capturingLogger) Trace(msg string, _ ...any) { c.record("trace", msg) }
func (c capturingLogger) Debug(msg string, _ ...any) { c.record("debug", msg) }
func (c capturingLogger) Info(msg string, _ ...any)  { c.record("info", msg) }
func (c capturingLogger) Warn(msg string, _ ...any)  { c.record("warn", msg) }
func (c capturingLogger) Error(msg string, _ ...any) { c.record("error", msg) }
func (c capturingLogger) Fatal(msg string, _ ...any) { c.record("fatal", msg) }
func (c capturingLogger) WithContext(context.Context) Logger {
	return c
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type recordingEnqueuer struct {
	mu       sync.Mutex
	messages []*JobExecutionMessage
	err      error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.messages = append(e.messages, msg)
	return nil
}

func (e *recordingEnqueuer) Messages() []*JobExecutionMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*JobExecutionMessage(nil), e.messages...)
}

type stubDelivery struct {
	msg    *JobExecutionMessage
	acked  int
	ackErr error
}

func (d *stubDelivery) Message() *JobExecutionMessage {
	return d.msg
}

func (d *stubDelivery) Ack(context.Context) error {
	d.acked++
	return d.ackErr
}

type queueDequeuer struct {
	deliveries []JobDelivery
	err        error
}

func (q *queueDequeuer) Dequeue(context.Context) (JobDelivery, error) {
	if q.err != nil {
		return nil, q.err
	}
	if len(q.deliveries) == 0 {
		return nil, context.DeadlineExceeded
	}
	next := q.deliveries[0]
	q.deliveries = q.deliveries[1:]
	return next, nil
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return prefix + string(rune('0'+next))
	}
}

func persistedFlag(key string, id int64) Flag {
	flag := NewFlag(key, true)
	flag.Metadata.ID = id
	return flag
}
