package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-tracker/internal/ingest"
	"github.com/jonathan/job-tracker/internal/types"
)

// Refresh stream event names.
const (
	eventProgress = "progress"
	eventComplete = "complete"
	eventError    = "error"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// refreshStream writes a refresh run as Server-Sent Events. Each event carries
// a sequence id so clients can tell dropped events from slow batches.
type refreshStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

func newRefreshStream(w http.ResponseWriter) (*refreshStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &refreshStream{w: w, flusher: flusher}, nil
}

func (s *refreshStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event, err)
	}
	s.flusher.Flush()
	return nil
}

// Progress reports one finished batch.
func (s *refreshStream) Progress(e ingest.ProgressEvent) error {
	return s.send(eventProgress, e)
}

// Complete ends the stream with the same body POST /jobs/refresh returns.
func (s *refreshStream) Complete(result ingest.Result) error {
	return s.send(eventComplete, types.RefreshResponse{OK: true, NewJobs: result.NewApplications})
}

// Fail ends the stream with an error event.
func (s *refreshStream) Fail(err error) error {
	return s.send(eventError, map[string]string{"error": ErrorMessage(err)})
}
