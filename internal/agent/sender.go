package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const requestTimeout = 10 * time.Second

// ErrOffline reports that the collector has been unreachable for longer than
// the configured maximum offline duration. The agent fail-stops on it rather
// than accumulating unsent samples: there is no local buffering by design.
var ErrOffline = errors.New("collector unreachable beyond allowed offline duration")

// Sender posts readings to the collector with bounded retries and linearly
// increasing delay between attempts.
type Sender struct {
	client      *http.Client
	cfg         *Config
	lastContact time.Time
}

func NewSender(cfg *Config) *Sender {
	return &Sender{
		client:      &http.Client{Timeout: requestTimeout},
		cfg:         cfg,
		lastContact: time.Now(),
	}
}

// Send delivers one reading. Rejections (4xx) are not retried: the reading
// will not get better. Transport and server errors are retried up to
// MaxRetries; after exhaustion the reading is dropped and, once the offline
// threshold is crossed, ErrOffline is returned.
func (s *Sender) Send(ctx context.Context, reading *Reading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * s.cfg.RetryBackoff
			slog.Warn("Retrying send", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := s.post(ctx, body)
		if err == nil {
			slog.Debug("Reading sent", "machine", reading.MachineID)
			return nil
		}

		var rej *rejectedError
		if errors.As(err, &rej) {
			// The server is up; it just refused this reading.
			slog.Error("Reading rejected by collector", "status", rej.status, "body", rej.body)
			return nil
		}

		slog.Warn("Send failed", "attempt", attempt, "error", err)
	}

	if time.Since(s.lastContact) > s.cfg.MaxOffline {
		return ErrOffline
	}

	slog.Error("Dropping reading after exhausting retries", "machine", reading.MachineID)
	return nil
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	url := s.cfg.ServerURL + "/systemdata"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// Any response means the collector is reachable.
	s.lastContact = time.Now()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &rejectedError{status: resp.StatusCode, body: string(respBody)}
	}
	return fmt.Errorf("collector returned %d", resp.StatusCode)
}

// rejectedError is a 4xx response: terminal for the reading, but proof the
// collector is alive.
type rejectedError struct {
	status int
	body   string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("rejected (%d): %s", e.status, e.body)
}
