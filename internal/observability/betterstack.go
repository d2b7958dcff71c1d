package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap/zapcore"
)

const (
	betterStackQueueSize  = 1024
	betterStackBatchSize  = 50
	betterStackFlushEvery = time.Second
)

func newBetterStackCore(cfg config.Config) (zapcore.Core, *betterStackWriteSyncer, error) {
	endpoint := normalizeBetterStackEndpoint(cfg.BetterStackEndpoint)
	if endpoint == "" {
		return nil, nil, fmt.Errorf("betterstack endpoint cannot be empty")
	}

	syncer := newBetterStackWriteSyncer(endpoint, strings.TrimSpace(cfg.BetterStackToken), cfg.BetterStackTimeout)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(logging.EncoderConfig()), syncer, cfg.BetterStackMinLevel)
	return core, syncer, nil
}

func normalizeBetterStackEndpoint(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "https://" + value
}

// betterStackWriteSyncer ships JSON lines in batches from a background
// goroutine. Writes never block the caller; a full queue drops the line.
type betterStackWriteSyncer struct {
	endpoint  string
	token     string
	client    *http.Client
	queue     chan []byte
	queueMu   sync.RWMutex
	closeOnce sync.Once
	closed    atomic.Bool
	wg        sync.WaitGroup
	dropped   atomic.Uint64
}

func newBetterStackWriteSyncer(endpoint, token string, timeout time.Duration) *betterStackWriteSyncer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	s := &betterStackWriteSyncer{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		queue:    make(chan []byte, betterStackQueueSize),
	}
	s.wg.Add(1)
	go s.run()

	return s
}

func (s *betterStackWriteSyncer) Write(p []byte) (int, error) {
	payload := trimLine(p)
	if len(payload) == 0 {
		return len(p), nil
	}

	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.closed.Load() {
		return len(p), nil
	}

	// zap reuses its buffer after Write returns.
	copied := make([]byte, len(payload))
	copy(copied, payload)

	select {
	case s.queue <- copied:
	default:
		dropped := s.dropped.Add(1)
		if dropped == 1 || dropped%100 == 0 {
			fmt.Fprintf(os.Stderr, "betterstack queue full; dropped logs=%d\n", dropped)
		}
	}

	return len(p), nil
}

func (s *betterStackWriteSyncer) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(betterStackFlushEvery)
	defer ticker.Stop()

	batch := make([][]byte, 0, betterStackBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.send(batch)
		batch = batch[:0]
	}

	for {
		select {
		case payload, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, payload)
			if len(batch) >= betterStackBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// send posts the batch as one JSON array.
func (s *betterStackWriteSyncer) send(batch [][]byte) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_ = buf.WriteByte('[')
	for i, line := range batch {
		if i > 0 {
			_ = buf.WriteByte(',')
		}
		_, _ = buf.Write(line)
	}
	_ = buf.WriteByte(']')

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.endpoint, strings.NewReader(buf.String()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack create request failed: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack send logs failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		fmt.Fprintf(os.Stderr, "betterstack send logs got non-2xx status=%d lines=%d\n", resp.StatusCode, len(batch))
	}
}

func (s *betterStackWriteSyncer) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.closeOnce.Do(func() {
		s.queueMu.Lock()
		s.closed.Store(true)
		close(s.queue)
		s.queueMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *betterStackWriteSyncer) Sync() error {
	return nil
}

func trimLine(p []byte) []byte {
	for len(p) > 0 && (p[len(p)-1] == '\n' || p[len(p)-1] == '\r' || p[len(p)-1] == ' ') {
		p = p[:len(p)-1]
	}
	return p
}
