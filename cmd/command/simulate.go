package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/internal/config"
	"turnline/queue-gateway/internal/constant"
)

type SimulateCommand struct {
	Logger *log.Logger
}

func (cmd SimulateCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	var (
		serverURL  string
		rps        int
		duration   time.Duration
		cancelRate float64
		advanceRPS int
	)

	c := &cobra.Command{
		Use:   "simulate",
		Short: "drive walk-up traffic against a running server",
		Run: func(c *cobra.Command, _ []string) {
			if rps < 1 {
				cmd.Logger.WithContext(ctx).Fatal("--rps must be positive")
				return
			}

			s := NewSimulator(serverURL, cfg.OperatorKey, rps, duration, c.OutOrStdout())
			s.cancelRate = cancelRate
			s.advanceRPS = advanceRPS
			s.Run(ctx)
		},
	}

	c.Flags().StringVar(&serverURL, "url", fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port), "server base url")
	c.Flags().IntVar(&rps, "rps", 20, "new reservations per second")
	c.Flags().DurationVar(&duration, "duration", time.Minute, "test duration")
	c.Flags().Float64Var(&cancelRate, "cancel-rate", 0.1, "share of reservations cancelled after joining")
	c.Flags().IntVar(&advanceRPS, "advance-rps", 0, "operator next-turn calls per second (needs OPERATOR_KEY)")
	return c
}

type simStats struct {
	created      atomic.Int64
	cancelled    atomic.Int64
	polled       atomic.Int64
	advanced     atomic.Int64
	busy         atomic.Int64
	failed       atomic.Int64
	totalLatency atomic.Int64
	requests     atomic.Int64
	minLatency   atomic.Int64
	maxLatency   atomic.Int64
}

func (s *simStats) observe(latency int64) {
	s.requests.Add(1)
	s.totalLatency.Add(latency)

	for {
		current := s.minLatency.Load()
		if current != 0 && latency >= current {
			break
		}
		if s.minLatency.CompareAndSwap(current, latency) {
			break
		}
	}

	for {
		current := s.maxLatency.Load()
		if latency <= current {
			break
		}
		if s.maxLatency.CompareAndSwap(current, latency) {
			break
		}
	}
}

type Simulator struct {
	serverURL   string
	operatorKey string
	targetRPS   int
	advanceRPS  int
	cancelRate  float64
	duration    time.Duration
	httpClient  *http.Client
	out         io.Writer
	stats       simStats
}

func NewSimulator(serverURL, operatorKey string, targetRPS int, duration time.Duration, out io.Writer) *Simulator {
	return &Simulator{
		serverURL:   serverURL,
		operatorKey: operatorKey,
		targetRPS:   targetRPS,
		duration:    duration,
		out:         out,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *Simulator) do(ctx context.Context, method, path string, header http.Header, into interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.serverURL+path, nil)
	if err != nil {
		return 0, errors.Wrap(err, "create request")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	s.stats.observe(time.Since(start).Milliseconds())
	if err != nil {
		s.stats.failed.Add(1)
		return 0, errors.Wrap(err, "request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		s.stats.busy.Add(1)
	case resp.StatusCode >= 500:
		s.stats.failed.Add(1)
	}

	if into != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			return resp.StatusCode, errors.Wrap(err, "decode")
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// walkUp joins the queue, checks the position once and sometimes leaves again.
func (s *Simulator) walkUp(ctx context.Context) {
	var created struct {
		ID string `json:"reservation_id"`
	}
	code, err := s.do(ctx, http.MethodPost, "/v1/reservations", nil, &created)
	if err != nil || code != http.StatusCreated || created.ID == "" {
		return
	}
	s.stats.created.Add(1)

	if code, _ := s.do(ctx, http.MethodGet, "/v1/queue/position?id="+created.ID, nil, nil); code == http.StatusOK {
		s.stats.polled.Add(1)
	}

	if rand.Float64() < s.cancelRate {
		if code, _ := s.do(ctx, http.MethodDelete, "/v1/reservations/"+created.ID, nil, nil); code == http.StatusOK {
			s.stats.cancelled.Add(1)
		}
	}
}

func (s *Simulator) advance(ctx context.Context) {
	header := http.Header{}
	header.Set(constant.OperatorKeyHeader, s.operatorKey)
	if code, _ := s.do(ctx, http.MethodPost, "/v1/admin/next-turn", header, nil); code == http.StatusOK {
		s.stats.advanced.Add(1)
	}
}

func (s *Simulator) Run(ctx context.Context) {
	fmt.Fprintf(s.out, "target %s: %d reservations/s for %s\n", s.serverURL, s.targetRPS, s.duration)

	testCtx, cancel := context.WithTimeout(ctx, s.duration)
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(s.targetRPS))
	defer ticker.Stop()

	var advanceC <-chan time.Time
	if s.advanceRPS > 0 && s.operatorKey != "" {
		advanceTicker := time.NewTicker(time.Second / time.Duration(s.advanceRPS))
		defer advanceTicker.Stop()
		advanceC = advanceTicker.C
	}

	// in-flight walk-ups finish after the test window closes
	startTime := time.Now()
	var wg sync.WaitGroup

	for {
		select {
		case <-testCtx.Done():
			wg.Wait()
			s.report(time.Since(startTime))
			return
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.walkUp(ctx)
			}()
		case <-advanceC:
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.advance(ctx)
			}()
		}
	}
}

func (s *Simulator) report(elapsed time.Duration) {
	requests := s.stats.requests.Load()
	avg := int64(0)
	if requests > 0 {
		avg = s.stats.totalLatency.Load() / requests
	}

	fmt.Fprintf(s.out, "duration:   %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(s.out, "created:    %d\n", s.stats.created.Load())
	fmt.Fprintf(s.out, "polled:     %d\n", s.stats.polled.Load())
	fmt.Fprintf(s.out, "cancelled:  %d\n", s.stats.cancelled.Load())
	fmt.Fprintf(s.out, "advanced:   %d\n", s.stats.advanced.Load())
	fmt.Fprintf(s.out, "busy (409): %d\n", s.stats.busy.Load())
	fmt.Fprintf(s.out, "failed:     %d\n", s.stats.failed.Load())
	fmt.Fprintf(s.out, "latency ms: avg=%d min=%d max=%d\n", avg, s.stats.minLatency.Load(), s.stats.maxLatency.Load())
}
