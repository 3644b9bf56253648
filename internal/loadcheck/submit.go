package loadcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/oledu/pyramidgo/pkg/logger"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeRejected
	outcomeFailed
)

// workerChannelMultiplier sizes the job channel relative to the pool.
const workerChannelMultiplier = 2

// submitSnapshots posts every payload using a pool of cfg.Workers.
func submitSnapshots(ctx context.Context, cfg *Config, client *httpClient, payloads [][]byte, stats *Stats, log logger.Logger) {
	log.Info(ctx, "submitting snapshots",
		logger.Int("payloads", len(payloads)),
		logger.Int("workers", cfg.Workers))

	var counts [outcomeFailed + 1]atomic.Int64

	jobs := make(chan []byte, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for data := range jobs {
				counts[submitOne(ctx, client, data)].Add(1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, data := range payloads {
			select {
			case <-ctx.Done():
				return
			case jobs <- data:
			}
		}
	}()
	wg.Wait()

	stats.Accepted += int(counts[outcomeAccepted].Load())
	stats.Duplicate += int(counts[outcomeDuplicate].Load())
	stats.Rejected += int(counts[outcomeRejected].Load())
	stats.Failed += int(counts[outcomeFailed].Load())
	stats.Submitted = stats.Accepted + stats.Duplicate + stats.Rejected + stats.Failed

	log.Info(ctx, "snapshot submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed))
}

// submitOne posts one snapshot and classifies the response.
func submitOne(ctx context.Context, client *httpClient, data []byte) outcome {
	status, body, err := client.post(ctx, "/snapshots", data)
	if err != nil {
		return outcomeFailed
	}
	switch status {
	case http.StatusAccepted:
		return outcomeAccepted
	case http.StatusOK:
		var ack ackResponse
		if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
			return outcomeAccepted
		}
		return outcomeDuplicate
	case http.StatusTooManyRequests:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
