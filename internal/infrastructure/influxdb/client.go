package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/languard-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// Client records presence metrics in an InfluxDB v2 bucket.
//
// Points are queued on the library's non-blocking write API and sent in
// batches. Writes after Close are dropped.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Close waits for writes
//     already in progress.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	target   string

	mu     sync.RWMutex
	closed bool

	errMu   sync.RWMutex
	onError func(err error)
}

// Connect pings the server at cfg.URL and opens a batched writer on
// cfg.Org / cfg.Bucket.
//
// Returns:
//   - *Client: Ready for writes
//   - error: ErrDisabled, ErrMissingTarget or ErrConnectionFailed
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.Org == "" || cfg.Bucket == "" {
		return nil, ErrMissingTarget
	}

	batchSize, flushInterval := batchSettings(cfg)
	flushMillis := time.Duration(flushInterval) * time.Second / time.Millisecond

	// #nosec G115 -- batchSettings only returns positive values
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(flushMillis))
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		target:   cfg.Org + "/" + cfg.Bucket,
	}
	go c.forwardErrors(c.writeAPI.Errors())

	return c, nil
}

// batchSettings returns the batch size and flush interval in seconds,
// substituting defaults for non-positive values.
func batchSettings(cfg config.InfluxDBConfig) (batchSize, flushInterval int) {
	batchSize = cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval = cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	return batchSize, flushInterval
}

func ping(ctx context.Context, client influxdb2.Client) error {
	ok, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("ping: server not ready")
	}
	return nil
}

// forwardErrors hands batch failures to the OnError callback. It returns
// when the write API is closed.
func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.errMu.RLock()
		cb := c.onError
		c.errMu.RUnlock()
		if cb != nil {
			cb(fmt.Errorf("%w: %s: %w", ErrWriteFailed, c.target, err))
		}
	}
}

// write queues p unless the client is closed.
func (c *Client) write(p *write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.writeAPI == nil {
		return
	}
	c.writeAPI.WritePoint(p)
}

// Close sends buffered points and releases the client. Safe to call more
// than once and on a zero Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.client == nil {
		c.closed = true
		return nil
	}
	c.closed = true

	c.writeAPI.Flush()
	c.client.Close()
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.client); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// IsConnected reports whether the client is open. It does not contact the
// server; use HealthCheck for that.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client != nil && !c.closed
}

// SetOnError sets the callback for asynchronous batch failures. Errors
// passed to it wrap ErrWriteFailed.
func (c *Client) SetOnError(callback func(err error)) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.onError = callback
}

// Flush sends buffered points now. It is a no-op after Close.
func (c *Client) Flush() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.writeAPI == nil {
		return
	}
	c.writeAPI.Flush()
}
