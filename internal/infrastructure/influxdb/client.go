package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/hue-mqtt-sensors/internal/infrastructure/config"
)

const (
	pingTimeout = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// Client records sensor readings in an InfluxDB v2 bucket.
//
// Writes are non-blocking: points are batched by the client library and
// flushed every flush_interval or batch_size points. Write failures are
// counted and handed to the SetOnError callback.
//
// A zero Client is a closed sink; every method is safe on it.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	bucket   string

	// mu orders writes against Close so no point reaches a closed write API.
	mu          sync.RWMutex
	open        atomic.Bool
	onError     atomic.Pointer[func(error)]
	writeErrors atomic.Uint64

	// errsDone closes once the write error channel has drained.
	errsDone chan struct{}
}

// Connect pings the server and opens a batching write API for the
// configured bucket. It returns ErrDisabled when influxdb.enabled is false.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize, flushMs := batchSettings(cfg)
	opts := influxdb2.DefaultOptions().
		SetBatchSize(batchSize).
		SetFlushInterval(flushMs).
		SetPrecision(time.Second)

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
		errsDone: make(chan struct{}),
	}
	c.open.Store(true)

	go c.drainErrors(c.writeAPI.Errors())

	return c, nil
}

// ping reports whether the server answers /ping.
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

// batchSettings returns the batch size and the flush interval in
// milliseconds. Non-positive settings fall back to the defaults.
func batchSettings(cfg config.InfluxDBConfig) (batchSize, flushIntervalMs uint) {
	size, interval := cfg.BatchSize, cfg.FlushInterval
	if size <= 0 {
		size = defaultBatchSize
	}
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	// #nosec G115 -- both values are positive here
	return uint(size), uint(interval) * uint(time.Second/time.Millisecond)
}

// drainErrors counts async write failures until the write API closes.
func (c *Client) drainErrors(errs <-chan error) {
	defer close(c.errsDone)
	for err := range errs {
		c.writeErrors.Add(1)
		if cb := c.onError.Load(); cb != nil {
			(*cb)(err)
		}
	}
}

// SetOnError registers the callback for async write failures.
func (c *Client) SetOnError(callback func(err error)) {
	if callback == nil {
		c.onError.Store(nil)
		return
	}
	c.onError.Store(&callback)
}

// WriteErrors returns the number of failed batch writes so far.
func (c *Client) WriteErrors() uint64 {
	return c.writeErrors.Load()
}

// IsConnected reports whether the sink accepts writes. It does not ping;
// use HealthCheck for that.
func (c *Client) IsConnected() bool {
	return c.open.Load()
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

// Flush sends buffered points now. It blocks until the batch is written
// and is a no-op once the client is closed.
func (c *Client) Flush() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}

// Close flushes buffered points and releases the client.
// Writes racing with Close are dropped.
func (c *Client) Close() error {
	c.mu.Lock()
	closing := c.open.CompareAndSwap(true, false)
	c.mu.Unlock()
	if !closing {
		return nil
	}

	c.writeAPI.Flush()
	c.client.Close()
	<-c.errsDone

	return nil
}
