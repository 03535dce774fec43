package strarena

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/hupe1980/strarena/internal/arena"
	"github.com/hupe1980/strarena/internal/layout"
	"github.com/hupe1980/strarena/internal/materialize"
)

// Pool copies strings into one fixed-size off-heap arena.
//
// All methods are safe for concurrent use. Get, Reset, Reinit and Free are
// serialized; handle reads run concurrently with each other.
type Pool struct {
	mu sync.RWMutex

	id   string
	cfg  Config
	opts options

	arena *arena.Arena
	mat   *materialize.Materializer
	size  int
	freed bool

	logger  *Logger
	metrics MetricsCollector
}

// Stats is a snapshot of a pool.
type Stats struct {
	ID       string
	Encoding Encoding
	Freed    bool

	Capacity  uint64 // arena size in bytes
	Used      uint64 // bytes granted to records
	Wasted    uint64 // alignment padding between records
	Remaining uint64

	Records     uint64 // records written to the current arena, across resets
	Exhaustions uint64
	Resets      uint64
	Generation  uint32
}

// New creates a pool sized for estimatedCount strings of estimatedLength
// encoding units.
//
// The arena size is fixed here. New returns an *InitializationError if the
// estimates are invalid or the memory cannot be reserved.
func New(estimatedCount, estimatedLength int, opts ...Option) (*Pool, error) {
	return NewWithConfig(Config{
		EstimatedCount:  estimatedCount,
		EstimatedLength: estimatedLength,
	}, opts...)
}

// NewWithConfig creates a pool from cfg.
func NewWithConfig(cfg Config, opts ...Option) (*Pool, error) {
	return newPool(cfg, applyOptions(opts))
}

func newPool(cfg Config, o options) (*Pool, error) {
	p := &Pool{
		id:      uuid.NewString(),
		opts:    o,
		metrics: o.metricsCollector,
	}
	p.logger = o.logger.WithPool(p.id)

	if err := p.init(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// init sizes and reserves the arena for cfg. The caller holds mu or has the
// only reference to p.
func (p *Pool) init(cfg Config) error {
	ctx := context.Background()
	cfg = cfg.withEncoding(p.opts.encoding)

	fail := func(err error) error {
		ierr := &InitializationError{
			EstimatedCount:  cfg.EstimatedCount,
			EstimatedLength: cfg.EstimatedLength,
			cause:           translateError(err),
		}
		p.logger.LogInit(ctx, cfg, 0, ierr)
		return ierr
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	l := layout.For(cfg.Encoding)
	size, err := layout.ArenaSize(cfg.EstimatedCount, cfg.EstimatedLength, l)
	if err != nil {
		return fail(err)
	}

	a, err := arena.New(p.opts.service(), size, p.opts.arenaOptions()...)
	if err != nil {
		return fail(err)
	}

	m, err := materialize.New(a, l)
	if err != nil {
		_ = a.Free()
		return fail(err)
	}

	p.cfg = cfg
	p.arena = a
	p.mat = m
	p.size = size
	p.freed = false

	p.logger.LogInit(ctx, cfg, size, nil)
	return nil
}

// ID returns the pool's unique identifier. Forks get their own.
func (p *Pool) ID() string {
	return p.id
}

// Config returns the config the pool was sized from, with the encoding resolved.
func (p *Pool) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Size returns the arena size in bytes.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size
}

// Get copies s into the arena and returns a handle to the copy.
//
// If the remaining space cannot hold the record, Get returns ErrExhausted and
// leaves the arena unchanged. After Free it returns ErrPoolFreed.
func (p *Pool) Get(s string) (*PooledString, error) {
	start := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freed {
		p.metrics.RecordGet(0, time.Since(start), ErrPoolFreed)
		return nil, ErrPoolFreed
	}

	_, fp, err := p.mat.Footprint(s)
	if err != nil {
		err = translateError(err)
		p.metrics.RecordGet(0, time.Since(start), err)
		return nil, err
	}

	ref, err := p.mat.Materialize(s)
	if err != nil {
		err = translateError(err)
		if errors.Is(err, ErrExhausted) {
			p.logger.LogExhausted(context.Background(), fp.Total(), p.arena.Stats().Remaining)
		}
		p.metrics.RecordGet(fp.Total(), time.Since(start), err)
		return nil, err
	}

	p.metrics.RecordGet(fp.Total(), time.Since(start), nil)
	return &PooledString{pool: p, mat: p.mat, ref: ref}, nil
}

// Reset discards every record and makes the full arena available again.
//
// The arena is rewound in place; its size is derived from the pool's config
// and so never changes. Handles obtained before Reset become stale.
func (p *Pool) Reset() error {
	start := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freed {
		p.metrics.RecordReset(time.Since(start), ErrPoolFreed)
		return ErrPoolFreed
	}

	err := translateError(p.arena.Reset())
	p.logger.LogReset(context.Background(), p.arena.Generation(), err)
	p.metrics.RecordReset(time.Since(start), err)
	return err
}

// Free releases the arena. Every handle becomes stale and Get, Reset and
// Reinit fail with ErrPoolFreed. Calling Free again is a no-op.
func (p *Pool) Free() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.release()
}

// release frees the arena. The caller holds mu.
func (p *Pool) release() error {
	if p.freed {
		return nil
	}
	start := time.Now()

	err := translateError(p.arena.Free())
	p.freed = true

	p.logger.LogFree(context.Background(), err)
	p.metrics.RecordFree(time.Since(start), err)
	return err
}

// Freed reports whether Free has been called.
func (p *Pool) Freed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.freed
}

// Fork creates an independent pool with the same config and options.
//
// The fork has its own arena and lock. It shares only the logger, the
// metrics collector and the memory budget with its parent. A freed pool can
// still be forked.
func (p *Pool) Fork() (*Pool, error) {
	start := time.Now()

	p.mu.RLock()
	cfg, o := p.cfg, p.opts
	p.mu.RUnlock()

	child, err := newPool(cfg, o)

	childID := ""
	if child != nil {
		childID = child.id
	}
	p.logger.LogFork(context.Background(), childID, err)
	p.metrics.RecordFork(time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return child, nil
}

// Reinit releases the arena and reserves a new one sized from cfg.
//
// All handles become stale. If the new arena cannot be reserved the pool is
// left freed and an *InitializationError is returned.
func (p *Pool) Reinit(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freed {
		return ErrPoolFreed
	}

	if err := p.release(); err != nil {
		return err
	}
	return p.init(cfg)
}

// Stats returns a snapshot of the pool's arena.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	as := p.arena.Stats()
	return Stats{
		ID:          p.id,
		Encoding:    p.cfg.Encoding,
		Freed:       p.freed,
		Capacity:    as.Capacity,
		Used:        as.Used,
		Wasted:      as.Wasted,
		Remaining:   as.Remaining,
		Records:     as.Allocs,
		Exhaustions: as.Exhaustions,
		Resets:      as.Resets,
		Generation:  as.Generation,
	}
}

func (p *Pool) String() string {
	s := p.Stats()
	return fmt.Sprintf("Pool{id: %s, encoding: %s, capacity: %s, used: %s, remaining: %s, records: %d, freed: %t}",
		s.ID,
		s.Encoding,
		humanize.IBytes(s.Capacity),
		humanize.IBytes(s.Used),
		humanize.IBytes(s.Remaining),
		s.Records,
		s.Freed,
	)
}
