package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"poma/internal/store/durable"
	"poma/internal/store/ephemeral"
)

var (
	publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poma_event_publish_total",
		Help: "Event publish attempts by topic and outcome",
	}, []string{"topic", "outcome"})

	publishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poma_event_publish_duration_seconds",
		Help:    "End-to-end publish latency including the durable mirror",
		Buckets: prometheus.DefBuckets,
	})
)

// MirrorOutcome reports what happened on the durable side of a publish.
type MirrorOutcome string

const (
	// MirrorSkipped means the record's kind has no durable mirror.
	MirrorSkipped MirrorOutcome = "skipped"
	// MirrorWritten means the durable insert succeeded.
	MirrorWritten MirrorOutcome = "mirrored"
	// MirrorFailed means the durable insert failed after the topic append
	// had already committed.
	MirrorFailed MirrorOutcome = "failed"
)

// Result captures the per-sink outcome of one publish. The two sinks are
// independent: LogAppended can be true while Mirror is MirrorFailed, and the
// appended entry stays committed.
type Result struct {
	Topic       string
	EntryID     string
	LogAppended bool
	Mirror      MirrorOutcome
}

// Publisher writes validated records to the topic log and, for mirrored
// kinds, to the durable store. The two writes are deliberately unguarded by
// any cross-store transaction: the topic log is the authoritative order of
// observation, the mirror exists for durability and query. A divergence
// between them is surfaced through Result, never reconciled here.
type Publisher struct {
	log    ephemeral.Store
	mirror durable.Store
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for partial-failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher builds a publisher over the two sinks.
func NewPublisher(log ephemeral.Store, mirror durable.Store, opts ...Option) *Publisher {
	p := &Publisher{log: log, mirror: mirror}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish serializes rec once and writes it to the record's topic, then to
// its mirror collection if the kind has one. Errors from either sink
// propagate verbatim; inspect Result to see which writes committed.
func (p *Publisher) Publish(ctx context.Context, rec Record) (Result, error) {
	start := time.Now()
	res := Result{Topic: rec.Topic(), Mirror: MirrorSkipped}

	doc := rec.document(start.UTC())
	payload, err := json.Marshal(doc)
	if err != nil {
		return res, fmt.Errorf("serialize record for %s: %w", res.Topic, err)
	}

	entryID, err := p.log.Append(ctx, res.Topic, payload)
	if err != nil {
		publishTotal.WithLabelValues(res.Topic, "append_failed").Inc()
		return res, fmt.Errorf("append to %s: %w", res.Topic, err)
	}
	res.EntryID = entryID
	res.LogAppended = true

	collection, mirrored := rec.MirrorCollection()
	if mirrored {
		if err := p.mirror.Insert(ctx, collection, "", doc); err != nil {
			res.Mirror = MirrorFailed
			publishTotal.WithLabelValues(res.Topic, "mirror_failed").Inc()
			if p.logger != nil {
				p.logger.ErrorContext(ctx, "durable mirror failed after topic append",
					"topic", res.Topic,
					"collection", collection,
					"entry_id", entryID,
					"error", err,
				)
			}
			return res, fmt.Errorf("mirror to %s: %w", collection, err)
		}
		res.Mirror = MirrorWritten
	}

	publishTotal.WithLabelValues(res.Topic, "published").Inc()
	publishDuration.Observe(time.Since(start).Seconds())
	return res, nil
}
