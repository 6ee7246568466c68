package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"erpcore/internal/tenant"
	"erpcore/pkg/requestcontext"
)

// Store persists entries. ListPlatform exists for platform-wide review;
// org admins only ever see their own scope.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}

// Metrics tracks recorded and dropped entries. Drops are the signal that the
// buffer or the backing store is unhealthy.
type Metrics struct {
	Recorded prometheus.Counter
	Dropped  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpcore_audit_entries_recorded_total",
			Help: "Audit entries successfully appended",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpcore_audit_entries_dropped_total",
			Help: "Audit entries lost to a full buffer or store failure",
		}),
	}
}

// Recorder buffers entries on a channel consumed by a single worker, so
// appends within one organization retain their order while request handlers
// never wait on the audit store.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	inbox   chan Entry
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithBufferSize overrides the default inbox capacity.
func WithBufferSize(n int) Option {
	return func(r *Recorder) { r.inbox = make(chan Entry, n) }
}

const defaultBufferSize = 256

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		inbox:  make(chan Entry, defaultBufferSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record captures a mutation. It has no error return: audit persistence
// is a secondary concern and its failure must never block the business
// mutation that triggered it.
func (r *Recorder) Record(ctx context.Context, tc *tenant.Context, entityType, entityID string, action Action, changes Changes) {
	if tc == nil {
		r.drop("audit entry without tenant context", "entity_type", entityType)
		return
	}

	payload, err := json.Marshal(changes)
	if err != nil {
		payload = []byte(`{}`)
	}

	entry := Entry{
		ID:         uuid.New(),
		OrgScope:   tc.Scope.String(),
		ActorID:    tc.Principal,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    string(payload),
		At:         requestcontext.Now(ctx),
		SourceIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	}

	select {
	case r.inbox <- entry:
	default:
		r.drop("audit buffer full, entry dropped",
			"entity_type", entityType, "entity_id", entityID)
	}
}

// Run consumes the inbox until ctx is cancelled. Store failures are logged
// and counted, never propagated.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-r.inbox:
			if err := r.store.Append(context.WithoutCancel(ctx), entry); err != nil {
				r.drop("audit append failed", "error", err,
					"entity_type", entry.EntityType, "entity_id", entry.EntityID)
				continue
			}
			if r.metrics != nil {
				r.metrics.Recorded.Inc()
			}
		}
	}
}

func (r *Recorder) drop(msg string, args ...any) {
	r.logger.Warn(msg, args...)
	if r.metrics != nil {
		r.metrics.Dropped.Inc()
	}
}
