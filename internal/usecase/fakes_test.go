package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
)

// memLeadRepo guarda leads em memória com o mesmo contrato do repositório Mongo.
type memLeadRepo struct {
	mu     sync.Mutex
	leads  map[string]*entity.Lead
	nextID int
}

func newMemLeadRepo() *memLeadRepo {
	return &memLeadRepo{leads: map[string]*entity.Lead{}}
}

func (r *memLeadRepo) Create(ctx context.Context, lead *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	lead.ID = objectID(r.nextID)
	cp := *lead
	r.leads[lead.ID] = &cp
	return nil
}

func (r *memLeadRepo) FindOwned(ctx context.Context, id, ownerID string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.BusinessUserID != ownerID {
		return nil, entity.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) FindOwnedActive(ctx context.Context, id, ownerID string) (*entity.Lead, error) {
	l, err := r.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if l.Status == entity.LeadStatusDeleted {
		return nil, entity.ErrLeadNotFound
	}
	return l, nil
}

func (r *memLeadRepo) ListActiveByOwner(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Lead
	for _, l := range r.leads {
		if l.BusinessUserID == ownerID && l.Status != entity.LeadStatusDeleted {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memLeadRepo) StreamByOwner(ctx context.Context, ownerID string) (entity.LeadCursor, error) {
	leads, _ := r.ListActiveByOwner(ctx, ownerID)
	return &sliceCursor{leads: leads, idx: -1}, nil
}

func (r *memLeadRepo) UpdateState(ctx context.Context, lead *entity.Lead, guard entity.StateGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[lead.ID]
	if !ok || l.BusinessUserID != lead.BusinessUserID {
		return entity.ErrLeadNotFound
	}
	deleted := l.Status == entity.LeadStatusDeleted
	if (guard == entity.GuardActive && deleted) || (guard == entity.GuardDeleted && !deleted) {
		return entity.ErrLeadNotFound
	}
	l.Status = lead.Status
	l.DeletedAt = lead.DeletedAt
	l.UpdatedAt = lead.UpdatedAt
	return nil
}

func (r *memLeadRepo) Purge(ctx context.Context, id, ownerID string, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.BusinessUserID != ownerID {
		return entity.ErrLeadNotFound
	}
	if l.Status != entity.LeadStatusDeleted || l.DeletedAt == nil || !l.DeletedAt.Before(cutoff) {
		return entity.ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *memLeadRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, l := range r.leads {
		if l.Status == entity.LeadStatusDeleted && l.DeletedAt != nil && l.DeletedAt.Before(cutoff) {
			delete(r.leads, id)
			n++
		}
	}
	return n, nil
}

func (r *memLeadRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

type sliceCursor struct {
	leads []*entity.Lead
	idx   int
}

func (c *sliceCursor) Next(ctx context.Context) bool {
	c.idx++
	return c.idx < len(c.leads)
}
func (c *sliceCursor) Lead() *entity.Lead { return c.leads[c.idx] }
func (c *sliceCursor) Err() error { return nil }
func (c *sliceCursor) Close(ctx context.Context) error { return nil }

func objectID(n int) string {
	const hex = "0123456789abcdef"
	b := []byte("000000000000000000000000")
	for i := len(b) - 1; n > 0 && i >= 0; i-- {
		b[i] = hex[n%16]
		n /= 16
	}
	return string(b)
}

// MockFunnelRepository
type MockFunnelRepository struct {
	mock.Mock
}

func (m *MockFunnelRepository) Create(ctx context.Context, f *entity.Funnel) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFunnelRepository) FindByID(ctx context.Context, id string) (*entity.Funnel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) FindOwned(ctx context.Context, id, ownerID string) (*entity.Funnel, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) FindActiveBySlug(ctx context.Context, slug string) (*entity.Funnel, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Funnel, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) Update(ctx context.Context, id, ownerID string, patch entity.FunnelPatch) (*entity.Funnel, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) SetBrandingImage(ctx context.Context, id, ownerID string, field entity.BrandingImageField, url, publicID string) (*entity.Funnel, error) {
	args := m.Called(ctx, id, ownerID, field, url, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Funnel), args.Error(1)
}

func (m *MockFunnelRepository) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockFunnelRepository) IncrementMetric(ctx context.Context, id string, metric entity.FunnelMetric) error {
	args := m.Called(ctx, id, metric)
	return args.Error(0)
}

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishLeadCaptured(ctx context.Context, payload queue.LeadCapturedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockUploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, folder string, data []byte, contentType string) (string, string, error) {
	args := m.Called(ctx, folder, data, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockUploader) Remove(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type countingMetrics struct {
	mu        sync.Mutex
	submitted int
	purged    map[string]int64
	exported  int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{purged: map[string]int64{}}
}

func (m *countingMetrics) LeadSubmitted() {
	m.mu.Lock()
	m.submitted++
	m.mu.Unlock()
}

func (m *countingMetrics) LeadsPurged(reason string, n int64) {
	m.mu.Lock()
	m.purged[reason] += n
	m.mu.Unlock()
}

func (m *countingMetrics) LeadsExported(n int) {
	m.mu.Lock()
	m.exported += n
	m.mu.Unlock()
}

type recordingBroadcaster struct {
	owners []string
}

func (b *recordingBroadcaster) BroadcastLead(ownerID string, lead *entity.Lead) {
	b.owners = append(b.owners, ownerID)
}

func syncEffects(fn func()) { fn() }
