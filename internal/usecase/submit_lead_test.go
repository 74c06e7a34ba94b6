package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
)

func newSubmit(leads *memLeadRepo, funnels *MockFunnelRepository, q *MockQueueProducer, b *recordingBroadcaster) (*SubmitLeadUseCase, *countingMetrics) {
	metrics := newCountingMetrics()
	uc := NewSubmitLeadUseCase(leads, funnels, q, b, metrics)
	uc.sideEffects = syncEffects
	return uc, metrics
}

func TestSubmitLead_CopiesOwnerFromFunnel(t *testing.T) {
	ctx := context.Background()
	leads := newMemLeadRepo()
	funnels := new(MockFunnelRepository)
	q := new(MockQueueProducer)
	b := &recordingBroadcaster{}

	funnel := &entity.Funnel{ID: objectID(7), BusinessUserID: testOwner, Title: "Consultoria", Slug: "consultoria"}
	funnels.On("FindByID", ctx, funnel.ID).Return(funnel, nil)
	funnels.On("IncrementMetric", mock.Anything, funnel.ID, entity.MetricTotalLeads).Return(nil)
	q.On("PublishLeadCaptured", mock.Anything, mock.MatchedBy(func(p queue.LeadCapturedPayload) bool {
		return p.BusinessUserID == testOwner && p.FunnelTitle == "Consultoria" && p.Phone == "11999990000"
	})).Return(nil)

	uc, metrics := newSubmit(leads, funnels, q, b)

	lead, err := uc.Execute(ctx, SubmitLeadInput{
		FunnelID: funnel.ID,
		Name:     "João",
		Phone:    " 11999990000 ",
		Answers:  []entity.LeadAnswer{{QuestionText: "Orçamento?", Answer: "10k"}},
		UTM:      entity.UTM{Source: "google"},
	})

	require.NoError(t, err)
	assert.Equal(t, testOwner, lead.BusinessUserID)
	assert.Equal(t, entity.LeadStatusNew, lead.Status)
	assert.Equal(t, entity.ContactCall, lead.PreferredContact)
	assert.Equal(t, "Consultoria", lead.FunnelTitle)
	assert.Nil(t, lead.DeletedAt)
	assert.Equal(t, 1, leads.count())
	assert.Equal(t, 1, metrics.submitted)
	assert.Equal(t, []string{testOwner}, b.owners)
	funnels.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestSubmitLead_UnknownFunnelPersistsNothing(t *testing.T) {
	ctx := context.Background()
	leads := newMemLeadRepo()
	funnels := new(MockFunnelRepository)
	q := new(MockQueueProducer)
	b := &recordingBroadcaster{}

	missing := objectID(404)
	funnels.On("FindByID", ctx, missing).Return(nil, entity.ErrFunnelNotFound)

	uc, metrics := newSubmit(leads, funnels, q, b)

	_, err := uc.Execute(ctx, SubmitLeadInput{FunnelID: missing, Phone: "11999990000"})

	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "Invalid funnel", err.(*Error).Message)
	assert.Equal(t, 0, leads.count())
	assert.Equal(t, 0, metrics.submitted)
	assert.Empty(t, b.owners)
	funnels.AssertNotCalled(t, "IncrementMetric", mock.Anything, mock.Anything, mock.Anything)
	q.AssertNotCalled(t, "PublishLeadCaptured", mock.Anything, mock.Anything)
}

func TestSubmitLead_ValidationErrors(t *testing.T) {
	uc, _ := newSubmit(newMemLeadRepo(), new(MockFunnelRepository), new(MockQueueProducer), &recordingBroadcaster{})

	cases := []SubmitLeadInput{
		{FunnelID: objectID(1)},
		{FunnelID: "abc", Phone: "11999990000"},
		{FunnelID: objectID(1), Phone: "11999990000", PreferredContact: "fax"},
		{FunnelID: objectID(1), Phone: "11999990000", Email: "not-an-email"},
	}
	for _, in := range cases {
		_, err := uc.Execute(context.Background(), in)
		assert.True(t, IsKind(err, KindInvalidArgument), "input %+v", in)
	}
}

func TestSubmitLead_PhoneOnlyNeedsToBePresent(t *testing.T) {
	ctx := context.Background()
	funnels := new(MockFunnelRepository)
	funnel := &entity.Funnel{ID: objectID(9), BusinessUserID: testOwner}
	funnels.On("FindByID", ctx, funnel.ID).Return(funnel, nil)
	funnels.On("IncrementMetric", mock.Anything, funnel.ID, entity.MetricTotalLeads).Return(nil)
	q := new(MockQueueProducer)
	q.On("PublishLeadCaptured", mock.Anything, mock.Anything).Return(nil)

	uc, _ := newSubmit(newMemLeadRepo(), funnels, q, &recordingBroadcaster{})

	lead, err := uc.Execute(ctx, SubmitLeadInput{FunnelID: funnel.ID, Phone: "  ramal 12  "})
	require.NoError(t, err)
	assert.Equal(t, "ramal 12", lead.Phone)

	_, err = uc.Execute(ctx, SubmitLeadInput{FunnelID: funnel.ID, Phone: "   "})
	assert.True(t, IsKind(err, KindInvalidArgument))
}

func TestSubmitLead_SideEffectFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	leads := newMemLeadRepo()
	funnels := new(MockFunnelRepository)
	q := new(MockQueueProducer)

	funnel := &entity.Funnel{ID: objectID(8), BusinessUserID: testOwner, Title: "X"}
	funnels.On("FindByID", ctx, funnel.ID).Return(funnel, nil)
	funnels.On("IncrementMetric", mock.Anything, funnel.ID, entity.MetricTotalLeads).Return(errors.New("mongo down"))
	q.On("PublishLeadCaptured", mock.Anything, mock.Anything).Return(errors.New("amqp closed"))

	uc, _ := newSubmit(leads, funnels, q, &recordingBroadcaster{})

	lead, err := uc.Execute(ctx, SubmitLeadInput{FunnelID: funnel.ID, Phone: "11999990000", PreferredContact: "whatsapp"})
	require.NoError(t, err)
	assert.Equal(t, entity.ContactWhatsApp, lead.PreferredContact)
	assert.Equal(t, 1, leads.count())
}

func TestListLeads_NewestFirstWithoutDeleted(t *testing.T) {
	ctx := context.Background()
	repo := newMemLeadRepo()
	older := seedLead(t, repo, testOwner)
	newer := seedLead(t, repo, testOwner)
	newer.CreatedAt = older.CreatedAt.Add(1)
	repo.leads[newer.ID].CreatedAt = newer.CreatedAt
	gone := seedLead(t, repo, testOwner)
	repo.leads[gone.ID].Status = entity.LeadStatusDeleted
	_ = seedLead(t, repo, "other-owner")

	got, err := NewListLeadsUseCase(repo).Execute(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)

	empty, err := NewListLeadsUseCase(repo).Execute(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
