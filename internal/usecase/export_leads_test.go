package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/funnel-leads/internal/entity"
)

// fakeDoc grava as linhas e simula a posição vertical de um A4.
type fakeDoc struct {
	lines  []string
	y      float64
	pages  int
	closed int
}

func newFakeDoc() *fakeDoc { return &fakeDoc{y: 40, pages: 1} }

func (d *fakeDoc) write(kind, text string, h float64) {
	d.lines = append(d.lines, kind+"|"+text)
	d.y += h
}
func (d *fakeDoc) Title(text string) { d.write("title", text, 24) }
func (d *fakeDoc) Subtitle(text string) { d.write("subtitle", text, 12) }
func (d *fakeDoc) Heading(text string) { d.write("heading", text, 15) }
func (d *fakeDoc) Line(text string) { d.write("line", text, 13) }
func (d *fakeDoc) Small(text string) { d.write("small", text, 10) }
func (d *fakeDoc) Gap(h float64) { d.y += h }
func (d *fakeDoc) Rule() { d.lines = append(d.lines, "rule|") }
func (d *fakeDoc) Y() float64 { return d.y }
func (d *fakeDoc) AddPage() {
	d.pages++
	d.y = 40
	d.lines = append(d.lines, "page|")
}
func (d *fakeDoc) Close() error {
	d.closed++
	return nil
}

func (d *fakeDoc) count(prefix string) int {
	n := 0
	for _, l := range d.lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

// streamRepo gera n leads sob demanda e mede quantos ficam vivos ao mesmo tempo.
type streamRepo struct {
	*memLeadRepo
	n         int
	failAt    int
	cursor    *countingCursor
	streamErr error
}

func (r *streamRepo) StreamByOwner(ctx context.Context, ownerID string) (entity.LeadCursor, error) {
	if r.streamErr != nil {
		return nil, r.streamErr
	}
	r.cursor = &countingCursor{n: r.n, failAt: r.failAt, owner: ownerID}
	return r.cursor, nil
}

type countingCursor struct {
	n, failAt   int
	owner       string
	i           int
	current     *entity.Lead
	outstanding int
	maxOut      int
	err         error
	closed      int
}

func (c *countingCursor) Next(ctx context.Context) bool {
	if c.current != nil {
		c.current = nil
		c.outstanding--
	}
	if c.failAt > 0 && c.i == c.failAt {
		c.err = errors.New("connection reset")
		return false
	}
	if c.i >= c.n {
		return false
	}
	c.i++
	c.current = &entity.Lead{
		ID:               objectID(c.i),
		BusinessUserID:   c.owner,
		FunnelTitle:      fmt.Sprintf("Funil %d", c.i),
		Name:             fmt.Sprintf("Lead %d", c.i),
		Phone:            "11999990000",
		Status:           entity.LeadStatusNew,
		PreferredContact: entity.ContactWhatsApp,
	}
	c.outstanding++
	if c.outstanding > c.maxOut {
		c.maxOut = c.outstanding
	}
	return true
}

func (c *countingCursor) Lead() *entity.Lead { return c.current }
func (c *countingCursor) Err() error { return c.err }
func (c *countingCursor) Close(ctx context.Context) error {
	c.closed++
	return nil
}

func newExport(repo entity.LeadRepositoryInterface) (*ExportLeadsUseCase, *countingMetrics) {
	metrics := newCountingMetrics()
	uc := NewExportLeadsUseCase(repo, metrics)
	uc.Now = func() time.Time { return time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC) }
	return uc, metrics
}

func TestExport_ZeroLeadsWritesSingleNoResultsLine(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo()}
	uc, _ := newExport(repo)
	doc := newFakeDoc()

	require.NoError(t, uc.Execute(context.Background(), testOwner, doc))

	assert.Equal(t, "title|Leads Export Report", doc.lines[0])
	assert.Equal(t, "subtitle|Generated on: 2026-05-01 10:30:00", doc.lines[1])
	assert.Equal(t, 1, doc.count("line|No leads found matching the criteria."))
	assert.Equal(t, 0, doc.count("heading|Project:"))
	assert.Equal(t, 1, doc.closed)
	assert.Equal(t, 1, repo.cursor.closed)
}

func TestExport_LargeExportHoldsOneLeadAtATime(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo(), n: 5000}
	uc, metrics := newExport(repo)
	doc := newFakeDoc()

	require.NoError(t, uc.Execute(context.Background(), testOwner, doc))

	assert.Equal(t, 1, repo.cursor.maxOut)
	assert.Equal(t, 5000, doc.count("heading|Project:"))
	assert.Equal(t, 0, doc.count("line|No leads found"))
	assert.Greater(t, doc.pages, 1)
	assert.Equal(t, 1, doc.closed)
	assert.Equal(t, 1, repo.cursor.closed)
	assert.Equal(t, 5000, metrics.exported)
}

func TestExport_PageBreakOnlyAtBlockStart(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo(), n: 40}
	uc, _ := newExport(repo)
	doc := newFakeDoc()

	require.NoError(t, uc.Execute(context.Background(), testOwner, doc))

	for i, l := range doc.lines {
		if l == "page|" {
			require.Less(t, i+1, len(doc.lines))
			assert.True(t, strings.HasPrefix(doc.lines[i+1], "heading|Project:"), "page break must precede a block, got %q", doc.lines[i+1])
		}
	}
}

func TestExport_CursorFailureAbandonsDocument(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo(), n: 10, failAt: 3}
	uc, metrics := newExport(repo)
	doc := newFakeDoc()

	err := uc.Execute(context.Background(), testOwner, doc)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindUpstream))
	assert.Equal(t, 0, doc.closed)
	assert.Equal(t, 1, repo.cursor.closed)
	assert.Equal(t, 3, doc.count("heading|Project:"))
	assert.Equal(t, 0, metrics.exported)
}

func TestExport_LimitIsInclusive(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo(), n: 5}
	uc, metrics := newExport(repo)
	uc.MaxLeads = 5
	doc := newFakeDoc()

	require.NoError(t, uc.Execute(context.Background(), testOwner, doc))
	assert.Equal(t, 5, doc.count("heading|Project:"))
	assert.Equal(t, 1, doc.closed)
	assert.Equal(t, 5, metrics.exported)
}

func TestExport_AboveLimitIsRejectedWithoutClosing(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo(), n: 6}
	uc, metrics := newExport(repo)
	uc.MaxLeads = 5
	doc := newFakeDoc()

	err := uc.Execute(context.Background(), testOwner, doc)

	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidArgument))
	assert.Equal(t, "Export is limited to 5 leads", err.(*Error).Message)
	assert.Equal(t, 0, doc.closed)
	assert.Equal(t, 1, repo.cursor.closed)
	assert.Equal(t, 0, metrics.exported)
}

func TestExport_DefaultLimit(t *testing.T) {
	uc := NewExportLeadsUseCase(newMemLeadRepo(), nil)
	assert.Equal(t, 10000, uc.MaxLeads)
}

func TestExport_QueryFailure(t *testing.T) {
	repo := &streamRepo{memLeadRepo: newMemLeadRepo(), streamErr: errors.New("no primary")}
	uc, _ := newExport(repo)
	doc := newFakeDoc()

	err := uc.Execute(context.Background(), testOwner, doc)
	assert.True(t, IsKind(err, KindUpstream))
	assert.Equal(t, 0, doc.closed)
	assert.Empty(t, doc.lines)
}

func TestExport_LeadBlockFormatting(t *testing.T) {
	repo := newMemLeadRepo()
	require.NoError(t, repo.Create(context.Background(), &entity.Lead{
		BusinessUserID: testOwner,
		Name:           "Ana",
		Email:          "ana@example.com",
		Status:         entity.LeadStatusContacted,
		UTM:            entity.UTM{Source: "google", Campaign: "verao"},
		Answers: []entity.LeadAnswer{
			{QuestionText: "Serviço", Answer: "Site"},
			{QuestionText: "Canais", Answer: []any{"email", "whatsapp"}},
		},
	}))
	uc, _ := newExport(repo)
	doc := newFakeDoc()

	require.NoError(t, uc.Execute(context.Background(), testOwner, doc))

	assert.Contains(t, doc.lines, "heading|Project: N/A")
	assert.Contains(t, doc.lines, "line|Name: Ana")
	assert.Contains(t, doc.lines, "line|Phone: N/A")
	assert.Contains(t, doc.lines, "line|Email: ana@example.com")
	assert.Contains(t, doc.lines, "line|Status: contacted")
	assert.Contains(t, doc.lines, "line|Preferred Contact: call")
	assert.Contains(t, doc.lines, "small|UTM: Source: google | Campaign: verao")
	assert.Contains(t, doc.lines, "line|Questionnaire Answers:")
	assert.Contains(t, doc.lines, "line|  • Serviço: Site")
	assert.Contains(t, doc.lines, "line|  • Canais: email, whatsapp")
	assert.Equal(t, 1, doc.count("rule|"))
}

func TestFormatUTM_OnlyContentIsOmitted(t *testing.T) {
	assert.Equal(t, "", formatUTM(entity.UTM{Content: "banner"}))
	assert.Equal(t, "Medium: cpc", formatUTM(entity.UTM{Medium: "cpc"}))
}
