package annotate

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/core/domain"
)

// mockAnnotator splits on spaces and tags every token "NN".
type mockAnnotator struct {
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (m *mockAnnotator) Annotate(text string) domain.Annotation {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	ann := domain.Annotation{NamedEntities: []domain.NamedEntity{}}
	for _, f := range strings.Fields(text) {
		ann.Tokens = append(ann.Tokens, f)
		ann.POSTags = append(ann.POSTags, domain.POSTag{Token: f, Tag: "NN"})
	}
	return ann
}

func TestNew(t *testing.T) {
	p := New(&mockAnnotator{})
	assert.Equal(t, "annotate", p.Name())
	assert.Equal(t, DefaultWorkers, p.workers)

	assert.Equal(t, 2, New(&mockAnnotator{}, WithWorkers(2)).workers)
	assert.Equal(t, DefaultWorkers, New(&mockAnnotator{}, WithWorkers(0)).workers)
}

func TestProcess(t *testing.T) {
	m := &mockAnnotator{}
	p := New(m, WithWorkers(2))

	chunks := []domain.Chunk{
		{Position: 0, Content: "alpha beta", Metadata: map[string]any{domain.MetaSource: "a.txt"}},
		{Position: 1, Content: "gamma"},
		{Position: 2, Content: "delta epsilon zeta"},
	}

	out, err := p.Process(context.Background(), &domain.Document{}, chunks)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int32(3), m.calls.Load())
	assert.LessOrEqual(t, m.maxSeen.Load(), int32(2))

	assert.Equal(t, []string{"alpha", "beta"}, out[0].Metadata[domain.MetaTokens])
	assert.Equal(t, "a.txt", out[0].Metadata[domain.MetaSource])
	assert.Equal(t, []string{"gamma"}, out[1].Metadata[domain.MetaTokens])

	for _, c := range out {
		ann := domain.Annotation{
			Tokens:  c.Metadata[domain.MetaTokens].([]string),
			POSTags: c.Metadata[domain.MetaPOSTags].([]domain.POSTag),
		}
		assert.True(t, ann.Aligned())
		assert.NotNil(t, c.Metadata[domain.MetaNamedEntities])
	}
}

func TestProcess_Empty(t *testing.T) {
	out, err := New(&mockAnnotator{}).Process(context.Background(), &domain.Document{}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&mockAnnotator{}).Process(ctx, &domain.Document{}, []domain.Chunk{{Content: "x"}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProcess_NoAnnotator(t *testing.T) {
	_, err := New(nil).Process(context.Background(), &domain.Document{}, []domain.Chunk{{Content: "x"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
