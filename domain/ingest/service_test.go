package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/lims-pipeline/domain/lookup"
	"github.com/emergent-company/lims-pipeline/internal/storage"
	"github.com/emergent-company/lims-pipeline/internal/tracker"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/embeddings"
)

type memorySource map[string][]byte

func (m memorySource) List(context.Context) ([]storage.Ref, error) {
	refs := make([]storage.Ref, 0, len(m))
	for p, b := range m {
		refs = append(refs, storage.Ref{Path: p, Size: int64(len(b))})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

func (m memorySource) Open(_ context.Context, p string) (io.ReadCloser, error) {
	b, ok := m[p]
	if !ok {
		return nil, apperror.ErrSourceUnavailable.WithMessage(p)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type recordingSink struct {
	mu      sync.Mutex
	batches []*Batch
	err     error
}

func (s *recordingSink) Write(_ context.Context, b *Batch) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, b)
	return nil
}

type lengthClient struct{}

func (lengthClient) EmbedDocuments(_ context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, d := range docs {
		out[i] = []float32{float32(len(d))}
	}
	return out, nil
}

const missingIdentity = `<?xml version="1.0"?>
<Statute xml:lang="en"><Body><Section><Label>1</Label><Text>Orphan.</Text></Section></Body></Statute>`

func fixtures(t *testing.T) memorySource {
	t.Helper()
	src := memorySource{}
	for _, name := range []string{"act_en.xml", "act_fr.xml", "regulation.xml"} {
		b, err := os.ReadFile(filepath.Join("..", "legislation", "testdata", name))
		require.NoError(t, err)
		src[name] = b
	}
	return src
}

func newService(src storage.Source, tr tracker.Tracker, sink Sink, opts Options) *Service {
	return NewService(src, tr, embeddings.NewNoopService(slog.Default()), sink, nil, opts, slog.Default())
}

func TestRun_ProcessesEveryDocument(t *testing.T) {
	sink := &recordingSink{}
	tr := tracker.NewMemory()
	svc := newService(fixtures(t), tr, sink, Options{Workers: 1})

	report, err := svc.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, report.Documents, 3)
	assert.Zero(t, report.Failed())
	paths := []string{report.Documents[0].Path, report.Documents[1].Path, report.Documents[2].Path}
	assert.Equal(t, []string{"act_en.xml", "act_fr.xml", "regulation.xml"}, paths)

	en := report.Documents[0]
	assert.Equal(t, "A-99", en.DocumentID)
	assert.Equal(t, "en", en.Language)
	assert.Equal(t, 11, en.Sections)
	assert.Positive(t, en.Chunks)
	assert.Equal(t, en.Chunks, en.ChunksWritten)
	assert.Zero(t, en.ChunksSkipped)
	assert.Zero(t, en.TermsPaired)

	fr := report.Documents[1]
	assert.Equal(t, 1, fr.TermsPaired, "barrière pairs with the English barrier")

	require.Len(t, sink.batches, 3)
	total := 0
	for _, b := range sink.batches {
		assert.Nil(t, b.Vectors)
		assert.Len(t, b.Keys, len(b.Chunks))
		total += len(b.Chunks)
	}
	assert.Equal(t, report.ChunksWritten(), total)

	marked, err := tr.CountByPrefix(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, total, marked)
}

func TestRun_SkipsTrackedChunks(t *testing.T) {
	src := fixtures(t)
	tr := tracker.NewMemory()

	_, err := newService(src, tr, &recordingSink{}, Options{Workers: 2}).Run(context.Background(), nil)
	require.NoError(t, err)

	sink := &recordingSink{}
	report, err := newService(src, tr, sink, Options{Workers: 2}).Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, report.ChunksWritten())
	assert.Positive(t, report.ChunksSkipped())
	for _, b := range sink.batches {
		assert.Empty(t, b.Chunks)
		assert.NotEmpty(t, b.Keys, "stale detection still sees every key")
	}

	forced, err := newService(src, tr, &recordingSink{}, Options{Workers: 2, Force: true}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, report.ChunksSkipped(), forced.ChunksWritten())
}

func TestRun_DocumentErrorsDoNotStopTheBatch(t *testing.T) {
	src := fixtures(t)
	src["broken.xml"] = []byte(missingIdentity)
	src["truncated.xml"] = []byte("<Statute><Identification></Statute>")

	report, err := newService(src, tracker.NewMemory(), &recordingSink{}, Options{Workers: 3}).Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, report.Documents, 5)
	assert.Equal(t, 2, report.Failed())

	failed := report.Errors()
	assert.Equal(t, "broken.xml", failed[0].Path)
	assert.True(t, errors.Is(failed[0].Err, apperror.ErrMissingIdentity))
	assert.Contains(t, failed[0].Err.Error(), "broken.xml")
	assert.Equal(t, "truncated.xml", failed[1].Path)
	assert.True(t, errors.Is(failed[1].Err, apperror.ErrMalformedXML))
	assert.Equal(t, 3, len(report.Documents)-report.Failed())
}

func TestRun_LanguageFilter(t *testing.T) {
	sink := &recordingSink{}
	report, err := newService(fixtures(t), tracker.NewMemory(), sink, Options{Languages: []string{"fr"}}).Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, sink.batches, 1)
	assert.Equal(t, "fr", sink.batches[0].Document.Language)
	skipped := 0
	for _, d := range report.Documents {
		if d.Skipped != "" {
			skipped++
		}
	}
	assert.Equal(t, 2, skipped)
}

func TestRun_SinkFailureLeavesKeysUnmarked(t *testing.T) {
	tr := tracker.NewMemory()
	sink := &recordingSink{err: apperror.NewDatabase("insert", errors.New("connection reset"))}

	report, err := newService(fixtures(t), tr, sink, Options{}).Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Failed())
	for _, d := range report.Documents {
		assert.True(t, errors.Is(d.Err, apperror.ErrDatabase))
	}
	n, err := tr.CountByPrefix(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	report, err := newService(fixtures(t), tracker.NewMemory(), sink, Options{}).Run(ctx, []storage.Ref{{Path: "act_en.xml"}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Documents)
	assert.Empty(t, sink.batches)
}

func TestRun_EmbedsAndUsesLookupTitles(t *testing.T) {
	ix, err := lookup.Load(filepath.Join("..", "lookup", "testdata", "lookup.xml"))
	require.NoError(t, err)

	sink := &recordingSink{}
	embedder := embeddings.NewServiceWithClient(lengthClient{}, 4, slog.Default())
	svc := NewService(fixtures(t), tracker.NewMemory(), embedder, sink, ix, Options{}, slog.Default())

	_, err = svc.Run(context.Background(), []storage.Ref{{Path: "regulation.xml"}})
	require.NoError(t, err)

	require.Len(t, sink.batches, 1)
	b := sink.batches[0]
	require.Len(t, b.Vectors, len(b.Chunks))
	for i, c := range b.Chunks {
		assert.Equal(t, float32(len(c.Content)), b.Vectors[i][0])
	}
	title, ok := ix.Title("SOR/2020-15", "en")
	require.True(t, ok)
	assert.Equal(t, title, b.Chunks[0].Metadata["document_title"])
	assert.Equal(t, []string{"A-99"}, b.Document.EnablingActs)
}
