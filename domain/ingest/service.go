// Package ingest runs the pipeline over a document source: parse,
// extract, resolve, chunk, skip what the tracker has already seen, embed
// and hand off to a sink.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/emergent-company/lims-pipeline/domain/chunking"
	"github.com/emergent-company/lims-pipeline/domain/legislation"
	"github.com/emergent-company/lims-pipeline/domain/lookup"
	"github.com/emergent-company/lims-pipeline/internal/storage"
	"github.com/emergent-company/lims-pipeline/internal/tracker"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/embeddings"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// Options control one Service.
type Options struct {
	Workers int
	// Force hands off every chunk, ignoring the tracker.
	Force bool
	// Languages restricts ingestion to these xml:lang values; empty
	// accepts all.
	Languages []string
	Chunking  chunking.Options
}

// Service runs the pipeline. One Service may run several batches; the
// term pair index persists across them.
type Service struct {
	source   storage.Source
	tracker  tracker.Tracker
	embedder *embeddings.Service
	sink     Sink
	index    *lookup.Index
	chunker  *chunking.Chunker
	pairs    *legislation.PairIndex
	opts     Options
	log      *slog.Logger
}

// NewService creates a pipeline service. index may be nil when no lookup
// catalogue is configured.
func NewService(source storage.Source, t tracker.Tracker, embedder *embeddings.Service, sink Sink, index *lookup.Index, opts Options, log *slog.Logger) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	var titles legislation.TitleResolver
	if index != nil {
		titles = index
	}
	return &Service{
		source:   source,
		tracker:  t,
		embedder: embedder,
		sink:     sink,
		index:    index,
		chunker:  chunking.New(opts.Chunking, titles),
		pairs:    legislation.NewPairIndex(),
		opts:     opts,
		log:      log.With(logger.Scope("ingest.service")),
	}
}

// Run processes refs, or every document of the source when refs is nil.
// Per-document failures are recorded in the report and do not stop the
// batch. Cancelling ctx stops new documents from starting; the returned
// error is then ctx's error and the report covers what finished.
func (s *Service) Run(ctx context.Context, refs []storage.Ref) (*Report, error) {
	start := time.Now()
	if refs == nil {
		listed, err := s.source.List(ctx)
		if err != nil {
			return nil, err
		}
		refs = listed
	}
	s.log.Info("ingestion started",
		slog.Int("documents", len(refs)),
		slog.Int("workers", s.opts.Workers),
		slog.Bool("force", s.opts.Force),
	)

	report := &Report{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			WorkersBusy.Inc()
			res := s.process(gctx, ref)
			WorkersBusy.Dec()

			mu.Lock()
			report.Documents = append(report.Documents, res)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	sort.Slice(report.Documents, func(i, j int) bool {
		return report.Documents[i].Path < report.Documents[j].Path
	})
	report.Duration = time.Since(start)
	s.log.Info("ingestion finished",
		slog.Int("documents", len(report.Documents)),
		slog.Int("failed", report.Failed()),
		slog.Int("chunks_written", report.ChunksWritten()),
		slog.Duration("duration", report.Duration),
	)
	return report, err
}

// process handles one document. Nothing it does is visible to other
// documents except the tracker marks and the term pair index.
func (s *Service) process(ctx context.Context, ref storage.Ref) DocumentResult {
	start := time.Now()
	res := DocumentResult{Path: ref.Path}
	defer func() {
		res.Duration = time.Since(start)
		DocumentDuration.Observe(res.Duration.Seconds())
	}()

	doc, err := s.load(ctx, ref)
	if err != nil {
		return s.fail(res, err)
	}
	res.DocumentID, res.Language, res.Kind = doc.ID, doc.Language, doc.Kind
	log := s.log.With(logger.Document(doc.ID, doc.Language))

	if !s.acceptsLanguage(doc.Language) {
		res.Skipped = fmt.Sprintf("language %q not configured", doc.Language)
		DocumentsProcessed.WithLabelValues(string(doc.Kind), doc.Language, "skipped").Inc()
		return res
	}
	for _, issue := range doc.Issues {
		log.Warn("extraction issue", logger.Error(issue))
		res.Issues = append(res.Issues, issue.Error())
	}

	s.resolve(doc)
	s.pairs.Add(doc.DefinedTerms...)
	res.TermsPaired = s.pairs.Link(doc.DefinedTerms)

	all := s.chunker.ChunkDocument(doc)
	keys := lo.Map(all, func(c chunking.Chunk, _ int) string { return c.ResourceKey })
	pending := all
	if !s.opts.Force {
		todo, err := tracker.Pending(ctx, s.tracker, keys)
		if err != nil {
			return s.fail(res, fmt.Errorf("check progress: %w", err))
		}
		want := lo.SliceToMap(todo, func(k string) (string, bool) { return k, true })
		pending = lo.Filter(all, func(c chunking.Chunk, _ int) bool { return want[c.ResourceKey] })
	}

	vectors, err := s.embedder.Embed(ctx, lo.Map(pending, func(c chunking.Chunk, _ int) string { return c.Content }))
	if err != nil {
		return s.fail(res, fmt.Errorf("embed chunks: %w", err))
	}
	if err := s.sink.Write(ctx, &Batch{Document: doc, Chunks: pending, Vectors: vectors, Keys: keys}); err != nil {
		return s.fail(res, err)
	}
	written := lo.Map(pending, func(c chunking.Chunk, _ int) string { return c.ResourceKey })
	if err := s.tracker.MarkMany(ctx, written); err != nil {
		return s.fail(res, fmt.Errorf("mark progress: %w", err))
	}

	res.Sections = len(doc.Sections)
	res.CrossReferences = len(doc.CrossReferences)
	res.DefinedTerms = len(doc.DefinedTerms)
	res.Chunks = len(all)
	res.ChunksWritten = len(pending)
	res.ChunksSkipped = len(all) - len(pending)
	s.record(doc, all, pending, &res)

	log.Debug("document ingested",
		slog.Int("sections", res.Sections),
		slog.Int("chunks", res.Chunks),
		slog.Int("written", res.ChunksWritten),
		slog.Int("over_budget", res.OverBudget),
	)
	return res
}

func (s *Service) load(ctx context.Context, ref storage.Ref) (*legislation.Document, error) {
	rc, err := s.source.Open(ctx, ref.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return legislation.ParseDocument(ref.Path, rc)
}

// resolve attaches internal reference targets, external titles and, for
// regulations without a declared enabling authority, the enabling acts
// known to the lookup catalogue.
func (s *Service) resolve(doc *legislation.Document) {
	legislation.ResolveInternal(doc)
	if s.index == nil {
		return
	}
	legislation.ResolveExternal(doc.CrossReferences, s.index)
	if doc.Kind == legislation.KindRegulation && len(doc.EnablingActs) == 0 {
		for _, e := range s.index.EnablingActs(doc.ID, doc.Language) {
			doc.EnablingActs = append(doc.EnablingActs, e.NaturalID)
		}
	}
}

func (s *Service) acceptsLanguage(lang string) bool {
	return len(s.opts.Languages) == 0 || lo.Contains(s.opts.Languages, lang)
}

func (s *Service) record(doc *legislation.Document, all, pending []chunking.Chunk, res *DocumentResult) {
	DocumentsProcessed.WithLabelValues(string(doc.Kind), doc.Language, "ok").Inc()
	for _, sec := range doc.Sections {
		SectionsExtracted.WithLabelValues(string(sec.Type)).Inc()
	}
	written := lo.SliceToMap(pending, func(c chunking.Chunk) (string, bool) { return c.ResourceKey, true })
	for _, c := range all {
		source, _ := c.Metadata["source_type"].(string)
		outcome := "skipped"
		if written[c.ResourceKey] {
			outcome = "written"
		}
		ChunksProduced.WithLabelValues(source, outcome).Inc()
		if c.OverBudget {
			res.OverBudget++
			ChunksOverBudget.Inc()
		}
	}
}

func (s *Service) fail(res DocumentResult, err error) DocumentResult {
	res.Err = err
	code := apperror.Code(err)
	if code == "" {
		code = apperror.ErrInternal.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		code = "canceled"
	}
	DocumentErrors.WithLabelValues(code).Inc()
	DocumentsProcessed.WithLabelValues(string(res.Kind), res.Language, "failed").Inc()
	s.log.Error("document failed",
		slog.String("path", res.Path),
		slog.String("code", code),
		logger.Error(err),
	)
	return res
}
