// Package storage lists and opens source XML documents, either from a
// local directory tree or from an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/pkg/apperror"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

var Module = fx.Module("storage",
	fx.Provide(NewSource),
)

// Ref names one source document.
type Ref struct {
	// Path is relative to the source root (a file path or object key).
	Path string
	Size int64
}

// Source lists and opens XML documents.
type Source interface {
	List(ctx context.Context) ([]Ref, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// NewSource picks the configured source.
func NewSource(cfg *config.Config, log *slog.Logger) (Source, error) {
	var exclude []string
	if cfg.Ingest.LookupPath != "" {
		exclude = append(exclude, filepath.Base(cfg.Ingest.LookupPath))
	}

	switch cfg.Ingest.Source {
	case "", "dir":
		return NewDirSource(cfg.Ingest.SourceDir, exclude...), nil
	case "s3":
		src, err := NewS3Source(context.Background(), &cfg.Storage, log, exclude...)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, apperror.ErrSourceUnavailable.WithMessage(fmt.Sprintf("unknown source %q", cfg.Ingest.Source))
	}
}

// IsDocument reports whether name looks like a source document: an .xml
// file that is not hidden and not excluded by base name.
func IsDocument(name string, exclude map[string]bool) bool {
	base := path.Base(filepath.ToSlash(name))
	if strings.HasPrefix(base, ".") || exclude[base] {
		return false
	}
	return strings.EqualFold(path.Ext(base), ".xml")
}

func excludeSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// DirSource reads documents from a directory tree.
type DirSource struct {
	root    string
	exclude map[string]bool
}

// NewDirSource returns a source rooted at root. Files whose base name is
// in exclude are skipped.
func NewDirSource(root string, exclude ...string) *DirSource {
	return &DirSource{root: root, exclude: excludeSet(exclude)}
}

// List walks the tree and returns every document in lexical path order.
func (d *DirSource) List(ctx context.Context) ([]Ref, error) {
	var refs []Ref
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !IsDocument(p, d.exclude) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		refs = append(refs, Ref{Path: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, apperror.ErrSourceUnavailable.
			WithMessage(fmt.Sprintf("list %s", d.root)).
			WithInternal(err)
	}
	return refs, nil
}

// Open opens one document by its relative path.
func (d *DirSource) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.root, filepath.FromSlash(p)))
	if err != nil {
		return nil, apperror.ErrSourceUnavailable.
			WithMessage(fmt.Sprintf("open %s", p)).
			WithDetails(map[string]any{"path": p}).
			WithInternal(err)
	}
	return f, nil
}

// S3Source reads documents from an S3-compatible bucket (MinIO included).
type S3Source struct {
	client  *s3.Client
	bucket  string
	prefix  string
	exclude map[string]bool
	log     *slog.Logger
}

// NewS3Source creates a bucket-backed source.
func NewS3Source(ctx context.Context, cfg *config.StorageConfig, log *slog.Logger, exclude ...string) (*S3Source, error) {
	log = log.With(logger.Scope("storage.s3"))
	if !cfg.IsConfigured() {
		return nil, apperror.ErrSourceUnavailable.WithMessage("storage endpoint and credentials are required for the s3 source")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required for MinIO
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	log.Info("s3 document source initialized",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("bucket", cfg.Bucket),
		slog.String("prefix", cfg.Prefix),
	)

	return &S3Source{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		exclude: excludeSet(exclude),
		log:     log,
	}, nil
}

// List pages through the bucket under the configured prefix.
func (s *S3Source) List(ctx context.Context) ([]Ref, error) {
	var refs []Ref
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			s.log.Error("failed to list objects", slog.String("bucket", s.bucket), logger.Error(err))
			return nil, apperror.ErrSourceUnavailable.
				WithMessage(fmt.Sprintf("list s3://%s/%s", s.bucket, s.prefix)).
				WithInternal(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !IsDocument(key, s.exclude) {
				continue
			}
			refs = append(refs, Ref{
				Path: strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/"),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// Open downloads one object. The caller must close the returned reader.
func (s *S3Source) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ObjectKey(s.prefix, p)),
	})
	if err != nil {
		s.log.Error("failed to download object", slog.String("path", p), logger.Error(err))
		return nil, apperror.ErrSourceUnavailable.
			WithMessage(fmt.Sprintf("open %s", p)).
			WithDetails(map[string]any{"path": p}).
			WithInternal(err)
	}
	return result.Body, nil
}

// ObjectKey joins a prefix and a relative document path.
func ObjectKey(prefix, p string) string {
	if prefix == "" {
		return p
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(p, "/")
}
