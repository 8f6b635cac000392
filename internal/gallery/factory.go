package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Backend kinds accepted by NewBackend.
const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindSQLite   = "sqlite"
	KindS3       = "s3"
	KindDynamoDB = "dynamodb"
)

// Kinds lists every backend kind in display order.
var Kinds = []string{KindMemory, KindFile, KindSQLite, KindS3, KindDynamoDB}

// Options selects and configures a backend.
type Options struct {
	Kind   string
	Path   string // file and sqlite
	Record string // sqlite and dynamodb record name
	Bucket string // s3
	Key    string // s3 object key
	Table  string // dynamodb
}

// DefaultPath returns where the file or sqlite backend keeps its data when
// no path is configured.
func DefaultPath(kind string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	name := "gallery.json"
	if kind == KindSQLite {
		name = "gallery.db"
	}
	return filepath.Join(dir, "photo-to-profit", name)
}

// NewBackend builds the backend described by opts. The returned close
// function releases any held resources and is never nil.
func NewBackend(ctx context.Context, opts Options) (Backend, func() error, error) {
	noop := func() error { return nil }
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" {
		kind = KindFile
	}

	switch kind {
	case KindMemory:
		return NewMemoryBackend(nil), noop, nil

	case KindFile:
		path := opts.Path
		if path == "" {
			path = DefaultPath(kind)
		}
		log.Debug().Str("path", path).Msg("Using file gallery backend")
		return NewFileBackend(path), noop, nil

	case KindSQLite:
		path := opts.Path
		if path == "" {
			path = DefaultPath(kind)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, noop, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		b, err := OpenSQLite(ctx, path, opts.Record)
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Str("path", path).Msg("Using sqlite gallery backend")
		return b, b.Close, nil

	case KindS3:
		if opts.Bucket == "" {
			return nil, noop, fmt.Errorf("s3 backend requires a bucket")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		log.Debug().Str("region", cfg.Region).Str("bucket", opts.Bucket).Msg("Using s3 gallery backend")
		return NewS3Backend(s3.NewFromConfig(cfg), opts.Bucket, opts.Key), noop, nil

	case KindDynamoDB:
		if opts.Table == "" {
			return nil, noop, fmt.Errorf("dynamodb backend requires a table")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		log.Debug().Str("region", cfg.Region).Str("table", opts.Table).Msg("Using dynamodb gallery backend")
		return NewDynamoBackend(dynamodb.NewFromConfig(cfg), opts.Table, opts.Record), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown gallery backend %q (want one of %s)", opts.Kind, strings.Join(Kinds, ", "))
	}
}
