package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	miniotags "github.com/minio/minio-go/v7/pkg/tags"

	"github.com/stagehq/upload-validator/internal/domain"
)

// MinioConfig encapsulates the connection info for the S3-compatible store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MinioTagStore implements TagStore over an S3-compatible endpoint.
type MinioTagStore struct {
	client *minio.Client
}

// NewMinioTagStore builds a long-lived store client. The client carries no
// per-event state and is safe to share across events.
func NewMinioTagStore(cfg MinioConfig) (*MinioTagStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed creating storage client: %w", err)
	}

	return &MinioTagStore{client: client}, nil
}

// ReadTags fetches the current tag collection of one object version.
func (s *MinioTagStore) ReadTags(ctx context.Context, ref domain.ObjectReference) (domain.TagSet, error) {
	t, err := s.client.GetObjectTagging(ctx, ref.Bucket, ref.Key, minio.GetObjectTaggingOptions{
		VersionID: ref.VersionID,
	})
	if err != nil {
		return nil, fmt.Errorf("could not get tags from object %s: %w", ref, err)
	}
	return fromTagMap(t.ToMap()), nil
}

// WriteTags replaces the full tag collection of one object version.
func (s *MinioTagStore) WriteTags(ctx context.Context, ref domain.ObjectReference, set domain.TagSet) error {
	t, err := miniotags.NewTags(toTagMap(set), true)
	if err != nil {
		return fmt.Errorf("could not encode tags for object %s: %w", ref, err)
	}
	if err := s.client.PutObjectTagging(ctx, ref.Bucket, ref.Key, t, minio.PutObjectTaggingOptions{
		VersionID: ref.VersionID,
	}); err != nil {
		return fmt.Errorf("could not put tags on object %s: %w", ref, err)
	}
	return nil
}

var _ TagStore = (*MinioTagStore)(nil)

func toTagMap(set domain.TagSet) map[string]string {
	m := make(map[string]string, len(set))
	for _, t := range set {
		m[t.Key] = t.Value
	}
	return m
}

// fromTagMap rebuilds a TagSet in sorted key order so reads are
// deterministic regardless of map iteration.
func fromTagMap(m map[string]string) domain.TagSet {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make(domain.TagSet, 0, len(keys))
	for _, k := range keys {
		set = append(set, domain.Tag{Key: k, Value: m[k]})
	}
	return set
}
