package storage

import (
	"context"

	"github.com/stagehq/upload-validator/internal/domain"
)

// TagStore captures the two object-tagging operations the workflow needs
// from an S3-compatible store. Writes always target one object version;
// an empty (non-nil) set clears all tags on the version.
type TagStore interface {
	ReadTags(ctx context.Context, ref domain.ObjectReference) (domain.TagSet, error)
	WriteTags(ctx context.Context, ref domain.ObjectReference, set domain.TagSet) error
}
