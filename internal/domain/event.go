package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField marks input errors that abort an event before any remote
// call is made. Use errors.Is to classify.
var ErrMissingField = errors.New("missing required field")

// NotificationEnvelope is the inbound bucket-notification payload. Only the
// first record is processed, matching the one-object-per-event delivery of
// the upstream bucket.
type NotificationEnvelope struct {
	Records []EventRecord `json:"Records"`
}

// EventRecord is a single record within a bucket notification.
type EventRecord struct {
	EventName string        `json:"eventName"`
	S3        ObjectCreated `json:"s3"`
}

// ObjectCreated carries the object metadata delivered with an
// object-created notification.
type ObjectCreated struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key       string `json:"key"`
		Size      *int64 `json:"size"`
		VersionID string `json:"versionId"`
	} `json:"object"`
}

// First extracts the first record's object metadata.
func (e NotificationEnvelope) First() (ObjectCreated, error) {
	if len(e.Records) == 0 {
		return ObjectCreated{}, fmt.Errorf("%w: no records found in event", ErrMissingField)
	}
	return e.Records[0].S3, nil
}

// ObjectReference identifies one object version in the store. All three
// fields are required for any tagging call.
type ObjectReference struct {
	Bucket    string
	Key       string
	VersionID string
}

func (r ObjectReference) String() string {
	return fmt.Sprintf("s3://%s/%s versionId: %s", r.Bucket, r.Key, r.VersionID)
}

// DecodedKey returns the object key with literal '+' decoded back to spaces.
// The upstream notification transport encodes spaces in keys as '+'.
func (o ObjectCreated) DecodedKey() string {
	return strings.ReplaceAll(o.Object.Key, "+", " ")
}

// Reference validates presence of bucket, key and version id and builds the
// store reference. A bucket without versioning enabled is a configuration
// defect, so a missing version id is a hard error rather than a no-op.
func (o ObjectCreated) Reference() (ObjectReference, error) {
	if o.Bucket.Name == "" {
		return ObjectReference{}, fmt.Errorf("%w: missing bucket name", ErrMissingField)
	}
	if o.Object.Key == "" {
		return ObjectReference{}, fmt.Errorf("%w: missing object key", ErrMissingField)
	}
	if o.Object.VersionID == "" {
		return ObjectReference{}, fmt.Errorf("%w: object has no version ID defined, is versioning enabled in the bucket?", ErrMissingField)
	}
	return ObjectReference{
		Bucket:    o.Bucket.Name,
		Key:       o.DecodedKey(),
		VersionID: o.Object.VersionID,
	}, nil
}
