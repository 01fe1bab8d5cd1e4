// Package event parses Cloud Storage object-finalized payloads and decides
// whether an uploaded object is a primary exercise video.
package event

import (
	"encoding/json"
	"fmt"
	"io"
)

// FinalizedType is the CloudEvent type emitted when an object upload completes.
const FinalizedType = "google.cloud.storage.object.v1.finalized"

// StorageObject holds the subset of object metadata the trigger reads from a
// google.cloud.storage.object.v1.finalized payload.
type StorageObject struct {
	// Bucket is the bucket name (e.g. "fitnessaitrainer.firebasestorage.app").
	Bucket string `json:"bucket"`
	// Name is the object path (e.g. "exercise_videos/<folder>/video.mp4").
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	// Size and Generation are int64 values encoded as JSON strings by GCS.
	Size       string `json:"size,omitempty"`
	Generation string `json:"generation,omitempty"`
}

// FolderID returns the folder identifier of o when its name passes p.
func (o StorageObject) FolderID(p Policy) (string, bool) {
	return p.Match(o.Name)
}

// Parse decodes a JSON-encoded StorageObject from r.
func Parse(r io.Reader) (StorageObject, error) {
	var obj StorageObject
	if err := json.NewDecoder(r).Decode(&obj); err != nil {
		return StorageObject{}, fmt.Errorf("decode storage object: %w", err)
	}
	return obj, obj.validate()
}

// Unmarshal decodes a StorageObject from raw JSON, as carried in the data
// field of a CloudEvent.
func Unmarshal(data []byte) (StorageObject, error) {
	var obj StorageObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return StorageObject{}, fmt.Errorf("decode storage object: %w", err)
	}
	return obj, obj.validate()
}

func (o StorageObject) validate() error {
	if o.Bucket == "" {
		return fmt.Errorf("storage object missing bucket")
	}
	if o.Name == "" {
		return fmt.Errorf("storage object missing name")
	}
	return nil
}
