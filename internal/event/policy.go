package event

import "strings"

// Policy describes which object paths are primary exercise-video uploads.
//
// Accepted paths have exactly three segments, <Prefix>/<folder>/<file>, end
// with Filename and do not contain Exclude anywhere. Deeper nesting is
// rejected; the folder identifier is always the middle segment.
type Policy struct {
	// Prefix is the first path segment of the upload area.
	Prefix string
	// Filename is the literal suffix an accepted path must end with.
	Filename string
	// Exclude is a substring that disqualifies a path, used to keep derived
	// artifacts written back by the processing service from re-triggering it.
	Exclude string
}

// DefaultPolicy matches "exercise_videos/<folder>/video.mp4" and ignores the
// "pose_video.mp4" output of the processing service.
func DefaultPolicy() Policy {
	return Policy{
		Prefix:   "exercise_videos",
		Filename: "video.mp4",
		Exclude:  "pose_video",
	}
}

// Match reports whether objectPath is accepted and, if so, returns its
// folder identifier.
func (p Policy) Match(objectPath string) (string, bool) {
	if !strings.HasPrefix(objectPath, p.Prefix+"/") {
		return "", false
	}
	parts := strings.Split(objectPath, "/")
	if len(parts) != 3 {
		return "", false
	}
	if !strings.HasSuffix(objectPath, p.Filename) {
		return "", false
	}
	if p.Exclude != "" && strings.Contains(objectPath, p.Exclude) {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
