package models

import "time"

// BuildStatus is the state of a platform build. Anything the platform
// reports outside pending/succeeded/failed is BuildStatusOther.
type BuildStatus string

const (
	BuildStatusPending   BuildStatus = "pending"
	BuildStatusSucceeded BuildStatus = "succeeded"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusOther     BuildStatus = "other"
)

// ParseBuildStatus maps a raw platform build status onto the closed set above.
func ParseBuildStatus(s string) BuildStatus {
	switch st := BuildStatus(s); st {
	case BuildStatusPending, BuildStatusSucceeded, BuildStatusFailed:
		return st
	default:
		return BuildStatusOther
	}
}

// Build is a read-only view of a platform build record.
type Build struct {
	ID            string      `json:"id"                   yaml:"id"`
	AppID         string      `json:"app_id"               yaml:"app_id"`
	SourceVersion string      `json:"source_version"       yaml:"source_version"`
	Status        BuildStatus `json:"status"               yaml:"status"`
	RawStatus     string      `json:"raw_status,omitempty" yaml:"raw_status,omitempty"`
	// ErrorStatus carries whatever detail the platform attached to a non-successful build.
	ErrorStatus string    `json:"error_status,omitempty" yaml:"error_status,omitempty"`
	CreatedAt   time.Time `json:"created_at"             yaml:"created_at"`
}
