package models

import "time"

// ReviewAppStatus is the lifecycle status the deployment platform reports for
// a review app. Unrecognised platform values map to ReviewAppStatusUnknown.
type ReviewAppStatus string

const (
	ReviewAppStatusPending  ReviewAppStatus = "pending"
	ReviewAppStatusCreating ReviewAppStatus = "creating"
	ReviewAppStatusCreated  ReviewAppStatus = "created"
	ReviewAppStatusErrored  ReviewAppStatus = "errored"
	ReviewAppStatusDeleting ReviewAppStatus = "deleting"
	ReviewAppStatusDeleted  ReviewAppStatus = "deleted"
	ReviewAppStatusUnknown  ReviewAppStatus = "unknown"
)

// ParseReviewAppStatus maps a raw platform status onto the closed set above.
func ParseReviewAppStatus(s string) ReviewAppStatus {
	switch st := ReviewAppStatus(s); st {
	case ReviewAppStatusPending, ReviewAppStatusCreating, ReviewAppStatusCreated,
		ReviewAppStatusErrored, ReviewAppStatusDeleting, ReviewAppStatusDeleted:
		return st
	default:
		return ReviewAppStatusUnknown
	}
}

// InProgress reports whether the platform is still provisioning the app.
func (s ReviewAppStatus) InProgress() bool {
	return s == ReviewAppStatusPending || s == ReviewAppStatusCreating
}

// ReviewApp is a disposable preview deployment bound to one pull request.
type ReviewApp struct {
	ID       string          `json:"id"        yaml:"id"`
	PRNumber int             `json:"pr_number" yaml:"pr_number"`
	Branch   string          `json:"branch"    yaml:"branch"`
	Status   ReviewAppStatus `json:"status"    yaml:"status"`
	// RawStatus keeps the platform's value when Status is unknown.
	RawStatus   string     `json:"raw_status,omitempty"   yaml:"raw_status,omitempty"`
	ErrorStatus string     `json:"error_status,omitempty" yaml:"error_status,omitempty"`
	Message     string     `json:"message,omitempty"      yaml:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"             yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"             yaml:"updated_at"`
	RemoteApp   *RemoteApp `json:"app,omitempty"          yaml:"app,omitempty"`
}

// RemoteApp references the platform app backing a review app. It is nil until
// the platform has allocated an app id.
type RemoteApp struct {
	ID string `json:"id" yaml:"id"`
}

// Ready reports whether the platform has assigned an app to the review app.
func (r *ReviewApp) Ready() bool {
	return r.RemoteApp != nil && r.RemoteApp.ID != ""
}

// App is the platform app detail used for reporting.
type App struct {
	ID     string `json:"id"      yaml:"id"`
	Name   string `json:"name"    yaml:"name"`
	WebURL string `json:"web_url" yaml:"web_url"`
}
