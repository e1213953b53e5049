package heroku

import (
	"time"

	"github.com/CosmoTheDev/reviewapp-agent/models"
)

// reviewAppResource is the wire shape of GET /pipelines/{id}/review-apps items
// and of POST /review-apps.
type reviewAppResource struct {
	ID          string    `json:"id"`
	App         *appRef   `json:"app"`
	Branch      string    `json:"branch"`
	PRNumber    int       `json:"pr_number"`
	Status      string    `json:"status"`
	ErrorStatus *string   `json:"error_status"`
	Message     *string   `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type appRef struct {
	ID string `json:"id"`
}

type appResource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"web_url"`
}

type buildResource struct {
	ID         string    `json:"id"`
	App        *appRef   `json:"app"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	SourceBlob struct {
		URL     string `json:"url"`
		Version string `json:"version"`
	} `json:"source_blob"`
	// Failed builds carry no message; the output stream is the only detail.
	OutputStreamURL string `json:"output_stream_url"`
}

// CreateReviewAppOptions is the body of POST /review-apps.
type CreateReviewAppOptions struct {
	Branch      string            `json:"branch"`
	Pipeline    string            `json:"pipeline"`
	SourceBlob  SourceBlob        `json:"source_blob"`
	ForkRepoID  *int64            `json:"fork_repo_id,omitempty"`
	PRNumber    int               `json:"pr_number"`
	Environment map[string]string `json:"environment,omitempty"`
}

// SourceBlob points the platform at a downloadable source archive.
type SourceBlob struct {
	URL     string `json:"url"`
	Version string `json:"version"`
}

func (r reviewAppResource) toModel() models.ReviewApp {
	app := models.ReviewApp{
		ID:        r.ID,
		PRNumber:  r.PRNumber,
		Branch:    r.Branch,
		Status:    models.ParseReviewAppStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if app.Status == models.ReviewAppStatusUnknown {
		app.RawStatus = r.Status
	}
	if r.ErrorStatus != nil {
		app.ErrorStatus = *r.ErrorStatus
	}
	if r.Message != nil {
		app.Message = *r.Message
	}
	if r.App != nil && r.App.ID != "" {
		app.RemoteApp = &models.RemoteApp{ID: r.App.ID}
	}
	return app
}

func (b buildResource) toModel() models.Build {
	out := models.Build{
		ID:            b.ID,
		SourceVersion: b.SourceBlob.Version,
		Status:        models.ParseBuildStatus(b.Status),
		CreatedAt:     b.CreatedAt,
	}
	if b.App != nil {
		out.AppID = b.App.ID
	}
	if out.Status == models.BuildStatusOther {
		out.RawStatus = b.Status
	}
	if out.Status != models.BuildStatusSucceeded && out.Status != models.BuildStatusPending && b.OutputStreamURL != "" {
		out.ErrorStatus = "build output: " + b.OutputStreamURL
	}
	return out
}
