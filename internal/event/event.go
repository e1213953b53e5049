// Package event turns the raw workflow trigger into a normalized
// PullRequestEvent and the DesiredAction the reconciler should take.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
)

// SupportedEventName is the only workflow trigger handled.
const SupportedEventName = "pull_request"

var (
	// ErrInvalidEventKind means the payload carries no pull request.
	ErrInvalidEventKind = errors.New("this action only works on pull requests")
	// ErrUnsupportedTrigger means the payload is a pull request but the
	// workflow was triggered by another event (e.g. pull_request_target).
	ErrUnsupportedTrigger = errors.New("unexpected github event trigger")
)

// Action is the pull-request action that triggered the run.
type Action string

const (
	ActionOpened      Action = "opened"
	ActionReopened    Action = "reopened"
	ActionSynchronize Action = "synchronize"
	ActionLabeled     Action = "labeled"
	ActionClosed      Action = "closed"
	ActionOther       Action = "other"
)

func parseAction(s string) Action {
	switch a := Action(s); a {
	case ActionOpened, ActionReopened, ActionSynchronize, ActionLabeled, ActionClosed:
		return a
	default:
		return ActionOther
	}
}

// DesiredAction is what the reconciler should do with the review app.
type DesiredAction string

const (
	DesiredCreate DesiredAction = "create"
	DesiredResync DesiredAction = "resync"
	DesiredDelete DesiredAction = "delete"
	DesiredNoop   DesiredAction = "noop"
)

// Raw is the unprocessed trigger as the runner hands it over.
type Raw struct {
	Name string
	// Repository is "owner/name"; used when the payload lacks one.
	Repository string
	Payload    []byte
}

// FromEnvironment reads the trigger the Actions runner describes through
// GITHUB_EVENT_NAME, GITHUB_EVENT_PATH and GITHUB_REPOSITORY.
func FromEnvironment(getenv func(string) string) (Raw, error) {
	raw := Raw{
		Name:       getenv("GITHUB_EVENT_NAME"),
		Repository: getenv("GITHUB_REPOSITORY"),
	}
	path := getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return raw, fmt.Errorf("GITHUB_EVENT_PATH is not set; reconcile must run inside a workflow")
	}
	b, err := os.ReadFile(path) // #nosec G304 -- path is provided by the Actions runner
	if err != nil {
		return raw, fmt.Errorf("reading event payload: %w", err)
	}
	raw.Payload = b
	return raw, nil
}

// PullRequestEvent holds the facts a run needs about its trigger. It is
// built once by Classify and not modified afterwards.
type PullRequestEvent struct {
	Action    Action
	Desired   DesiredAction
	RepoOwner string
	RepoName  string
	// Fork is true when the head repository is a fork; secrets are withheld then.
	Fork        bool
	RepoID      int64
	RepoURL     string
	Branch      string
	CommitRef   string
	PRNumber    int
	IssueNumber int
	// AddedLabel is set for labeled events only.
	AddedLabel string
}

// ForkRepoID returns the head repository id for fork PRs, nil otherwise.
func (e *PullRequestEvent) ForkRepoID() *int64 {
	if !e.Fork {
		return nil
	}
	id := e.RepoID
	return &id
}

// Classify decodes raw into a PullRequestEvent and resolves its DesiredAction.
// triggerLabel is the label that turns a labeled event into a create.
func Classify(raw Raw, triggerLabel string) (*PullRequestEvent, error) {
	var payload gogithub.PullRequestEvent
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: decoding payload: %v", ErrInvalidEventKind, err)
		}
	}
	pr := payload.GetPullRequest()
	if pr == nil {
		return nil, ErrInvalidEventKind
	}
	if raw.Name != SupportedEventName {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTrigger, raw.Name)
	}

	head := pr.GetHead()
	headRepo := head.GetRepo()
	owner, name := splitRepository(raw.Repository)
	if r := payload.GetRepo(); r != nil {
		owner, name = r.GetOwner().GetLogin(), r.GetName()
	}

	evt := &PullRequestEvent{
		Action:    parseAction(payload.GetAction()),
		RepoOwner: owner,
		RepoName:  name,
		// A null head repo means the fork was deleted; there is nothing to deploy.
		Fork:    headRepo == nil || headRepo.GetFork(),
		RepoID:  headRepo.GetID(),
		RepoURL: headRepo.GetHTMLURL(),
		Branch:  head.GetRef(),
		// The head sha, not the merge ref: builds are matched against exactly what was pushed.
		CommitRef:   head.GetSHA(),
		PRNumber:    pr.GetNumber(),
		IssueNumber: pr.GetNumber(),
	}
	if n := payload.GetNumber(); n != 0 {
		evt.IssueNumber = n
	}
	if evt.Action == ActionLabeled {
		evt.AddedLabel = payload.GetLabel().GetName()
	}
	evt.Desired = resolve(evt, triggerLabel)
	return evt, nil
}

func resolve(evt *PullRequestEvent, triggerLabel string) DesiredAction {
	switch evt.Action {
	case ActionOpened, ActionReopened:
		return DesiredCreate
	case ActionSynchronize:
		return DesiredResync
	case ActionClosed:
		return DesiredDelete
	case ActionLabeled:
		if triggerLabel != "" && evt.AddedLabel == triggerLabel {
			return DesiredCreate
		}
		return DesiredNoop
	default:
		return DesiredNoop
	}
}

func splitRepository(full string) (string, string) {
	owner, name, ok := strings.Cut(full, "/")
	if !ok {
		return "", full
	}
	return owner, name
}
