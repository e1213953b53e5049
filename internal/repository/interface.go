// Package repository wraps the code-hosting platform calls a review-app run
// makes: fetching a source archive link and annotating the pull request.
package repository

import "context"

// CodeHost abstracts the code-hosting platform.
type CodeHost interface {
	// ArchiveURL returns a short-lived download URL for a tarball of ref.
	ArchiveURL(ctx context.Context, owner, repo, ref string) (string, error)

	// AddLabel adds label to the issue or pull request number.
	AddLabel(ctx context.Context, owner, repo string, number int, label string) error

	// CreateComment posts body as a comment on the issue or pull request number.
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
}
