package git

import (
	stderrors "errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Head is the checked out commit of a repository.
type Head struct {
	Commit string
	// Branch is empty for a detached HEAD.
	Branch string
}

// ShortCommit is the first 12 characters of the commit hash.
func (h Head) ShortCommit() string {
	if len(h.Commit) > 12 {
		return h.Commit[:12]
	}
	return h.Commit
}

// ReadHead finds the repository containing dir, searching parent
// directories, and returns its HEAD. The boolean is false when dir is not
// inside a repository or the repository has no commits yet.
func ReadHead(dir string) (Head, bool, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if stderrors.Is(err, git.ErrRepositoryNotExists) {
		return Head{}, false, nil
	}
	if err != nil {
		return Head{}, false, errors.WrapError(err, errors.CategoryGit, "failed to open repository").
			WithContext("path", dir).
			Build()
	}

	ref, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return Head{}, false, nil
	}
	if err != nil {
		return Head{}, false, errors.WrapError(err, errors.CategoryGit, "failed to read HEAD").
			WithContext("path", dir).
			Build()
	}

	h := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		h.Branch = ref.Name().Short()
	}
	return h, true, nil
}
