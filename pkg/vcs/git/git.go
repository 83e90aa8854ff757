// Package git reads commit messages out of local repositories so the clean
// command can sanitize them without shelling out.
package git

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// HeadMessage returns the commit message at HEAD of the repository at path.
func HeadMessage(path string) (string, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("open repo %s: %w", path, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", ref.Hash(), err)
	}
	return commit.Message, nil
}
