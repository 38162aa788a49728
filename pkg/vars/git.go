package vars

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
)

type GitInfo struct {
	Origin string
	Commit string
	Branch string
}

// ReadGitRepo returns metadata for the repository containing path. It
// returns a nil GitInfo without error when path is not inside a git
// work tree.
func ReadGitRepo(path string) (*GitInfo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	info := &GitInfo{}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}
	for _, remote := range remotes {
		if remote.Config().Name == "origin" {
			if len(remote.Config().URLs) > 0 {
				info.Origin = remote.Config().URLs[0]
			}
			break
		}
	}

	head, err := repo.Head()
	if err != nil {
		// empty repository, no commits yet
		return info, nil
	}
	info.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}

func (g *GitInfo) value() Value {
	short := g.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return Map(map[string]Value{
		"origin":       String(g.Origin),
		"commit":       String(g.Commit),
		"short_commit": String(short),
		"branch":       String(g.Branch),
	})
}
