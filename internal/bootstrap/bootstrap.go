// Package bootstrap provisions the application schema, optionally applying
// versioned setup SQL scripts pulled from a git repository.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"snowsearch/internal/common"
	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// Executor runs a multi-statement SQL script
type Executor interface {
	ExecuteScript(script string) error
}

// Service syncs a setup-SQL repository and applies its scripts
type Service struct {
	cacheDir string
}

// NewService creates a bootstrap service caching repos under ~/.snowsearch/repos
func NewService() *Service {
	return &Service{cacheDir: cacheDirectory()}
}

// Sync clones the configured repository or fetches updates, then checks
// out the configured branch.
func (s *Service) Sync(cfg models.Bootstrap) (string, error) {
	if cfg.GitURL == "" {
		return "", errors.New(errors.ErrCodeRepoNotFound, "No bootstrap repository configured").
			WithSuggestions("Set bootstrap.git_url in the configuration file")
	}

	localPath := s.localPath(cfg.GitURL)

	ctx := context.Background()
	err := errors.RetryWithBackoff(ctx, func(ctx context.Context) error {
		if err := cloneOrFetch(cfg.GitURL, localPath); err != nil {
			if strings.Contains(err.Error(), "connection") ||
				strings.Contains(err.Error(), "timeout") ||
				strings.Contains(err.Error(), "unreachable") {
				return errors.New(errors.ErrCodeNetworkUnavailable,
					"Network error while syncing setup repository").
					WithContext("url", cfg.GitURL).
					AsRecoverable()
			}
			return errors.Wrap(err, errors.ErrCodeRepoSyncFailed,
				"Failed to sync setup repository").
				WithContext("url", cfg.GitURL)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if cfg.Branch != "" && cfg.Branch != "main" && cfg.Branch != "master" {
		if err := checkoutBranch(localPath, cfg.Branch); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeRepoSyncFailed,
				fmt.Sprintf("Failed to checkout branch %s", cfg.Branch)).
				WithContext("branch", cfg.Branch).
				WithSuggestions(
					fmt.Sprintf("Verify branch '%s' exists", cfg.Branch),
					"Check for typos in the branch name",
				)
		}
	}

	return localPath, nil
}

// Apply runs every setup script in the repository in lexical order.
// Returns the applied script names.
func (s *Service) Apply(exec Executor, repoPath, scriptPath string) ([]string, error) {
	scripts, err := CollectScripts(repoPath, scriptPath)
	if err != nil {
		return nil, err
	}
	if len(scripts) == 0 {
		return nil, errors.New(errors.ErrCodeRepoNotFound, "No setup SQL scripts found").
			WithContext("path", filepath.Join(repoPath, scriptPath)).
			WithSuggestions("Place .sql files under the configured bootstrap path")
	}

	applied := make([]string, 0, len(scripts))
	for _, script := range scripts {
		content, err := os.ReadFile(script) // #nosec G304 - path comes from the synced repo
		if err != nil {
			return applied, errors.Wrap(err, errors.ErrCodeFileNotFound,
				fmt.Sprintf("Failed to read setup script %s", filepath.Base(script)))
		}
		if err := exec.ExecuteScript(string(content)); err != nil {
			return applied, errors.Wrap(err, errors.ErrCodeSQLExecution,
				fmt.Sprintf("Setup script %s failed", filepath.Base(script)))
		}
		applied = append(applied, filepath.Base(script))
	}
	return applied, nil
}

// CollectScripts lists .sql files under repoPath/scriptPath, sorted by name
// so numbered scripts run in order.
func CollectScripts(repoPath, scriptPath string) ([]string, error) {
	dir := repoPath
	if scriptPath != "" {
		clean, err := common.CleanPath(filepath.Join(repoPath, scriptPath))
		if err != nil {
			return nil, err
		}
		dir = clean
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list setup scripts: %w", err)
	}

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
			scripts = append(scripts, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(scripts)
	return scripts, nil
}

func (s *Service) localPath(gitURL string) string {
	name := strings.TrimSuffix(filepath.Base(gitURL), ".git")
	if name == "" || name == "." {
		name = "setup"
	}
	return filepath.Join(s.cacheDir, name)
}

func cacheDirectory() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".snowsearch", "repos")
}

func cloneOrFetch(gitURL, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if _, err := os.Stat(filepath.Join(localPath, ".git")); err == nil {
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repository: %w", err)
		}

		remote, err := repo.Remote("origin")
		if err != nil {
			return fmt.Errorf("failed to get remote: %w", err)
		}

		err = remote.Fetch(&git.FetchOptions{Auth: authMethod(gitURL)})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to fetch updates: %w", err)
		}
		return nil
	}

	_, err := git.PlainClone(localPath, false, &git.CloneOptions{
		URL:  gitURL,
		Auth: authMethod(gitURL),
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	return nil
}

func authMethod(gitURL string) transport.AuthMethod {
	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		sshKeyPath := filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		if _, err := os.Stat(sshKeyPath); err == nil {
			if auth, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, ""); err == nil {
				return auth
			}
		}
	}

	if strings.HasPrefix(gitURL, "https://") {
		username := os.Getenv("GIT_USERNAME")
		password := os.Getenv("GIT_PASSWORD")
		if username != "" && password != "" {
			return &http.BasicAuth{Username: username, Password: password}
		}
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			return &http.BasicAuth{Username: "token", Password: token}
		}
	}

	return nil
}

func checkoutBranch(repoPath, branchName string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.ReferenceName("refs/heads/" + branchName)
	if _, err := repo.Reference(branchRef, false); err == nil {
		return worktree.Checkout(&git.CheckoutOptions{Branch: branchRef})
	}

	remoteRef := plumbing.ReferenceName("refs/remotes/origin/" + branchName)
	if ref, err := repo.Reference(remoteRef, false); err == nil {
		return worktree.Checkout(&git.CheckoutOptions{
			Branch: branchRef,
			Hash:   ref.Hash(),
			Create: true,
		})
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	return worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Hash:   head.Hash(),
		Create: true,
	})
}
