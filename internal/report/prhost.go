package report

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/ambradan/techscout/internal/backup"
	"github.com/ambradan/techscout/internal/errors"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/logging"
)

// CreatePROptions carries everything the PR host needs to open a pull
// request.
type CreatePROptions struct {
	Title  string
	Body   string
	Base   string
	Head   string
	Labels []string
}

// PRHost is the PR-host collaborator. Creating a pull request is the
// only operation the agent performs against the host; merging is a
// separate, externally triggered event.
type PRHost interface {
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequest, error)
}

// GHClient implements PRHost using the GitHub CLI.
type GHClient struct {
	dir    string
	logger *logging.Logger
}

// Compile-time check that GHClient implements PRHost.
var _ PRHost = (*GHClient)(nil)

// NewGHClient creates a GHClient running in the given repository
// directory.
func NewGHClient(dir string, logger *logging.Logger) *GHClient {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &GHClient{dir: dir, logger: logger}
}

// prNumberPattern extracts the PR number from a GitHub PR URL.
var prNumberPattern = regexp.MustCompile(`/pull/(\d+)\s*$`)

// CreatePullRequest opens a pull request via "gh pr create" and returns
// the host-assigned URL and number.
func (c *GHClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequest, error) {
	args := []string{
		"pr", "create",
		"--title", opts.Title,
		"--body", opts.Body,
		"--base", opts.Base,
		"--head", opts.Head,
	}
	for _, label := range opts.Labels {
		args = append(args, "--label", label)
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = c.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errors.Wrapf(err, "gh pr create failed: %s", strings.TrimSpace(string(output)))
	}

	url := strings.TrimSpace(string(output))
	pr := &PullRequest{
		URL:       url,
		Title:     opts.Title,
		Body:      opts.Body,
		Head:      opts.Head,
		Base:      opts.Base,
		Status:    "open",
		Labels:    opts.Labels,
		Checklist: ReviewChecklist,
	}
	if m := prNumberPattern.FindStringSubmatch(url); m != nil {
		pr.Number, _ = strconv.Atoi(m[1])
	}

	c.logger.Info("pull request created", "url", url, "head", opts.Head, "base", opts.Base)
	return pr, nil
}

// PRCreator pushes the backup branch when needed and opens the migration
// pull request. When disabled it is a no-op returning nil, so callers can
// run the full pipeline without a PR host configured.
type PRCreator struct {
	git         gitops.VersionControl
	host        PRHost
	logger      *logging.Logger
	enabled     bool
	baseBranch  string
	extraLabels []string
}

// NewPRCreator creates a PRCreator. A nil host or enabled=false disables
// PR creation entirely.
func NewPRCreator(git gitops.VersionControl, host PRHost, enabled bool, logger *logging.Logger) *PRCreator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &PRCreator{git: git, host: host, logger: logger, enabled: enabled}
}

// WithBase overrides the PR base branch. Empty keeps the default, which
// is the origin branch the migration started from.
func (p *PRCreator) WithBase(base string) *PRCreator {
	p.baseBranch = base
	return p
}

// WithExtraLabels adds labels on top of the standard migration set.
func (p *PRCreator) WithExtraLabels(labels []string) *PRCreator {
	p.extraLabels = labels
	return p
}

// CreatePullRequest opens the migration PR for a finished job. Returns
// nil, nil when PR creation is disabled.
func (p *PRCreator) CreatePullRequest(ctx context.Context, report *Report, info *backup.Info) (*PullRequest, error) {
	if !p.enabled || p.host == nil {
		p.logger.Info("pull request creation disabled, skipping")
		return nil, nil
	}

	if !info.Pushed {
		if err := p.git.Push(info.BranchName); err != nil {
			return nil, err
		}
		info.Pushed = true
	}

	base := p.baseBranch
	if base == "" {
		base = info.OriginBranch
	}

	return p.host.CreatePullRequest(ctx, CreatePROptions{
		Title:  BuildPRTitle(report),
		Body:   BuildPRBody(report),
		Base:   base,
		Head:   info.BranchName,
		Labels: append(BuildPRLabels(report), p.extraLabels...),
	})
}
