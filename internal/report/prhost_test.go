package report

import (
	"context"
	"testing"

	"github.com/ambradan/techscout/internal/backup"
	"github.com/ambradan/techscout/internal/gitops"
	"github.com/ambradan/techscout/internal/recommend"
	"github.com/ambradan/techscout/internal/testutil"
)

// recordingHost captures the options of the last created PR.
type recordingHost struct {
	opts    *CreatePROptions
	created int
}

func (h *recordingHost) CreatePullRequest(_ context.Context, opts CreatePROptions) (*PullRequest, error) {
	h.opts = &opts
	h.created++
	return &PullRequest{
		URL:    "https://github.com/acme/app/pull/7",
		Number: 7,
		Title:  opts.Title,
		Head:   opts.Head,
		Base:   opts.Base,
		Status: "open",
		Labels: opts.Labels,
	}, nil
}

func setupPRRepo(t *testing.T) (*gitops.CLIGit, *backup.Info) {
	t.Helper()
	testutil.SkipIfNoGit(t)

	dir, _ := testutil.SetupTestRepoWithRemote(t)
	testutil.CreateBranch(t, dir, "develop")
	testutil.CheckoutBranch(t, dir, "develop")

	git := gitops.NewCLIGit(dir)
	mgr := backup.NewManager(git, nil, "techscout", false)
	info, err := mgr.CreateBackup("job-1", &recommend.Recommendation{
		ID:             "rec-2024-0042",
		Action:         recommend.ActionReplace,
		Priority:       "high",
		Confidence:     0.85,
		Subject:        "left-pad",
		Steps:          []string{"uninstall left-pad"},
		EffortEstimate: "2 days",
		Verdict:        recommend.VerdictRecommend,
	})
	if err != nil {
		t.Fatal(err)
	}
	return git, info
}

func TestPRCreatorDisabled(t *testing.T) {
	host := &recordingHost{}
	creator := NewPRCreator(nil, host, false, nil)

	pr, err := creator.CreatePullRequest(context.Background(), sampleReport(), &backup.Info{})
	if err != nil {
		t.Fatalf("disabled creator returned error: %v", err)
	}
	if pr != nil {
		t.Errorf("disabled creator returned a PR: %+v", pr)
	}
	if host.created != 0 {
		t.Error("disabled creator still called the host")
	}
}

func TestPRCreatorNilHost(t *testing.T) {
	creator := NewPRCreator(nil, nil, true, nil)

	pr, err := creator.CreatePullRequest(context.Background(), sampleReport(), &backup.Info{})
	if err != nil || pr != nil {
		t.Errorf("nil host: pr=%+v err=%v, want nil/nil", pr, err)
	}
}

func TestPRCreatorPushesBeforeCreating(t *testing.T) {
	git, info := setupPRRepo(t)
	if info.Pushed {
		t.Fatal("backup unexpectedly pushed at creation")
	}

	host := &recordingHost{}
	creator := NewPRCreator(git, host, true, nil)

	pr, err := creator.CreatePullRequest(context.Background(), sampleReport(), info)
	if err != nil {
		t.Fatalf("CreatePullRequest failed: %v", err)
	}
	if pr == nil || pr.Number != 7 {
		t.Fatalf("pr = %+v", pr)
	}
	if !info.Pushed {
		t.Error("branch not marked pushed")
	}
	exists, err := git.RemoteBranchExists(info.BranchName)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("backup branch absent from the remote after PR creation")
	}

	if host.opts.Head != info.BranchName {
		t.Errorf("head = %q, want %q", host.opts.Head, info.BranchName)
	}
	if host.opts.Base != info.OriginBranch {
		t.Errorf("base = %q, want origin branch %q", host.opts.Base, info.OriginBranch)
	}
}

func TestPRCreatorBaseOverride(t *testing.T) {
	git, info := setupPRRepo(t)

	host := &recordingHost{}
	creator := NewPRCreator(git, host, true, nil).
		WithBase("main").
		WithExtraLabels([]string{"dependencies"})

	if _, err := creator.CreatePullRequest(context.Background(), sampleReport(), info); err != nil {
		t.Fatal(err)
	}
	if host.opts.Base != "main" {
		t.Errorf("base = %q, want main", host.opts.Base)
	}

	found := false
	for _, l := range host.opts.Labels {
		if l == "dependencies" {
			found = true
		}
	}
	if !found {
		t.Errorf("labels = %v, want extra label appended", host.opts.Labels)
	}
}
