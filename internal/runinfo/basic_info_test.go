package runinfo

import "testing"

func TestFromEnvGitHubActions(t *testing.T) {
	clearKnownEnv(t)
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_REPOSITORY", "acme/schemata")
	t.Setenv("GITHUB_HEAD_REF", "feature/jit")
	t.Setenv("GITHUB_REF", "refs/pull/12/merge")
	t.Setenv("GITHUB_SHA", "deadbeefcafe")
	t.Setenv("GITHUB_RUN_ID", "99")

	info := FromEnv()
	if info == nil {
		t.Fatalf("expected run info")
	}
	if !info.CI || info.Provider != "github_actions" {
		t.Fatalf("ci=%v provider=%q", info.CI, info.Provider)
	}
	if info.PullRequest != "12" {
		t.Fatalf("pull_request=%q", info.PullRequest)
	}
	if info.BuildURL != "https://github.com/acme/schemata/actions/runs/99" {
		t.Fatalf("build_url=%q", info.BuildURL)
	}
	if got := info.Summary(); got != "github_actions acme/schemata feature/jit deadbeef 99" {
		t.Fatalf("summary=%q", got)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearKnownEnv(t)
	t.Setenv("SCHEMATA_CI_REPOSITORY", "acme/fork")
	t.Setenv("SCHEMATA_CI_BRANCH", "refs/heads/nightly")

	info := FromEnv()
	if info == nil {
		t.Fatalf("expected run info")
	}
	if !info.CI || info.Provider != "generic" {
		t.Fatalf("ci=%v provider=%q", info.CI, info.Provider)
	}
	if info.Repository != "acme/fork" || info.Branch != "nightly" {
		t.Fatalf("repository=%q branch=%q", info.Repository, info.Branch)
	}
}

func TestFromEnvExplicitFalse(t *testing.T) {
	clearKnownEnv(t)
	t.Setenv("SCHEMATA_CI", "false")
	t.Setenv("SCHEMATA_CI_COMMIT", "abc")

	info := FromEnv()
	if info == nil || info.CI {
		t.Fatalf("expected ci=false, got %+v", info)
	}
}

func TestFromEnvEmpty(t *testing.T) {
	clearKnownEnv(t)
	if info := FromEnv(); info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}
	var nilInfo *BasicInfo
	if got := nilInfo.Summary(); got != "local" {
		t.Fatalf("summary=%q", got)
	}
}

func clearKnownEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL",
		"GITHUB_SERVER_URL", "GITHUB_REPOSITORY", "GITHUB_HEAD_REF", "GITHUB_REF_NAME", "GITHUB_REF",
		"GITHUB_SHA", "GITHUB_WORKFLOW", "GITHUB_JOB", "GITHUB_RUN_ID",
		overridePrefix,
	}
	for suffix := range (&BasicInfo{}).fields() {
		keys = append(keys, overridePrefix+"_"+suffix)
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
