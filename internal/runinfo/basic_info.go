// Package runinfo collects CI metadata for run reports.
package runinfo

import (
	"os"
	"regexp"
	"strings"
)

const overridePrefix = "SCHEMATA_CI"

var githubPullRefPattern = regexp.MustCompile(`^refs/pull/([0-9]+)/`)

// BasicInfo captures CI/run metadata for logs and run reports.
type BasicInfo struct {
	CI          bool   `json:"ci,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Repository  string `json:"repository,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Commit      string `json:"commit,omitempty"`
	Workflow    string `json:"workflow,omitempty"`
	Job         string `json:"job,omitempty"`
	RunID       string `json:"run_id,omitempty"`
	PullRequest string `json:"pull_request,omitempty"`
	BuildURL    string `json:"build_url,omitempty"`
}

// FromEnv builds run metadata from environment variables.
// Explicit SCHEMATA_CI_* values take precedence over provider defaults.
func FromEnv() *BasicInfo {
	info := detectProvider()
	explicit := applyOverrides(&info)
	normalize(&info, explicit)
	if info.IsZero() {
		return nil
	}
	return &info
}

// IsZero reports whether all fields are empty.
func (b BasicInfo) IsZero() bool {
	return b == BasicInfo{}
}

// Summary renders the identifying fields on one line.
func (b *BasicInfo) Summary() string {
	if b == nil {
		return "local"
	}
	parts := []string{b.Provider}
	for _, v := range []string{b.Repository, b.Branch, shortCommit(b.Commit), b.RunID} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func (b *BasicInfo) fields() map[string]*string {
	return map[string]*string{
		"PROVIDER":     &b.Provider,
		"REPOSITORY":   &b.Repository,
		"BRANCH":       &b.Branch,
		"COMMIT":       &b.Commit,
		"WORKFLOW":     &b.Workflow,
		"JOB":          &b.Job,
		"RUN_ID":       &b.RunID,
		"PULL_REQUEST": &b.PullRequest,
		"BUILD_URL":    &b.BuildURL,
	}
}

func detectProvider() BasicInfo {
	info := BasicInfo{}
	switch {
	case isTruthy(env("GITHUB_ACTIONS")):
		info.CI = true
		info.Provider = "github_actions"
		info.Repository = env("GITHUB_REPOSITORY")
		info.Branch = envFirst("GITHUB_HEAD_REF", "GITHUB_REF_NAME")
		info.Commit = env("GITHUB_SHA")
		info.Workflow = env("GITHUB_WORKFLOW")
		info.Job = env("GITHUB_JOB")
		info.RunID = env("GITHUB_RUN_ID")
		info.PullRequest = githubPullRequestFromRef(env("GITHUB_REF"))
		serverURL := envFirst("GITHUB_SERVER_URL")
		if serverURL == "" {
			serverURL = "https://github.com"
		}
		if info.Repository != "" && info.RunID != "" {
			info.BuildURL = strings.TrimRight(serverURL, "/") + "/" + info.Repository + "/actions/runs/" + info.RunID
		}
	case isTruthy(env("GITLAB_CI")):
		info.CI = true
		info.Provider = "gitlab_ci"
		info.Repository = env("CI_PROJECT_PATH")
		info.Branch = env("CI_COMMIT_REF_NAME")
		info.Commit = env("CI_COMMIT_SHA")
		info.Job = env("CI_JOB_NAME")
		info.RunID = env("CI_PIPELINE_ID")
		info.BuildURL = env("CI_JOB_URL")
	case env("JENKINS_URL") != "":
		info.CI = true
		info.Provider = "jenkins"
		info.Branch = envFirst("BRANCH_NAME", "GIT_BRANCH")
		info.Commit = env("GIT_COMMIT")
		info.Job = env("JOB_NAME")
		info.RunID = env("BUILD_ID")
		info.BuildURL = env("BUILD_URL")
	case isTruthy(env("CI")):
		info.CI = true
	}
	return info
}

// applyOverrides copies SCHEMATA_CI_* values and reports whether any were set.
func applyOverrides(info *BasicInfo) bool {
	explicit := false
	for suffix, dst := range info.fields() {
		if v := env(overridePrefix + "_" + suffix); v != "" {
			*dst = v
			explicit = true
		}
	}
	if v, ok := os.LookupEnv(overridePrefix); ok && strings.TrimSpace(v) != "" {
		info.CI = isTruthy(v)
		return true
	}
	if explicit {
		info.CI = true
	}
	return explicit
}

func normalize(info *BasicInfo, explicit bool) {
	info.Provider = strings.ToLower(strings.TrimSpace(info.Provider))
	info.Branch = strings.TrimPrefix(strings.TrimPrefix(info.Branch, "refs/heads/"), "origin/")
	if !explicit && !info.CI && (info.Repository != "" || info.Commit != "") {
		info.CI = true
	}
	if info.CI && info.Provider == "" {
		info.Provider = "generic"
	}
}

func githubPullRequestFromRef(ref string) string {
	m := githubPullRefPattern.FindStringSubmatch(strings.TrimSpace(ref))
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if value := env(key); value != "" {
			return value
		}
	}
	return ""
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
