package models

// Commit is one recent commit summary included in the collected facts.
type Commit struct {
	Message string `json:"message"`
	Date    string `json:"date"`
	Author  string `json:"author"`
}

// RepoFacts is everything the data-collection client gathers about a
// repository in one pass. It is stored verbatim on the analysis result and in
// the fingerprint cache so repeated requests never re-fetch.
type RepoFacts struct {
	Owner         string         `json:"owner"`
	Repo          string         `json:"repo"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Language      string         `json:"language"`
	Stars         int            `json:"stars"`
	Forks         int            `json:"forks"`
	OpenIssues    int            `json:"open_issues"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	PushedAt      string         `json:"pushed_at"`
	Languages     map[string]int `json:"languages"`
	RecentCommits []Commit       `json:"recent_commits"`
	ReadmeContent string         `json:"readme_content"`
	HasTests      bool           `json:"has_tests"`
	HasCICD       bool           `json:"has_cicd"`
}
