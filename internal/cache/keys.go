package cache

import "fmt"

const repoKeyPrefix = "repo:"

func RepoKey(owner, repo string) string {
	return fmt.Sprintf("%s%s/%s", repoKeyPrefix, owner, repo)
}

func RepoKeyPattern() string {
	return repoKeyPrefix + "*"
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
