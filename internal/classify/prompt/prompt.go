// Package prompt builds the classification prompt shared by all LLM-backed
// providers and parses their JSON replies back into a Personality.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/daehyunkim/repopersona/pkg/models"
)

const (
	maxReadmeChars = 2000
	maxCommitLines = 5
)

// Build renders the classification prompt for the given repository facts.
// The reply contract is JSON-only; providers request JSON output mode where
// the backend supports it.
func Build(facts models.RepoFacts) string {
	var langs []string
	for lang, bytes := range facts.Languages {
		langs = append(langs, fmt.Sprintf("%s: %d bytes", lang, bytes))
	}
	sort.Strings(langs)

	var commits []string
	for i, c := range facts.RecentCommits {
		if i >= maxCommitLines {
			break
		}
		commits = append(commits, "- "+c.Message)
	}

	readme := facts.ReadmeContent
	if len(readme) > maxReadmeChars {
		readme = readme[:maxReadmeChars]
	}

	var b strings.Builder
	b.WriteString("You are an expert at judging which AI model a GitHub repository most resembles.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", facts.Name)
	fmt.Fprintf(&b, "Description: %s\n", orNone(facts.Description))
	fmt.Fprintf(&b, "Primary language: %s\n", orNone(facts.Language))
	fmt.Fprintf(&b, "Stars: %d, Forks: %d, Open issues: %d\n", facts.Stars, facts.Forks, facts.OpenIssues)
	fmt.Fprintf(&b, "Created: %s\n", facts.CreatedAt)
	fmt.Fprintf(&b, "Has tests: %v, Has CI/CD: %v\n\n", facts.HasTests, facts.HasCICD)
	fmt.Fprintf(&b, "Language distribution:\n%s\n\n", strings.Join(langs, "\n"))
	fmt.Fprintf(&b, "Recent commit messages:\n%s\n\n", strings.Join(commits, "\n"))
	fmt.Fprintf(&b, "README:\n%s\n\n", readme)

	b.WriteString(`Pick exactly one of these eight archetypes:

1. GPT-4 (the perfectionist): thorough documentation, high code quality
2. GPT-3.5 (the pragmatist): fast implementation, efficiency first
3. Claude Opus (the architect): systematic structure, safety minded
4. Claude Sonnet (the balanced creator): creative, collaboration friendly
5. Gemini (the multi-tasker): versatile, many languages, experimental
6. Llama (the open source champion): community driven
7. Mistral (the efficient minimalist): lean, concise
8. Cohere (the specialist): narrow focus, performance tuned

Respond with JSON only:
{
  "archetype": "GPT-4|GPT-3.5|Claude Opus|Claude Sonnet|Gemini|Llama|Mistral|Cohere",
  "confidence": 85,
  "reasoning": "two or three sentences on why",
  "traits": ["trait1", "trait2", "trait3"],
  "strengths": ["strength1", "strength2"],
  "funny_comment": "one playful line about this repository"
}`)

	return b.String()
}

// reply is the JSON shape providers are asked to emit.
type reply struct {
	Archetype    string   `json:"archetype"`
	Confidence   int      `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
	Traits       []string `json:"traits"`
	Strengths    []string `json:"strengths"`
	FunnyComment string   `json:"funny_comment"`
}

// Parse decodes a provider reply into a bare Personality. Presentation
// metadata and range clamping are applied by the classify service, not here.
// Surrounding text around the JSON object is tolerated; several local models
// wrap their JSON in prose.
func Parse(text string) (models.Personality, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.Personality{}, fmt.Errorf("no JSON object in reply")
	}

	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return models.Personality{}, fmt.Errorf("decoding reply: %w", err)
	}

	return models.Personality{
		Archetype:    models.Archetype(r.Archetype),
		Confidence:   r.Confidence,
		OneLiner:     r.Reasoning,
		Traits:       r.Traits,
		Strengths:    r.Strengths,
		FunnyComment: r.FunnyComment,
		MatchScore:   r.Confidence,
	}, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
