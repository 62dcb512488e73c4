package models

import "context"

// Archetype is the closed taxonomy a repository is classified into. Providers
// must return one of these eight values; anything else is rejected upstream.
type Archetype string

const (
	ArchetypeGPT4         Archetype = "GPT-4"
	ArchetypeGPT35        Archetype = "GPT-3.5"
	ArchetypeClaudeOpus   Archetype = "Claude Opus"
	ArchetypeClaudeSonnet Archetype = "Claude Sonnet"
	ArchetypeGemini       Archetype = "Gemini"
	ArchetypeLlama        Archetype = "Llama"
	ArchetypeMistral      Archetype = "Mistral"
	ArchetypeCohere       Archetype = "Cohere"
)

// ArchetypeMeta carries the presentation metadata attached to every
// classification of a given archetype.
type ArchetypeMeta struct {
	Emoji string
	Title string
}

// archetypeMeta maps every archetype to its metadata. A test asserts this map
// covers Archetypes() exactly, so a new archetype cannot be added without
// metadata.
var archetypeMeta = map[Archetype]ArchetypeMeta{
	ArchetypeGPT4:         {Emoji: "🧠", Title: "GPT-4: the all-round problem solver"},
	ArchetypeGPT35:        {Emoji: "⚡", Title: "GPT-3.5: the pragmatist"},
	ArchetypeClaudeOpus:   {Emoji: "📚", Title: "Claude Opus: the careful perfectionist"},
	ArchetypeClaudeSonnet: {Emoji: "✨", Title: "Claude Sonnet: the balanced creator"},
	ArchetypeGemini:       {Emoji: "🌟", Title: "Gemini: the restless experimenter"},
	ArchetypeLlama:        {Emoji: "🦙", Title: "Llama: the open source champion"},
	ArchetypeMistral:      {Emoji: "🌪️", Title: "Mistral: the efficiency master"},
	ArchetypeCohere:       {Emoji: "🔍", Title: "Cohere: the focused specialist"},
}

// Archetypes returns the full taxonomy in a stable order.
func Archetypes() []Archetype {
	return []Archetype{
		ArchetypeGPT4,
		ArchetypeGPT35,
		ArchetypeClaudeOpus,
		ArchetypeClaudeSonnet,
		ArchetypeGemini,
		ArchetypeLlama,
		ArchetypeMistral,
		ArchetypeCohere,
	}
}

// Valid reports whether a is one of the eight taxonomy values.
func (a Archetype) Valid() bool {
	_, ok := archetypeMeta[a]
	return ok
}

// Meta returns the presentation metadata for a. The boolean is false for
// values outside the taxonomy.
func (a Archetype) Meta() (ArchetypeMeta, bool) {
	m, ok := archetypeMeta[a]
	return m, ok
}

// Personality is the classification outcome for one repository. Confidence
// and MatchScore are on a 0-100 scale; out-of-range provider values are
// clamped before a Personality leaves the classify package.
type Personality struct {
	Archetype    Archetype `json:"archetype"`
	Confidence   int       `json:"confidence"`
	Emoji        string    `json:"emoji"`
	Title        string    `json:"title"`
	OneLiner     string    `json:"one_liner"`
	Traits       []string  `json:"traits"`
	Strengths    []string  `json:"strengths"`
	FunnyComment string    `json:"funny_comment"`
	MatchScore   int       `json:"match_score"`
}

// Classifier is the interface every classification backend implements.
// Never call a concrete provider directly; inject this interface.
type Classifier interface {
	// Classify maps collected repository facts to a Personality.
	Classify(ctx context.Context, facts RepoFacts) (Personality, error)
	// Name returns the provider identifier (e.g., "ollama", "anthropic").
	Name() string
}
