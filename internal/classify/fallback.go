package classify

import "github.com/daehyunkim/repopersona/pkg/models"

// fallbackConfidence is the fixed score attached to rule-based results so
// they are visibly less certain than a real model verdict.
const fallbackConfidence = 70

// Fallback classifies a repository with local rules only. It is deterministic
// for the same facts and never fails, which is what lets the worker absorb a
// provider outage without failing the job. Rule order matters: the first
// match wins.
func Fallback(facts models.RepoFacts) models.Personality {
	archetype := models.ArchetypeGPT35

	switch {
	case len(facts.ReadmeContent) > 5000 && facts.HasTests:
		archetype = models.ArchetypeGPT4
	case len(facts.Languages) >= 5:
		archetype = models.ArchetypeGemini
	case facts.HasCICD:
		archetype = models.ArchetypeClaudeOpus
	}

	p := models.Personality{
		Archetype:    archetype,
		Confidence:   fallbackConfidence,
		OneLiner:     "Classified by local heuristics.",
		Traits:       []string{"auto-classified", "rule-based"},
		Strengths:    []string{"baseline analysis"},
		FunnyComment: "The model was unreachable, so the rulebook did the judging.",
		MatchScore:   fallbackConfidence,
	}
	applyMeta(&p)
	return p
}

// applyMeta fills the presentation fields from the archetype metadata table.
func applyMeta(p *models.Personality) {
	if meta, ok := p.Archetype.Meta(); ok {
		p.Emoji = meta.Emoji
		p.Title = meta.Title
	}
}
