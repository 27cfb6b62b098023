package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mtautner/dossier/internal/model"
)

// maxPromptEntities bounds how many entities the prompt and the brief's
// leading-entities section spell out.
const maxPromptEntities = 10

// BriefInput carries the scored artifacts a brief is drawn from plus
// the strict source allowlist (workspace dataset names and enrichment
// URLs).
type BriefInput struct {
	Entities   *model.CanonicalArtifact
	CrossRefs  *model.CrossRefArtifact  // optional
	Validation *model.ValidationReport  // optional
	Allowlist  []string
}

// Brief is one generated analysis/brief.md.
type Brief struct {
	Markdown   string
	Model      string // empty for the deterministic fallback
	CitedURLs  []string
	Warnings   []string
	TokensUsed int
}

// Briefer turns scored artifacts into analysis/brief.md. With no
// provider configured, or whenever the provider fails, is unreachable,
// or cites a source outside the allowlist, it falls back to the
// deterministic render and records a warning, so `dossier brief` always
// produces a file.
type Briefer struct {
	provider Provider
	config   Config
}

// NewBriefer builds the configured provider; an empty provider name
// yields a fallback-only briefer.
func NewBriefer(config Config) (*Briefer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Briefer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured.
func (b *Briefer) IsEnabled() bool {
	return b.provider != nil
}

// ProviderName returns the configured provider's name, or "".
func (b *Briefer) ProviderName() string {
	if b.provider == nil {
		return ""
	}
	return b.provider.Name()
}

// Generate produces the brief. The returned Brief always carries usable
// markdown; LLM trouble degrades to the fallback render, never to an
// error.
func (b *Briefer) Generate(ctx context.Context, in BriefInput) (*Brief, error) {
	if in.Entities == nil {
		return nil, errors.New("no canonical entities artifact; run resolve first")
	}

	if b.provider == nil {
		return &Brief{Markdown: renderBrief(in, "", "")}, nil
	}

	if !b.provider.IsAvailable(ctx) {
		return &Brief{
			Markdown: renderBrief(in, "", ""),
			Warnings: []string{fmt.Sprintf("%s provider unavailable, wrote deterministic brief", b.provider.Name())},
		}, nil
	}

	resp, err := b.provider.Generate(ctx, Request{
		Prompt:    BuildBriefPrompt(in),
		Model:     b.config.Model,
		MaxTokens: b.config.MaxTokens,
	})
	if err != nil {
		return &Brief{
			Markdown: renderBrief(in, "", ""),
			Warnings: []string{fmt.Sprintf("brief generation failed (%v), wrote deterministic brief", err)},
		}, nil
	}

	narrative := strings.TrimSpace(resp.Text)
	cited := extractURLs(narrative)

	if b.config.StrictEvidence {
		if leak := firstDisallowed(cited, in.Allowlist); leak != "" {
			return &Brief{
				Markdown: renderBrief(in, "", ""),
				Warnings: []string{fmt.Sprintf("response cited %s outside the source allowlist, narrative discarded", leak)},
			}, nil
		}
	}

	return &Brief{
		Markdown:   renderBrief(in, narrative, resp.Model),
		Model:      resp.Model,
		CitedURLs:  cited,
		TokensUsed: resp.TokensUsed,
	}, nil
}

// BuildBriefPrompt frames the scored artifacts for the provider. The
// allowlist is restated as a hard rule; verification happens again on
// the way back regardless of what the model does with it.
func BuildBriefPrompt(in BriefInput) string {
	var sb strings.Builder

	sb.WriteString("Draft the narrative section of an investigation brief from the scored artifacts below.\n\n")
	sb.WriteString("RULES:\n")
	sb.WriteString("1. Cite ONLY sources from this list:")
	sb.WriteString(promptAllowlist(in.Allowlist))
	sb.WriteString("\n2. Never invent records, names, or identifiers that are not listed below.\n")
	sb.WriteString("3. Confidence tiers are final. Report them; do not re-argue them.\n")
	sb.WriteString("4. If the evidence is thin, say so plainly.\n\n")

	meta := in.Entities.Meta
	fmt.Fprintf(&sb, "Run %s over %d datasets (%s), %d records.\n\n",
		meta.RunID, len(meta.Datasets), strings.Join(meta.Datasets, ", "), meta.Records)

	sb.WriteString("Entity resolution:\n")
	for _, tier := range model.Tiers {
		fmt.Fprintf(&sb, "- %s: %d\n", tier, countEntities(in.Entities.Entities, tier))
	}
	for i, e := range leadingEntities(in.Entities.Entities) {
		if i >= maxPromptEntities {
			break
		}
		fmt.Fprintf(&sb, "- %s [%s] variants=%d sources=%s basis=%q\n",
			e.Name, e.Confidence, len(e.Variants), strings.Join(e.Sources, ","), e.Basis)
	}

	if in.CrossRefs != nil && len(in.CrossRefs.References) > 0 {
		sb.WriteString("\nCross-references:\n")
		for _, ref := range in.CrossRefs.References {
			fmt.Fprintf(&sb, "- %s across %s [%s] basis=%q\n",
				ref.EntityName, strings.Join(ref.Datasets, ","), ref.Confidence, ref.Basis)
		}
	}

	if in.Validation != nil {
		fmt.Fprintf(&sb, "\nEvidence chains: %d passed, %d with warnings, %d failed.\n",
			in.Validation.Passed, in.Validation.Warned, in.Validation.Failed)
	}

	sb.WriteString("\nWrite 2-4 paragraphs. Describe what the records show and where the corroboration comes from.")

	return sb.String()
}

// renderBrief builds the markdown. With a narrative it is inserted
// after the header; the deterministic sections always follow, so the
// brief is never less informative than the fallback.
func renderBrief(in BriefInput, narrative, modelName string) string {
	var sb strings.Builder

	meta := in.Entities.Meta
	sb.WriteString("# Investigation brief\n\n")
	fmt.Fprintf(&sb, "Run `%s` scored %d datasets (%s), %d records, at %s.\n",
		meta.RunID, len(meta.Datasets), strings.Join(meta.Datasets, ", "),
		meta.Records, meta.GeneratedAt.UTC().Format(time.RFC3339))

	if narrative != "" {
		sb.WriteString("\n## Narrative\n\n")
		fmt.Fprintf(&sb, "_Generated by %s; verify against the artifacts before use._\n\n", modelName)
		sb.WriteString(narrative)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Entity resolution\n\n")
	for _, tier := range model.Tiers {
		fmt.Fprintf(&sb, "- %s: %d\n", tier, countEntities(in.Entities.Entities, tier))
	}

	leading := leadingEntities(in.Entities.Entities)
	if len(leading) > 0 {
		sb.WriteString("\n### Leading entities\n\n")
		for i, e := range leading {
			if i >= maxPromptEntities {
				fmt.Fprintf(&sb, "- and %d more\n", len(leading)-maxPromptEntities)
				break
			}
			fmt.Fprintf(&sb, "- **%s** (%s; %d variants; %s): %s\n",
				e.Name, e.Confidence, len(e.Variants), strings.Join(e.Sources, ", "), e.Basis)
		}
	}

	if in.CrossRefs != nil && len(in.CrossRefs.References) > 0 {
		sb.WriteString("\n## Cross-references\n\n")
		for _, ref := range in.CrossRefs.References {
			fmt.Fprintf(&sb, "- **%s** across %s (%s): %s\n",
				ref.EntityName, strings.Join(ref.Datasets, ", "), ref.Confidence, ref.Basis)
		}
	}

	if in.Validation != nil {
		sb.WriteString("\n## Evidence chains\n\n")
		fmt.Fprintf(&sb, "%d passed, %d with warnings, %d failed.\n",
			in.Validation.Passed, in.Validation.Warned, in.Validation.Failed)
		for _, chain := range in.Validation.Chains {
			if chain.Failed() {
				fmt.Fprintf(&sb, "- failed: %s (%s)\n", chain.ChainID, chain.File)
			}
		}
	}

	sb.WriteString("\n## Sources\n\n")
	if len(in.Allowlist) == 0 {
		sb.WriteString("- none recorded\n")
	}
	for _, src := range in.Allowlist {
		fmt.Fprintf(&sb, "- %s\n", src)
	}

	return sb.String()
}

func promptAllowlist(allowlist []string) string {
	if len(allowlist) == 0 {
		return "\n   (no sources available; cite nothing)\n"
	}
	var sb strings.Builder
	for i, src := range allowlist {
		if i >= 20 {
			fmt.Fprintf(&sb, "\n   ... and %d more", len(allowlist)-20)
			break
		}
		fmt.Fprintf(&sb, "\n   - %s", src)
	}
	sb.WriteString("\n")
	return sb.String()
}

func countEntities(entities []model.CanonicalEntity, tier model.Tier) int {
	n := 0
	for _, e := range entities {
		if e.Confidence == tier {
			n++
		}
	}
	return n
}

// leadingEntities keeps the confirmed and probable entities in artifact
// order.
func leadingEntities(entities []model.CanonicalEntity) []model.CanonicalEntity {
	var leading []model.CanonicalEntity
	for _, tier := range []model.Tier{model.TierConfirmed, model.TierProbable} {
		for _, e := range entities {
			if e.Confidence == tier {
				leading = append(leading, e)
			}
		}
	}
	return leading
}

func firstDisallowed(cited, allowlist []string) string {
	allowed := make(map[string]bool, len(allowlist))
	for _, src := range allowlist {
		allowed[src] = true
	}
	for _, u := range cited {
		if !allowed[u] {
			return u
		}
	}
	return ""
}
