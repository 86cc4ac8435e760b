package prompt

import (
	"strings"

	"github.com/sandevgo/vitalbot/internal/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SectionSeparator sits between two rendered sections.
const SectionSeparator = "\n---\n"

type SectionName string

const (
	SectionBaseCharacter SectionName = "base_character"
	SectionHealthData    SectionName = "health_data"
	SectionInsights      SectionName = "insights"
	SectionUserContext   SectionName = "user_context"
	SectionExternal      SectionName = "external_context"
	SectionKnowledge     SectionName = "knowledge"
	SectionGuidelines    SectionName = "guidelines"
)

// Order is the fixed section order of every prompt.
var Order = []SectionName{
	SectionBaseCharacter,
	SectionHealthData,
	SectionInsights,
	SectionUserContext,
	SectionExternal,
	SectionKnowledge,
	SectionGuidelines,
}

type BehaviorConfig struct {
	Style         core.CommunicationStyle
	AssistantName string
}

type Section struct {
	Name SectionName
	Text string
}

type sectionFunc func(r *renderer, ac core.AssembledContext, cfg BehaviorConfig) string

var sectionFuncs = map[SectionName]sectionFunc{
	SectionBaseCharacter: baseCharacter,
	SectionHealthData:    healthData,
	SectionInsights:      insights,
	SectionUserContext:   userContext,
	SectionExternal:      externalContext,
	SectionKnowledge:     knowledge,
	SectionGuidelines:    guidelines,
}

type renderer struct {
	numbers *message.Printer
}

type Builder struct {
	r *renderer
}

func NewBuilder() *Builder {
	return &Builder{r: &renderer{numbers: message.NewPrinter(language.English)}}
}

// Sections renders every section independently, in Order.
func (b *Builder) Sections(ac core.AssembledContext, cfg BehaviorConfig) []Section {
	if cfg.AssistantName == "" {
		cfg.AssistantName = defaultAssistantName
	}
	out := make([]Section, 0, len(Order))
	for _, name := range Order {
		out = append(out, Section{
			Name: name,
			Text: strings.TrimSpace(sectionFuncs[name](b.r, ac, cfg)),
		})
	}
	return out
}

// Build joins the rendered sections into the system prompt.
func (b *Builder) Build(ac core.AssembledContext, cfg BehaviorConfig) string {
	sections := b.Sections(ac, cfg)
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.Text
	}
	return strings.Join(parts, SectionSeparator)
}
