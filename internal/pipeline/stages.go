package pipeline

import (
	"fmt"
	"strings"

	"storyforge/internal/artifact"
)

const transcriptLimit = 24000

// Stage is one step of the experimental pipeline. Each stage reads the
// accumulated context and appends one section named after itself.
type Stage struct {
	Name   string
	System string
	User   func(*Context) string
}

// Stages returns the fixed stage sequence. Order matters: later stages build
// on the sections earlier stages appended.
func Stages() []Stage {
	return []Stage{
		{
			Name: "foundation",
			System: "You are a content analyst for an investing education program. " +
				"You extract the teachable core from raw podcast transcripts. Respond with JSON only.",
			User: func(c *Context) string {
				return fmt.Sprintf(
					"Analyze this transcript and identify 3-5 distinct teachable moments: "+
						"key insights, mistakes made, strategies discussed, and who each lesson serves.\n\n"+
						"Episode: %s\n\nTranscript:\n%s",
					c.Item.Title, c.transcriptExcerpt(transcriptLimit),
				)
			},
		},
		{
			Name: "narrative",
			System: "You are a creative writer who turns investing lessons into memorable stories " +
				"with a clear arc and a practical payoff. Respond with JSON only.",
			User: func(c *Context) string {
				foundation, _ := c.Section("foundation")
				return "Draft one story per teachable moment from the analysis below. " +
					"Each story needs a hook, a struggle, a turning point, and a concrete lesson.\n\n" +
					"Analysis:\n" + foundation
			},
		},
		{
			Name: "factcheck",
			System: "You are a financial expert validating educational content. You correct " +
				"inaccurate claims, flag risky generalizations, and add missing disclaimers. Respond with JSON only.",
			User: func(c *Context) string {
				narrative, _ := c.Section("narrative")
				return "Validate the financial substance of these drafts. Fix inaccuracies, " +
					"qualify any claims about returns, and ensure every story carries an educational disclaimer.\n\n" +
					"Drafts:\n" + narrative
			},
		},
		{
			Name: "engagement",
			System: "You are an entertainment editor. You make educational content genuinely fun " +
				"to read without diluting the lesson. Respond with JSON only.",
			User: func(c *Context) string {
				return "Punch up these validated drafts: sharpen the hooks, add humor where it fits, " +
					"and keep every correction from the validation pass intact.\n\n" +
					"Validated drafts:\n" + c.Last()
			},
		},
		{
			Name: "family",
			System: "You are a family wealth strategist. You connect investing lessons to household " +
				"decisions, children's financial education, and long-term family security. Respond with JSON only.",
			User: func(c *Context) string {
				return "For each story, add family_security_relevance, children_education_angle, and " +
					"family_discussion_points the whole household can use.\n\n" +
					"Stories:\n" + c.Last()
			},
		},
		{
			Name: "aitools",
			System: "You are an AI integration specialist. You show readers how modern AI tools " +
				"apply each lesson in practice. Respond with JSON only.",
			User: func(c *Context) string {
				return "For each story, add ai_tools_mentioned and ai_integration_potential: concrete " +
					"ways a reader could use AI tooling to apply the lesson.\n\n" +
					"Stories:\n" + c.Last()
			},
		},
		{
			Name: "channels",
			System: "You are a multi-platform content optimizer preparing stories for newsletter, " +
				"web, and social distribution. Respond with JSON only.",
			User: func(c *Context) string {
				return "Adapt each story for multi-channel publication: add summary and discussion_prompts, " +
					"tighten titles, and keep full_content as the canonical long form.\n\n" +
					"Stories:\n" + c.Last()
			},
		},
		{
			Name:   "schema",
			System: "You are a database architect shaping content into an exact JSON structure. Respond with JSON only.",
			User: func(c *Context) string {
				return fmt.Sprintf(
					"Transform the stories into the target structure. Every story must carry id, title, "+
						"summary, full_content, and content_type. Use these enum values exactly:\n"+
						"- content_type: %s\n- belt_levels: %s\n- difficulty_level: %s\n- time_required: %s\n\n"+
						"Output a JSON object with an \"investing-dojo-stories\" array.\n\nStories:\n%s",
					strings.Join(artifact.ContentTypes, "|"),
					strings.Join(artifact.BeltLevels, "|"),
					strings.Join(artifact.DifficultyLevels, "|"),
					strings.Join(artifact.TimeRequiredValues, "|"),
					c.Last(),
				)
			},
		},
		{
			Name: "qualitygate",
			System: "You are the final quality guardian. You verify structure, completeness, and " +
				"educational value, then emit the finished JSON. Respond with JSON only.",
			User: func(c *Context) string {
				return "Validate this JSON against the required structure: every story populated, enum " +
					"values exact, disclaimers present. Return the complete corrected JSON object with the " +
					"\"investing-dojo-stories\" array and nothing else.\n\n" + c.Last()
			},
		},
	}
}
