package pipeline

import (
	"fmt"
	"strings"

	"storyforge/internal/workitem"
)

// Section is one named stage output.
type Section struct {
	Name    string
	Content string
}

// Context is the accumulator threaded through a pipeline run. It starts with
// the work item and its transcript; each stage appends exactly one named
// section. Earlier sections are never mutated. A Context belongs to a single
// run and must not be shared.
type Context struct {
	Item     workitem.Item
	sections []Section
}

// NewContext constructs a run context for the supplied item.
func NewContext(item workitem.Item) *Context {
	return &Context{Item: item}
}

// Append adds a named section. Appending a duplicate name is a programming
// error and is rejected.
func (c *Context) Append(name, content string) error {
	if name == "" {
		return fmt.Errorf("pipeline context: section name required")
	}
	for _, section := range c.sections {
		if section.Name == name {
			return fmt.Errorf("pipeline context: section %q already present", name)
		}
	}
	c.sections = append(c.sections, Section{Name: name, Content: content})
	return nil
}

// Section returns a section's content by name.
func (c *Context) Section(name string) (string, bool) {
	for _, section := range c.sections {
		if section.Name == name {
			return section.Content, true
		}
	}
	return "", false
}

// Last returns the most recently appended section's content.
func (c *Context) Last() string {
	if len(c.sections) == 0 {
		return ""
	}
	return c.sections[len(c.sections)-1].Content
}

// Sections returns the accumulated sections in append order.
func (c *Context) Sections() []Section {
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// transcriptExcerpt bounds the transcript passed into stage prompts.
func (c *Context) transcriptExcerpt(limit int) string {
	transcript := strings.TrimSpace(c.Item.Transcript)
	if limit > 0 && len(transcript) > limit {
		return transcript[:limit]
	}
	return transcript
}
