package models

// LessonStep is one entry of a course's ordered lesson plan
type LessonStep struct {
	ID        string `json:"id" toml:"id"`
	Title     string `json:"title" toml:"title"`
	Objective string `json:"objective" toml:"objective"`
}

// Course is an immutable catalog record describing a tutored course.
// ThemeColor and Icon are presentation hints only.
type Course struct {
	ID              string       `json:"id" toml:"id"`
	Title           string       `json:"title" toml:"title"`
	Description     string       `json:"description" toml:"description"`
	LongDescription string       `json:"long_description,omitempty" toml:"long_description"`
	Persona         string       `json:"persona" toml:"persona"`
	PromptTemplate  string       `json:"prompt_template" toml:"prompt_template"`
	LessonSteps     []LessonStep `json:"lesson_steps" toml:"lesson_steps"`
	ThemeColor      string       `json:"theme_color,omitempty" toml:"theme_color"`
	Icon            string       `json:"icon,omitempty" toml:"icon"`
}

// Summary returns the long description, falling back to the short one
func (c Course) Summary() string {
	if c.LongDescription != "" {
		return c.LongDescription
	}
	return c.Description
}
