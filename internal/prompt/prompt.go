// Package prompt builds the system instruction and fixed lesson texts for a course.
package prompt

import (
	"fmt"
	"strings"

	"github.com/diogo/geminitutor/internal/models"
)

// Template placeholders
const (
	PlaceholderPersona = "{aiPersona}"
	PlaceholderTitle   = "{courseTitle}"
	PlaceholderTopics  = "{topicsList}"
)

// OpeningInstruction is sent on the tutor's behalf when a lesson starts.
// It never appears in the transcript.
const OpeningInstruction = "Hello! Please introduce yourself and the first topic."

// BuildSystemPrompt fills the course template. Only the first occurrence of
// each placeholder is replaced and missing placeholders are ignored.
func BuildSystemPrompt(course models.Course) string {
	out := course.PromptTemplate
	out = strings.Replace(out, PlaceholderPersona, course.Persona, 1)
	out = strings.Replace(out, PlaceholderTitle, course.Title, 1)
	out = strings.Replace(out, PlaceholderTopics, TopicsList(course.LessonSteps), 1)
	return out
}

// TopicsList renders lesson steps as a numbered list, one per line
func TopicsList(steps []models.LessonStep) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("%d. %s (Objective: %s)", i+1, s.Title, s.Objective)
	}
	return strings.Join(lines, "\n")
}

// TutorName returns the persona's short name, the text before its first comma
func TutorName(course models.Course) string {
	name, _, _ := strings.Cut(course.Persona, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		return "Tutor"
	}
	return name
}

// StartNotice is the system notice shown when a lesson begins
func StartNotice(course models.Course) string {
	return fmt.Sprintf("Starting your lesson on \"%s\". Your AI tutor, %s, will guide you.", course.Title, TutorName(course))
}

// ThinkingText is shown while the tutor has not produced any text yet
func ThinkingText(course models.Course) string {
	return TutorName(course) + " is thinking..."
}
