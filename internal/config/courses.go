package config

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/diogo/geminitutor/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// CourseFile is the on-disk shape of courses.toml
type CourseFile struct {
	Courses []models.Course `toml:"courses"`
}

func mustTemplate(id string) string {
	data, err := templateFS.ReadFile("templates/" + id + ".tmpl")
	if err != nil {
		panic(fmt.Sprintf("missing embedded template for course %s: %v", id, err))
	}
	return string(data)
}

// DefaultCourses returns the built-in course catalog
func DefaultCourses() []models.Course {
	return []models.Course{
		{
			ID:              "prog_intro",
			Title:           "Introduction to Programming",
			Description:     "Learn the fundamental concepts of programming.",
			LongDescription: "This course introduces basic programming concepts like variables, data types, control structures, and functions. Perfect for beginners with no prior coding experience. You will be guided by Ada, your friendly AI programming mentor.",
			Persona:         "Ada, a cheerful and encouraging AI programming mentor who loves to explain complex topics with simple analogies.",
			PromptTemplate:  mustTemplate("prog_intro"),
			LessonSteps: []models.LessonStep{
				{ID: "1", Title: "What is Programming?", Objective: "Understand the basic concept of programming and its uses."},
				{ID: "2", Title: "Variables and Data Types", Objective: "Learn about variables and common data types (text, numbers, booleans)."},
				{ID: "3", Title: "Basic Control Flow: Conditionals", Objective: "Understand how programs make decisions using if/else statements."},
				{ID: "4", Title: "Basic Control Flow: Loops", Objective: "Learn about repeating tasks using loops (e.g., for, while)."},
				{ID: "5", Title: "Introduction to Functions", Objective: "Understand the concept of functions for reusable code blocks."},
			},
			ThemeColor: "#4f46e5",
			Icon:       "</>",
		},
		{
			ID:              "world_hist_basics",
			Title:           "Basics of World History",
			Description:     "Explore key events and periods in world history.",
			LongDescription: "Journey through time with Clio, your AI history guide. This course covers major milestones in world history, from ancient civilizations to modern times, helping you understand the big picture.",
			Persona:         "Clio, a wise and engaging AI historian who tells captivating stories about the past.",
			PromptTemplate:  mustTemplate("world_hist_basics"),
			LessonSteps: []models.LessonStep{
				{ID: "1", Title: "Ancient Civilizations", Objective: "Learn about major ancient civilizations like Mesopotamia, Egypt, Greece, and Rome."},
				{ID: "2", Title: "The Middle Ages", Objective: "Understand key aspects of the medieval period in Europe and other parts of the world."},
				{ID: "3", Title: "The Renaissance and Reformation", Objective: "Explore this pivotal period of cultural rebirth and religious change."},
				{ID: "4", Title: "The Age of Exploration", Objective: "Discover the era of global voyages and its impact."},
				{ID: "5", Title: "The Modern World (Brief Overview)", Objective: "Touch upon major themes from the 18th century to the present."},
			},
			ThemeColor: "#d97706",
			Icon:       "🌍",
		},
		{
			ID:              "creative_writing_101",
			Title:           "Creative Writing Kickstart",
			Description:     "Unlock your storytelling potential and learn writing basics.",
			LongDescription: "Join Scriba, your AI writing coach, to explore the fundamentals of creative writing. This course covers character development, plot basics, setting descriptions, and finding your voice.",
			Persona:         "Scriba, an imaginative and supportive AI writing coach who provides constructive feedback and creative prompts.",
			PromptTemplate:  mustTemplate("creative_writing_101"),
			LessonSteps: []models.LessonStep{
				{ID: "1", Title: "Finding Inspiration", Objective: "Learn techniques to find ideas for stories."},
				{ID: "2", Title: "Creating Compelling Characters", Objective: "Understand the basics of character development."},
				{ID: "3", Title: "Building a Basic Plot", Objective: "Learn about story structure (beginning, middle, end)."},
				{ID: "4", Title: "Describing Settings", Objective: "Understand how to create vivid settings."},
				{ID: "5", Title: "Finding Your Voice", Objective: "Explore different writing styles and tones."},
			},
			ThemeColor: "#059669",
			Icon:       "✎",
		},
	}
}

// GetCoursesPath returns the path to the user course file
func GetCoursesPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "courses.toml"), nil
}

// LoadCourses returns the built-in catalog merged with ~/.geminitutor/courses.toml
func LoadCourses() ([]models.Course, error) {
	path, err := GetCoursesPath()
	if err != nil {
		return DefaultCourses(), err
	}
	return LoadCoursesFrom(path)
}

// LoadCoursesFrom merges the course file at path into the built-in catalog.
// A missing file yields the built-in catalog.
func LoadCoursesFrom(path string) ([]models.Course, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultCourses(), nil
		}
		return DefaultCourses(), fmt.Errorf("failed to stat courses file: %w", err)
	}

	var file CourseFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return DefaultCourses(), fmt.Errorf("failed to decode courses file: %w", err)
	}

	for i, c := range file.Courses {
		if strings.TrimSpace(c.ID) == "" {
			return DefaultCourses(), fmt.Errorf("course %d in %s has no id", i+1, path)
		}
	}

	return mergeCourses(DefaultCourses(), file.Courses), nil
}

// ExportCourses writes courses in the courses.toml format
func ExportCourses(w io.Writer, courses []models.Course) error {
	fmt.Fprintln(w, "# geminitutor course catalog")
	fmt.Fprintln(w, "# Courses with a built-in id override only the fields they set.")
	fmt.Fprintln(w, "")

	encoder := toml.NewEncoder(w)
	if err := encoder.Encode(CourseFile{Courses: courses}); err != nil {
		return fmt.Errorf("failed to encode courses: %w", err)
	}
	return nil
}

// FindCourse returns the course with the given id
func FindCourse(courses []models.Course, id string) (models.Course, bool) {
	for _, c := range courses {
		if c.ID == id {
			return c, true
		}
	}
	return models.Course{}, false
}

// CourseIDs returns the ids of courses in catalog order
func CourseIDs(courses []models.Course) []string {
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}

func mergeCourses(defaults, custom []models.Course) []models.Course {
	result := make([]models.Course, len(defaults))
	copy(result, defaults)

	for _, cc := range custom {
		found := false
		for i, dc := range result {
			if dc.ID == cc.ID {
				result[i] = overlayCourse(dc, cc)
				found = true
				break
			}
		}
		if !found {
			result = append(result, cc)
		}
	}

	return result
}

// overlayCourse copies the non-empty fields of custom over base
func overlayCourse(base, custom models.Course) models.Course {
	if custom.Title != "" {
		base.Title = custom.Title
	}
	if custom.Description != "" {
		base.Description = custom.Description
	}
	if custom.LongDescription != "" {
		base.LongDescription = custom.LongDescription
	}
	if custom.Persona != "" {
		base.Persona = custom.Persona
	}
	if custom.PromptTemplate != "" {
		base.PromptTemplate = custom.PromptTemplate
	}
	if len(custom.LessonSteps) > 0 {
		base.LessonSteps = custom.LessonSteps
	}
	if custom.ThemeColor != "" {
		base.ThemeColor = custom.ThemeColor
	}
	if custom.Icon != "" {
		base.Icon = custom.Icon
	}
	return base
}
