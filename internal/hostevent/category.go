package hostevent

import "strings"

// Category buckets tools for filtering and action-only configuration.
type Category string

const (
	CategoryBash   Category = "bash"
	CategorySystem Category = "system"
	CategoryIO     Category = "io"
	CategoryTodo   Category = "todo"
	CategoryTask   Category = "task"
	CategoryMeta   Category = "meta"
	CategorySearch Category = "search"
	CategoryMCP    Category = "mcp"
	CategoryUI     Category = "ui"
	CategorySkill  Category = "skill"
	CategoryOther  Category = "other"
)

var toolCategories = map[string]Category{
	"Bash": CategoryBash,

	"LS":   CategorySystem,
	"Glob": CategorySystem,
	"Grep": CategorySystem,
	"Read": CategorySystem,

	"Write":        CategoryIO,
	"Edit":         CategoryIO,
	"MultiEdit":    CategoryIO,
	"NotebookEdit": CategoryIO,

	"TodoWrite": CategoryTodo,

	"TaskCreate": CategoryTask,
	"TaskUpdate": CategoryTask,
	"TaskList":   CategoryTask,
	"TaskGet":    CategoryTask,

	"Task": CategoryMeta,

	"WebSearch": CategorySearch,
	"WebFetch":  CategorySearch,

	"AskUserQuestion": CategoryUI,
	"Skill":           CategorySkill,
}

// Categorize maps a tool name to its category. MCP tools arrive as
// mcp__servername__toolname; unknown tools land in "other".
func Categorize(toolName string) Category {
	if strings.HasPrefix(toolName, "mcp__") {
		return CategoryMCP
	}
	if c, ok := toolCategories[toolName]; ok {
		return c
	}
	return CategoryOther
}
