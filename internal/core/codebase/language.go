package codebase

import (
	"path"
	"strings"
)

var extensions = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rs":    "rust",
	".java":  "java",
	".kt":    "kotlin",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".sh":    "bash",
	".bash":  "bash",
	".zsh":   "zsh",
	".lua":   "lua",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".md":    "markdown",
}

// LanguageForPath returns the language tag for a file name, or "".
func LanguageForPath(p string) string {
	return extensions[strings.ToLower(path.Ext(p))]
}

// DetectLanguage returns the most common language among files. Ties go to
// the language seen first.
func DetectLanguage(files []File) string {
	counts := make(map[string]int)
	var order []string
	for _, f := range files {
		lang := LanguageForPath(f.Path)
		if lang == "" {
			continue
		}
		if counts[lang] == 0 {
			order = append(order, lang)
		}
		counts[lang]++
	}

	best := ""
	for _, lang := range order {
		if counts[lang] > counts[best] {
			best = lang
		}
	}
	return best
}
