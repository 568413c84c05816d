package styles

import (
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/codebase"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

// Tip: To find icons use https://github.com/loichyan/nerdfix

// Session icons
var (
	IconCheck   = "\uf00c"     // nf-fa-check
	IconCross   = "\uf00d"     // nf-fa-times
	IconWarn    = "\uf071"     // nf-fa-warning
	IconChat    = "\uf27a"     // nf-fa-commenting
	IconBug     = "\uf188"     // nf-fa-bug
	IconShield  = "\U000F0565" // nf-md-shield_check
	IconCompare = "\ueae1"     // nf-cod-diff
	IconBook    = "\uf02d"     // nf-fa-book
	IconHistory = "\uf1da"     // nf-fa-history
)

// File type icons
var (
	IconFileDefault  = "\uf15b "     // nf-fa-file
	IconFileGo       = "\ue627 "     // nf-seti-go
	IconFileJS       = "\U000F031E " // nf-md-language_javascript
	IconFileTS       = "\U000F06E6 " // nf-md-language_typescript
	IconFilePython   = "\ue606 "     // nf-seti-python
	IconFileMarkdown = "\ue609 "     // nf-seti-markdown
	IconFileJSON     = "\ue60b "     // nf-seti-json
	IconFileYAML     = "\ue6a8 "     // nf-seti-yml
	IconFileRust     = "\ue7a8 "     // nf-dev-rust
	IconFileC        = "\ue61e "     // nf-custom-c
	IconFileCPP      = "\ue61d "     // nf-custom-cpp
	IconFileJava     = "\ue738 "     // nf-dev-java
	IconFileRuby     = "\ue791 "     // nf-dev-ruby
	IconFileShell    = "\uf489 "     // nf-oct-terminal
	IconFileLua      = "\ue620 "     // nf-seti-lua
)

var languageIcons = map[string]string{
	"go":         IconFileGo,
	"javascript": IconFileJS,
	"typescript": IconFileTS,
	"python":     IconFilePython,
	"markdown":   IconFileMarkdown,
	"json":       IconFileJSON,
	"yaml":       IconFileYAML,
	"rust":       IconFileRust,
	"c":          IconFileC,
	"cpp":        IconFileCPP,
	"java":       IconFileJava,
	"ruby":       IconFileRuby,
	"bash":       IconFileShell,
	"lua":        IconFileLua,
}

// IconForLanguage returns the file icon for a language tag.
func IconForLanguage(lang string) string {
	if icon, ok := languageIcons[lang]; ok {
		return icon
	}
	return IconFileDefault
}

var modeIcons = map[session.Mode]string{
	session.ModeReview:     IconCheck,
	session.ModeDebug:      IconBug,
	session.ModeComparison: IconCompare,
	session.ModeAudit:      IconShield,
	session.ModeWorkbench:  IconBook,
}

// IconForMode returns the header icon of a session mode.
func IconForMode(m session.Mode) string {
	if icon, ok := modeIcons[m]; ok {
		return icon
	}
	return IconChat
}

// IconForPath returns the file icon for a path by its detected language.
func IconForPath(path string) string {
	return IconForLanguage(codebase.LanguageForPath(path))
}
