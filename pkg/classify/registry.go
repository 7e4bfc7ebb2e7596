// Package classify assigns a set of content tags to each candidate file, the
// basis every hook's types/types_or/exclude_types filter is evaluated
// against.
package classify

import (
	"path/filepath"
	"slices"
	"strings"
)

const (
	tagDockerfile = "dockerfile"
	tagRuby       = "ruby"
	extHTML       = ".html"
	extTS         = ".ts"
)

// extensionTable maps a tag to every file extension that implies it.
var extensionTable = map[string][]string{
	"python":        {".py", ".pyx", ".pyi"},
	"javascript":    {".js", ".jsx", ".mjs"},
	"typescript":    {".ts", ".tsx"},
	"yaml":          {".yaml", ".yml"},
	"json":          {".json"},
	"markdown":      {".md", ".markdown", ".mdown", ".mkd"},
	"go":            {".go"},
	"shell":         {".sh", ".bash", ".zsh", ".fish"},
	"css":           {".css", ".scss", ".sass", ".less"},
	"html":          {".html", ".htm", ".xhtml"},
	"xml":           {".xml", ".xsl", ".xsd"},
	"toml":          {".toml"},
	"ini":           {".ini", ".cfg"},
	"rust":          {".rs"},
	"java":          {".java"},
	"c":             {".c", ".h"},
	"cpp":           {".cpp", ".cc", ".cxx", ".hpp", ".hxx"},
	"ruby":          {".rb"},
	"php":           {".php", ".phtml"},
	"perl":          {".pl", ".pm"},
	"swift":         {".swift"},
	"kotlin":        {".kt", ".kts"},
	"scala":         {".scala"},
	"r":             {".r", ".rmd"},
	"sql":           {".sql"},
	"dart":          {".dart"},
	"haskell":       {".hs", ".lhs"},
	"lua":           {".lua"},
	"terraform":     {".tf", ".tfvars"},
	"vue":           {".vue"},
	"svelte":        {".svelte"},
	"react":         {".jsx", ".tsx"},
	"jinja":         {".j2", ".jinja", ".jinja2"},
	"handlebars":    {".hbs", ".handlebars"},
	"vhdl":          {".vhd", ".vhdl"},
	"verilog":       {".v", ".vh"},
	"systemverilog": {".sv", ".svh"},
}

// shebangTable maps an interpreter basename (the last path component of a
// shebang line) to the tag it implies.
var shebangTable = map[string]string{
	"python":  "python",
	"python3": "python",
	"python2": "python",
	"bash":    "shell",
	"sh":      "shell",
	"zsh":     "shell",
	"fish":    "shell",
	"node":    "javascript",
	"ruby":    "ruby",
	"perl":    "perl",
	"lua":     "lua",
}

var binaryExtensions = []string{
	".exe", ".bin", ".so", ".dll", ".png", ".jpg", ".jpeg", ".gif",
	".pdf", ".zip", ".tar", ".gz", ".ico", ".woff", ".woff2", ".ttf",
}

func matchesExtension(tag, ext string) bool {
	exts, ok := extensionTable[tag]
	return ok && slices.Contains(exts, ext)
}

func matchesSpecialTag(path, tag, base string) bool {
	switch tag {
	case tagDockerfile:
		return base == tagDockerfile || strings.HasPrefix(base, tagDockerfile+".")
	case tagRuby:
		return base == "gemfile" || base == "rakefile"
	case "helm":
		return base == "chart.yaml" || strings.Contains(path, "templates/")
	case "docker-compose":
		return base == "docker-compose.yml" || base == "docker-compose.yaml" ||
			strings.HasPrefix(base, "docker-compose.") || strings.HasPrefix(base, "compose.")
	case "vagrant":
		return base == "vagrantfile"
	case "django", "flask":
		return strings.ToLower(filepath.Ext(path)) == extHTML && strings.Contains(path, "templates/")
	case "angular":
		return strings.ToLower(filepath.Ext(path)) == extTS &&
			(strings.Contains(path, ".component.") || strings.Contains(path, ".service.") || strings.Contains(path, ".module."))
	}
	return false
}
