// Package include expands psql \i and \ir directives so a schema split across
// several .sql files can be loaded as one document.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// includeDirective matches \i path, \ir path and \include path with an optional semicolon
var includeDirective = regexp.MustCompile(`^\s*\\(?:i|ir|include|include_relative)\s+([^\s;]+)\s*;?\s*$`)

// Processor resolves include directives below one root directory
type Processor struct {
	root  string
	stack map[string]bool
}

// NewProcessor creates a processor. Includes may not leave root.
func NewProcessor(root string) *Processor {
	return &Processor{root: root}
}

// ProcessFile returns the content of a .sql file with every include expanded in place.
// A directory argument or included directory expands to its .sql files in name order.
func (p *Processor) ProcessFile(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}
	if p.root == "" {
		info, err := os.Stat(absPath)
		if err == nil && info.IsDir() {
			p.root = absPath
		} else {
			p.root = filepath.Dir(absPath)
		}
	}
	if p.root, err = filepath.Abs(p.root); err != nil {
		return "", err
	}
	p.stack = make(map[string]bool)
	return p.expand(absPath)
}

func (p *Processor) expand(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return p.expandDir(path)
	}

	if p.stack[path] {
		return "", fmt.Errorf("circular include detected: %s", path)
	}
	// A file may be included from several branches, only cycles are rejected
	p.stack[path] = true
	defer delete(p.stack, path)

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := strings.Split(string(content), "\n")
	var out strings.Builder
	for i, line := range lines {
		m := includeDirective.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			if i < len(lines)-1 {
				out.WriteString("\n")
			}
			continue
		}

		target, err := p.resolve(m[1], filepath.Dir(path))
		if err != nil {
			return "", fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		included, err := p.expand(target)
		if err != nil {
			return "", err
		}
		out.WriteString(included)
		if !strings.HasSuffix(included, "\n") {
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}

func (p *Processor) expandDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		content, err := p.expand(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		out.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}

// resolve maps an include argument to an absolute path inside the root directory
func (p *Processor) resolve(includePath, currentDir string) (string, error) {
	target := filepath.Clean(includePath)
	if !filepath.IsAbs(target) {
		target = filepath.Join(currentDir, target)
	}

	rel, err := filepath.Rel(p.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("include %s is outside %s", includePath, p.root)
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("included file does not exist: %s", includePath)
	}
	return target, nil
}
