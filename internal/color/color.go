package color

import (
	"fmt"
	"strings"

	fcolor "github.com/fatih/color"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool

	add     *fcolor.Color
	change  *fcolor.Color
	destroy *fcolor.Color
	rename  *fcolor.Color
	bold    *fcolor.Color
	cyan    *fcolor.Color
}

// New creates a new Color instance. Color stays off when NO_COLOR is set or
// stdout is not a terminal, whatever the caller asks for.
func New(enabled bool) *Color {
	c := &Color{
		enabled: enabled && !fcolor.NoColor,
		add:     fcolor.New(fcolor.FgGreen),
		change:  fcolor.New(fcolor.FgYellow),
		destroy: fcolor.New(fcolor.FgRed),
		rename:  fcolor.New(fcolor.FgMagenta),
		bold:    fcolor.New(fcolor.Bold),
		cyan:    fcolor.New(fcolor.FgCyan),
	}
	for _, fc := range []*fcolor.Color{c.add, c.change, c.destroy, c.rename, c.bold, c.cyan} {
		if c.enabled {
			fc.EnableColor()
		} else {
			fc.DisableColor()
		}
	}
	return c
}

// Enabled reports whether output is colored
func (c *Color) Enabled() bool {
	return c.enabled
}

// Add colors a string to indicate additions (green, like Terraform)
func (c *Color) Add(text string) string {
	return c.add.Sprint(text)
}

// Change colors a string to indicate modifications (yellow, like Terraform)
func (c *Color) Change(text string) string {
	return c.change.Sprint(text)
}

// Destroy colors a string to indicate deletions (red, like Terraform)
func (c *Color) Destroy(text string) string {
	return c.destroy.Sprint(text)
}

// Rename colors a string to indicate renames
func (c *Color) Rename(text string) string {
	return c.rename.Sprint(text)
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	return c.bold.Sprint(text)
}

// Cyan colors text cyan (for headers and labels)
func (c *Color) Cyan(text string) string {
	return c.cyan.Sprint(text)
}

// PlanSymbol returns the appropriate symbol for plan actions
func (c *Color) PlanSymbol(action string) string {
	switch action {
	case "add", "create":
		return c.Add("+")
	case "change", "modify", "update":
		return c.Change("~")
	case "destroy", "drop", "delete", "remove":
		return c.Destroy("-")
	case "rename":
		return c.Rename(">")
	default:
		return " "
	}
}

// FormatPlanHeader formats the main plan header
func (c *Color) FormatPlanHeader(added, modified, removed, renamed int) string {
	parts := []string{
		c.Add(fmt.Sprintf("%d to add", added)),
		c.Change(fmt.Sprintf("%d to modify", modified)),
		c.Destroy(fmt.Sprintf("%d to drop", removed)),
	}
	if renamed > 0 {
		parts = append(parts, c.Rename(fmt.Sprintf("%d to rename", renamed)))
	}

	return fmt.Sprintf("Plan: %s.", strings.Join(parts, ", "))
}

// FormatSummaryLine formats summary counts with colors
func (c *Color) FormatSummaryLine(objectType string, added, modified, removed int) string {
	parts := []string{
		c.Add(fmt.Sprintf("%d to add", added)),
		c.Change(fmt.Sprintf("%d to modify", modified)),
		c.Destroy(fmt.Sprintf("%d to drop", removed)),
	}

	return fmt.Sprintf("  %s: %s", objectType, strings.Join(parts, ", "))
}
