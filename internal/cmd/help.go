package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvc-matrix/dvc-matrix/internal/ui"
)

var (
	// group header lines, e.g. "Pipeline:"
	groupHeaderRE = regexp.MustCompile(`(?m)^([A-Z][A-Za-z &]+:)\s*$`)
	// section headers in subcommand help
	sectionHeaderRE = regexp.MustCompile(`(?m)^(Examples|Flags|Usage|Global Flags|Aliases|Available Commands):`)
	// "  command   Description text"
	cmdLineRE = regexp.MustCompile(`(?m)^(  )([a-z][a-z0-9]*(?:-[a-z0-9]+)*)(\s{2,})(.*)$`)
	// "  -f, --file string   Description"
	flagLineRE = regexp.MustCompile(`(?m)^(\s+)(-\w,\s+--[\w-]+|--[\w-]+)(\s+)(string|int|duration|bool)?(\s*.*)$`)
	defaultRE  = regexp.MustCompile(`(\((?:default[^)]*)\))`)
	cmdRefRE   = regexp.MustCompile(`'([a-z][a-z0-9 -]+)'`)
)

// colorizedHelpFunc wraps Cobra's default help with semantic coloring.
func colorizedHelpFunc(cmd *cobra.Command, args []string) {
	var output strings.Builder

	if cmd.Long != "" {
		output.WriteString(cmd.Long)
		output.WriteString("\n\n")
	} else if cmd.Short != "" {
		output.WriteString(cmd.Short)
		output.WriteString("\n\n")
	}
	output.WriteString(cmd.UsageString())

	fmt.Fprint(cmd.OutOrStdout(), colorizeHelpOutput(output.String()))
}

// colorizeHelpOutput applies semantic colors to help text
// - Group and section headers get accent color
// - Command and flag names get subtle styling for scanability
// - Flag types and default values get muted
func colorizeHelpOutput(help string) string {
	result := groupHeaderRE.ReplaceAllStringFunc(help, func(match string) string {
		return ui.RenderAccent(strings.TrimSpace(match))
	})

	result = sectionHeaderRE.ReplaceAllStringFunc(result, ui.RenderAccent)

	result = cmdLineRE.ReplaceAllStringFunc(result, func(match string) string {
		parts := cmdLineRE.FindStringSubmatch(match)
		if len(parts) != 5 {
			return match
		}
		description := muteDefaults(colorizeCommandRefs(parts[4]))
		return parts[1] + ui.RenderCommand(parts[2]) + parts[3] + description
	})

	result = flagLineRE.ReplaceAllStringFunc(result, func(match string) string {
		parts := flagLineRE.FindStringSubmatch(match)
		if len(parts) < 6 {
			return match
		}
		indent, flags, spacing, typeStr, desc := parts[1], parts[2], parts[3], parts[4], muteDefaults(parts[5])
		if typeStr != "" {
			return indent + ui.RenderCommand(flags) + spacing + ui.RenderMuted(typeStr) + desc
		}
		return indent + ui.RenderCommand(flags) + spacing + desc
	})

	return result
}

// muteDefaults applies muted styling to "(default ...)" annotations,
// including the "(default)" marker on the default command.
func muteDefaults(text string) string {
	return defaultRE.ReplaceAllStringFunc(text, ui.RenderMuted)
}

// colorizeCommandRefs applies command styling to quoted references like 'generate'.
func colorizeCommandRefs(text string) string {
	return cmdRefRE.ReplaceAllStringFunc(text, func(match string) string {
		return "'" + ui.RenderCommand(match[1:len(match)-1]) + "'"
	})
}

func init() {
	rootCmd.SetHelpFunc(colorizedHelpFunc)
}
