// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"fmt"
	"os"
	"strings"
)

// ConfigEnv names the environment variable read for a default config path.
const ConfigEnv = "TEX2HTML_CONFIG"

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config, the TEX2HTML_CONFIG variable when unset, and a user
// config under ~/.config/go-tex2html/.
func ForConfigNotFound(searchedPaths []string) string {
	var hints []string

	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-tex2html") {
			hint += " or create " + p
			break
		}
	}
	hints = append(hints, hint)

	if os.Getenv(ConfigEnv) == "" {
		hints = append(hints, "set "+ConfigEnv+" to use a config by default")
	}

	return formatHints(hints)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForSourceTooLarge suggests raising the size limit.
func ForSourceTooLarge(limit int) string {
	if limit <= 0 {
		return format("use --max-size to raise the limit")
	}
	return format(fmt.Sprintf("limit is %d bytes; use --max-size to raise it", limit))
}

// ForExtension lists the accepted input extensions.
func ForExtension(allowed []string) string {
	if len(allowed) == 0 {
		return ""
	}
	return format("accepted extensions: " + strings.Join(allowed, ", "))
}

// ForDateFormat lists the date presets and token syntax.
func ForDateFormat(presets []string) string {
	hints := []string{"tokens: YYYY, MMMM, MMM, MM, DD, D, dddd; [text] is literal"}
	if len(presets) > 0 {
		hints = append([]string{"presets: " + strings.Join(presets, ", ")}, hints...)
	}
	return formatHints(hints)
}

// ForMathErrors points at the verbose log when expressions failed to render.
func ForMathErrors(count int) string {
	if count <= 0 {
		return ""
	}
	noun := "expressions"
	if count == 1 {
		noun = "expression"
	}
	return format(fmt.Sprintf("%d math %s kept as error markers; rerun with --verbose for details", count, noun))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
