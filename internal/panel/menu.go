package panel

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EmptyMenu is written when no panels are configured
const EmptyMenu = "<li><br>No displayable panels configured<br></li>"

const (
	titleToken = "|title|"
	indexToken = "|index|"
)

// MenuFileName returns formatFile with its extension replaced by .html
func MenuFileName(formatFile string) string {
	ext := filepath.Ext(formatFile)
	return strings.TrimSuffix(formatFile, ext) + ".html"
}

// RenderMenu expands format once per panel, in index order.
func RenderMenu(panels Hash, format string) string {
	if len(panels) == 0 {
		return EmptyMenu
	}
	var b strings.Builder
	for _, k := range panels.Keys() {
		line := strings.ReplaceAll(format, titleToken, panels[k].Title)
		line = strings.ReplaceAll(line, indexToken, strconv.Itoa(int(k)))
		b.WriteString(line)
	}
	return b.String()
}

// BuildTopMenu reads the menu format file and writes the expanded HTML
// include next to it (see MenuFileName).
func BuildTopMenu(panels Hash, formatFile string) error {
	format, err := os.ReadFile(formatFile)
	if err != nil {
		return fmt.Errorf("read menu format: %w", err)
	}
	out := MenuFileName(formatFile)
	if err := os.WriteFile(out, []byte(RenderMenu(panels, string(format))), 0644); err != nil {
		return fmt.Errorf("write menu %s: %w", out, err)
	}
	return nil
}
