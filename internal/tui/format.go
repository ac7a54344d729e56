package tui

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// printer is the locale-aware message printer for number formatting.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatCount formats a counter with thousand separators.
func FormatCount(n uint64) string {
	return printer.Sprintf("%d", n)
}

// FormatMillis formats milliseconds with three decimals and a unit.
func FormatMillis(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 3, 64) + "ms"
}

// FormatPercent formats a ratio as a percentage.
func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%" //nolint:mnd // percentage
}

// FormatCategories joins category names.
func FormatCategories(cats []batch.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
