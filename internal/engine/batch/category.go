package batch

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a fixed priority bucket. Lower values are drained first.
type Category uint8

// Categories in priority order.
const (
	CategoryTransform Category = iota
	CategoryVisibility
	CategoryPhysics
	CategoryLOD
	CategoryAI
)

// NumCategories is the number of defined categories.
const NumCategories = 5

// ErrInvalidCategory is returned for category values outside the defined range.
var ErrInvalidCategory = errors.New("invalid batch category")

//nolint:gochecknoglobals // Constant lookup table.
var categoryNames = [NumCategories]string{
	CategoryTransform:  "transform",
	CategoryVisibility: "visibility",
	CategoryPhysics:    "physics",
	CategoryLOD:        "lod",
	CategoryAI:         "ai",
}

// Categories returns every category in priority order.
func Categories() []Category {
	return []Category{
		CategoryTransform,
		CategoryVisibility,
		CategoryPhysics,
		CategoryLOD,
		CategoryAI,
	}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c < NumCategories
}

// Priority returns the numeric priority (0 is highest).
func (c Category) Priority() int {
	return int(c)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// ParseCategory parses a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: got %q", ErrInvalidCategory, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
