package pivot

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// fallbackKey is used when a name slugifies to nothing.
const fallbackKey = "category"

// dateKey is the field every point uses for its day. No category may take it.
const dateKey = "date"

// Slugify turns a category name into a key safe for use as a field name.
// Applying it twice gives the same result as applying it once.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return unsafeChars.ReplaceAllString(s, "")
}

// KeyAssigner hands out unique keys for category names in first-seen order.
// Distinct names that share a slug get numeric suffixes.
type KeyAssigner struct {
	byName map[string]string
	taken  map[string]struct{}
}

// NewKeyAssigner creates an empty assigner.
func NewKeyAssigner() *KeyAssigner {
	return &KeyAssigner{
		byName: make(map[string]string),
		taken:  map[string]struct{}{dateKey: {}},
	}
}

// Key returns the key for name, assigning one on first sight.
func (a *KeyAssigner) Key(name string) string {
	if key, ok := a.byName[name]; ok {
		return key
	}

	base := Slugify(name)
	if base == "" {
		base = fallbackKey
	}

	key := base
	for n := 2; ; n++ {
		if _, used := a.taken[key]; !used {
			break
		}
		key = base + "-" + strconv.Itoa(n)
	}

	a.byName[name] = key
	a.taken[key] = struct{}{}
	return key
}

// Len returns how many names have been assigned.
func (a *KeyAssigner) Len() int {
	return len(a.byName)
}
