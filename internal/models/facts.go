package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Facts are the free-form case facts supplied by the investigator. The accessors below read the well-known keys and
// tolerate the loose typing of decoded JSON.
type Facts map[string]any

const (
	FactDescription = "description"
	FactVictimAge   = "victimAge"
	FactLocation    = "location"
	FactSections    = "sections"
)

var sectionNumberRe = regexp.MustCompile(`\d+[A-Za-z]*(?:\(\d+\))?`)

// String returns the value under key formatted as text, "" when absent.
func (f Facts) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (f Facts) Description() string {
	return f.String(FactDescription)
}

func (f Facts) Location() string {
	return f.String(FactLocation)
}

// VictimAge returns the victim's age when it is present and numeric.
func (f Facts) VictimAge() (int, bool) {
	switch v := f[FactVictimAge].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		age, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return age, true
	default:
		return 0, false
	}
}

// CitedSections returns the section numbers the investigator cited, e.g. "376" or "66E". The facts may hold them as
// a list or a comma separated string.
func (f Facts) CitedSections() []string {
	var raw []string
	switch v := f[FactSections].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	}
	var sections []string
	for _, r := range raw {
		if n := sectionNumberRe.FindString(r); n != "" {
			sections = append(sections, n)
		}
	}
	return sections
}
