package matcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tazuo/autoloot/internal/domain"
)

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// ParseProperty splits a tooltip line such as "Hit Chance Increase 15%" or
// "Weapon Damage 11 - 15" into its name and up to two numeric values.
// Lines without numbers keep NoValue for both.
func ParseProperty(text string) domain.PropertyLine {
	clean := strings.TrimSpace(StripTags(text))
	line := domain.PropertyLine{Text: text, Name: clean, First: domain.NoValue, Second: domain.NoValue}

	locs := numberPattern.FindAllStringIndex(clean, 2)
	if len(locs) == 0 {
		return line
	}

	line.Name = strings.TrimRight(strings.TrimSpace(clean[:locs[0][0]]), ":+- ")
	if line.Name == "" {
		line.Name = clean
	}
	if v, err := strconv.ParseFloat(clean[locs[0][0]:locs[0][1]], 64); err == nil {
		line.First = v
	}
	if len(locs) > 1 {
		if v, err := strconv.ParseFloat(strings.TrimLeft(clean[locs[1][0]:locs[1][1]], "+-"), 64); err == nil {
			line.Second = v
		}
	}
	return line
}

// ParseProperties parses every tooltip line.
func ParseProperties(lines []string) []domain.PropertyLine {
	out := make([]domain.PropertyLine, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, ParseProperty(l))
	}
	return out
}

// CompleteProperty fills in a host-supplied line from its text when the
// name or the first value is missing. A name the host did send is kept.
func CompleteProperty(line domain.PropertyLine) domain.PropertyLine {
	if strings.TrimSpace(line.Text) == "" || (line.Name != "" && line.HasValue()) {
		return line
	}
	parsed := ParseProperty(line.Text)
	if line.Name != "" {
		parsed.Name = line.Name
	}
	return parsed
}
