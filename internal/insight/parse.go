package insight

import "strings"

// Brief is a vehicle brief broken into display sections.
type Brief struct {
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
	Extra   string   `json:"extra,omitempty"`
}

// ParseBrief splits generated brief text into sections: the first non-empty
// line is the title, the second the summary, dash-prefixed lines become
// bullets and everything else joins into extra. Empty input yields nil.
func ParseBrief(text string) *Brief {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	brief := &Brief{Title: lines[0]}
	if len(lines) > 1 {
		brief.Summary = lines[1]
	}

	if len(lines) <= 2 {
		return brief
	}

	var extra []string
	for _, line := range lines[2:] {
		if strings.HasPrefix(line, "-") {
			// "--" and "- " prefixes alike collapse to the bullet text;
			// a bare dash carries no bullet.
			bullet := strings.TrimSpace(strings.TrimLeft(line, "-"))
			if bullet != "" {
				brief.Bullets = append(brief.Bullets, bullet)
			}
		} else {
			extra = append(extra, line)
		}
	}
	brief.Extra = strings.Join(extra, " ")

	return brief
}
