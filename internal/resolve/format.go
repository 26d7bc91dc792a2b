// Package resolve turns a note tag into a Slack destination ID using the
// configured format templates and alias table.
package resolve

import "strings"

// Placeholder tokens recognized in format templates. A user format carries
// {username} or {real name}; a channel format carries {channel}.
const (
	UsernameToken = "{username}"
	RealNameToken = "{real name}"
	ChannelToken  = "{channel}"
)

// Pattern is a parsed format template: a literal prefix and suffix around a
// single placeholder. Parsing the template into a typed pattern instead of
// splicing it into a regular expression keeps metacharacters from user
// configuration literal.
type Pattern struct {
	prefix string
	suffix string
	valid  bool
}

// ParseFormat parses a template against one placeholder token. A template
// that does not contain the token exactly once yields a pattern that never
// matches, mirroring the behavior of a format with no recognized placeholder.
func ParseFormat(template, token string) Pattern {
	i := strings.Index(template, token)
	if i < 0 {
		return Pattern{}
	}
	suffix := template[i+len(token):]
	if strings.Contains(suffix, token) {
		return Pattern{}
	}
	return Pattern{prefix: template[:i], suffix: suffix, valid: true}
}

// Valid reports whether the pattern can ever match.
func (p Pattern) Valid() bool { return p.valid }

// Match extracts the placeholder value from a tag. Prefix and suffix are
// compared case-insensitively; the capture is greedy, spanning from the first
// prefix occurrence to the last suffix occurrence.
func (p Pattern) Match(tag string) (string, bool) {
	if !p.valid {
		return "", false
	}
	upperTag := strings.ToUpper(tag)
	i := strings.Index(upperTag, strings.ToUpper(p.prefix))
	if i < 0 {
		return "", false
	}
	rest := tag[i+len(p.prefix):]
	if p.suffix == "" {
		return rest, true
	}
	j := strings.LastIndex(strings.ToUpper(rest), strings.ToUpper(p.suffix))
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
