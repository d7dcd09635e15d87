package model

import (
	"regexp"
	"strings"
)

type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkWatch
	LinkShort
	LinkShorts
)

func (k LinkKind) String() string {
	switch k {
	case LinkWatch:
		return "watch"
	case LinkShort:
		return "short"
	case LinkShorts:
		return "shorts"
	default:
		return "none"
	}
}

// Link is the result of scanning a message: either no match or a
// normalised URL of one of the accepted shapes.
type Link struct {
	Kind    LinkKind
	URL     string
	VideoID string
}

func (l Link) Matched() bool {
	return l.Kind != LinkNone
}

type linkMatcher struct {
	kind LinkKind
	re   *regexp.Regexp
}

// Video ids are alphanumeric with underscore and hyphen.
var linkMatchers = []linkMatcher{
	{kind: LinkWatch, re: regexp.MustCompile(`(https?://)?(www\.)?youtube\.com/watch\?v=([\w-]+)`)},
	{kind: LinkShort, re: regexp.MustCompile(`(https?://)?youtu\.be/([\w-]+)`)},
	{kind: LinkShorts, re: regexp.MustCompile(`(https?://)?(www\.)?youtube\.com/shorts/([\w-]+)`)},
}

// ExtractLink returns the leftmost accepted link in text.
func ExtractLink(text string) Link {
	var (
		found Link
		start = -1
	)

	for _, matcher := range linkMatchers {
		loc := matcher.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if start != -1 && loc[0] >= start {
			continue
		}

		start = loc[0]
		idStart, idEnd := loc[len(loc)-2], loc[len(loc)-1]
		found = Link{
			Kind:    matcher.kind,
			URL:     normalizeURL(text[loc[0]:loc[1]]),
			VideoID: text[idStart:idEnd],
		}
	}

	return found
}

func normalizeURL(url string) string {
	if strings.HasPrefix(url, "http") {
		return url
	}
	return "https://" + url
}
