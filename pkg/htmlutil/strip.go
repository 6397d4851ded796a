package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags end a line of text when they close. br ends one when it opens.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
}

// skippedTags have their contents dropped along with the tags.
var skippedTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// StripTags reduces an HTML fragment to plain text. Block-level elements
// become line breaks, entities are decoded, runs of whitespace collapse to a
// single space, and blank lines are removed.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	skipDepth := 0
	z := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// z.Err() is io.EOF at the end of input. A malformed tail still
			// leaves the text read so far usable.
			return normalizeLines(b.String())
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Br:
				b.WriteByte('\n')
			case skippedTags[a] && tt == html.StartTagToken:
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case blockTags[a]:
				b.WriteByte('\n')
			case skippedTags[a] && skipDepth > 0:
				skipDepth--
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

// decodeHTMLEntities decodes named and numeric character references.
func decodeHTMLEntities(s string) string {
	return html.UnescapeString(s)
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		// Fields splits on every Unicode space, including the no-break
		// space that &nbsp; decodes to.
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
