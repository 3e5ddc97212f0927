package index

import "strings"

// mathRegion is one display-math span found inside a callout body. Lines and
// offsets are document-absolute; offsets are inclusive and cover the `$$`
// delimiters themselves.
type mathRegion struct {
	StartLine   int
	EndLine     int
	StartOffset int
	EndOffset   int
	Text        string
}

const mathMarker = "$$"

// extractCalloutMath scans a callout's raw text (header line included) for
// `$$`-delimited display-math regions. An opening marker with no closing
// marker terminates the scan; regions already found are kept.
func extractCalloutMath(raw string, startLine, startOffset int) []mathRegion {
	var regions []mathRegion
	pos := 0
	for {
		open := strings.Index(raw[pos:], mathMarker)
		if open < 0 {
			break
		}
		open += pos
		rest := open + len(mathMarker)
		end := strings.Index(raw[rest:], mathMarker)
		if end < 0 {
			break
		}
		end += rest

		regions = append(regions, mathRegion{
			StartLine:   startLine + strings.Count(raw[:open], "\n"),
			EndLine:     startLine + strings.Count(raw[:end], "\n"),
			StartOffset: startOffset + open,
			EndOffset:   startOffset + end + len(mathMarker) - 1,
			Text:        stripQuotePrefix(raw[rest:end]),
		})
		pos = end + len(mathMarker)
	}
	return regions
}

// stripQuotePrefix removes the leading `>` quote marker (and at most one
// following space) from every line, then trims the whole text.
func stripQuotePrefix(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		t := strings.TrimLeft(l, " \t")
		if strings.HasPrefix(t, ">") {
			t = t[1:]
			if strings.HasPrefix(t, " ") {
				t = t[1:]
			}
			lines[i] = t
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
