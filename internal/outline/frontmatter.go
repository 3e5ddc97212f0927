package outline

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// parseFrontmatter consumes a leading `---` fenced YAML block, if present,
// recording any wikilink-shaped string values as frontmatter links. It
// returns the first content line and its byte offset, so the markdown parser
// never sees the frontmatter region (a bare `key: value` line would otherwise
// read as a setext heading).
func parseFrontmatter(lines []string, lineStarts []int, o *Outline) (int, int) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return 0, 0
	}
	fence := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fence = i
			break
		}
	}
	if fence < 0 {
		return 0, 0
	}

	raw := strings.Join(lines[1:fence], "\n")
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err == nil {
		collectFrontmatterLinks(&root, o)
	}

	bodyLine := fence + 1
	if bodyLine >= len(lines) {
		return len(lines), lineEnd(lineStarts, lines, len(lines)-1)
	}
	return bodyLine, lineStarts[bodyLine]
}

// collectFrontmatterLinks walks the YAML node tree in document order,
// scanning scalar values for wikilinks. Walking nodes rather than a decoded
// map keeps the link list in source order, so identical source always
// produces an identical serialized record.
func collectFrontmatterLinks(n *yaml.Node, o *Outline) {
	if n.Kind == yaml.ScalarNode {
		for _, m := range wikilinkRe.FindAllStringSubmatch(n.Value, -1) {
			o.FrontmatterLinks = append(o.FrontmatterLinks, LinkOccurrence{
				Target:  strings.TrimSpace(m[1]),
				Display: strings.TrimSpace(m[2]),
			})
		}
		return
	}
	for _, child := range n.Content {
		collectFrontmatterLinks(child, o)
	}
}
