package extract

import (
	"regexp"
	"strings"
)

var (
	// restRaisesRe matches reST fields like ":raises ValueError: detail".
	restRaisesRe = regexp.MustCompile(`:raises?\s+([A-Za-z_][A-Za-z0-9_.]*)\s*:`)

	// sectionHeaderRe matches bare "Word:" section header lines.
	sectionHeaderRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*:$`)

	// exceptionNameRe accepts plain or dotted exception names.
	exceptionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// cleanDocstring normalizes the indentation of a docstring body (PEP 257)
// and trims surrounding whitespace.
func cleanDocstring(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= 1 {
		return strings.TrimSpace(s)
	}
	// Dedent: find minimum indentation of non-empty continuation lines.
	minIndent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= minIndent {
				lines[i] = lines[i][minIndent:]
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// raisesFromDocstring collects exception names declared in a docstring.
// Google-style "Raises:" sections and numpy-style underlined "Raises"
// sections are scanned line by line; reST ":raises Name:" fields count
// wherever they appear. Names keep first-seen order, deduplicated.
func raisesFromDocstring(doc string) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	lines := strings.Split(doc, "\n")
	inSection := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		lower := strings.ToLower(t)

		if m := restRaisesRe.FindStringSubmatch(t); m != nil {
			add(m[1])
			continue
		}

		if !inSection {
			if lower == "raises:" || lower == "raise:" {
				inSection = true
				continue
			}
			// Numpy style: a "Raises" line underlined with dashes.
			if (lower == "raises" || lower == "raise") && i+1 < len(lines) {
				if u := strings.TrimSpace(lines[i+1]); len(u) >= 3 && strings.Count(u, "-") == len(u) {
					inSection = true
				}
			}
			continue
		}

		if t == "" {
			continue
		}
		// A bare "Word:" header line ends the section.
		if sectionHeaderRe.MatchString(t) && lower != "raises:" && lower != "raise:" {
			inSection = false
			continue
		}
		// Deprecation notes inside the section are not exceptions.
		if strings.HasPrefix(lower, "deprecated:") {
			continue
		}
		idx := strings.Index(t, ":")
		if idx <= 0 {
			continue
		}
		name := strings.TrimLeft(t[:idx], "-*+ \t")
		if exceptionNameRe.MatchString(name) {
			add(name)
		}
	}
	return names
}

// docstringDeprecated reports whether a docstring carries a deprecation
// note ("Deprecated: ..." line or a reST ".. deprecated::" directive).
func docstringDeprecated(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lower, "deprecated:") || strings.HasPrefix(lower, ".. deprecated::") {
			return true
		}
	}
	return false
}
