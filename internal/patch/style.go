package patch

import (
	"strings"
	"unicode"
)

type declaration struct {
	property string
	value    string
}

// cssPropertyName converts camelCase names such as backgroundColor into
// background-color. Custom properties are left untouched.
func cssPropertyName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		return name
	}
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitDeclarations splits on ';' outside parentheses and quotes.
func splitDeclarations(style string) []string {
	var parts []string
	depth := 0
	var quote rune
	last := 0
	for i, r := range style {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			parts = append(parts, style[last:i])
			last = i + 1
		}
	}
	return append(parts, style[last:])
}

func parseStyle(style string) []declaration {
	var decls []declaration
	for _, part := range splitDeclarations(style) {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{property: prop, value: value})
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.property+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// setStyleProperty sets one property in an inline style attribute,
// keeping declaration order. An empty value removes the property.
func setStyleProperty(style, property, value string) string {
	property = cssPropertyName(property)
	value = strings.TrimSpace(value)

	decls := parseStyle(style)
	out := decls[:0]
	found := false
	for _, d := range decls {
		if d.property != property {
			out = append(out, d)
			continue
		}
		if found || value == "" {
			continue
		}
		d.value = value
		out = append(out, d)
		found = true
	}
	if !found && value != "" {
		out = append(out, declaration{property: property, value: value})
	}
	return formatStyle(out)
}
