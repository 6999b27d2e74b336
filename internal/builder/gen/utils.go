package gen

import "strings"

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// listVar renders a make variable holding vals, one per continuation line.
// An empty list renders to nothing.
func listVar(name string, vals []string, appendTo bool) string {
	if len(vals) == 0 {
		return ""
	}
	op := " = "
	if appendTo {
		op = " += "
	}
	if len(vals) == 1 {
		return name + op + vals[0] + "\n"
	}
	return name + op + "\\\n    " + strings.Join(vals, " \\\n    ") + "\n"
}

// canonicalize turns a path into an Automake variable prefix
func canonicalize(name string) string {
	var sb strings.Builder
	for _, c := range name {
		if c == '_' || c == '@' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			sb.WriteRune(c)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
