package tui

import (
	"strconv"
	"strings"
)

type command struct {
	name string
	args []string
}

// parseCommand splits "/name rest". Commands that take free text split the
// rest on "|"; the others split on whitespace.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	name, rest, _ := strings.Cut(line[1:], " ")
	cmd := command{name: strings.ToLower(name)}
	rest = strings.TrimSpace(rest)

	switch cmd.name {
	case "scene", "choice":
		if rest != "" {
			for _, part := range strings.Split(rest, "|") {
				cmd.args = append(cmd.args, strings.TrimSpace(part))
			}
		}
	case "scenes":
		if rest != "" {
			cmd.args = []string{rest}
		}
	case "draft":
		if rest != "" {
			id, hint, _ := strings.Cut(rest, " ")
			cmd.args = append(cmd.args, id)
			if hint = strings.TrimSpace(hint); hint != "" {
				cmd.args = append(cmd.args, hint)
			}
		}
	default:
		cmd.args = strings.Fields(rest)
	}
	return cmd, true
}

// arg returns the i-th argument or "".
func (c command) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

// parseChoice reads a 1-based option number.
func parseChoice(line string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
