// Package rolename holds the process-wide list of generic role mailbox names
// (admin, support, ...). The set is built once at init and only read afterwards.
package rolename

import (
	_ "embed"
	"strings"
)

//go:embed list.txt
var rawList string

var roles map[string]struct{}

func init() {
	roles = make(map[string]struct{})
	for _, line := range strings.Split(rawList, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			roles[strings.ToLower(line)] = struct{}{}
		}
	}
}

// Match reports whether local equals a role name or starts with "<role>.".
// Comparison is case-insensitive.
func Match(local string) bool {
	local = strings.ToLower(local)
	if _, ok := roles[local]; ok {
		return true
	}
	for i := 0; i < len(local); i++ {
		if local[i] != '.' {
			continue
		}
		if _, ok := roles[local[:i]]; ok {
			return true
		}
	}
	return false
}
