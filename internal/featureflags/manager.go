// Package featureflags evaluates rollout flags from configuration.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// flagValue is a parsed flag: either a fixed boolean or a percentage
// rollout bucketing users deterministically.
type flagValue struct {
	enabled bool
	percent int
	rollout bool
}

// Manager evaluates feature flags parsed from a comma-separated
// "name=value" list, e.g. "live_typing=on,new_composer=25%,legacy_sort=off".
type Manager struct {
	flags map[string]flagValue
	raw   map[string]string
}

// NewManager parses the flag list. Malformed pairs are skipped rather than
// rejected so a typo in one flag cannot take the config down.
func NewManager(spec string) *Manager {
	m := &Manager{
		flags: make(map[string]flagValue),
		raw:   make(map[string]string),
	}

	for _, pair := range strings.Split(spec, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = normalize(name)
		value = normalize(value)
		if name == "" || value == "" {
			continue
		}
		parsed, ok := parseValue(value)
		if !ok {
			continue
		}
		m.flags[name] = parsed
		m.raw[name] = value
	}

	return m
}

func parseValue(value string) (flagValue, bool) {
	switch value {
	case "on", "true", "1":
		return flagValue{enabled: true}, true
	case "off", "false", "0":
		return flagValue{}, true
	}
	if pct, ok := strings.CutSuffix(value, "%"); ok {
		n, err := strconv.Atoi(pct)
		if err != nil {
			return flagValue{}, false
		}
		return flagValue{percent: n, rollout: true}, true
	}
	return flagValue{}, false
}

// Enabled reports whether the named flag is on for the given user. Unknown
// flags are off. Percentage rollouts are deterministic per user and flag;
// userID 0 (no user) never falls inside a partial rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	v, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}
	if !v.rollout {
		return v.enabled
	}
	if v.percent <= 0 {
		return false
	}
	if v.percent >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < v.percent
}

// Raw returns a copy of the parsed flag spec.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.raw))
	for k, v := range m.raw {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
