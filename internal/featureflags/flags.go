// Package featureflags evaluates the FEATURE_FLAGS setting, e.g.
// "watermark=on,comment_moderation=off,new_sidebar=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags the blog reads.
const (
	// Watermark stamps uploaded editor images.
	Watermark = "watermark"
	// CommentModeration stores new comments hidden until an admin approves them.
	CommentModeration = "comment_moderation"
)

// defaults apply when FEATURE_FLAGS does not mention a known flag.
var defaults = map[string]string{
	Watermark:         "on",
	CommentModeration: "off",
}

// Manager holds the parsed flag values. It is immutable after NewManager.
type Manager struct {
	flags map[string]string
}

// State is a flag as reported to the admin UI.
type State struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// NewManager parses a comma-separated name=value list on top of the defaults.
// Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string, len(defaults))
	for k, v := range defaults {
		flags[k] = v
	}
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		flags[name] = value
	}
	return &Manager{flags: flags}
}

// Enabled reports whether name is on for userID. Values are on/true/1,
// off/false/0 or N% for a rollout bucketed by user id; anonymous callers
// (userID 0) only see fully rolled out flags.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < pct
}

// States lists every flag evaluated for userID, sorted by name.
func (m *Manager) States(userID uint) []State {
	if m == nil {
		return nil
	}
	out := make([]State, 0, len(m.flags))
	for name, value := range m.flags {
		out = append(out, State{Name: name, Value: value, Enabled: m.Enabled(name, userID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
