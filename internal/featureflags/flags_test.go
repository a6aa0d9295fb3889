package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	t.Parallel()
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,all=100%,none=0%,junk=maybe")

	tests := []struct {
		flag string
		want bool
	}{
		{"a", true},
		{"b", false},
		{"c", true},
		{"d", false},
		{"e", true},
		{"f", false},
		{"all", true},
		{"none", false},
		{"junk", false},
		{"missing", false},
		{" A ", true},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Enabled(tt.flag, 7))
		})
	}
}

func TestEnabled_Rollout(t *testing.T) {
	t.Parallel()
	m := NewManager("canary=25%")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0))

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			on++
		}
	}
	assert.InDelta(t, 250, on, 80)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	m := NewManager("")
	assert.True(t, m.Enabled(Watermark, 0))
	assert.False(t, m.Enabled(CommentModeration, 0))

	m = NewManager("watermark=off, comment_moderation = on ,bad")
	assert.False(t, m.Enabled(Watermark, 0))
	assert.True(t, m.Enabled(CommentModeration, 0))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(Watermark, 0))
}

func TestStates(t *testing.T) {
	t.Parallel()
	states := NewManager("zeta=on").States(1)
	require.Len(t, states, 3)
	assert.Equal(t, State{Name: CommentModeration, Value: "off", Enabled: false}, states[0])
	assert.Equal(t, State{Name: Watermark, Value: "on", Enabled: true}, states[1])
	assert.Equal(t, "zeta", states[2].Name)
}
