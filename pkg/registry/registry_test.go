package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyRegistry_Lookup(t *testing.T) {
	reg := Default()

	tests := []struct {
		name  string
		input string
		id    string
	}{
		{"exact", "Hello!", "greeting"},
		{"exact multi word", "thank you.", "thanks"},
		{"partial prefers longest pattern", "ok hello there friend", "greeting"},
		{"partial on word boundary", "well thanks a lot", "thanks"},
		{"help question", "so what can you do?", "help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, responseFor(t, reg, tt.id), reg.Lookup(tt.input))
		})
	}

	assert.Equal(t, reg.Default, reg.Lookup("hmm"))
	assert.Equal(t, reg.Default, reg.Lookup("thigh"), "patterns must match whole words")
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "2",
		"replies": [{"id": "yo", "patterns": ["yo"], "response": "Yo!"}]
	}`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "Yo!", reg.Lookup("yo"))
	assert.NotEmpty(t, reg.Default)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func responseFor(t *testing.T, reg *ReplyRegistry, id string) string {
	t.Helper()
	for _, r := range reg.Replies {
		if r.ID == id {
			return r.Response
		}
	}
	t.Fatalf("no reply %s", id)
	return ""
}

func TestReplyRegistry_AddRemove(t *testing.T) {
	reg := Default()
	n := len(reg.Replies)

	require.NoError(t, reg.Add(CannedReply{ID: "yo", Patterns: []string{"yo"}, Response: "Yo!"}))
	assert.Len(t, reg.Replies, n+1)
	assert.NotEmpty(t, reg.LastUpdated)
	assert.Equal(t, "Yo!", reg.Lookup("yo!"))

	assert.Error(t, reg.Add(CannedReply{ID: "yo", Patterns: []string{"sup"}, Response: "Sup"}))

	require.NoError(t, reg.Remove("yo"))
	assert.Len(t, reg.Replies, n)
	assert.Error(t, reg.Remove("yo"))
}

func TestReplyRegistry_Validate(t *testing.T) {
	require.NoError(t, Default().Validate())

	tests := []struct {
		name    string
		replies []CannedReply
	}{
		{"empty", nil},
		{"missing id", []CannedReply{{Patterns: []string{"hi"}, Response: "Hi"}}},
		{"duplicate id", []CannedReply{
			{ID: "a", Patterns: []string{"hi"}, Response: "Hi"},
			{ID: "a", Patterns: []string{"hey"}, Response: "Hey"},
		}},
		{"missing response", []CannedReply{{ID: "a", Patterns: []string{"hi"}}}},
		{"no patterns", []CannedReply{{ID: "a", Response: "Hi"}}},
		{"blank pattern", []CannedReply{{ID: "a", Patterns: []string{" ?! "}, Response: "Hi"}}},
		{"pattern claimed twice", []CannedReply{
			{ID: "a", Patterns: []string{"hi"}, Response: "Hi"},
			{ID: "b", Patterns: []string{"Hi!"}, Response: "Hey"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ReplyRegistry{Replies: tt.replies}
			assert.Error(t, reg.Validate())
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "replies.json")
	reg := Default()

	require.NoError(t, Save(reg, path))
	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Replies, loaded.Replies)
	assert.Equal(t, reg.Default, loaded.Default)
}
