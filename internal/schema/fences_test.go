package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestStripFences_NoFence(t *testing.T) {
	cleaned, fenced := StripFences(`  {"id": "gate"}  `)
	assert.Equal(t, `{"id": "gate"}`, cleaned)
	assert.False(t, fenced)
}

func TestStripFences_JSONFence(t *testing.T) {
	raw := "```json\n{\"id\": \"gate\"}\n```"
	cleaned, fenced := StripFences(raw)
	assert.Equal(t, `{"id": "gate"}`, cleaned)
	assert.True(t, fenced)
}

func TestStripFences_BareFence(t *testing.T) {
	raw := "```\n{\"id\": \"gate\"}\n```"
	cleaned, fenced := StripFences(raw)
	assert.Equal(t, `{"id": "gate"}`, cleaned)
	assert.True(t, fenced)
}

func TestStripFences_LeadingProse(t *testing.T) {
	// Prose before the fence is not stripped; the parse diagnostic covers it.
	raw := "Here is the JSON you asked for:\n{\"id\": \"gate\"}"
	cleaned, fenced := StripFences(raw)
	assert.Equal(t, raw, cleaned)
	assert.False(t, fenced)
}

func TestStripFences_EmptyFence(t *testing.T) {
	cleaned, fenced := StripFences("```json")
	assert.Equal(t, "", cleaned)
	assert.True(t, fenced)
}

// TestStripFences_Property verifies that wrapping any fence-free payload in
// a json fence round-trips back to the payload.
func TestStripFences_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.StringMatching(`\{"[a-z]{1,8}": "[a-z0-9 ]{0,16}"\}`).Draw(rt, "payload")
		wrapped := "```json\n" + payload + "\n```"
		cleaned, fenced := StripFences(wrapped)
		assert.True(rt, fenced)
		assert.Equal(rt, payload, cleaned)

		// Stripping an unfenced payload is the identity.
		cleaned, fenced = StripFences(payload)
		assert.False(rt, fenced)
		assert.Equal(rt, payload, cleaned)
	})
}
