package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLanguageForCode(t *testing.T) {
	cases := []struct {
		code string
		want Language
		ok   bool
	}{
		{"hi", Hindi, true},
		{"gu", Gujarati, true},
		{"en", English, true},
		{"mr", English, false},
		{"fr", English, false},
		{"", English, false},
		{"HI", English, false},
	}
	for _, tc := range cases {
		got, ok := LanguageForCode(tc.code)
		require.Equal(t, tc.want, got, "code=%q", tc.code)
		require.Equal(t, tc.ok, ok, "code=%q", tc.code)
	}
}

func TestSupportedLanguages(t *testing.T) {
	require.Equal(t, []Language{Hindi, Gujarati, English}, SupportedLanguages())
}

func TestTurn_ToChatMessage(t *testing.T) {
	require.Equal(t, ChatMessage{Role: RoleAssistant, Content: "hello"}, Turn{Role: "agent", Content: "hello"}.ToChatMessage())
	require.Equal(t, ChatMessage{Role: RoleUser, Content: "hi"}, Turn{Role: "user", Content: "hi"}.ToChatMessage())
	require.Equal(t, ChatMessage{Role: RoleUser, Content: "x"}, Turn{Role: "system", Content: "x"}.ToChatMessage())
	require.Equal(t, ChatMessage{Role: RoleUser, Content: ""}, Turn{}.ToChatMessage())
}
