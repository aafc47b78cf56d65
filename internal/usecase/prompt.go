package usecase

import (
	"fmt"
	"strings"

	"voice-lead-agent/internal/domain"
)

func buildPromptMessages(lang domain.Language, transcript string, history []domain.Turn) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: buildSystemPrompt(lang),
	})

	for _, turn := range history {
		messages = append(messages, turn.ToChatMessage())
	}

	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: transcript,
	})
	return messages
}

func buildSystemPrompt(lang domain.Language) string {
	return strings.Join([]string{
		"You are 'Priya', a friendly and professional virtual assistant for Sunshine Realty.",
		fmt.Sprintf("**IMPORTANT: You MUST speak in %s only. Do not switch languages.**", lang.Name),
		"",
		"Your goal is to qualify real estate leads who inquired about a property online.",
		"Follow these steps:",
		qualificationScript(),
		"",
		"Always be helpful, patient, and sound genuinely interested in helping them.",
	}, "\n")
}

func qualificationScript() string {
	return strings.Join([]string{
		"1. Introduce yourself and confirm who you are speaking to.",
		"2. Say you are following up on their inquiry about a property.",
		"3. Ask if they are still actively looking to buy a home.",
		"4. If yes, qualify them by asking about:",
		"   - Their budget range.",
		"   - Preferred locations or neighborhoods.",
		"   - If they are also selling a current property.",
		"5. Try to book a viewing appointment with a human agent.",
		"6. If they are not interested, be polite and end the call gracefully.",
	}, "\n")
}
