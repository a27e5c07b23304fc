package chat

import (
	"strings"

	"github.com/ashureev/recovery-coach/internal/domain"
)

// crisisKeywords are matched as lowercase substrings. Paraphrases are not
// caught and innocent uses are; both are accepted.
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"want to die",
	"overdose",
}

// CrisisMessage is returned instead of a model reply when a crisis keyword
// is detected.
const CrisisMessage = "I'm really concerned about what you're sharing. Please reach out to someone who can help right now:\n\n" +
	"🆘 National Suicide Prevention Lifeline: 988\n" +
	"📱 Crisis Text Line: Text HOME to 741741\n" +
	"🚨 Emergency Services: 911\n\n" +
	"You deserve immediate support from trained crisis professionals. Please contact them right now. Your life matters."

// LastUserMessage returns the content of the most recent user turn.
func LastUserMessage(messages []domain.ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}

// DetectCrisis reports whether the most recent user turn contains a crisis
// keyword, and which one.
func DetectCrisis(messages []domain.ChatMessage) (string, bool) {
	content, ok := LastUserMessage(messages)
	if !ok {
		return "", false
	}
	lower := strings.ToLower(content)
	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
