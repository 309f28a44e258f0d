package parley

import "time"

// Turn is one role-tagged unit of a conversation history.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// SystemTurn returns the persona turn that opens every history.
func SystemTurn(prompt string) Turn {
	return Turn{Role: RoleSystem, Content: prompt, Timestamp: time.Now()}
}

// UserTurn returns a turn authored by the client.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// AssistantTurn returns a turn generated by a provider.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}
