package quizchat

import "context"

const (
	chatMaxTokens   = 256
	chatTemperature = 0.7
)

// NormalizeHistory flattens a loosely shaped conversation history into
// role/content turns. The presentation layer hands back either completed
// user/assistant pairs or already-tagged records, and after a round trip
// through JSON those arrive as generic slices and maps. Entries of any
// other shape are skipped, never an error.
func NormalizeHistory(raw []any) []ChatTurn {
	turns := make([]ChatTurn, 0, len(raw)*2)
	for _, entry := range raw {
		switch v := entry.(type) {
		case PairedTurn:
			turns = append(turns,
				ChatTurn{Role: RoleUser, Content: v.User},
				ChatTurn{Role: RoleAssistant, Content: v.Assistant})
		case ChatTurn:
			if v.Role != "" {
				turns = append(turns, v)
			}
		case [2]string:
			turns = append(turns,
				ChatTurn{Role: RoleUser, Content: v[0]},
				ChatTurn{Role: RoleAssistant, Content: v[1]})
		case []string:
			if len(v) == 2 {
				turns = append(turns,
					ChatTurn{Role: RoleUser, Content: v[0]},
					ChatTurn{Role: RoleAssistant, Content: v[1]})
			}
		case []any:
			if len(v) != 2 {
				continue
			}
			user, uok := v[0].(string)
			assistant, aok := v[1].(string)
			if uok && aok {
				turns = append(turns,
					ChatTurn{Role: RoleUser, Content: user},
					ChatTurn{Role: RoleAssistant, Content: assistant})
			}
		case map[string]string:
			if v["role"] != "" {
				turns = append(turns, ChatTurn{Role: v["role"], Content: v["content"]})
			}
		case map[string]any:
			role, _ := v["role"].(string)
			content, _ := v["content"].(string)
			if role != "" {
				turns = append(turns, ChatTurn{Role: role, Content: content})
			}
		}
	}
	return turns
}

// Chat runs one conversational turn: the normalized history plus the
// current message, completed by the gateway.
func Chat(ctx context.Context, gw Gateway, message string, history []any) (string, error) {
	turns := NormalizeHistory(history)
	turns = append(turns, ChatTurn{Role: RoleUser, Content: message})
	return gw.Generate(ctx, turns, chatMaxTokens, chatTemperature)
}
