package webhook

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// sessionKey returns the conversation key of a source: the user id in
// one-to-one chats, the group or room id otherwise.
func sessionKey(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	default:
		return ""
	}
}

func userIDOf(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}
