package mtproto

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gotd/td/tg"
)

// nativeTimeFormat is the human-readable timestamp format native object
// mappings carry. The response normalizer rewrites these to epoch seconds.
const nativeTimeFormat = "2006-01-02 15:04:05"

// updateAdapter implements telegram.UpdateHandler. It flattens gotd update
// containers, feeds the peer cache, and forwards the three event classes the
// bridge cares about. Everything else is dropped.
type updateAdapter struct {
	handler EventHandler
	peers   *peerCache
	logger  *slog.Logger
}

// Handle implements the gotd update handler contract. It runs on the client
// runtime goroutine, so the downstream EventHandler must not block.
func (a *updateAdapter) Handle(_ context.Context, updates tg.UpdatesClass) error {
	switch typed := updates.(type) {
	case *tg.Updates:
		a.handleBatch(typed.Updates, typed.Users, typed.Chats)
	case *tg.UpdatesCombined:
		a.handleBatch(typed.Updates, typed.Users, typed.Chats)
	case *tg.UpdateShortMessage:
		a.handleShortMessage(typed)
	case *tg.UpdateShortChatMessage:
		a.handleShortChatMessage(typed)
	default:
		// UpdatesTooLong and other containers carry nothing deliverable.
	}
	return nil
}

func (a *updateAdapter) handleBatch(updates []tg.UpdateClass, users []tg.UserClass, chats []tg.ChatClass) {
	usersByID := make(map[int64]*tg.User, len(users))
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			usersByID[user.ID] = user
			a.peers.rememberUser(user)
		}
	}
	for _, c := range chats {
		a.peers.rememberChat(c)
	}

	for _, update := range updates {
		switch typed := update.(type) {
		case *tg.UpdateNewMessage:
			a.emitMessage(typed.Message, usersByID, chats)
		case *tg.UpdateNewChannelMessage:
			a.emitMessage(typed.Message, usersByID, chats)
		case *tg.UpdateBotInlineQuery:
			a.emit(Event{Kind: EventInlineQuery, Body: inlineQueryBody(typed, usersByID)})
		case *tg.UpdateBotCallbackQuery:
			a.emit(Event{Kind: EventCallbackQuery, Body: callbackQueryBody(typed, usersByID)})
		}
	}
}

func (a *updateAdapter) handleShortMessage(update *tg.UpdateShortMessage) {
	if update.Out {
		return
	}
	msg := &tg.Message{
		ID:      update.ID,
		PeerID:  &tg.PeerUser{UserID: update.UserID},
		Date:    update.Date,
		Message: update.Message,
	}
	msg.SetFromID(&tg.PeerUser{UserID: update.UserID})
	a.emitMessage(msg, nil, nil)
}

func (a *updateAdapter) handleShortChatMessage(update *tg.UpdateShortChatMessage) {
	if update.Out {
		return
	}
	msg := &tg.Message{
		ID:      update.ID,
		PeerID:  &tg.PeerChat{ChatID: update.ChatID},
		Date:    update.Date,
		Message: update.Message,
	}
	msg.SetFromID(&tg.PeerUser{UserID: update.FromID})
	a.emitMessage(msg, nil, nil)
}

func (a *updateAdapter) emitMessage(message tg.MessageClass, usersByID map[int64]*tg.User, chats []tg.ChatClass) {
	msg, ok := message.(*tg.Message)
	if !ok || msg.Out {
		return
	}
	a.emit(Event{Kind: EventMessage, Body: messageBody(msg, usersByID, chats)})
}

func (a *updateAdapter) emit(event Event) {
	if a.handler == nil {
		return
	}
	a.handler(event)
}

// messageBody builds the native object mapping for one inbound message.
func messageBody(msg *tg.Message, usersByID map[int64]*tg.User, chats []tg.ChatClass) map[string]any {
	body := map[string]any{
		"_":    "Message",
		"id":   msg.ID,
		"date": formatNativeTime(msg.Date),
		"chat": chatBody(msg.PeerID, usersByID, chats),
	}
	if msg.Message != "" {
		body["text"] = msg.Message
	}
	if from, ok := msg.GetFromID(); ok {
		if peer, ok := from.(*tg.PeerUser); ok {
			body["from_user"] = userBody(peer.UserID, usersByID)
		}
	} else if peer, ok := msg.PeerID.(*tg.PeerUser); ok {
		body["from_user"] = userBody(peer.UserID, usersByID)
	}
	if editDate, ok := msg.GetEditDate(); ok {
		body["edit_date"] = formatNativeTime(editDate)
	}
	if fwd, ok := msg.GetFwdFrom(); ok && fwd.Date > 0 {
		body["forward_date"] = formatNativeTime(fwd.Date)
	}
	if reply, ok := msg.GetReplyTo(); ok {
		if header, ok := reply.(*tg.MessageReplyHeader); ok {
			if replyID, ok := header.GetReplyToMsgID(); ok {
				body["reply_to_message_id"] = replyID
			}
		}
	}
	return body
}

func inlineQueryBody(update *tg.UpdateBotInlineQuery, usersByID map[int64]*tg.User) map[string]any {
	return map[string]any{
		"_":         "InlineQuery",
		"id":        strconv.FormatInt(update.QueryID, 10),
		"from_user": userBody(update.UserID, usersByID),
		"query":     update.Query,
		"offset":    update.Offset,
	}
}

func callbackQueryBody(update *tg.UpdateBotCallbackQuery, usersByID map[int64]*tg.User) map[string]any {
	body := map[string]any{
		"_":             "CallbackQuery",
		"id":            strconv.FormatInt(update.QueryID, 10),
		"from_user":     userBody(update.UserID, usersByID),
		"chat_instance": strconv.FormatInt(update.ChatInstance, 10),
		"message_id":    update.MsgID,
		"chat_id":       botAPIChatID(update.Peer),
	}
	if data, ok := update.GetData(); ok {
		body["data"] = string(data)
	}
	return body
}

func userBody(userID int64, usersByID map[int64]*tg.User) map[string]any {
	body := map[string]any{
		"_":  "User",
		"id": userID,
	}
	user, ok := usersByID[userID]
	if !ok {
		return body
	}
	body["is_bot"] = user.Bot
	if firstName, ok := user.GetFirstName(); ok {
		body["first_name"] = firstName
	}
	if lastName, ok := user.GetLastName(); ok {
		body["last_name"] = lastName
	}
	if username, ok := user.GetUsername(); ok {
		body["username"] = username
	}
	return body
}

func chatBody(peer tg.PeerClass, usersByID map[int64]*tg.User, chats []tg.ChatClass) map[string]any {
	body := map[string]any{
		"_":  "Chat",
		"id": botAPIChatID(peer),
	}
	switch typed := peer.(type) {
	case *tg.PeerUser:
		body["type"] = "private"
		if user, ok := usersByID[typed.UserID]; ok {
			if firstName, ok := user.GetFirstName(); ok {
				body["first_name"] = firstName
			}
			if username, ok := user.GetUsername(); ok {
				body["username"] = username
			}
		}
	case *tg.PeerChat:
		body["type"] = "group"
		if chat := findChat(chats, typed.ChatID); chat != nil {
			body["title"] = chat.Title
		}
	case *tg.PeerChannel:
		body["type"] = "supergroup"
		if channel := findChannel(chats, typed.ChannelID); channel != nil {
			if channel.Broadcast {
				body["type"] = "channel"
			}
			body["title"] = channel.Title
			if username, ok := channel.GetUsername(); ok {
				body["username"] = username
			}
		}
	}
	return body
}

func findChat(chats []tg.ChatClass, id int64) *tg.Chat {
	for _, c := range chats {
		if chat, ok := c.(*tg.Chat); ok && chat.ID == id {
			return chat
		}
	}
	return nil
}

func findChannel(chats []tg.ChatClass, id int64) *tg.Channel {
	for _, c := range chats {
		if channel, ok := c.(*tg.Channel); ok && channel.ID == id {
			return channel
		}
	}
	return nil
}

func formatNativeTime(epoch int) string {
	return time.Unix(int64(epoch), 0).UTC().Format(nativeTimeFormat)
}
