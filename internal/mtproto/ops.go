package mtproto

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gotd/td/tg"
)

// operationSpecs is the static descriptor table for every operation the gotd
// client exposes, keyed by snake_case name. The invoker filters and coerces
// wire arguments against these declarations instead of introspecting call
// signatures at runtime.
var operationSpecs = map[string]OpSpec{
	"get_me": {Name: "get_me"},
	"send_message": {Name: "send_message", Params: []Param{
		{Name: "chat_id", Kind: KindInt64},
		{Name: "text", Kind: KindString},
		{Name: "parse_mode", Kind: KindString},
		{Name: "disable_web_page_preview", Kind: KindBool},
		{Name: "disable_notification", Kind: KindBool},
		{Name: "reply_to_message_id", Kind: KindInt},
		{Name: "reply_markup", Kind: KindMarkup},
	}},
	"edit_message_text": {Name: "edit_message_text", Params: []Param{
		{Name: "chat_id", Kind: KindInt64},
		{Name: "message_id", Kind: KindInt},
		{Name: "text", Kind: KindString},
		{Name: "disable_web_page_preview", Kind: KindBool},
		{Name: "reply_markup", Kind: KindMarkup},
	}},
	"delete_messages": {Name: "delete_messages", Params: []Param{
		{Name: "chat_id", Kind: KindInt64},
		{Name: "message_ids", Kind: KindIntSlice},
		{Name: "revoke", Kind: KindBool},
	}},
	"forward_messages": {Name: "forward_messages", Params: []Param{
		{Name: "chat_id", Kind: KindInt64},
		{Name: "from_chat_id", Kind: KindInt64},
		{Name: "message_ids", Kind: KindIntSlice},
		{Name: "disable_notification", Kind: KindBool},
	}},
	"send_chat_action": {Name: "send_chat_action", Params: []Param{
		{Name: "chat_id", Kind: KindInt64},
		{Name: "action", Kind: KindString},
	}},
	"answer_callback_query": {Name: "answer_callback_query", Params: []Param{
		{Name: "callback_query_id", Kind: KindString},
		{Name: "text", Kind: KindString},
		{Name: "show_alert", Kind: KindBool},
		{Name: "cache_time", Kind: KindInt},
	}},
	"send_dice": {Name: "send_dice", Params: []Param{
		{Name: "chat_id", Kind: KindInt64},
		{Name: "emoji", Kind: KindString},
		{Name: "disable_notification", Kind: KindBool},
	}},
}

type opFunc func(ctx context.Context, c *gotdClient, args map[string]any) (any, error)

var operationFuncs = map[string]opFunc{
	"get_me":                opGetMe,
	"send_message":          opSendMessage,
	"edit_message_text":     opEditMessageText,
	"delete_messages":       opDeleteMessages,
	"forward_messages":      opForwardMessages,
	"send_chat_action":      opSendChatAction,
	"answer_callback_query": opAnswerCallbackQuery,
	"send_dice":             opSendDice,
}

func opGetMe(_ context.Context, c *gotdClient, _ map[string]any) (any, error) {
	self := c.selfUser()
	body := map[string]any{
		"_":      "User",
		"id":     self.ID,
		"is_bot": self.Bot,
	}
	if firstName, ok := self.GetFirstName(); ok {
		body["first_name"] = firstName
	}
	if username, ok := self.GetUsername(); ok {
		body["username"] = username
	}
	return body, nil
}

func opSendMessage(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	chatID, err := argInt64(args, "chat_id")
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.resolve(chatID)
	if err != nil {
		return nil, err
	}
	text, _ := args["text"].(string)

	req := &tg.MessagesSendMessageRequest{
		Peer:      peer,
		Message:   text,
		NoWebpage: argBool(args, "disable_web_page_preview"),
		Silent:    argBool(args, "disable_notification"),
	}
	if replyTo, ok := argInt(args, "reply_to_message_id"); ok {
		req.ReplyTo = &tg.InputReplyToMessage{ReplyToMsgID: replyTo}
	}
	if markup, ok := args["reply_markup"].(ReplyMarkup); ok && !markup.Empty() {
		req.ReplyMarkup = markup.asTG()
	}
	randomID, err := randInt64(c)
	if err != nil {
		return nil, err
	}
	req.RandomID = randomID

	updates, err := c.api.MessagesSendMessage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("send_message: %w", err)
	}
	messageID, err := sentMessageID(updates)
	if err != nil {
		return nil, fmt.Errorf("send_message: %w", err)
	}
	return c.sentMessageBody(messageID, chatID, text), nil
}

func opEditMessageText(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	chatID, err := argInt64(args, "chat_id")
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.resolve(chatID)
	if err != nil {
		return nil, err
	}
	messageID, ok := argInt(args, "message_id")
	if !ok {
		return nil, fmt.Errorf("edit_message_text: missing message_id")
	}
	text, _ := args["text"].(string)

	req := &tg.MessagesEditMessageRequest{
		Peer:      peer,
		ID:        messageID,
		Message:   text,
		NoWebpage: argBool(args, "disable_web_page_preview"),
	}
	if markup, ok := args["reply_markup"].(ReplyMarkup); ok && !markup.Empty() {
		req.ReplyMarkup = markup.asTG()
	}
	if _, err := c.api.MessagesEditMessage(ctx, req); err != nil {
		return nil, fmt.Errorf("edit_message_text: %w", err)
	}
	return c.sentMessageBody(messageID, chatID, text), nil
}

func opDeleteMessages(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	chatID, err := argInt64(args, "chat_id")
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.resolve(chatID)
	if err != nil {
		return nil, err
	}
	ids := argInts(args, "message_ids")
	if len(ids) == 0 {
		return nil, fmt.Errorf("delete_messages: missing message_ids")
	}
	if _, err := c.sender.To(peer).Revoke().Messages(ctx, ids...); err != nil {
		return nil, fmt.Errorf("delete_messages: %w", err)
	}
	return true, nil
}

func opForwardMessages(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	chatID, err := argInt64(args, "chat_id")
	if err != nil {
		return nil, err
	}
	toPeer, err := c.peers.resolve(chatID)
	if err != nil {
		return nil, err
	}
	fromChatID, err := argInt64(args, "from_chat_id")
	if err != nil {
		return nil, err
	}
	fromPeer, err := c.peers.resolve(fromChatID)
	if err != nil {
		return nil, err
	}
	ids := argInts(args, "message_ids")
	if len(ids) == 0 {
		return nil, fmt.Errorf("forward_messages: missing message_ids")
	}

	randomIDs := make([]int64, len(ids))
	for i := range randomIDs {
		id, err := randInt64(c)
		if err != nil {
			return nil, err
		}
		randomIDs[i] = id
	}
	_, err = c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer: fromPeer,
		ToPeer:   toPeer,
		ID:       ids,
		RandomID: randomIDs,
		Silent:   argBool(args, "disable_notification"),
	})
	if err != nil {
		return nil, fmt.Errorf("forward_messages: %w", err)
	}
	return true, nil
}

func opSendChatAction(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	chatID, err := argInt64(args, "chat_id")
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.resolve(chatID)
	if err != nil {
		return nil, err
	}
	action, _ := args["action"].(string)
	_, err = c.api.MessagesSetTyping(ctx, &tg.MessagesSetTypingRequest{
		Peer:   peer,
		Action: chatAction(action),
	})
	if err != nil {
		return nil, fmt.Errorf("send_chat_action: %w", err)
	}
	return true, nil
}

func opAnswerCallbackQuery(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	rawID, _ := args["callback_query_id"].(string)
	queryID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("answer_callback_query: invalid callback_query_id %q", rawID)
	}
	req := &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: queryID,
		Alert:   argBool(args, "show_alert"),
	}
	if text, ok := args["text"].(string); ok && text != "" {
		req.SetMessage(text)
	}
	if cacheTime, ok := argInt(args, "cache_time"); ok {
		req.CacheTime = cacheTime
	}
	if _, err := c.api.MessagesSetBotCallbackAnswer(ctx, req); err != nil {
		return nil, fmt.Errorf("answer_callback_query: %w", err)
	}
	return true, nil
}

func opSendDice(ctx context.Context, c *gotdClient, args map[string]any) (any, error) {
	chatID, err := argInt64(args, "chat_id")
	if err != nil {
		return nil, err
	}
	peer, err := c.peers.resolve(chatID)
	if err != nil {
		return nil, err
	}
	emoji, _ := args["emoji"].(string)
	if emoji == "" {
		emoji = "🎲"
	}
	randomID, err := randInt64(c)
	if err != nil {
		return nil, err
	}
	updates, err := c.api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
		Peer:     peer,
		Media:    &tg.InputMediaDice{Emoticon: emoji},
		RandomID: randomID,
		Silent:   argBool(args, "disable_notification"),
	})
	if err != nil {
		return nil, fmt.Errorf("send_dice: %w", err)
	}
	messageID, err := sentMessageID(updates)
	if err != nil {
		return nil, fmt.Errorf("send_dice: %w", err)
	}
	return c.sentMessageBody(messageID, chatID, ""), nil
}

// sentMessageBody synthesizes the native mapping for a message this session
// just sent. MTProto acks carry only the id, so the rest is rebuilt locally.
func (c *gotdClient) sentMessageBody(messageID int, chatID int64, text string) map[string]any {
	self := c.selfUser()
	body := map[string]any{
		"_":    "Message",
		"id":   messageID,
		"date": time.Now().UTC().Format(nativeTimeFormat),
		"chat": map[string]any{"_": "Chat", "id": chatID},
		"from_user": map[string]any{
			"_":      "User",
			"id":     self.ID,
			"is_bot": true,
		},
	}
	if text != "" {
		body["text"] = text
	}
	return body
}

func chatAction(action string) tg.SendMessageActionClass {
	switch action {
	case "upload_photo":
		return &tg.SendMessageUploadPhotoAction{}
	case "record_video":
		return &tg.SendMessageRecordVideoAction{}
	case "upload_video":
		return &tg.SendMessageUploadVideoAction{Progress: 0}
	case "record_voice":
		return &tg.SendMessageRecordAudioAction{}
	case "upload_voice":
		return &tg.SendMessageUploadAudioAction{Progress: 0}
	case "upload_document":
		return &tg.SendMessageUploadDocumentAction{Progress: 0}
	case "choose_sticker":
		return &tg.SendMessageChooseStickerAction{}
	case "find_location":
		return &tg.SendMessageGeoLocationAction{}
	case "cancel":
		return &tg.SendMessageCancelAction{}
	default:
		return &tg.SendMessageTypingAction{}
	}
}

func randInt64(c *gotdClient) (int64, error) {
	id, err := randCryptoInt64(c.rand)
	if err != nil {
		return 0, fmt.Errorf("random id: %w", err)
	}
	return id, nil
}

// argInt64 reads an int64 argument, tolerating the narrower int the coercion
// layer produces for values that fit.
func argInt64(args map[string]any, name string) (int64, error) {
	switch v := args[name].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("missing or invalid %s", name)
	}
}

func argInt(args map[string]any, name string) (int, bool) {
	switch v := args[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

func argBool(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

func argInts(args map[string]any, name string) []int {
	v, _ := args[name].([]int)
	return v
}
