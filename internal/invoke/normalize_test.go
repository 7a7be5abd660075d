package invoke

import (
	"reflect"
	"testing"
)

func TestNormalizeResponse_MessageDates(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"_":    "Message",
		"date": "2023-01-01 00:00:00",
		"text": "hi",
	}
	out, ok := NormalizeResponse(in).(map[string]any)
	if !ok {
		t.Fatalf("result = %T, want map", out)
	}
	if out["date"] != int64(1672531200) {
		t.Errorf("date = %v, want 1672531200", out["date"])
	}
	if out["text"] != "hi" {
		t.Errorf("text = %v, want hi", out["text"])
	}
}

func TestNormalizeResponse_NestedAndLists(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"_": "Message",
		"reply_to_message": map[string]any{
			"_":    "Message",
			"date": "2023-06-15 12:30:00",
		},
		"entities": []any{
			map[string]any{
				"_":    "Message",
				"date": "2023-01-01 00:00:00",
			},
		},
	}
	out := NormalizeResponse(in).(map[string]any)

	nested := out["reply_to_message"].(map[string]any)
	if _, ok := nested["date"].(int64); !ok {
		t.Errorf("nested date = %v (%T), want epoch int64", nested["date"], nested["date"])
	}
	elem := out["entities"].([]any)[0].(map[string]any)
	if elem["date"] != int64(1672531200) {
		t.Errorf("list element date = %v, want 1672531200", elem["date"])
	}
}

func TestNormalizeResponse_FromUserAlias(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"_":         "Message",
		"from_user": map[string]any{"_": "User", "id": float64(7)},
	}
	out := NormalizeResponse(in).(map[string]any)

	from, ok := out["from"].(map[string]any)
	if !ok {
		t.Fatalf("from = %T, want map", out["from"])
	}
	if from["id"] != float64(7) {
		t.Errorf("from.id = %v, want 7", from["id"])
	}
	if _, ok := out["from_user"]; !ok {
		t.Error("from_user should stay present alongside from")
	}
}

func TestNormalizeResponse_ChatPhoto(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"_":                     "ChatPhoto",
		"small_photo_unique_id": "abc",
		"big_photo_unique_id":   "def",
	}
	out := NormalizeResponse(in).(map[string]any)

	if out["small_file_unique_id"] != "abc" {
		t.Errorf("small_file_unique_id = %v, want abc", out["small_file_unique_id"])
	}
	if out["big_file_unique_id"] != "def" {
		t.Errorf("big_file_unique_id = %v, want def", out["big_file_unique_id"])
	}
}

func TestNormalizeResponse_Idempotent(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"_":    "Message",
		"date": "2023-01-01 00:00:00",
	}
	once := NormalizeResponse(in)
	twice := NormalizeResponse(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed the result: %#v vs %#v", once, twice)
	}
}

func TestNormalizeResponse_Passthrough(t *testing.T) {
	t.Parallel()

	if got := NormalizeResponse(true); got != true {
		t.Errorf("bool = %v, want true", got)
	}
	if got := NormalizeResponse("plain text"); got != "plain text" {
		t.Errorf("non-JSON string = %v, want untouched", got)
	}
	if got := NormalizeResponse(42); got != 42 {
		t.Errorf("int = %v, want untouched", got)
	}
}

func TestNormalizeResponse_JSONString(t *testing.T) {
	t.Parallel()

	out, ok := NormalizeResponse(`{"_":"Message","date":"2023-01-01 00:00:00"}`).(map[string]any)
	if !ok {
		t.Fatal("JSON string encoding a mapping should normalize to a map")
	}
	if out["date"] != int64(1672531200) {
		t.Errorf("date = %v, want 1672531200", out["date"])
	}
}
