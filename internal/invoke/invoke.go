// Package invoke maps wire-named Bot API methods with loosely-typed string
// arguments onto typed operations of the underlying client. One generic call
// path serves the whole method surface: the target operation's descriptor
// decides which arguments survive and how they are coerced, so a missing
// required argument surfaces as whatever error the operation itself raises.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/grambridge/grambridge/internal/mtproto"
)

// Call resolves and executes the wire method against the client. Arguments
// arrive as raw strings from query/form parameters.
func Call(ctx context.Context, client mtproto.Client, method string, args map[string]string) (any, error) {
	raw := make(map[string]any, len(args)+1)
	for key, value := range args {
		raw[key] = value
	}

	method, raw, err := rewriteSpecialCases(method, raw)
	if err != nil {
		return nil, err
	}

	op := CamelToSnake(method)
	spec, ok := client.Operations()[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}

	normalized := NormalizeArgs(raw)

	coerced := make(map[string]any, len(spec.Params))
	for _, param := range spec.Params {
		value, ok := normalized[param.Name]
		if !ok {
			continue // declared but not supplied: the operation defaults it
		}
		typed, ok, err := coerce(value, param.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadArgument, param.Name, err)
		}
		if ok {
			coerced[param.Name] = typed
		}
	}
	// Supplied arguments with no matching parameter are dropped here.

	return client.Invoke(ctx, op, coerced)
}

// rewriteSpecialCases handles the two wire methods whose underlying
// operations are plural bulk calls: the single message_id argument becomes a
// one-element message_ids list.
func rewriteSpecialCases(method string, args map[string]any) (string, map[string]any, error) {
	switch method {
	case "deleteMessage", "forwardMessage":
		raw, ok := args["message_id"].(string)
		if !ok {
			return "", nil, fmt.Errorf("%w: message_id: missing", ErrBadArgument)
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return "", nil, fmt.Errorf("%w: message_id: %v", ErrBadArgument, err)
		}
		args["message_ids"] = []int{id}
		return method + "s", args, nil
	default:
		return method, args, nil
	}
}

// coerce converts value to the declared parameter kind. The middle return is
// false when the argument should be silently omitted (an empty markup).
func coerce(value any, kind mtproto.ParamKind) (any, bool, error) {
	switch kind {
	case mtproto.KindString:
		switch v := value.(type) {
		case string:
			return v, true, nil
		case int:
			return strconv.Itoa(v), true, nil
		case int64:
			return strconv.FormatInt(v, 10), true, nil
		default:
			return fmt.Sprint(v), true, nil
		}

	case mtproto.KindInt:
		n, err := toInt64(value)
		if err != nil {
			return nil, false, err
		}
		return int(n), true, nil

	case mtproto.KindInt64:
		n, err := toInt64(value)
		if err != nil {
			return nil, false, err
		}
		return n, true, nil

	case mtproto.KindFloat:
		switch v := value.(type) {
		case float64:
			return v, true, nil
		case int:
			return float64(v), true, nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, false, err
			}
			return f, true, nil
		default:
			return nil, false, fmt.Errorf("cannot convert %T to float", value)
		}

	case mtproto.KindBool:
		switch v := value.(type) {
		case bool:
			return v, true, nil
		case int:
			return v != 0, true, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, false, err
			}
			return b, true, nil
		default:
			return nil, false, fmt.Errorf("cannot convert %T to bool", value)
		}

	case mtproto.KindIntSlice:
		switch v := value.(type) {
		case []int:
			return v, true, nil
		case int:
			return []int{v}, true, nil
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return []int{n}, true, nil
			}
			var ids []int
			if err := json.Unmarshal([]byte(v), &ids); err != nil {
				return nil, false, fmt.Errorf("cannot parse %q as id list", v)
			}
			return ids, true, nil
		default:
			return nil, false, fmt.Errorf("cannot convert %T to id list", value)
		}

	case mtproto.KindMarkup:
		switch v := value.(type) {
		case mtproto.ReplyMarkup:
			return v, true, nil
		case map[string]any:
			// Empty keyboard after normalization: omit the argument.
			return nil, false, nil
		default:
			return nil, false, fmt.Errorf("cannot convert %T to reply markup", value)
		}

	default:
		return nil, false, fmt.Errorf("unknown parameter kind %d", kind)
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}
