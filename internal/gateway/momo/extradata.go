package momo

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrExtraDataUndecodable is the soft, local decode failure: callers branch
// to their next identity source instead of propagating it.
var ErrExtraDataUndecodable = errors.New("extra_data_undecodable")

// ExtraData is the merchant-defined payload MoMo echoes back base64-encoded.
type ExtraData struct {
	OrderCode string
	OrderID   string
}

// DecodeExtraData base64-decodes and JSON-parses an extraData field. A
// malformed field is reported as ErrExtraDataUndecodable, never a panic or a
// wrapped parser error; "no identity from this source" is an expected branch.
func DecodeExtraData(raw string) (ExtraData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ExtraData{}, ErrExtraDataUndecodable
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(raw)
		if err != nil {
			return ExtraData{}, ErrExtraDataUndecodable
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return ExtraData{}, ErrExtraDataUndecodable
	}

	extra := ExtraData{
		OrderCode: stringField(payload, "orderCode"),
		OrderID:   stringField(payload, "orderId"),
	}
	if extra.OrderCode == "" && extra.OrderID == "" {
		return ExtraData{}, ErrExtraDataUndecodable
	}
	return extra, nil
}

func stringField(payload map[string]any, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", typed))
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}
