package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientMessage    MessageType = "client_message"
	TypeAssistantMessage MessageType = "assistant_message"
	TypeSystemEvent      MessageType = "system_event"
	TypeErrorEvent       MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientMessage carries one user utterance into the resolver.
type ClientMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	Text      string      `json:"text"`
	TSMs      int64       `json:"ts_ms"`
}

// AssistantMessage carries the resolved answer back to the client.
type AssistantMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	TurnID    string      `json:"turn_id"`
	Text      string      `json:"text"`
	Source    string      `json:"source"`
	TSMs      int64       `json:"ts_ms"`
}

// SystemEvent signals lifecycle changes (session ended, memory reset).
type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Event     string      `json:"event"`
}

// ErrorEvent reports a protocol-level problem; resolver failures never arrive
// here, they degrade to an AssistantMessage.
type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
}

// Decode parses a raw websocket frame into one of the typed messages.
func Decode(data []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeClientMessage:
		var m ClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode client_message: %w", err)
		}
		return m, nil
	case TypeAssistantMessage:
		var m AssistantMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode assistant_message: %w", err)
		}
		return m, nil
	case TypeSystemEvent:
		var m SystemEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode system_event: %w", err)
		}
		return m, nil
	case TypeErrorEvent:
		var m ErrorEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode error_event: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}
}
