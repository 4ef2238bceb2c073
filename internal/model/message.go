package model

import "time"

// Sender identifies who authored a Message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry of a conversation.  Messages are created on every
// send and every reply and never change afterwards.
//
// Fields:
//
//	ID        – opaque unique token (UUIDv7, creation-ordered).
//	Seq       – position in the conversation, starting at 1.
//	Text      – what was said.
//	Sender    – user or assistant.
//	Timestamp – creation time.
type Message struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// FromUser reports whether the message was typed or spoken by the visitor.
func (m Message) FromUser() bool { return m.Sender == SenderUser }
