// Package feed holds the conversation data model and the windowed message
// feed: a bounded, contiguous view over the full ordered message list that
// lets an infinite-scroll UI mount only the most recent slice of a long
// conversation.
package feed

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status tracks the lifecycle of a message or block.
type Status string

const (
	StatusPending     Status = "pending"
	StatusStreaming   Status = "streaming"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"
	StatusInterrupted Status = "interrupted"
)

// Terminal reports whether the status admits no further delta application.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusInterrupted
}

// BlockType identifies the kind of content a block carries.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockThinking BlockType = "thinking"
	BlockTool     BlockType = "tool"
	BlockCitation BlockType = "citation"
)

// Block is an ordered content unit within a message. Content is append-only
// while the block is streaming and immutable once the block is terminal.
type Block struct {
	ID        string
	MessageID string
	Type      BlockType
	Content   string
	Status    Status
	Seq       int
}

// Message is a single conversation entry. CreatedAt defines canonical display
// order; messages are never re-sorted by activity.
type Message struct {
	ID        string
	SessionID string
	Role      Role
	Status    Status
	CreatedAt time.Time
	Seq       int
	BlockIDs  []string
}

// NewMessage creates a pending message with a fresh ID.
func NewMessage(sessionID string, role Role) *Message {
	return &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// NewBlock creates a pending block attached to the given message.
func NewBlock(messageID string, typ BlockType, seq int) *Block {
	return &Block{
		ID:        uuid.NewString(),
		MessageID: messageID,
		Type:      typ,
		Status:    StatusPending,
		Seq:       seq,
	}
}
