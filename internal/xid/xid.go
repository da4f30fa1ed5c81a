package xid

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const (
	StrategySnowflake = "snowflake"
	StrategyUUID      = "uuid"
)

// Allocator hands out unique, prefixed identifiers.
type Allocator interface {
	New(prefix string) string
}

type SnowflakeAllocator struct {
	node *snowflake.Node
}

func NewSnowflake(nodeID int64) (*SnowflakeAllocator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeAllocator{node: node}, nil
}

func (a *SnowflakeAllocator) New(prefix string) string {
	return join(prefix, a.node.Generate().String())
}

type UUIDAllocator struct{}

func (UUIDAllocator) New(prefix string) string {
	return join(prefix, uuid.NewString())
}

// Sequence yields prefix-1, prefix-2, ... per prefix. Used by tests that need stable ids.
type Sequence struct {
	mu    sync.Mutex
	count map[string]int
}

func NewSequence() *Sequence {
	return &Sequence{count: make(map[string]int)}
}

func (s *Sequence) New(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count[prefix]++
	return fmt.Sprintf("%s-%d", prefix, s.count[prefix])
}

// FromStrategy builds the allocator named by strategy; unknown names fall back to snowflake.
func FromStrategy(strategy string, nodeID int64) (Allocator, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case StrategyUUID:
		return UUIDAllocator{}, nil
	default:
		return NewSnowflake(nodeID)
	}
}

func join(prefix string, id string) string {
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
