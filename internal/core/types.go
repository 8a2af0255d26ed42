// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"strings"
)

// ProtocolType tags a protocol the encoder can dissect.
type ProtocolType uint8

const (
	ProtocolIPv4 ProtocolType = iota + 1
	ProtocolTCP
	ProtocolUDP
	ProtocolPayload
)

var protocolNames = map[ProtocolType]string{
	ProtocolIPv4:    "ipv4",
	ProtocolTCP:     "tcp",
	ProtocolUDP:     "udp",
	ProtocolPayload: "payload",
}

func (p ProtocolType) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// Valid reports whether p is one of the known protocols.
func (p ProtocolType) Valid() bool {
	_, ok := protocolNames[p]
	return ok
}

// ParseProtocol converts a protocol name such as "ipv4" (case-insensitive).
func ParseProtocol(name string) (ProtocolType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range protocolNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
}

// Stack is the ordered set of protocols a flow encodes.
// The order defines the layout of every vector produced for that flow.
type Stack []ProtocolType

// ParseStack parses a comma separated list such as "ipv4,tcp,udp".
// Empty elements are skipped; the result is not validated.
func ParseStack(s string) (Stack, error) {
	return ParseStackNames(strings.Split(s, ","))
}

// ParseStackNames parses protocol names in order.
func ParseStackNames(names []string) (Stack, error) {
	stack := make(Stack, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p, err := ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		stack = append(stack, p)
	}
	return stack, nil
}

// Validate rejects empty stacks, unknown protocols and duplicates.
func (s Stack) Validate() error {
	if len(s) == 0 {
		return ErrEmptyStack
	}
	seen := make(map[ProtocolType]struct{}, len(s))
	for _, p := range s {
		if !p.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownProtocol, p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProtocol, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Contains reports whether p is part of the stack.
func (s Stack) Contains(p ProtocolType) bool {
	for _, q := range s {
		if q == p {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the backing array.
func (s Stack) Clone() Stack {
	if s == nil {
		return nil
	}
	out := make(Stack, len(s))
	copy(out, s)
	return out
}

func (s Stack) String() string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.String()
	}
	return strings.Join(names, ",")
}
