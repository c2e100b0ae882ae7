package model

import (
	"strconv"
	"strings"
)

// FieldError is one violation attached to a field path such as "pdn.2.apn".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// FieldErrors is a tree of violations shaped like the part of a profile it
// annotates. Nodes are created on first access, so the tree only mirrors the
// record where something was reported. One tree is built per validation
// pass and owned by the caller.
type FieldErrors struct {
	messages  []string
	childKeys []string
	children  map[string]*FieldErrors
}

func NewFieldErrors() *FieldErrors {
	return &FieldErrors{}
}

// Child returns the node for key, creating it when needed.
func (node *FieldErrors) Child(key string) *FieldErrors {
	if node.children == nil {
		node.children = make(map[string]*FieldErrors)
	}
	child, exists := node.children[key]
	if !exists {
		child = &FieldErrors{}
		node.children[key] = child
		node.childKeys = append(node.childKeys, key)
	}
	return child
}

// Index returns the node for a sequence element.
func (node *FieldErrors) Index(index int) *FieldErrors {
	return node.Child(strconv.Itoa(index))
}

// At walks (and grows) the tree along path.
func (node *FieldErrors) At(path ...string) *FieldErrors {
	current := node
	for _, key := range path {
		current = current.Child(key)
	}
	return current
}

func (node *FieldErrors) IMSI() *FieldErrors { return node.Child(FieldIMSI) }

func (node *FieldErrors) PDN(index int) *FieldErrors { return node.Child(FieldPDN).Index(index) }

func (node *FieldErrors) APN() *FieldErrors { return node.Child(FieldAPN) }

// AddError appends a human-readable violation to this field.
func (node *FieldErrors) AddError(message string) {
	node.messages = append(node.messages, message)
}

// Lookup walks path without growing the tree. It returns nil when any step
// is missing.
func (node *FieldErrors) Lookup(path ...string) *FieldErrors {
	current := node
	for _, key := range path {
		if current == nil || current.children == nil {
			return nil
		}
		current = current.children[key]
	}
	return current
}

// Errors returns the messages attached directly to this node.
func (node *FieldErrors) Errors() []string {
	if node == nil || len(node.messages) == 0 {
		return nil
	}
	copied := make([]string, len(node.messages))
	copy(copied, node.messages)
	return copied
}

// HasErrors reports whether this node or any descendant carries a message.
func (node *FieldErrors) HasErrors() bool {
	return node.Count() > 0
}

// Count is the number of messages in the subtree.
func (node *FieldErrors) Count() int {
	if node == nil {
		return 0
	}
	total := len(node.messages)
	for _, key := range node.childKeys {
		total += node.children[key].Count()
	}
	return total
}

// Flatten lists every message depth-first, children in the order they were
// first touched and messages in the order they were added.
func (node *FieldErrors) Flatten() []FieldError {
	flattened := make([]FieldError, 0)
	node.flattenInto(nil, &flattened)
	return flattened
}

func (node *FieldErrors) flattenInto(path []string, flattened *[]FieldError) {
	if node == nil {
		return
	}
	joinedPath := strings.Join(path, ".")
	for _, message := range node.messages {
		*flattened = append(*flattened, FieldError{Path: joinedPath, Message: message})
	}
	for _, key := range node.childKeys {
		childPath := append(append(make([]string, 0, len(path)+1), path...), key)
		node.children[key].flattenInto(childPath, flattened)
	}
}
