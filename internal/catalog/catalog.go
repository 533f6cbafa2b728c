// Package catalog holds the registry of REST API operations the assistant
// can describe and invoke on the user's behalf.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rowandev/apilot/internal/provider"
)

// Parameter describes one operation parameter.
type Parameter struct {
	Name        string `json:"name"`
	In          string `json:"in"` // path|query|body
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Operation is one invokable API operation.
type Operation struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	BaseURL     string            `json:"base_url"`
	Parameters  []Parameter       `json:"parameters,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Catalog is a named registry of operations.
type Catalog struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{ops: make(map[string]Operation)}
}

// Register adds or replaces an operation. Names must be unique.
func (c *Catalog) Register(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("operation name is required")
	}
	if op.Method == "" || op.Path == "" {
		return fmt.Errorf("operation %s: method and path are required", op.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops[op.Name] = op
	return nil
}

// Get returns an operation by name.
func (c *Catalog) Get(name string) (Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.ops[name]
	return op, ok
}

// List returns all operations sorted by name.
func (c *Catalog) List() []Operation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Operation, 0, len(c.ops))
	for _, op := range c.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ToolDefinitions renders every operation as an LLM tool definition, one
// JSON-schema property per parameter.
func (c *Catalog) ToolDefinitions() []provider.Tool {
	ops := c.List()
	tools := make([]provider.Tool, 0, len(ops))
	for _, op := range ops {
		props := make(map[string]interface{}, len(op.Parameters))
		var required []string
		for _, p := range op.Parameters {
			typ := p.Type
			if typ == "" {
				typ = "string"
			}
			props[p.Name] = map[string]string{
				"type":        typ,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		params := map[string]interface{}{
			"type":       "object",
			"properties": props,
		}
		if len(required) > 0 {
			params["required"] = required
		}
		tools = append(tools, provider.Tool{
			Type: "function",
			Function: provider.ToolFunction{
				Name:        op.Name,
				Description: fmt.Sprintf("%s (%s %s)", op.Description, op.Method, op.Path),
				Parameters:  params,
			},
		})
	}
	return tools
}

// pathParams returns the {placeholder} names in an operation path.
func pathParams(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			names = append(names, strings.Trim(seg, "{}"))
		}
	}
	return names
}
