// Package catalog loads the agent catalog the router matches queries
// against. The catalog is external; this package only parses and validates
// it, rejecting unrecognized shapes rather than defaulting them away.
package catalog

import (
	"fmt"
	"strings"

	"github.com/agentrelay/relay/internal/canonical"
)

// AgentDescriptor is one named capability: a stable name, a human
// description, and skill tags. Immutable once loaded.
type AgentDescriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// SearchText is the text embedded for the agent on a cache miss.
func (a AgentDescriptor) SearchText() string {
	return fmt.Sprintf("%s %s Skills: %s", a.Name, a.Description, strings.Join(a.Skills, ", "))
}

// Catalog is the loaded agent catalog. Document holds the raw decoded JSON
// the catalog source returned; the fingerprint is computed over it so that
// catalog metadata outside the agent list still participates in the cache
// key, matching what the store was populated with.
type Catalog struct {
	Agents   []AgentDescriptor
	Document any
}

// Parse decodes and validates a catalog document. Accepted shapes are a bare
// array of agent objects or an object with an "agents" array.
func Parse(data []byte) (*Catalog, error) {
	doc, err := canonical.DecodeValue(data)
	if err != nil {
		return nil, err
	}

	var list []any
	switch d := doc.(type) {
	case []any:
		list = d
	case map[string]any:
		raw, ok := d["agents"]
		if !ok {
			return nil, fmt.Errorf("catalog object has no \"agents\" field")
		}
		list, ok = raw.([]any)
		if !ok {
			return nil, fmt.Errorf("catalog \"agents\" field is not an array")
		}
	default:
		return nil, fmt.Errorf("catalog must be an array or an object, got %T", doc)
	}

	agents := make([]AgentDescriptor, 0, len(list))
	seen := make(map[string]bool, len(list))
	for i, e := range list {
		a, err := parseAgent(e)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("agent %d: duplicate name %q", i, a.Name)
		}
		seen[a.Name] = true
		agents = append(agents, a)
	}

	return &Catalog{Agents: agents, Document: doc}, nil
}

func parseAgent(v any) (AgentDescriptor, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return AgentDescriptor{}, fmt.Errorf("entry is not an object")
	}
	var a AgentDescriptor
	for k, fv := range obj {
		switch k {
		case "name":
			s, ok := fv.(string)
			if !ok {
				return AgentDescriptor{}, fmt.Errorf("\"name\" is not a string")
			}
			a.Name = s
		case "description":
			s, ok := fv.(string)
			if !ok {
				return AgentDescriptor{}, fmt.Errorf("\"description\" is not a string")
			}
			a.Description = s
		case "skills":
			arr, ok := fv.([]any)
			if !ok {
				return AgentDescriptor{}, fmt.Errorf("\"skills\" is not an array")
			}
			skills := make([]string, 0, len(arr))
			for _, sv := range arr {
				s, ok := sv.(string)
				if !ok {
					return AgentDescriptor{}, fmt.Errorf("\"skills\" contains a non-string element")
				}
				skills = append(skills, s)
			}
			a.Skills = skills
		default:
			return AgentDescriptor{}, fmt.Errorf("unrecognized field %q", k)
		}
	}
	if a.Name == "" {
		return AgentDescriptor{}, fmt.Errorf("missing or empty \"name\"")
	}
	return a, nil
}
