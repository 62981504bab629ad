// pkg/registry/store.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Add appends a reply. IDs must be unique.
func (r *ReplyRegistry) Add(reply CannedReply) error {
	for _, existing := range r.Replies {
		if existing.ID == reply.ID {
			return fmt.Errorf("reply with ID %s already exists", reply.ID)
		}
	}
	r.Replies = append(r.Replies, reply)
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Remove drops the reply with id.
func (r *ReplyRegistry) Remove(id string) error {
	for i := range r.Replies {
		if r.Replies[i].ID == id {
			r.Replies = append(r.Replies[:i], r.Replies[i+1:]...)
			r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
			return nil
		}
	}
	return fmt.Errorf("reply with ID %s not found", id)
}

// Validate checks required fields and that no pattern is claimed twice.
func (r *ReplyRegistry) Validate() error {
	if len(r.Replies) == 0 {
		return fmt.Errorf("registry contains no replies")
	}

	ids := make(map[string]bool)
	patterns := make(map[string]string)
	for _, reply := range r.Replies {
		if reply.ID == "" {
			return fmt.Errorf("reply missing required field: id")
		}
		if ids[reply.ID] {
			return fmt.Errorf("duplicate reply ID: %s", reply.ID)
		}
		ids[reply.ID] = true

		if reply.Response == "" {
			return fmt.Errorf("reply %s missing required field: response", reply.ID)
		}
		if len(reply.Patterns) == 0 {
			return fmt.Errorf("reply %s has no patterns", reply.ID)
		}
		for _, p := range reply.Patterns {
			np := normalize(p)
			if np == "" {
				return fmt.Errorf("reply %s has an empty pattern", reply.ID)
			}
			if owner, ok := patterns[np]; ok {
				return fmt.Errorf("pattern %q is used by both %s and %s", p, owner, reply.ID)
			}
			patterns[np] = reply.ID
		}
	}
	return nil
}

// Save writes the registry as indented JSON, creating parent directories.
func Save(reg *ReplyRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
