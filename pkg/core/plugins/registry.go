// Package plugins resolves model function calls against installed
// plugin manifests and executes them through the external gateway.
package plugins

import (
	"fmt"
	"strings"
	"sync"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
)

// nameSeparator joins a plugin id and an operation id into the single
// flat function name exposed to the model.
const nameSeparator = "__"

// QualifiedName builds the flat function name for one operation.
func QualifiedName(pluginID, operationID string) string {
	return pluginID + nameSeparator + operationID
}

// SplitName splits a flat function name back into plugin and operation
// ids. Operation ids may themselves contain the separator; the first
// occurrence belongs to the plugin boundary.
func SplitName(name string) (pluginID, operationID string, ok bool) {
	i := strings.Index(name, nameSeparator)
	if i <= 0 || i+len(nameSeparator) >= len(name) {
		return "", "", false
	}
	return name[:i], name[i+len(nameSeparator):], true
}

// Registry holds the installed plugin manifests and derives the tool
// declarations advertised to the model.
type Registry struct {
	mu        sync.RWMutex
	manifests map[string]types.PluginManifest
	// locations caches the per-operation argument location tables,
	// keyed by qualified name.
	locations map[string]map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		manifests: make(map[string]types.PluginManifest),
		locations: make(map[string]map[string]string),
	}
}

// Install registers a plugin manifest, replacing any prior manifest
// with the same id.
func (r *Registry) Install(m types.PluginManifest) error {
	if m.ID == "" {
		return core.NewInvalidRequestError("plugin manifest has no id")
	}
	if strings.Contains(m.ID, nameSeparator) {
		return core.NewInvalidRequestError(fmt.Sprintf("plugin id %q must not contain %q", m.ID, nameSeparator))
	}
	if m.BaseURL() == "" {
		return core.NewInvalidRequestError(fmt.Sprintf("plugin %q declares no server", m.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests[m.ID] = m
	for opID, op := range m.Operations {
		table := make(map[string]string, len(op.Parameters))
		for _, p := range op.Parameters {
			table[p.Name] = p.In
		}
		r.locations[QualifiedName(m.ID, opID)] = table
	}
	return nil
}

// Uninstall removes a plugin and its cached operation tables.
func (r *Registry) Uninstall(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.manifests[pluginID]
	if !ok {
		return
	}
	for opID := range m.Operations {
		delete(r.locations, QualifiedName(pluginID, opID))
	}
	delete(r.manifests, pluginID)
}

// Lookup resolves a flat function name to its manifest and operation.
func (r *Registry) Lookup(name string) (types.PluginManifest, types.Operation, bool) {
	pluginID, opID, ok := SplitName(name)
	if !ok {
		return types.PluginManifest{}, types.Operation{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[pluginID]
	if !ok {
		return types.PluginManifest{}, types.Operation{}, false
	}
	op, ok := m.Operations[opID]
	if !ok {
		return types.PluginManifest{}, types.Operation{}, false
	}
	return m, op, true
}

// locationTable returns the cached argument location table for a
// qualified name. Arguments absent from the table are dropped.
func (r *Registry) locationTable(name string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locations[name]
}

// Declarations returns the tool declarations for every installed
// operation, suitable for a turn request.
func (r *Registry) Declarations() []types.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var decls []types.ToolDeclaration
	for id, m := range r.manifests {
		for opID, op := range m.Operations {
			desc := op.Summary
			if desc == "" {
				desc = m.Description
			}
			decls = append(decls, types.ToolDeclaration{
				Name:        QualifiedName(id, opID),
				Description: desc,
				Parameters:  op.InputSchema,
			})
		}
	}
	return decls
}
