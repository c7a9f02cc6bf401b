package types

// Parameter locations in an operation schema.
const (
	InQuery    = "query"
	InPath     = "path"
	InFormData = "formData"
	InHeader   = "header"
	InCookie   = "cookie"
)

// PluginManifest is the operation catalog of one installed plugin.
// The core only reads it; it is never mutated here.
type PluginManifest struct {
	ID          string               `json:"id"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Servers     []Server             `json:"servers"`
	Operations  map[string]Operation `json:"operations"`
}

// Server is an upstream base URL entry; the first one is used.
type Server struct {
	URL string `json:"url"`
}

// BaseURL returns the first server URL, or "" when none is declared.
func (m *PluginManifest) BaseURL() string {
	if len(m.Servers) == 0 {
		return ""
	}
	return m.Servers[0].URL
}

// Operation describes one callable endpoint of a plugin.
type Operation struct {
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	Summary     string      `json:"summary,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
	InputSchema any         `json:"inputSchema,omitempty"` // JSON schema for the model
}

// Parameter declares where one argument travels on the wire.
type Parameter struct {
	Name string `json:"name"`
	In   string `json:"in"` // query, path, formData, header, cookie
}

// GatewayPayload is the transient request descriptor sent to the
// external gateway for one dispatch. BaseURL carries the operation path
// already joined onto the plugin's server base; Path holds template
// substitutions for {name} segments.
type GatewayPayload struct {
	BaseURL  string            `json:"baseUrl"`
	Method   string            `json:"method"`
	Path     map[string]string `json:"path,omitempty"`
	Query    map[string]string `json:"query,omitempty"`
	FormData map[string]string `json:"formData,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Cookie   map[string]string `json:"cookie,omitempty"`
}
