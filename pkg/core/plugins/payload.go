package plugins

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parley-ai/parley/pkg/core/types"
)

// buildPayload classifies one call's arguments by their declared wire
// location and assembles the gateway request descriptor. Arguments the
// operation never declared are dropped without error.
func buildPayload(m types.PluginManifest, op types.Operation, locations map[string]string, args map[string]any) *types.GatewayPayload {
	p := &types.GatewayPayload{
		BaseURL: joinURL(m.BaseURL(), op.Path),
		Method:  strings.ToUpper(op.Method),
	}

	for name, value := range args {
		str := stringifyArg(value)
		switch locations[name] {
		case types.InQuery:
			if p.Query == nil {
				p.Query = make(map[string]string)
			}
			p.Query[name] = str
		case types.InPath:
			if p.Path == nil {
				p.Path = make(map[string]string)
			}
			p.Path[name] = str
		case types.InFormData:
			if p.FormData == nil {
				p.FormData = make(map[string]string)
			}
			p.FormData[name] = str
		case types.InHeader:
			if p.Headers == nil {
				p.Headers = make(map[string]string)
			}
			p.Headers[name] = str
		case types.InCookie:
			if p.Cookie == nil {
				p.Cookie = make(map[string]string)
			}
			p.Cookie[name] = str
		}
	}
	return p
}

// stringifyArg renders an argument value for the wire. Scalars keep
// their natural form; composites are carried as compact JSON.
func stringifyArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
