package plugins

import (
	"testing"

	"github.com/parley-ai/parley/pkg/core/types"
)

func weatherManifest() types.PluginManifest {
	return types.PluginManifest{
		ID:          "weather",
		Title:       "Weather",
		Description: "Weather lookups",
		Servers:     []types.Server{{URL: "https://api.weather.test/v1"}},
		Operations: map[string]types.Operation{
			"getForecast": {
				Method:  "get",
				Path:    "/forecast/{city}",
				Summary: "Get the forecast for a city",
				Parameters: []types.Parameter{
					{Name: "city", In: types.InPath},
					{Name: "days", In: types.InQuery},
					{Name: "apiVersion", In: types.InHeader},
					{Name: "session", In: types.InCookie},
				},
			},
			"report": {
				Method: "post",
				Path:   "/reports",
				Parameters: []types.Parameter{
					{Name: "city", In: types.InFormData},
					{Name: "details", In: types.InFormData},
				},
			},
		},
	}
}

func TestSplitName(t *testing.T) {
	cases := []struct {
		name   string
		plugin string
		op     string
		ok     bool
	}{
		{"weather__getForecast", "weather", "getForecast", true},
		{"a__b__c", "a", "b__c", true},
		{"noseparator", "", "", false},
		{"__leading", "", "", false},
		{"trailing__", "", "", false},
	}
	for _, c := range cases {
		plugin, op, ok := SplitName(c.name)
		if plugin != c.plugin || op != c.op || ok != c.ok {
			t.Errorf("SplitName(%q) = %q, %q, %v", c.name, plugin, op, ok)
		}
	}
}

func TestRegistry_InstallAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(weatherManifest()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	m, op, ok := r.Lookup("weather__getForecast")
	if !ok {
		t.Fatal("expected lookup to resolve")
	}
	if m.ID != "weather" || op.Path != "/forecast/{city}" {
		t.Errorf("resolved %q %q", m.ID, op.Path)
	}

	if _, _, ok := r.Lookup("weather__noSuchOp"); ok {
		t.Error("unknown operation must not resolve")
	}
	if _, _, ok := r.Lookup("unknown__getForecast"); ok {
		t.Error("unknown plugin must not resolve")
	}
}

func TestRegistry_InstallRejectsBadManifests(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(types.PluginManifest{}); err == nil {
		t.Error("manifest without an id must be rejected")
	}
	if err := r.Install(types.PluginManifest{
		ID:      "bad__id",
		Servers: []types.Server{{URL: "https://x.test"}},
	}); err == nil {
		t.Error("plugin id containing the separator must be rejected")
	}
	if err := r.Install(types.PluginManifest{ID: "noserver"}); err == nil {
		t.Error("manifest without a server must be rejected")
	}
}

func TestRegistry_Declarations(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(weatherManifest()); err != nil {
		t.Fatal(err)
	}

	decls := r.Declarations()
	if len(decls) != 2 {
		t.Fatalf("declarations = %d, want 2", len(decls))
	}
	byName := map[string]types.ToolDeclaration{}
	for _, d := range decls {
		byName[d.Name] = d
	}
	fc, ok := byName["weather__getForecast"]
	if !ok {
		t.Fatal("missing weather__getForecast declaration")
	}
	if fc.Description != "Get the forecast for a city" {
		t.Errorf("description = %q", fc.Description)
	}
	// An operation without a summary falls back to the plugin description.
	if byName["weather__report"].Description != "Weather lookups" {
		t.Errorf("fallback description = %q", byName["weather__report"].Description)
	}
}

func TestRegistry_Uninstall(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(weatherManifest()); err != nil {
		t.Fatal(err)
	}
	r.Uninstall("weather")

	if _, _, ok := r.Lookup("weather__getForecast"); ok {
		t.Error("uninstalled plugin must not resolve")
	}
	if len(r.Declarations()) != 0 {
		t.Error("uninstalled plugin must not advertise declarations")
	}
}
