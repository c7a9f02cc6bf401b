package plugins

import (
	"testing"
)

func TestBuildPayload_ClassifiesByLocation(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(weatherManifest()); err != nil {
		t.Fatal(err)
	}
	m, op, _ := r.Lookup("weather__getForecast")

	p := buildPayload(m, op, r.locationTable("weather__getForecast"), map[string]any{
		"city":       "Oslo",
		"days":       float64(3), // JSON numbers decode as float64
		"apiVersion": "2024-01",
		"session":    "abc",
	})

	if p.BaseURL != "https://api.weather.test/v1/forecast/{city}" {
		t.Errorf("baseUrl = %q", p.BaseURL)
	}
	if p.Method != "GET" {
		t.Errorf("method = %q", p.Method)
	}
	if p.Path["city"] != "Oslo" {
		t.Errorf("path = %v", p.Path)
	}
	if p.Query["days"] != "3" {
		t.Errorf("query = %v", p.Query)
	}
	if p.Headers["apiVersion"] != "2024-01" {
		t.Errorf("headers = %v", p.Headers)
	}
	if p.Cookie["session"] != "abc" {
		t.Errorf("cookie = %v", p.Cookie)
	}
	if len(p.FormData) != 0 {
		t.Errorf("formData = %v", p.FormData)
	}
}

func TestBuildPayload_DropsUndeclaredArgs(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(weatherManifest()); err != nil {
		t.Fatal(err)
	}
	m, op, _ := r.Lookup("weather__getForecast")

	p := buildPayload(m, op, r.locationTable("weather__getForecast"), map[string]any{
		"city":         "Oslo",
		"hallucinated": "value",
	})

	total := len(p.Path) + len(p.Query) + len(p.FormData) + len(p.Headers) + len(p.Cookie)
	if total != 1 {
		t.Errorf("undeclared argument leaked into the payload: %+v", p)
	}
}

func TestBuildPayload_CompositeArgsAsJSON(t *testing.T) {
	r := NewRegistry()
	if err := r.Install(weatherManifest()); err != nil {
		t.Fatal(err)
	}
	m, op, _ := r.Lookup("weather__report")

	p := buildPayload(m, op, r.locationTable("weather__report"), map[string]any{
		"city":    "Oslo",
		"details": map[string]any{"severity": "high"},
	})

	if p.FormData["details"] != `{"severity":"high"}` {
		t.Errorf("composite arg = %q", p.FormData["details"])
	}
	if p.Method != "POST" {
		t.Errorf("method = %q", p.Method)
	}
}
