package naming

import "testing"

func TestNormalizeStage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"prod", "live"},
		{"production", "live"},
		{"live", "live"},
		{"dev", "dev"},
		{"development", "dev"},
		{"stg", "stage"},
		{"staging", "stage"},
		{"stage", "stage"},
		{"test", "test"},
		{"testing", "test"},
		{"Local", "local"},
		{"My Env!", "my-env"},
	}
	for _, tt := range tests {
		if got := NormalizeStage(tt.in); got != tt.want {
			t.Fatalf("NormalizeStage(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("MyApp", "prod"); got != "myapp-live" {
		t.Fatalf("BaseName app-stage: %q", got)
	}
	if got := BaseName("  My_App ", ""); got != "my-app" {
		t.Fatalf("BaseName without stage: %q", got)
	}
}

func TestResourceName(t *testing.T) {
	if got := ResourceName("MyApp", "Table", "stg"); got != "myapp-table-stage" {
		t.Fatalf("ResourceName app-resource-stage: %q", got)
	}
	if got := ResourceName("MyApp", "", "stg"); got != "myapp-stage" {
		t.Fatalf("ResourceName without resource: %q", got)
	}
}

func TestStackNames(t *testing.T) {
	if got := APIStackName("Orders", "production"); got != "orders-api-live" {
		t.Fatalf("APIStackName: %q", got)
	}
	if got := FunctionStackName("Orders", "dev"); got != "orders-fn-dev" {
		t.Fatalf("FunctionStackName: %q", got)
	}
	if got := APIName("Orders Service", "staging"); got != "orders-service-stage" {
		t.Fatalf("APIName: %q", got)
	}
}

func TestNormalizeDomainName(t *testing.T) {
	if got := NormalizeDomainName(" API.Example.com. "); got != "api.example.com" {
		t.Fatalf("NormalizeDomainName: %q", got)
	}
}

func TestSplitDomain(t *testing.T) {
	tests := []struct {
		in         string
		wantPrefix string
		wantApex   string
	}{
		{"api.service.example.com", "api.service", "example.com"},
		{"api.example.com", "api", "example.com"},
		{"example.com", "", "example.com"},
		{"localhost", "", "localhost"},
		{"", "", ""},
	}
	for _, tt := range tests {
		prefix, apex := SplitDomain(tt.in)
		if prefix != tt.wantPrefix || apex != tt.wantApex {
			t.Fatalf("SplitDomain(%q)=(%q,%q), want (%q,%q)", tt.in, prefix, apex, tt.wantPrefix, tt.wantApex)
		}
	}
}
