package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// NormalizeStage maps stage aliases to canonical values.
//
// Canonical stages are lowercased and safe for stack and resource names.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	case "local":
		return "local"
	default:
		return sanitizePart(stage)
	}
}

// BaseName returns a deterministic base name: <app>-<stage>.
func BaseName(appName, stage string) string {
	return ResourceName(appName, "", stage)
}

// ResourceName returns a deterministic resource name: <app>-<resource>-<stage>.
// An empty resource yields the base name.
func ResourceName(appName, resource, stage string) string {
	parts := []string{sanitizePart(appName)}
	if resource = sanitizePart(resource); resource != "" {
		parts = append(parts, resource)
	}
	if stage = NormalizeStage(stage); stage != "" {
		parts = append(parts, stage)
	}
	return strings.Join(parts, "-")
}

// APIStackName names the stack holding the HTTP API: <app>-api-<stage>.
func APIStackName(appName, stage string) string {
	return ResourceName(appName, "api", stage)
}

// FunctionStackName names the stack holding the API's function and imports: <app>-fn-<stage>.
func FunctionStackName(appName, stage string) string {
	return ResourceName(appName, "fn", stage)
}

// APIName is the API Gateway name for the app: <app>-<stage>.
func APIName(appName, stage string) string {
	return BaseName(appName, stage)
}

// NormalizeDomainName lowercases a DNS name and drops surrounding dots.
func NormalizeDomainName(name string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(name)), ".")
}

// SplitDomain splits a DNS name into the host labels and the registrable
// domain (the last two labels).
//
//	api.service.example.com -> ("api.service", "example.com")
//	example.com             -> ("", "example.com")
func SplitDomain(name string) (prefix, apex string) {
	labels := strings.Split(name, ".")
	if len(labels) <= 2 {
		return "", name
	}
	cut := len(labels) - 2
	return strings.Join(labels[:cut], "."), strings.Join(labels[cut:], ".")
}
