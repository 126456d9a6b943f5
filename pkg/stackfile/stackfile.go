// Package stackfile loads the YAML description of an HTTP API stack and turns
// it into builder inputs.
package stackfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	httpapistack "github.com/theory-cloud/httpapistack"
	"github.com/theory-cloud/httpapistack/pkg/naming"
	"github.com/theory-cloud/httpapistack/pkg/observability"
)

const (
	defaultHandler = "bootstrap"
	defaultRuntime = "provided.al2023"
	defaultOutdir  = "cdk.out"
)

// File is the on-disk stack description.
type File struct {
	App     string `yaml:"app"`
	Stage   string `yaml:"stage"`
	Account string `yaml:"account"`
	Region  string `yaml:"region"`

	Function Function `yaml:"function"`
	Domain   *Domain  `yaml:"domain,omitempty"`
	Cors     *Cors    `yaml:"cors,omitempty"`

	LogRetentionDays int                        `yaml:"log_retention_days,omitempty"`
	Log              observability.LoggerConfig `yaml:"log"`

	Outdir string `yaml:"outdir,omitempty"`
}

// Function is either an existing function imported by ARN or a zip asset
// deployed next to the API.
type Function struct {
	ARN      string   `yaml:"arn,omitempty"`
	Asset    string   `yaml:"asset,omitempty"`
	Handler  string   `yaml:"handler,omitempty"`
	Runtime  string   `yaml:"runtime,omitempty"`
	MemoryMB int      `yaml:"memory_mb,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty"`

	Environment map[string]string `yaml:"environment,omitempty"`
}

// HostedZone identifies an existing Route 53 zone.
type HostedZone struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Domain is the custom domain section. A certificate is issued against
// HostedZone unless CertificateARN is set.
type Domain struct {
	Name           string      `yaml:"name"`
	HostedZone     *HostedZone `yaml:"hosted_zone,omitempty"`
	CertificateARN string      `yaml:"certificate_arn,omitempty"`
	CreateRecord   bool        `yaml:"create_record,omitempty"`
}

// Cors mirrors httpapistack.CorsOptions.
type Cors struct {
	AllowOrigins     []string `yaml:"allow_origins,omitempty"`
	AllowMethods     []string `yaml:"allow_methods,omitempty"`
	AllowHeaders     []string `yaml:"allow_headers,omitempty"`
	ExposeHeaders    []string `yaml:"expose_headers,omitempty"`
	AllowCredentials bool     `yaml:"allow_credentials,omitempty"`
	MaxAge           Duration `yaml:"max_age,omitempty"`
}

// Duration decodes Go duration strings ("30s", "10m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Overrides are read from the environment. Stage, log and outdir settings win
// over the file; account and region only fill gaps.
type Overrides struct {
	Stage     string `env:"HTTPAPI_STAGE"`
	Account   string `env:"CDK_DEFAULT_ACCOUNT"`
	Region    string `env:"CDK_DEFAULT_REGION"`
	LogLevel  string `env:"HTTPAPI_LOG_LEVEL"`
	LogFormat string `env:"HTTPAPI_LOG_FORMAT"`
	Outdir    string `env:"HTTPAPI_OUTDIR"`
}

// Load reads, decodes and applies environment overrides to the file at path.
// The result is not validated.
func Load(path string) (*File, error) {
	//nolint:gosec // Path is supplied by the operator on the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a stack file and applies environment overrides. Unknown keys
// are rejected.
func Parse(data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, httpapistack.InvalidConfig("decode stack file: %v", err)
	}

	var ov Overrides
	if err := env.Parse(&ov); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}
	f.apply(ov)
	f.normalize()
	return f, nil
}

func (f *File) apply(ov Overrides) {
	if ov.Stage != "" {
		f.Stage = ov.Stage
	}
	if ov.Account != "" && f.Account == "" {
		f.Account = ov.Account
	}
	if ov.Region != "" && f.Region == "" {
		f.Region = ov.Region
	}
	if ov.LogLevel != "" {
		f.Log.Level = ov.LogLevel
	}
	if ov.LogFormat != "" {
		f.Log.Format = ov.LogFormat
	}
	if ov.Outdir != "" {
		f.Outdir = ov.Outdir
	}
}

func (f *File) normalize() {
	f.App = strings.TrimSpace(f.App)
	f.Stage = naming.NormalizeStage(f.Stage)
	f.Account = strings.TrimSpace(f.Account)
	f.Region = strings.TrimSpace(f.Region)
	if f.Outdir == "" {
		f.Outdir = defaultOutdir
	}
	if f.Function.Asset != "" {
		if f.Function.Handler == "" {
			f.Function.Handler = defaultHandler
		}
		if f.Function.Runtime == "" {
			f.Function.Runtime = defaultRuntime
		}
	}
	if f.Domain != nil {
		f.Domain.Name = naming.NormalizeDomainName(f.Domain.Name)
		if f.Domain.HostedZone != nil {
			f.Domain.HostedZone.Name = naming.NormalizeDomainName(f.Domain.HostedZone.Name)
		}
	}
}

// Validate checks the parts of the file the domain config does not cover.
// Domain consistency is left to httpapistack.Validate.
func (f *File) Validate() error {
	if f.App == "" {
		return httpapistack.InvalidConfig("app is required")
	}
	if f.Stage == "" {
		return httpapistack.InvalidConfig("stage is required")
	}

	fn := f.Function
	switch {
	case fn.ARN == "" && fn.Asset == "":
		return httpapistack.InvalidConfig("function: one of arn or asset is required")
	case fn.ARN != "" && fn.Asset != "":
		return httpapistack.InvalidConfig("function: arn and asset are mutually exclusive")
	case fn.ARN != "" && !strings.HasPrefix(fn.ARN, "arn:"):
		return httpapistack.InvalidConfig("function: %q is not an arn", fn.ARN)
	case fn.MemoryMB < 0:
		return httpapistack.InvalidConfig("function: memory_mb must not be negative")
	case fn.Timeout < 0:
		return httpapistack.InvalidConfig("function: timeout must not be negative")
	}

	if d := f.Domain; d != nil {
		if d.HostedZone != nil && (d.HostedZone.ID == "" || d.HostedZone.Name == "") {
			return httpapistack.InvalidConfig("domain: hosted_zone needs both id and name")
		}
		if d.CreateRecord && d.CertificateARN != "" && d.HostedZone == nil {
			return httpapistack.InvalidConfig("domain: hosted_zone is required to create a record")
		}
		if d.HostedZone != nil && d.Name != "" && !inZone(d.Name, d.HostedZone.Name) {
			return httpapistack.InvalidConfig("domain: %q is not inside zone %q", d.Name, d.HostedZone.Name)
		}
	}

	if f.LogRetentionDays < 0 {
		return httpapistack.InvalidConfig("log_retention_days must not be negative")
	}
	return nil
}

func inZone(name, zone string) bool {
	return name == zone || strings.HasSuffix(name, "."+zone)
}

// CorsOptions converts the cors section. Nil when the section is absent.
func (f *File) CorsOptions() *httpapistack.CorsOptions {
	if f.Cors == nil {
		return nil
	}
	return &httpapistack.CorsOptions{
		AllowOrigins:     f.Cors.AllowOrigins,
		AllowMethods:     f.Cors.AllowMethods,
		AllowHeaders:     f.Cors.AllowHeaders,
		ExposeHeaders:    f.Cors.ExposeHeaders,
		AllowCredentials: f.Cors.AllowCredentials,
		MaxAge:           time.Duration(f.Cors.MaxAge),
	}
}

// APIStackName is the name of the stack holding the API.
func (f *File) APIStackName() string {
	return naming.APIStackName(f.App, f.Stage)
}

// FunctionStackName is the name of the stack holding the function and imports.
func (f *File) FunctionStackName() string {
	return naming.FunctionStackName(f.App, f.Stage)
}

// APIName is the API Gateway name.
func (f *File) APIName() string {
	return naming.APIName(f.App, f.Stage)
}
