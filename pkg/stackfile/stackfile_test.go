package stackfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"

	httpapistack "github.com/theory-cloud/httpapistack"
	"github.com/theory-cloud/httpapistack/pkg/observability"
)

const fullFile = `
app: Orders
stage: production
account: "123456789012"
region: us-east-1
function:
  arn: arn:aws:lambda:us-east-1:123456789012:function:orders
domain:
  name: API.Orders.Example.com.
  hosted_zone:
    id: Z0123456789ABC
    name: example.com
  create_record: true
cors:
  allow_origins: ["https://app.example.com"]
  allow_methods: [get, post]
  max_age: 10m
log_retention_days: 30
log:
  level: debug
  format: json
`

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTPAPI_STAGE", "CDK_DEFAULT_ACCOUNT", "CDK_DEFAULT_REGION",
		"HTTPAPI_LOG_LEVEL", "HTTPAPI_LOG_FORMAT", "HTTPAPI_OUTDIR",
	} {
		t.Setenv(key, "")
	}
}

func TestParse_FullFile(t *testing.T) {
	clearOverrides(t)

	f, err := Parse([]byte(fullFile))
	require.NoError(t, err)

	require.Equal(t, "Orders", f.App)
	require.Equal(t, "live", f.Stage)
	require.Equal(t, "123456789012", f.Account)
	require.Equal(t, "us-east-1", f.Region)
	require.Equal(t, "api.orders.example.com", f.Domain.Name)
	require.Equal(t, "example.com", f.Domain.HostedZone.Name)
	require.True(t, f.Domain.CreateRecord)
	require.Equal(t, Duration(10*time.Minute), f.Cors.MaxAge)
	require.Equal(t, 30, f.LogRetentionDays)
	require.Equal(t, "debug", f.Log.Level)
	require.Equal(t, defaultOutdir, f.Outdir)
	require.NoError(t, f.Validate())

	require.Equal(t, "orders-api-live", f.APIStackName())
	require.Equal(t, "orders-fn-live", f.FunctionStackName())
}

func TestParse_AssetDefaults(t *testing.T) {
	clearOverrides(t)

	f, err := Parse([]byte("app: orders\nstage: dev\nfunction:\n  asset: ./dist\n  timeout: 15s\n"))
	require.NoError(t, err)
	require.Equal(t, defaultHandler, f.Function.Handler)
	require.Equal(t, defaultRuntime, f.Function.Runtime)
	require.Equal(t, Duration(15*time.Second), f.Function.Timeout)
	require.Nil(t, f.Domain)
	require.Nil(t, f.CorsOptions())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	clearOverrides(t)

	_, err := Parse([]byte("app: orders\nstage: dev\nregoin: us-east-1\n"))
	require.Error(t, err)
	require.True(t, httpapistack.IsConfigError(err))
	require.Equal(t, "config.invalid", httpapistack.ConfigErrorCode(err))
}

func TestParse_RejectsBadDuration(t *testing.T) {
	clearOverrides(t)

	_, err := Parse([]byte("app: orders\nstage: dev\ncors:\n  max_age: soon\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid duration")
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	clearOverrides(t)
	t.Setenv("HTTPAPI_STAGE", "staging")
	t.Setenv("CDK_DEFAULT_ACCOUNT", "999999999999")
	t.Setenv("CDK_DEFAULT_REGION", "eu-west-1")
	t.Setenv("HTTPAPI_LOG_LEVEL", "warn")
	t.Setenv("HTTPAPI_OUTDIR", "out")

	f, err := Parse([]byte(fullFile))
	require.NoError(t, err)

	require.Equal(t, "stage", f.Stage)
	require.Equal(t, "warn", f.Log.Level)
	require.Equal(t, "json", f.Log.Format)
	require.Equal(t, "out", f.Outdir)
	// Account and region in the file win over the CDK defaults.
	require.Equal(t, "123456789012", f.Account)
	require.Equal(t, "us-east-1", f.Region)

	bare, err := Parse([]byte("app: orders\nstage: dev\n"))
	require.NoError(t, err)
	require.Equal(t, "999999999999", bare.Account)
	require.Equal(t, "eu-west-1", bare.Region)
}

func TestLoad(t *testing.T) {
	clearOverrides(t)

	path := filepath.Join(t.TempDir(), "stack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullFile), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Orders", f.App)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read stack file")
}

func TestValidate(t *testing.T) {
	base := func() *File {
		return &File{
			App:      "orders",
			Stage:    "dev",
			Function: Function{ARN: "arn:aws:lambda:us-east-1:123456789012:function:orders"},
		}
	}
	zone := &HostedZone{ID: "Z1", Name: "example.com"}

	cases := []struct {
		name   string
		mutate func(*File)
		want   string
	}{
		{name: "valid", mutate: func(*File) {}},
		{name: "missing app", mutate: func(f *File) { f.App = "" }, want: "app is required"},
		{name: "missing stage", mutate: func(f *File) { f.Stage = "" }, want: "stage is required"},
		{name: "no function", mutate: func(f *File) { f.Function = Function{} }, want: "one of arn or asset"},
		{name: "arn and asset", mutate: func(f *File) { f.Function.Asset = "./dist" }, want: "mutually exclusive"},
		{name: "bad arn", mutate: func(f *File) { f.Function.ARN = "orders" }, want: "is not an arn"},
		{name: "negative memory", mutate: func(f *File) { f.Function.MemoryMB = -1 }, want: "memory_mb"},
		{name: "negative timeout", mutate: func(f *File) { f.Function.Timeout = -1 }, want: "timeout"},
		{name: "partial zone", mutate: func(f *File) {
			f.Domain = &Domain{Name: "api.example.com", HostedZone: &HostedZone{ID: "Z1"}}
		}, want: "needs both id and name"},
		{name: "imported cert record without zone", mutate: func(f *File) {
			f.Domain = &Domain{Name: "api.example.com", CertificateARN: "arn:aws:acm:x", CreateRecord: true}
		}, want: "required to create a record"},
		{name: "name outside zone", mutate: func(f *File) {
			f.Domain = &Domain{Name: "api.example.org", HostedZone: zone}
		}, want: "is not inside zone"},
		{name: "negative retention", mutate: func(f *File) { f.LogRetentionDays = -1 }, want: "log_retention_days"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base()
			tc.mutate(f)
			err := f.Validate()
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, httpapistack.IsConfigError(err))
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDomainConfig_Variants(t *testing.T) {
	f := &File{}
	require.Nil(t, f.DomainConfig(nil))

	f.Domain = &Domain{Name: "api.example.com", HostedZone: &HostedZone{ID: "Z1", Name: "example.com"}, CreateRecord: true}
	cfg := f.DomainConfig(nil)
	require.IsType(t, httpapistack.IssueCert{}, cfg.CertSource)
	require.True(t, cfg.CreateDNSRecord)

	f.Domain.CertificateARN = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
	cfg = f.DomainConfig(nil)
	existing, ok := cfg.CertSource.(httpapistack.ExistingCert)
	require.True(t, ok)
	require.Equal(t, f.Domain.CertificateARN, existing.CertificateARN)

	f.Domain = &Domain{Name: "api.example.com"}
	require.Nil(t, f.DomainConfig(nil).CertSource)
}

func TestPlan(t *testing.T) {
	clearOverrides(t)

	f, err := Parse([]byte(fullFile))
	require.NoError(t, err)

	plan, err := f.Plan()
	require.NoError(t, err)
	require.Equal(t, httpapistack.CertIssued, plan.Certificate)
	require.Equal(t, "api.orders.example.com", plan.DomainName)
	require.True(t, plan.CreateRecord)
	require.Equal(t, "api.orders", plan.RecordName)
}

func TestPlan_DomainErrors(t *testing.T) {
	base := func(d *Domain) *File {
		return &File{
			App:      "orders",
			Stage:    "dev",
			Function: Function{ARN: "arn:aws:lambda:us-east-1:123456789012:function:orders"},
			Domain:   d,
		}
	}

	_, err := base(&Domain{Name: "api.example.com"}).Plan()
	require.ErrorIs(t, err, httpapistack.ErrNameWithoutCert)

	_, err = base(&Domain{CertificateARN: "arn:aws:acm:x"}).Plan()
	require.ErrorIs(t, err, httpapistack.ErrCertWithoutName)

	_, err = base(&Domain{CreateRecord: true}).Plan()
	require.ErrorIs(t, err, httpapistack.ErrMissingDNSName)

	plan, err := base(nil).Plan()
	require.NoError(t, err)
	require.Equal(t, httpapistack.CertNone, plan.Certificate)
}

func TestRetentionDays(t *testing.T) {
	require.Equal(t, awslogs.RetentionDays(""), retentionDays(0))
	require.Equal(t, awslogs.RetentionDays_ONE_WEEK, retentionDays(7))
	require.Equal(t, awslogs.RetentionDays_ONE_MONTH, retentionDays(30))
	require.Equal(t, awslogs.RetentionDays_ONE_MONTH, retentionDays(20))
	require.Equal(t, awslogs.RetentionDays_FIVE_MONTHS, retentionDays(150))
	require.Equal(t, awslogs.RetentionDays_FIVE_MONTHS, retentionDays(121))
	require.Equal(t, awslogs.RetentionDays_THIRTEEN_MONTHS, retentionDays(400))
	require.Equal(t, awslogs.RetentionDays_TWO_YEARS, retentionDays(731))
	require.Equal(t, awslogs.RetentionDays_THREE_YEARS, retentionDays(732))
	require.Equal(t, awslogs.RetentionDays_FIVE_YEARS, retentionDays(1461))
	require.Equal(t, awslogs.RetentionDays_TEN_YEARS, retentionDays(3653))
	require.Equal(t, awslogs.RetentionDays_INFINITE, retentionDays(5000))
}

func TestBuild_ImportedFunctionWithDomain(t *testing.T) {
	clearOverrides(t)

	f, err := Parse([]byte(fullFile))
	require.NoError(t, err)

	log := observability.NewTestLogger()
	app := awscdk.NewApp(nil)
	stacks, err := f.Build(app, log)
	require.NoError(t, err)
	require.NotNil(t, stacks.Function)
	require.NotNil(t, stacks.API.Certificate)
	require.NotNil(t, stacks.API.Record)

	template := assertions.Template_FromStack(stacks.API.Stack, nil)
	template.ResourceCountIs(jsii.String("AWS::ApiGatewayV2::Api"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CertificateManager::Certificate"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::Logs::LogGroup"), map[string]any{
		"RetentionInDays": 30,
	})
	template.HasResourceProperties(jsii.String("AWS::Route53::RecordSet"), map[string]any{
		"Name": "api.orders.example.com.",
		"Type": "A",
	})

	require.Contains(t, log.Messages(), "function stack described")
}

func TestBuild_RejectsBeforeAddingStacks(t *testing.T) {

	f := &File{
		App:      "orders",
		Stage:    "dev",
		Function: Function{ARN: "arn:aws:lambda:us-east-1:123456789012:function:orders"},
		Domain:   &Domain{Name: "api.example.com"},
	}
	app := awscdk.NewApp(nil)

	stacks, err := f.Build(app, nil)
	require.Nil(t, stacks)
	require.True(t, errors.Is(err, httpapistack.ErrNameWithoutCert))
	require.Nil(t, app.Node().TryFindChild(jsii.String(f.FunctionStackName())))
}
