package stackfile

import (
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	httpapistack "github.com/theory-cloud/httpapistack"
	"github.com/theory-cloud/httpapistack/pkg/logger"
	"github.com/theory-cloud/httpapistack/pkg/observability"
)

// Stacks is what Build adds to the app.
type Stacks struct {
	Function awscdk.Stack
	API      *httpapistack.APIStack
}

// DomainConfig converts the domain section. zone is the imported hosted zone
// handle and may be nil when only validating or planning.
func (f *File) DomainConfig(zone awsroute53.IHostedZone) *httpapistack.DomainConfig {
	d := f.Domain
	if d == nil {
		return nil
	}

	cfg := &httpapistack.DomainConfig{
		APIDNSName:      d.Name,
		CreateDNSRecord: d.CreateRecord,
	}
	switch {
	case d.CertificateARN != "":
		cfg.CertSource = httpapistack.ExistingCert{HostedZone: zone, CertificateARN: d.CertificateARN}
	case d.HostedZone != nil:
		cfg.CertSource = httpapistack.IssueCert{HostedZone: zone}
	}
	return cfg
}

// Plan validates the file and returns the resources the API stack would describe.
func (f *File) Plan() (httpapistack.StackPlan, error) {
	if err := f.Validate(); err != nil {
		return httpapistack.StackPlan{}, err
	}
	domain := f.DomainConfig(nil)
	if domain != nil {
		if err := domain.Validate(); err != nil {
			return httpapistack.StackPlan{}, err
		}
	}
	return httpapistack.PlanStack(domain), nil
}

// Build adds the function stack and the API stack to scope.
//
// The function stack holds the function (deployed from an asset or imported
// by ARN) and the hosted zone import; the API stack references both.
func (f *File) Build(scope constructs.Construct, log observability.StructuredLogger) (*Stacks, error) {
	log = logger.Or(log).WithStage(f.Stage)

	if err := f.Validate(); err != nil {
		return nil, err
	}
	// Reject an inconsistent domain before anything is added to scope.
	if domain := f.DomainConfig(nil); domain != nil {
		if err := domain.Validate(); err != nil {
			return nil, err
		}
	}

	fnStack := awscdk.NewStack(scope, jsii.String(f.FunctionStackName()), &awscdk.StackProps{Env: f.environment()})
	fn := f.function(fnStack)

	var zone awsroute53.IHostedZone
	if f.Domain != nil && f.Domain.HostedZone != nil {
		zone = awsroute53.HostedZone_FromHostedZoneAttributes(fnStack, jsii.String("HostedZone"), &awsroute53.HostedZoneAttributes{
			HostedZoneId: jsii.String(f.Domain.HostedZone.ID),
			ZoneName:     jsii.String(f.Domain.HostedZone.Name),
		})
	}

	api, err := httpapistack.NewAPIStack(scope, f.APIStackName(), &httpapistack.APIStackProps{
		StackProps:   awscdk.StackProps{Env: f.environment()},
		Function:     fn,
		Domain:       f.DomainConfig(zone),
		Cors:         f.CorsOptions(),
		APIName:      f.APIName(),
		LogRetention: retentionDays(f.LogRetentionDays),
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	log.WithStack(f.FunctionStackName()).Info("function stack described", map[string]any{
		"imported": f.Function.ARN != "",
		"asset":    f.Function.Asset,
	})
	return &Stacks{Function: fnStack, API: api}, nil
}

func (f *File) environment() *awscdk.Environment {
	if f.Account == "" && f.Region == "" {
		return nil
	}
	out := &awscdk.Environment{}
	if f.Account != "" {
		out.Account = jsii.String(f.Account)
	}
	if f.Region != "" {
		out.Region = jsii.String(f.Region)
	}
	return out
}

func (f *File) function(stack awscdk.Stack) awslambda.IFunction {
	fn := f.Function
	if fn.ARN != "" {
		return awslambda.Function_FromFunctionArn(stack, jsii.String("Function"), jsii.String(fn.ARN))
	}

	props := &awslambda.FunctionProps{
		Runtime: awslambda.NewRuntime(jsii.String(fn.Runtime), awslambda.RuntimeFamily_OTHER, nil),
		Handler: jsii.String(fn.Handler),
		Code:    awslambda.Code_FromAsset(jsii.String(fn.Asset), nil),
	}
	if fn.MemoryMB > 0 {
		props.MemorySize = jsii.Number(float64(fn.MemoryMB))
	}
	if fn.Timeout > 0 {
		props.Timeout = awscdk.Duration_Seconds(jsii.Number(float64(time.Duration(fn.Timeout) / time.Second)))
	}
	if len(fn.Environment) > 0 {
		vars := make(map[string]*string, len(fn.Environment))
		for k, v := range fn.Environment {
			vars[k] = jsii.String(v)
		}
		props.Environment = &vars
	}
	return awslambda.NewFunction(stack, jsii.String("Function"), props)
}

var retentionByDays = map[int]awslogs.RetentionDays{
	1:    awslogs.RetentionDays_ONE_DAY,
	3:    awslogs.RetentionDays_THREE_DAYS,
	5:    awslogs.RetentionDays_FIVE_DAYS,
	7:    awslogs.RetentionDays_ONE_WEEK,
	14:   awslogs.RetentionDays_TWO_WEEKS,
	30:   awslogs.RetentionDays_ONE_MONTH,
	60:   awslogs.RetentionDays_TWO_MONTHS,
	90:   awslogs.RetentionDays_THREE_MONTHS,
	120:  awslogs.RetentionDays_FOUR_MONTHS,
	150:  awslogs.RetentionDays_FIVE_MONTHS,
	180:  awslogs.RetentionDays_SIX_MONTHS,
	365:  awslogs.RetentionDays_ONE_YEAR,
	400:  awslogs.RetentionDays_THIRTEEN_MONTHS,
	545:  awslogs.RetentionDays_EIGHTEEN_MONTHS,
	731:  awslogs.RetentionDays_TWO_YEARS,
	1096: awslogs.RetentionDays_THREE_YEARS,
	1827: awslogs.RetentionDays_FIVE_YEARS,
	2192: awslogs.RetentionDays_SIX_YEARS,
	2557: awslogs.RetentionDays_SEVEN_YEARS,
	2922: awslogs.RetentionDays_EIGHT_YEARS,
	3288: awslogs.RetentionDays_NINE_YEARS,
	3653: awslogs.RetentionDays_TEN_YEARS,
}

// retentionDays maps a day count onto the closest supported retention that
// is not shorter. Zero keeps the CDK default.
func retentionDays(days int) awslogs.RetentionDays {
	if days <= 0 {
		return ""
	}
	best := 0
	for d := range retentionByDays {
		if d >= days && (best == 0 || d < best) {
			best = d
		}
	}
	if best == 0 {
		return awslogs.RetentionDays_INFINITE
	}
	return retentionByDays[best]
}
