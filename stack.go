package httpapistack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2integrations"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/httpapistack/pkg/logger"
	"github.com/theory-cloud/httpapistack/pkg/observability"
)

// Construct ids inside the API stack. They are part of the synthesized
// logical ids, so changing one replaces the resource.
const (
	idIntegration = "APIIntegration"
	idLogGroup    = "APILogGroup"
	idAPI         = "API"
	idCert        = "Cert"
	idDomainName  = "DomainName"
	idRecord      = "Record"
)

const accessLogFormat = `{"requestId":"$context.requestId","ip":"$context.identity.sourceIp",` +
	`"requestTime":"$context.requestTime","httpMethod":"$context.httpMethod","routeKey":"$context.routeKey",` +
	`"status":"$context.status","protocol":"$context.protocol","responseLength":"$context.responseLength",` +
	`"integrationError":"$context.integrationErrorMessage"}`

// APIStackProps configures an API stack.
type APIStackProps struct {
	awscdk.StackProps

	// Function handles every route of the API. Required.
	Function awslambda.IFunction
	// Domain maps a custom domain onto the API. Nil means no custom domain.
	Domain *DomainConfig
	// Cors configures the preflight response. Nil disables CORS.
	Cors *CorsOptions

	APIName      string
	LogRetention awslogs.RetentionDays
	// DisableAccessLogs keeps the log group but stops the default stage from
	// writing access logs into it.
	DisableAccessLogs bool

	Logger observability.StructuredLogger
}

// APIStack is the assembled stack. Certificate, DomainName and Record are nil
// when the plan does not include them.
type APIStack struct {
	Stack awscdk.Stack
	Plan  StackPlan

	Integration awsapigatewayv2integrations.HttpLambdaIntegration
	LogGroup    awslogs.LogGroup
	API         awsapigatewayv2.HttpApi

	Certificate awscertificatemanager.ICertificate
	DomainName  awsapigatewayv2.DomainName
	Record      awsroute53.ARecord
}

// NewAPIStack validates props and describes the API stack under scope.
// Nothing is added to scope when validation fails.
func NewAPIStack(scope constructs.Construct, id string, props *APIStackProps) (*APIStack, error) {
	if props == nil {
		return nil, InvalidConfig("api stack props are required")
	}
	if props.Function == nil {
		return nil, InvalidConfig("api stack %q: function is required", id)
	}
	if props.Domain != nil {
		err := props.Domain.Validate()
		if err == nil {
			err = requireZone(props.Domain)
		}
		if err != nil {
			logger.Or(props.Logger).WithStack(id).Error("domain config rejected", map[string]any{
				"code":        ConfigErrorCode(err),
				"domain_name": props.Domain.APIDNSName,
			})
			return nil, err
		}
	}
	return Assemble(scope, id, props), nil
}

// requireZone checks that the hosted zone handle is set wherever assembly
// uses it: issuing a certificate and creating the alias record.
func requireZone(cfg *DomainConfig) error {
	src := resolveCertSource(cfg.CertSource)
	if src == nil || src.Zone() != nil {
		return nil
	}
	if _, ok := src.(IssueCert); ok {
		return InvalidConfig("domain %q: hosted zone is required to issue a certificate", cfg.APIDNSName)
	}
	if cfg.CreateDNSRecord {
		return InvalidConfig("domain %q: hosted zone is required to create a record", cfg.APIDNSName)
	}
	return nil
}

// Assemble describes the API stack without validating props.Domain. Use
// NewAPIStack unless the config was validated already.
func Assemble(scope constructs.Construct, id string, props *APIStackProps) *APIStack {
	stack := awscdk.NewStack(scope, jsii.String(id), &props.StackProps)
	log := logger.Or(props.Logger).WithStack(id).WithComponent("assembler")

	plan := PlanStack(props.Domain)
	out := &APIStack{Stack: stack, Plan: plan}

	out.Integration = awsapigatewayv2integrations.NewHttpLambdaIntegration(jsii.String(idIntegration), props.Function, nil)
	out.LogGroup = newLogGroup(stack, props.LogRetention)

	if plan.HasDomain() {
		out.Certificate = resolveCertificate(stack, props.Domain)
		out.DomainName = awsapigatewayv2.NewDomainName(stack, jsii.String(idDomainName), &awsapigatewayv2.DomainNameProps{
			DomainName:  jsii.String(props.Domain.APIDNSName),
			Certificate: out.Certificate,
		})
	}

	out.API = newHTTPAPI(stack, props, out.Integration, out.DomainName)
	if !props.DisableAccessLogs {
		enableAccessLogs(out.API, out.LogGroup)
	}

	if plan.CreateRecord {
		zone := resolveCertSource(props.Domain.CertSource).Zone()
		out.Record = newAliasRecord(stack, zone, plan.RecordName, out.DomainName)
	}

	addOutputs(stack, out)

	log.Info("api stack assembled", map[string]any{
		"certificate":   string(plan.Certificate),
		"domain_name":   plan.DomainName,
		"create_record": plan.CreateRecord,
		"record_name":   plan.RecordName,
		"cors":          props.Cors != nil,
	})
	return out
}

func newLogGroup(stack awscdk.Stack, retention awslogs.RetentionDays) awslogs.LogGroup {
	props := &awslogs.LogGroupProps{}
	if retention != "" {
		props.Retention = retention
	}
	return awslogs.NewLogGroup(stack, jsii.String(idLogGroup), props)
}

func newHTTPAPI(
	stack awscdk.Stack,
	props *APIStackProps,
	integration awsapigatewayv2.HttpRouteIntegration,
	domain awsapigatewayv2.DomainName,
) awsapigatewayv2.HttpApi {
	apiProps := &awsapigatewayv2.HttpApiProps{
		DefaultIntegration: integration,
		CorsPreflight:      props.Cors.preflight(),
	}
	if props.APIName != "" {
		apiProps.ApiName = jsii.String(props.APIName)
	}
	if domain != nil {
		apiProps.DefaultDomainMapping = &awsapigatewayv2.DomainMappingOptions{
			DomainName: domain,
		}
	}
	return awsapigatewayv2.NewHttpApi(stack, jsii.String(idAPI), apiProps)
}

// resolveCertificate imports or describes the certificate for cfg. cfg must
// carry a cert source.
func resolveCertificate(stack awscdk.Stack, cfg *DomainConfig) awscertificatemanager.ICertificate {
	switch src := resolveCertSource(cfg.CertSource).(type) {
	case ExistingCert:
		return ImportCertificate(stack, idCert, src.CertificateARN)
	case IssueCert:
		return NewCertificate(stack, idCert, CertProps{
			HostedZone: src.HostedZone,
			DomainName: cfg.APIDNSName,
			Region:     regionOf(stack),
		})
	default:
		return nil
	}
}

func newAliasRecord(
	stack awscdk.Stack,
	zone awsroute53.IHostedZone,
	recordName string,
	domain awsapigatewayv2.DomainName,
) awsroute53.ARecord {
	props := &awsroute53.ARecordProps{
		Zone: zone,
		Target: awsroute53.RecordTarget_FromAlias(
			awsroute53targets.NewApiGatewayv2DomainProperties(domain.RegionalDomainName(), domain.RegionalHostedZoneId()),
		),
	}
	// An empty prefix is the zone apex, which is the default record name.
	if recordName != "" {
		props.RecordName = jsii.String(recordName)
	}
	if region := regionOf(stack); region != "" {
		props.Region = jsii.String(region)
	}
	return awsroute53.NewARecord(stack, jsii.String(idRecord), props)
}

func enableAccessLogs(api awsapigatewayv2.HttpApi, group awslogs.ILogGroup) {
	stage := api.DefaultStage()
	if stage == nil {
		return
	}
	cfn, ok := stage.Node().DefaultChild().(awsapigatewayv2.CfnStage)
	if !ok {
		return
	}
	cfn.SetAccessLogSettings(&awsapigatewayv2.CfnStage_AccessLogSettingsProperty{
		DestinationArn: group.LogGroupArn(),
		Format:         jsii.String(accessLogFormat),
	})
}

func addOutputs(stack awscdk.Stack, out *APIStack) {
	awscdk.NewCfnOutput(stack, jsii.String("ApiEndpoint"), &awscdk.CfnOutputProps{
		Value: out.API.ApiEndpoint(),
	})
	if out.DomainName != nil {
		awscdk.NewCfnOutput(stack, jsii.String("ApiDomainName"), &awscdk.CfnOutputProps{
			Value: jsii.String("https://" + out.Plan.DomainName),
		})
		awscdk.NewCfnOutput(stack, jsii.String("ApiRegionalDomainName"), &awscdk.CfnOutputProps{
			Value: out.DomainName.RegionalDomainName(),
		})
	}
}

// regionOf returns the stack's concrete region, or "" for environment-agnostic stacks.
func regionOf(stack awscdk.Stack) string {
	region := stack.Region()
	if region == nil || *awscdk.Token_IsUnresolved(region) {
		return ""
	}
	return *region
}
