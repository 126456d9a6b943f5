package httpapistack

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// CertProps configures a DNS-validated certificate.
type CertProps struct {
	// HostedZone validates the certificate. Required.
	HostedZone awsroute53.IHostedZone
	// DomainName is the name the certificate is requested for. Required.
	DomainName string
	// Region the certificate is issued in. Empty means the stack's region.
	Region string
}

// NewCertificate describes a new certificate validated through props.HostedZone.
//
// API Gateway regional domains need the certificate in the API's region. When
// props.Region names another region a cross-region validated certificate is
// described instead.
func NewCertificate(scope constructs.Construct, id string, props CertProps) awscertificatemanager.ICertificate {
	stackRegion := awscdk.Stack_Of(scope).Region()
	if props.Region == "" || (stackRegion != nil && *stackRegion == props.Region) {
		return awscertificatemanager.NewCertificate(scope, jsii.String(id), &awscertificatemanager.CertificateProps{
			DomainName: jsii.String(props.DomainName),
			Validation: awscertificatemanager.CertificateValidation_FromDns(props.HostedZone),
		})
	}

	return awscertificatemanager.NewDnsValidatedCertificate(scope, jsii.String(id), &awscertificatemanager.DnsValidatedCertificateProps{
		DomainName: jsii.String(props.DomainName),
		HostedZone: props.HostedZone,
		Region:     jsii.String(props.Region),
	})
}

// ImportCertificate references an existing certificate by ARN. Nothing new is
// provisioned.
func ImportCertificate(scope constructs.Construct, id, arn string) awscertificatemanager.ICertificate {
	return awscertificatemanager.Certificate_FromCertificateArn(scope, jsii.String(id), jsii.String(arn))
}
