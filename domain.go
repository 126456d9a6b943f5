package httpapistack

import (
	"reflect"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"

	"github.com/theory-cloud/httpapistack/pkg/naming"
)

// CertSource says where the custom domain's TLS certificate comes from.
// It is implemented by IssueCert and ExistingCert only.
type CertSource interface {
	Zone() awsroute53.IHostedZone
	certSource()
}

// IssueCert requests a new DNS-validated certificate against a hosted zone
// the caller controls.
type IssueCert struct {
	HostedZone awsroute53.IHostedZone
}

func (c IssueCert) Zone() awsroute53.IHostedZone { return c.HostedZone }
func (IssueCert) certSource()                    {}

// ExistingCert references an already issued certificate by ARN. HostedZone
// is still needed when a DNS record is created.
type ExistingCert struct {
	HostedZone     awsroute53.IHostedZone
	CertificateARN string
}

func (c ExistingCert) Zone() awsroute53.IHostedZone { return c.HostedZone }
func (ExistingCert) certSource()                    {}

// DomainConfig describes the optional custom domain of the API.
//
// APIDNSName and CertSource are either both set or both unset; CreateDNSRecord
// requires both. An empty APIDNSName and a nil CertSource mean "absent".
type DomainConfig struct {
	APIDNSName      string
	CertSource      CertSource
	CreateDNSRecord bool
}

// Validate checks the config and returns it unchanged when it is consistent.
//
// Rules are checked in a fixed order and the first violation is returned:
// ErrMissingDNSName, ErrMissingCertSource, ErrCertWithoutName, ErrNameWithoutCert.
func Validate(cfg DomainConfig) (DomainConfig, error) {
	if err := cfg.Validate(); err != nil {
		return DomainConfig{}, err
	}
	return cfg, nil
}

func (c DomainConfig) Validate() error {
	hasName := c.APIDNSName != ""
	hasCert := c.HasCertSource()

	if c.CreateDNSRecord {
		if !hasName {
			return ErrMissingDNSName
		}
		if !hasCert {
			return ErrMissingCertSource
		}
	}
	if hasCert && !hasName {
		return ErrCertWithoutName
	}
	if hasName && !hasCert {
		return ErrNameWithoutCert
	}
	return nil
}

// HasCertSource reports whether a cert source is set. Typed nil pointers count as unset.
func (c DomainConfig) HasCertSource() bool {
	if c.CertSource == nil {
		return false
	}
	v := reflect.ValueOf(c.CertSource)
	return v.Kind() != reflect.Pointer || !v.IsNil()
}

// IsEmpty reports whether no custom domain is wanted at all.
func (c DomainConfig) IsEmpty() bool {
	return c.APIDNSName == "" && !c.HasCertSource() && !c.CreateDNSRecord
}

// RecordPrefix returns the alias record name relative to the hosted zone by
// dropping the last two labels of dnsName.
//
//	api.service.example.com -> api.service
func RecordPrefix(dnsName string) string {
	prefix, _ := naming.SplitDomain(dnsName)
	return prefix
}
