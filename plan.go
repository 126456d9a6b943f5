package httpapistack

// CertMode is how the stack obtains the custom domain's certificate.
type CertMode string

const (
	CertNone     CertMode = "none"
	CertImported CertMode = "imported"
	CertIssued   CertMode = "issued"
)

// StackPlan lists which optional resources an API stack describes.
type StackPlan struct {
	Certificate    CertMode `json:"certificate" yaml:"certificate"`
	CertificateARN string   `json:"certificate_arn,omitempty" yaml:"certificate_arn,omitempty"`
	DomainName     string   `json:"domain_name,omitempty" yaml:"domain_name,omitempty"`
	CreateRecord   bool     `json:"create_record" yaml:"create_record"`
	RecordName     string   `json:"record_name,omitempty" yaml:"record_name,omitempty"`
}

// HasDomain reports whether a custom domain is mapped to the API.
func (p StackPlan) HasDomain() bool {
	return p.DomainName != ""
}

// PlanStack decides which optional resources to describe for cfg. It does
// not validate; callers pass a config that already passed Validate.
func PlanStack(cfg *DomainConfig) StackPlan {
	plan := StackPlan{Certificate: CertNone}
	if cfg == nil || cfg.APIDNSName == "" {
		return plan
	}

	switch src := resolveCertSource(cfg.CertSource).(type) {
	case ExistingCert:
		plan.Certificate = CertImported
		plan.CertificateARN = src.CertificateARN
	case IssueCert:
		plan.Certificate = CertIssued
	case nil:
		return plan
	}

	plan.DomainName = cfg.APIDNSName
	if cfg.CreateDNSRecord {
		plan.CreateRecord = true
		plan.RecordName = RecordPrefix(cfg.APIDNSName)
	}
	return plan
}

// resolveCertSource dereferences pointer variants so callers only switch on
// the two value types. Typed nil pointers become nil.
func resolveCertSource(src CertSource) CertSource {
	switch v := src.(type) {
	case *IssueCert:
		if v == nil {
			return nil
		}
		return *v
	case *ExistingCert:
		if v == nil {
			return nil
		}
		return *v
	default:
		return src
	}
}
