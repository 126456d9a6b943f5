package httpapistack

const (
	errorCodeMissingDNSName    = "config.missing_dns_name"
	errorCodeMissingCertSource = "config.missing_cert_source"
	errorCodeCertWithoutName   = "config.cert_without_name"
	errorCodeNameWithoutCert   = "config.name_without_cert"
	errorCodeInvalid           = "config.invalid"
)

const (
	errorMessageMissingDNSName    = "api dns name must be provided when create dns record is set"
	errorMessageMissingCertSource = "cert source must be provided when create dns record is set"
	errorMessageCertWithoutName   = "api dns name must be provided when a cert source is provided"
	errorMessageNameWithoutCert   = "cert source must be provided when an api dns name is provided"
)
