package httpapistack

import (
	"strings"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/jsii-runtime-go"
)

// CorsOptions configures the HTTP API's CORS preflight. Values are passed to
// API Gateway as given.
type CorsOptions struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func (c *CorsOptions) preflight() *awsapigatewayv2.CorsPreflightOptions {
	if c == nil {
		return nil
	}

	opts := &awsapigatewayv2.CorsPreflightOptions{
		AllowOrigins:  stringList(c.AllowOrigins),
		AllowHeaders:  stringList(c.AllowHeaders),
		ExposeHeaders: stringList(c.ExposeHeaders),
	}
	if len(c.AllowMethods) > 0 {
		methods := make([]awsapigatewayv2.CorsHttpMethod, 0, len(c.AllowMethods))
		for _, m := range c.AllowMethods {
			methods = append(methods, awsapigatewayv2.CorsHttpMethod(strings.ToUpper(strings.TrimSpace(m))))
		}
		opts.AllowMethods = &methods
	}
	if c.AllowCredentials {
		opts.AllowCredentials = jsii.Bool(true)
	}
	if secs := maxAgeSeconds(c.MaxAge); secs > 0 {
		opts.MaxAge = awscdk.Duration_Seconds(jsii.Number(float64(secs)))
	}
	return opts
}

// maxAgeSeconds rounds d up to whole seconds, the unit API Gateway accepts.
func maxAgeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

func stringList(values []string) *[]*string {
	if len(values) == 0 {
		return nil
	}
	return jsii.Strings(values...)
}
