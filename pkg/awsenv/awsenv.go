// Package awsenv resolves the account and region a stack is synthesized for.
//
// Only identifiers are resolved here. Credentials are left to the CDK toolchain.
package awsenv

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
)

// Env is the target environment of a stack. Empty fields leave the stack
// environment-agnostic for that dimension.
type Env struct {
	Account string
	Region  string
}

// Loader loads AWS shared configuration. It is swapped in tests.
type Loader func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (string, error)

// LoadRegion returns the region from the AWS shared config and environment.
func LoadRegion(ctx context.Context, optFns ...func(*config.LoadOptions) error) (string, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return "", fmt.Errorf("awsenv: load shared config: %w", err)
	}
	return cfg.Region, nil
}

// Resolve fills a missing region in explicit from the AWS shared config and
// environment. CDK_DEFAULT_ACCOUNT and CDK_DEFAULT_REGION are applied by the
// stack file loader before this is called.
func Resolve(ctx context.Context, explicit Env, load Loader) (Env, error) {
	out := Env{
		Account: strings.TrimSpace(explicit.Account),
		Region:  strings.TrimSpace(explicit.Region),
	}
	if out.Region != "" {
		return out, nil
	}

	if load == nil {
		load = LoadRegion
	}
	region, err := load(ctx)
	if err != nil {
		return Env{}, err
	}
	out.Region = region
	return out, nil
}
