package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	httpapistack "github.com/theory-cloud/httpapistack"
	"github.com/theory-cloud/httpapistack/pkg/awsenv"
	"github.com/theory-cloud/httpapistack/pkg/logger"
	"github.com/theory-cloud/httpapistack/pkg/observability"
	obszap "github.com/theory-cloud/httpapistack/pkg/observability/zap"
	"github.com/theory-cloud/httpapistack/pkg/stackfile"
)

const name = "httpapi-synth"

const (
	exitOK      = 0
	exitConfig  = 1
	exitFailure = 2
)

// version is overridden at build time with ldflags.
var version = "dev"

// regionLoader resolves the region when neither the stack file nor the
// environment names one. Swapped in tests.
var regionLoader awsenv.Loader = awsenv.LoadRegion

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := newRootCmd(stdout, stderr).Run(ctx, args)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "%s: FAIL: %v\n", name, err)
	if httpapistack.IsConfigError(err) {
		return exitConfig
	}
	return exitFailure
}

var (
	fileFlag = &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Value:   "httpapi.yaml",
		Usage:   "path to the stack file",
		Sources: cli.EnvVars("HTTPAPI_FILE"),
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error); overrides the stack file",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Value: "yaml",
		Usage: "output format (yaml, json)",
	}
	outdirFlag = &cli.StringFlag{
		Name:  "outdir",
		Usage: "cloud assembly output directory; overrides the stack file",
	}
)

func newRootCmd(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "Describe an HTTP API in front of a Lambda function as CDK stacks",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     []cli.Flag{fileFlag, logLevelFlag},
		Commands: []*cli.Command{
			validateCmd(stdout, stderr),
			planCmd(stdout, stderr),
			synthCmd(stdout, stderr),
		},
	}
}

func validateCmd(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the stack file and its domain configuration",
		Action: func(_ context.Context, cmd *cli.Command) error {
			f, log, err := load(cmd, stderr)
			if err != nil {
				return err
			}
			defer flushLogger(log)

			plan, err := planFile(f, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s: ok (certificate=%s domain=%q record=%t)\n",
				f.APIStackName(), plan.Certificate, plan.DomainName, plan.CreateRecord)
			return nil
		},
	}
}

func planCmd(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the resources the API stack would describe",
		Flags: []cli.Flag{formatFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			f, log, err := load(cmd, stderr)
			if err != nil {
				return err
			}
			defer flushLogger(log)

			plan, err := planFile(f, log)
			if err != nil {
				return err
			}
			return writePlan(stdout, cmd.String("format"), planOutput{
				Stack:         f.APIStackName(),
				FunctionStack: f.FunctionStackName(),
				APIName:       f.APIName(),
				StackPlan:     plan,
			})
		},
	}
}

func synthCmd(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "synth",
		Usage: "Synthesize the function and API stacks into a cloud assembly",
		Flags: []cli.Flag{outdirFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, log, err := load(cmd, stderr)
			if err != nil {
				return err
			}
			defer flushLogger(log)
			defer jsii.Close()

			if outdir := cmd.String("outdir"); outdir != "" {
				f.Outdir = outdir
			}

			env, err := awsenv.Resolve(ctx, awsenv.Env{Account: f.Account, Region: f.Region}, regionLoader)
			if err != nil {
				return err
			}
			f.Account, f.Region = env.Account, env.Region

			app := awscdk.NewApp(&awscdk.AppProps{Outdir: jsii.String(f.Outdir)})
			if _, err := f.Build(app, log); err != nil {
				return err
			}
			assembly := app.Synth(nil)

			log.Info("cloud assembly written", map[string]any{"outdir": *assembly.Directory()})
			fmt.Fprintln(stdout, *assembly.Directory())
			return nil
		},
	}
}

// load reads the stack file named by --file and builds the logger it asks for.
func load(cmd *cli.Command, stderr io.Writer) (*stackfile.File, observability.StructuredLogger, error) {
	f, err := stackfile.Load(cmd.String(fileFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	if level := cmd.String(logLevelFlag.Name); level != "" {
		f.Log.Level = level
	}

	log, err := obszap.NewZapLogger(f.Log, obszap.WithOutput(zapcore.AddSync(stderr)))
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	logger.SetLogger(log)
	return f, log.WithComponent(name), nil
}

// planFile plans f and logs why it was rejected.
func planFile(f *stackfile.File, log observability.StructuredLogger) (httpapistack.StackPlan, error) {
	plan, err := f.Plan()
	if err != nil {
		log.Error("stack file rejected", map[string]any{
			"code":  httpapistack.ConfigErrorCode(err),
			"error": err.Error(),
		})
		return httpapistack.StackPlan{}, err
	}
	return plan, nil
}

func flushLogger(log observability.StructuredLogger) {
	_ = log.Flush(context.Background())
}

type planOutput struct {
	Stack         string `json:"stack" yaml:"stack"`
	FunctionStack string `json:"function_stack" yaml:"function_stack"`
	APIName       string `json:"api_name" yaml:"api_name"`

	httpapistack.StackPlan `json:",inline" yaml:",inline"`
}

func writePlan(w io.Writer, format string, out planOutput) error {
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %q", format)
	}
}
