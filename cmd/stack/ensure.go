package clistack

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["stack-ensure"] = stackEnsure
	lib.Args["stack-ensure"] = stackEnsureArgs{}
}

type stackEnsureArgs struct {
	Name            string   `arg:"positional,required" help:"stack name"`
	Template        string   `arg:"positional,required" help:"path to template file"`
	Params          []string `arg:"positional" help:"Key=Value stack parameters"`
	NamedIam        bool     `arg:"--named-iam" help:"allow named iam resources"`
	Preview         bool     `arg:"-p,--preview"`
	Yes             bool     `arg:"-y,--yes" help:"skip confirmation"`
	IntervalSeconds int      `arg:"--interval-seconds" default:"10" help:"poll interval"`
	TimeoutMinutes  int      `arg:"--timeout-minutes" default:"30" help:"overall polling budget"`
}

func (stackEnsureArgs) Description() string {
	return `
create or update a cloudformation stack and wait for it to settle

example:
 - stackctl stack-ensure ragchat-network-dev templates/network.yaml VpcCidr=10.0.0.0/16
`
}

func stackEnsure() {
	var args stackEnsureArgs
	arg.MustParse(&args)
	ctx := context.Background()
	params, err := lib.ParseParams(args.Params)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	body, err := os.ReadFile(args.Template)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	input := &lib.CFEnsureInput{
		Name:         args.Name,
		TemplateBody: string(body),
		Params:       params,
		Interval:     time.Duration(args.IntervalSeconds) * time.Second,
		Timeout:      time.Duration(args.TimeoutMinutes) * time.Minute,
	}
	if args.NamedIam {
		input.Capabilities = []cftypes.Capability{cftypes.CapabilityCapabilityNamedIam}
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed("going to deploy stack: " + args.Name)
		if err != nil {
			os.Exit(0)
		}
	}
	lib.Step("reconciling %s", args.Name)
	result, err := lib.CFEnsureStack(ctx, input, args.Preview)
	if err != nil {
		lib.Error("%v", err)
		os.Exit(1)
	}
	data, err := yaml.Marshal(map[string]any{
		"name":    args.Name,
		"state":   string(result.State),
		"noop":    result.NoOp,
		"outputs": result.Outputs,
	})
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
