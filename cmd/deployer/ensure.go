package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["deployer-ensure"] = deployerEnsure
	lib.Args["deployer-ensure"] = deployerEnsureArgs{}
}

type deployerEnsureArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (deployerEnsureArgs) Description() string {
	return `
ensure the github oidc deployer stack for an environment: the oidc provider
plus a role assumable from actions runs of the configured repo

example:
 - stackctl deployer-ensure dev
`
}

func deployerEnsure() {
	var args deployerEnsureArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	descriptor, err := lib.DeployerDescriptor(conf)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to deploy deployer stack %s in env %s, creates named iam resources", descriptor.Name, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	lib.Header("deployer %s", args.Env)
	lib.Step("reconciling %s", descriptor.Name)
	result, err := descriptor.Ensure(ctx, args.Preview)
	if err != nil {
		lib.Error("%v", err)
		os.Exit(1)
	}
	data, err := yaml.Marshal(map[string]any{
		"name":    descriptor.Name,
		"state":   string(result.State),
		"noop":    result.NoOp,
		"outputs": result.Outputs,
	})
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
