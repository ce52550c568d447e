package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["deployer-rm"] = deployerRm
	lib.Args["deployer-rm"] = deployerRmArgs{}
}

type deployerRmArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	NoWait  bool   `arg:"--no-wait" help:"don't wait for delete to complete"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (deployerRmArgs) Description() string {
	return "\ndelete the github oidc deployer stack for an environment, ci deploys will stop working\n"
}

func deployerRm() {
	var args deployerRmArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	name := lib.StackName(conf, lib.DeployerKind)
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to DELETE the deployer stack %s in env %s", name, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	err = lib.CFDeleteStack(ctx, name, !args.NoWait, args.Preview)
	if err != nil {
		lib.Error("%v", err)
		os.Exit(1)
	}
}
