package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["deployer-status"] = deployerStatus
	lib.Args["deployer-status"] = deployerStatusArgs{}
}

type deployerStatusArgs struct {
	Env string `arg:"positional,required" help:"dev | staging | prod"`
}

func (deployerStatusArgs) Description() string {
	return "\nshow deployer stack state and the role arn ci assumes\n"
}

func deployerStatus() {
	var args deployerStatusArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	name := lib.StackName(conf, lib.DeployerKind)
	state, outputs, err := lib.CFStackStatus(ctx, name)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	data, err := yaml.Marshal(map[string]any{
		"name":    name,
		"state":   string(state),
		"outputs": outputs,
		"repo":    conf.Deployer.GithubRepo,
	})
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
