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
	lib.Commands["network-ensure"] = networkEnsure
	lib.Args["network-ensure"] = networkEnsureArgs{}
}

type networkEnsureArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (networkEnsureArgs) Description() string {
	return `
ensure the vpc network stack for an environment

example:
 - stackctl network-ensure dev
`
}

func networkEnsure() {
	var args networkEnsureArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	descriptor, err := lib.NetworkDescriptor(conf)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to deploy network stack %s in env %s", descriptor.Name, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	lib.Header("network %s", args.Env)
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
