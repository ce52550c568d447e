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
	lib.Commands["database-ensure"] = databaseEnsure
	lib.Args["database-ensure"] = databaseEnsureArgs{}
}

type databaseEnsureArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (databaseEnsureArgs) Description() string {
	return `
ensure the aurora database stack for an environment

needs the network and secrets stacks deployed first, their outputs feed the
database parameters

example:
 - stackctl database-ensure dev
`
}

func databaseEnsure() {
	var args databaseEnsureArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	descriptor, err := lib.DatabaseDescriptor(ctx, conf)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to deploy database stack %s in env %s", descriptor.Name, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	lib.Header("database %s", args.Env)
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
