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
	lib.Commands["secrets-ensure"] = secretsEnsure
	lib.Args["secrets-ensure"] = secretsEnsureArgs{}
}

type secretsEnsureArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (secretsEnsureArgs) Description() string {
	return `
ensure the database credentials stack for an environment

the master password is generated locally on first deploy and kept on every
later deploy, updates never rotate it

example:
 - stackctl secrets-ensure dev
`
}

func secretsEnsure() {
	var args secretsEnsureArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	descriptor, err := lib.SecretsDescriptor(ctx, conf)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to deploy secrets stack %s in env %s", descriptor.Name, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	lib.Header("secrets %s", args.Env)
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
