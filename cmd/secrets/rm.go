package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["secrets-rm"] = secretsRm
	lib.Args["secrets-rm"] = secretsRmArgs{}
}

type secretsRmArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	NoWait  bool   `arg:"--no-wait" help:"don't wait for delete to complete"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (secretsRmArgs) Description() string {
	return "\ndelete the database credentials stack for an environment\n"
}

func secretsRm() {
	var args secretsRmArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	name := lib.StackName(conf, lib.SecretsKind)
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to DELETE the secrets stack %s in env %s, the database password goes with it", name, args.Env))
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
