package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["database-rm"] = databaseRm
	lib.Args["database-rm"] = databaseRmArgs{}
}

type databaseRmArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	NoWait  bool   `arg:"--no-wait" help:"don't wait for delete to complete"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (databaseRmArgs) Description() string {
	return "\ndelete the aurora database stack for an environment, the data goes with it\n"
}

func databaseRm() {
	var args databaseRmArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	name := lib.StackName(conf, lib.DatabaseKind)
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to DELETE the database stack %s in env %s, this destroys the database", name, args.Env))
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
