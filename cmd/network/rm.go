package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["network-rm"] = networkRm
	lib.Args["network-rm"] = networkRmArgs{}
}

type networkRmArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	NoWait  bool   `arg:"--no-wait" help:"don't wait for delete to complete"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (networkRmArgs) Description() string {
	return "\ndelete the vpc network stack for an environment\n"
}

func networkRm() {
	var args networkRmArgs
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
		err := lib.PromptProceed(fmt.Sprintf("going to DELETE the network stack %s in env %s", descriptor.Name, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	err = descriptor.Delete(ctx, !args.NoWait, args.Preview)
	if err != nil {
		lib.Error("%v", err)
		os.Exit(1)
	}
}
