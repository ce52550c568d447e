package clistack

import (
	"context"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["stack-rm"] = stackRm
	lib.Args["stack-rm"] = stackRmArgs{}
}

type stackRmArgs struct {
	Name    string `arg:"positional,required" help:"stack name"`
	NoWait  bool   `arg:"--no-wait" help:"don't wait for delete to complete"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (stackRmArgs) Description() string {
	return "\ndelete a cloudformation stack, deleting an absent stack is a no-op\n"
}

func stackRm() {
	var args stackRmArgs
	arg.MustParse(&args)
	ctx := context.Background()
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed("going to DELETE stack: " + args.Name)
		if err != nil {
			os.Exit(0)
		}
	}
	err := lib.CFDeleteStack(ctx, args.Name, !args.NoWait, args.Preview)
	if err != nil {
		lib.Error("%v", err)
		os.Exit(1)
	}
}
