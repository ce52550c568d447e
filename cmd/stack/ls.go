package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["stack-ls"] = stackLs
	lib.Args["stack-ls"] = stackLsArgs{}
}

type stackLsArgs struct {
}

func (stackLsArgs) Description() string {
	return "\nlist cloudformation stacks\n"
}

func stackLs() {
	var args stackLsArgs
	arg.MustParse(&args)
	ctx := context.Background()
	stacks, err := lib.CFListStacks(ctx)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	for _, stack := range stacks {
		age := "-"
		if stack.LastUpdatedTime != nil {
			age = humanize.Time(*stack.LastUpdatedTime)
		} else if stack.CreationTime != nil {
			age = humanize.Time(*stack.CreationTime)
		}
		fmt.Println(*stack.StackName, string(stack.StackStatus), age)
	}
}
