package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["stack-outputs"] = stackOutputs
	lib.Args["stack-outputs"] = stackOutputsArgs{}
}

type stackOutputsArgs struct {
	Name string `arg:"positional,required" help:"stack name"`
	Key  string `arg:"positional" help:"print just this output value"`
}

func (stackOutputsArgs) Description() string {
	return "\nshow stack outputs, or one output value for scripting\n"
}

func stackOutputs() {
	var args stackOutputsArgs
	arg.MustParse(&args)
	ctx := context.Background()
	if args.Key != "" {
		value, err := lib.StackOutput(ctx, args.Name, args.Key)
		if err != nil {
			lib.Logger.Fatal("error: ", err)
		}
		fmt.Println(value)
		return
	}
	_, outputs, err := lib.CFStackStatus(ctx, args.Name)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	data, err := yaml.Marshal(outputs)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
