package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["stack-status"] = stackStatus
	lib.Args["stack-status"] = stackStatusArgs{}
}

type stackStatusArgs struct {
	Name string `arg:"positional,required" help:"stack name"`
}

func (stackStatusArgs) Description() string {
	return "\nshow stack state and outputs, absence is a normal result\n"
}

func stackStatus() {
	var args stackStatusArgs
	arg.MustParse(&args)
	ctx := context.Background()
	state, outputs, err := lib.CFStackStatus(ctx, args.Name)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	data, err := yaml.Marshal(map[string]any{
		"name":    args.Name,
		"state":   string(state),
		"outputs": outputs,
	})
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
