package clistack

import (
	"context"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["stack-validate"] = stackValidate
	lib.Args["stack-validate"] = stackValidateArgs{}
}

type stackValidateArgs struct {
	Template string `arg:"positional,required" help:"path to template file"`
}

func (stackValidateArgs) Description() string {
	return "\nvalidate a cloudformation template remotely, no side effects\n"
}

func stackValidate() {
	var args stackValidateArgs
	arg.MustParse(&args)
	ctx := context.Background()
	body, err := os.ReadFile(args.Template)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	err = lib.CFValidateTemplate(ctx, args.Template, string(body))
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	lib.Info("valid: %s", args.Template)
}
