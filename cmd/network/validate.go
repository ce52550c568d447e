package clistack

import (
	"context"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["network-validate"] = networkValidate
	lib.Args["network-validate"] = networkValidateArgs{}
}

type networkValidateArgs struct {
}

func (networkValidateArgs) Description() string {
	return "\nremotely validate the network template\n"
}

func networkValidate() {
	var args networkValidateArgs
	arg.MustParse(&args)
	ctx := context.Background()
	path := lib.TemplatePath(lib.NetworkKind)
	body, err := os.ReadFile(path)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	err = lib.CFValidateTemplate(ctx, path, string(body))
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	lib.Info("valid: %s", path)
}
