package clistack

import (
	"context"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["deployer-validate"] = deployerValidate
	lib.Args["deployer-validate"] = deployerValidateArgs{}
}

type deployerValidateArgs struct {
}

func (deployerValidateArgs) Description() string {
	return "\nremotely validate the deployer template\n"
}

func deployerValidate() {
	var args deployerValidateArgs
	arg.MustParse(&args)
	ctx := context.Background()
	path := lib.TemplatePath(lib.DeployerKind)
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
