package clistack

import (
	"context"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["secrets-validate"] = secretsValidate
	lib.Args["secrets-validate"] = secretsValidateArgs{}
}

type secretsValidateArgs struct {
}

func (secretsValidateArgs) Description() string {
	return "\nremotely validate the secrets template\n"
}

func secretsValidate() {
	var args secretsValidateArgs
	arg.MustParse(&args)
	ctx := context.Background()
	path := lib.TemplatePath(lib.SecretsKind)
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
