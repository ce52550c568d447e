package clistack

import (
	"context"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["database-validate"] = databaseValidate
	lib.Args["database-validate"] = databaseValidateArgs{}
}

type databaseValidateArgs struct {
}

func (databaseValidateArgs) Description() string {
	return "\nremotely validate the database template\n"
}

func databaseValidate() {
	var args databaseValidateArgs
	arg.MustParse(&args)
	ctx := context.Background()
	path := lib.TemplatePath(lib.DatabaseKind)
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
