package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["secrets-status"] = secretsStatus
	lib.Args["secrets-status"] = secretsStatusArgs{}
}

type secretsStatusArgs struct {
	Env string `arg:"positional,required" help:"dev | staging | prod"`
}

func (secretsStatusArgs) Description() string {
	return "\nshow secrets stack state and the secret's json keys, values are never printed\n"
}

func secretsStatus() {
	var args secretsStatusArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	name := lib.StackName(conf, lib.SecretsKind)
	state, outputs, err := lib.CFStackStatus(ctx, name)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	val := map[string]any{
		"name":    name,
		"state":   string(state),
		"outputs": outputs,
	}
	if arn := outputs[lib.SecretsOutputSecretArn]; arn != "" {
		keys, err := lib.SecretKeys(ctx, arn)
		if err != nil {
			lib.Logger.Fatal("error: ", err)
		}
		val["secret-keys"] = keys
	}
	data, err := yaml.Marshal(val)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
