package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["deployer-github-sync"] = deployerGithubSync
	lib.Args["deployer-github-sync"] = deployerGithubSyncArgs{}
}

type deployerGithubSyncArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (deployerGithubSyncArgs) Description() string {
	return `
push the deploy credentials to the github repo's actions secrets: the role arn
from the deployer stack outputs, the region, and the config bucket

needs GITHUB_TOKEN with repo admin scope

example:
 - stackctl deployer-github-sync dev
`
}

func deployerGithubSync() {
	var args deployerGithubSyncArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	roleArn, err := lib.StackOutput(ctx, lib.StackName(conf, lib.DeployerKind), lib.DeployerOutputRoleArn)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	client, err := lib.NewGithubClient()
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	type secretPair struct {
		name  string
		value string
	}
	secrets := []secretPair{
		{"AWS_DEPLOY_ROLE_ARN", roleArn},
		{"AWS_REGION", conf.Region},
	}
	if conf.AppConfig.Bucket != "" {
		secrets = append(secrets, secretPair{"CONFIG_BUCKET", conf.AppConfig.Bucket})
	} else {
		lib.Warn("config bucket not set for env %s, skipping CONFIG_BUCKET", args.Env)
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to push %d actions secrets to github repo %s for env %s", len(secrets), conf.Deployer.GithubRepo, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	for _, secret := range secrets {
		lib.Step("secret %s", secret.name)
		err := client.PutSecret(ctx, conf.Deployer.GithubRepo, secret.name, secret.value, args.Preview)
		if err != nil {
			lib.Error("%v", err)
			os.Exit(1)
		}
	}
}
