package clistack

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["config-sync"] = configSync
	lib.Args["config-sync"] = configSyncArgs{}
}

type configSyncArgs struct {
	Env     string `arg:"positional,required" help:"dev | staging | prod"`
	Dir     string `arg:"-d,--dir" default:"appconfig" help:"local directory to sync"`
	Prune   bool   `arg:"--prune" help:"also delete remote objects missing locally"`
	Preview bool   `arg:"-p,--preview"`
	Yes     bool   `arg:"-y,--yes" help:"skip confirmation"`
}

func (configSyncArgs) Description() string {
	return `
sync the application config directory to the environment's config bucket,
uploading only files whose content changed

example:
 - stackctl config-sync dev --prune
`
}

func configSync() {
	var args configSyncArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if conf.AppConfig.Bucket == "" {
		lib.Logger.Fatal("error: ", fmt.Errorf("%s: missing config bucket", lib.EnvConfigPath(args.Env)))
	}
	if !args.Yes && !args.Preview {
		err := lib.PromptProceed(fmt.Sprintf("going to sync %s to s3://%s/%s in env %s", args.Dir, conf.AppConfig.Bucket, conf.AppConfig.Prefix, args.Env))
		if err != nil {
			os.Exit(0)
		}
	}
	plan, err := lib.S3SyncDir(ctx, args.Dir, conf.AppConfig.Bucket, conf.AppConfig.Prefix, args.Prune, args.Preview)
	if err != nil {
		lib.Error("%v", err)
		os.Exit(1)
	}
	if plan.Empty() {
		lib.Info("config already in sync: %s", conf.AppConfig.Bucket)
		return
	}
	lib.Info("config sync: %d uploaded, %d deleted", len(plan.Uploads), len(plan.Deletes))
}
