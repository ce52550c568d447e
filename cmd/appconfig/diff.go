package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
)

func init() {
	lib.Commands["config-diff"] = configDiff
	lib.Args["config-diff"] = configDiffArgs{}
}

type configDiffArgs struct {
	Env   string `arg:"positional,required" help:"dev | staging | prod"`
	Dir   string `arg:"-d,--dir" default:"appconfig" help:"local directory to compare"`
	Prune bool   `arg:"--prune" help:"also show remote objects missing locally"`
}

func (configDiffArgs) Description() string {
	return "\nshow what config-sync would change, without changing anything\n"
}

func configDiff() {
	var args configDiffArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if conf.AppConfig.Bucket == "" {
		lib.Logger.Fatal("error: ", fmt.Errorf("%s: missing config bucket", lib.EnvConfigPath(args.Env)))
	}
	plan, err := lib.S3SyncDir(ctx, args.Dir, conf.AppConfig.Bucket, conf.AppConfig.Prefix, args.Prune, true)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	if plan.Empty() {
		lib.Info("config already in sync: %s", conf.AppConfig.Bucket)
	}
}
