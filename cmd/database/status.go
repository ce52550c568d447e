package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["database-status"] = databaseStatus
	lib.Args["database-status"] = databaseStatusArgs{}
}

type databaseStatusArgs struct {
	Env string `arg:"positional,required" help:"dev | staging | prod"`
}

func (databaseStatusArgs) Description() string {
	return "\nshow database stack state, outputs, and live cluster endpoint\n"
}

func databaseStatus() {
	var args databaseStatusArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	name := lib.StackName(conf, lib.DatabaseKind)
	state, outputs, err := lib.CFStackStatus(ctx, name)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	val := map[string]any{
		"name":    name,
		"state":   string(state),
		"outputs": outputs,
	}
	if clusterID := outputs[lib.DatabaseOutputClusterIdentifier]; clusterID != "" {
		cluster, err := lib.DatabaseCluster(ctx, clusterID)
		if err != nil {
			lib.Logger.Fatal("error: ", err)
		}
		live := map[string]string{}
		if cluster.Status != nil {
			live["status"] = *cluster.Status
		}
		if cluster.Endpoint != nil {
			live["endpoint"] = *cluster.Endpoint
		}
		if cluster.ReaderEndpoint != nil {
			live["reader-endpoint"] = *cluster.ReaderEndpoint
		}
		if cluster.EngineVersion != nil {
			live["engine-version"] = *cluster.EngineVersion
		}
		val["cluster"] = live
	}
	data, err := yaml.Marshal(val)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
