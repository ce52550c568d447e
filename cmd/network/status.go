package clistack

import (
	"context"
	"fmt"

	"github.com/alexflint/go-arg"
	"github.com/ragops/stackctl/lib"
	"gopkg.in/yaml.v3"
)

func init() {
	lib.Commands["network-status"] = networkStatus
	lib.Args["network-status"] = networkStatusArgs{}
}

type networkStatusArgs struct {
	Env string `arg:"positional,required" help:"dev | staging | prod"`
}

func (networkStatusArgs) Description() string {
	return "\nshow network stack state, outputs, and live subnets\n"
}

func networkStatus() {
	var args networkStatusArgs
	arg.MustParse(&args)
	ctx := context.Background()
	conf, err := lib.EnvConfigLoad(args.Env)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	descriptor, err := lib.NetworkDescriptor(conf)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	state, outputs, err := descriptor.Status(ctx)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	val := map[string]any{
		"name":    descriptor.Name,
		"state":   string(state),
		"outputs": outputs,
	}
	if vpcID := outputs[lib.NetworkOutputVpcId]; vpcID != "" {
		subnets, err := lib.NetworkSubnets(ctx, vpcID)
		if err != nil {
			lib.Logger.Fatal("error: ", err)
		}
		var ids []string
		for _, subnet := range subnets {
			ids = append(ids, fmt.Sprintf("%s %s %s", *subnet.SubnetId, *subnet.AvailabilityZone, *subnet.CidrBlock))
		}
		val["subnets"] = ids
	}
	data, err := yaml.Marshal(val)
	if err != nil {
		lib.Logger.Fatal("error: ", err)
	}
	fmt.Println(string(data))
}
