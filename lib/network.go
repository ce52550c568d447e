package lib

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

var ec2Client *ec2.Client
var ec2ClientLock sync.Mutex

func EC2Client() *ec2.Client {
	ec2ClientLock.Lock()
	defer ec2ClientLock.Unlock()
	if ec2Client == nil {
		ec2Client = ec2.NewFromConfig(*Session())
	}
	return ec2Client
}

const NetworkKind = "network"

const (
	NetworkOutputVpcId            = "VpcId"
	NetworkOutputPrivateSubnetIds = "PrivateSubnetIds"
	NetworkOutputPublicSubnetIds  = "PublicSubnetIds"
)

// NetworkDescriptor resolves the vpc stack for an environment. The cidr and
// az count come from the environment config, nothing is hardcoded.
func NetworkDescriptor(conf *EnvConfig) (*StackDescriptor, error) {
	d := &StackDescriptor{
		Name:         StackName(conf, NetworkKind),
		Env:          conf.Env,
		TemplatePath: TemplatePath(NetworkKind),
		Params: []StackParam{
			{Key: "EnvironmentName", Value: conf.Env},
			{Key: "ProjectName", Value: conf.Project},
			{Key: "VpcCidr", Value: conf.Network.Cidr},
			{Key: "AzCount", Value: conf.Network.AzCount},
		},
		Tags: baseTags(conf),
	}
	err := d.validateParams()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return d, nil
}

// NetworkSubnets lists the subnets of the vpc created by the network stack,
// looked up by the stack's VpcId output.
func NetworkSubnets(ctx context.Context, vpcID string) ([]ec2types.Subnet, error) {
	out, err := EC2Client().DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{{Name: aws.String("vpc-id"), Values: []string{vpcID}}},
	})
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return out.Subnets, nil
}
