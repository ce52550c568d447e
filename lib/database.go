package lib

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
)

var rdsClient *rds.Client
var rdsClientLock sync.Mutex

func RDSClient() *rds.Client {
	rdsClientLock.Lock()
	defer rdsClientLock.Unlock()
	if rdsClient == nil {
		rdsClient = rds.NewFromConfig(*Session())
	}
	return rdsClient
}

const DatabaseKind = "database"

const (
	DatabaseOutputClusterIdentifier = "ClusterIdentifier"
	DatabaseOutputClusterEndpoint   = "ClusterEndpoint"
)

// DatabaseDescriptor resolves the aurora stack for an environment. Network
// identifiers and the credentials secret arn are read from the outputs of the
// network and secrets stacks, so those must be deployed first.
func DatabaseDescriptor(ctx context.Context, conf *EnvConfig) (*StackDescriptor, error) {
	vpcID, err := StackOutput(ctx, StackName(conf, NetworkKind), NetworkOutputVpcId)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	subnetIDs, err := StackOutput(ctx, StackName(conf, NetworkKind), NetworkOutputPrivateSubnetIds)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	secretArn, err := StackOutput(ctx, StackName(conf, SecretsKind), SecretsOutputSecretArn)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	d := &StackDescriptor{
		Name:         StackName(conf, DatabaseKind),
		Env:          conf.Env,
		TemplatePath: TemplatePath(DatabaseKind),
		Params: []StackParam{
			{Key: "EnvironmentName", Value: conf.Env},
			{Key: "ProjectName", Value: conf.Project},
			{Key: "DbName", Value: conf.Database.DbName},
			{Key: "EngineVersion", Value: conf.Database.EngineVersion},
			{Key: "MinCapacity", Value: conf.Database.MinCapacity},
			{Key: "MaxCapacity", Value: conf.Database.MaxCapacity},
			{Key: "VpcId", Value: vpcID},
			{Key: "SubnetIds", Value: subnetIDs},
			{Key: "CredentialsSecretArn", Value: secretArn},
		},
		Tags: baseTags(conf),
	}
	err = d.validateParams()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return d, nil
}

// DatabaseCluster fetches the live aurora cluster for status output.
func DatabaseCluster(ctx context.Context, clusterID string) (*rdstypes.DBCluster, error) {
	out, err := RDSClient().DescribeDBClusters(ctx, &rds.DescribeDBClustersInput{
		DBClusterIdentifier: &clusterID,
	})
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	if len(out.DBClusters) != 1 {
		err := fmt.Errorf("didn't find exactly one db cluster for id %s: %d", clusterID, len(out.DBClusters))
		Logger.Println("error:", err)
		return nil, err
	}
	return &out.DBClusters[0], nil
}
