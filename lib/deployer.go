package lib

import (
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

const DeployerKind = "deployer"

const (
	DeployerOutputRoleArn = "DeployerRoleArn"
)

// DeployerDescriptor resolves the github oidc deployer stack: the oidc
// provider plus a role assumable only from actions runs of the configured
// repository. Creates named iam resources, so it carries the named-iam
// capability.
func DeployerDescriptor(conf *EnvConfig) (*StackDescriptor, error) {
	d := &StackDescriptor{
		Name:         StackName(conf, DeployerKind),
		Env:          conf.Env,
		TemplatePath: TemplatePath(DeployerKind),
		Params: []StackParam{
			{Key: "EnvironmentName", Value: conf.Env},
			{Key: "ProjectName", Value: conf.Project},
			{Key: "GithubRepo", Value: conf.Deployer.GithubRepo},
		},
		Capabilities: []cftypes.Capability{cftypes.CapabilityCapabilityNamedIam},
		Tags:         baseTags(conf),
	}
	err := d.validateParams()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return d, nil
}
