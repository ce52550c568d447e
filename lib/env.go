package lib

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environments are a closed set. Everything else is rejected before any
// network call is made.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

var Environments = []string{EnvDev, EnvStaging, EnvProd}

type ErrInvalidEnvironment struct {
	Env string
}

func (e ErrInvalidEnvironment) Error() string {
	return fmt.Sprintf("invalid environment: %q, expected one of: dev staging prod", e.Env)
}

func ValidateEnvironment(env string) error {
	if !Contains(Environments, env) {
		err := ErrInvalidEnvironment{Env: env}
		Logger.Println("error:", err)
		return err
	}
	return nil
}

const (
	envConfigDirVar     = "STACKCTL_CONFIG_DIR"
	envConfigDirDefault = "config"
)

type EnvConfigNetwork struct {
	Cidr    string `yaml:"cidr"`
	AzCount string `yaml:"az-count"`
}

type EnvConfigDatabase struct {
	DbName        string `yaml:"db-name"`
	EngineVersion string `yaml:"engine-version"`
	MinCapacity   string `yaml:"min-capacity"`
	MaxCapacity   string `yaml:"max-capacity"`
}

type EnvConfigSecrets struct {
	DbUsername string `yaml:"db-username"`
}

type EnvConfigAppConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type EnvConfigDeployer struct {
	GithubRepo string `yaml:"github-repo"`
}

type EnvConfig struct {
	Env       string             `yaml:"-"`
	Region    string             `yaml:"region"`
	Account   string             `yaml:"account"`
	Project   string             `yaml:"project"`
	Network   EnvConfigNetwork   `yaml:"network"`
	Database  EnvConfigDatabase  `yaml:"database"`
	Secrets   EnvConfigSecrets   `yaml:"secrets"`
	AppConfig EnvConfigAppConfig `yaml:"config"`
	Deployer  EnvConfigDeployer  `yaml:"deployer"`
}

func EnvConfigPath(env string) string {
	dir := os.Getenv(envConfigDirVar)
	if dir == "" {
		dir = envConfigDirDefault
	}
	return filepath.Join(dir, env+".yaml")
}

// EnvConfigLoad reads config/<env>.yaml. The environment is validated first,
// so an unknown environment never touches the filesystem or the network.
func EnvConfigLoad(env string) (*EnvConfig, error) {
	err := ValidateEnvironment(env)
	if err != nil {
		return nil, err
	}
	path := EnvConfigPath(env)
	data, err := os.ReadFile(path)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	conf := &EnvConfig{}
	err = yaml.Unmarshal(data, conf)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	conf.Env = env
	if conf.Region == "" {
		err := fmt.Errorf("%s: missing region", path)
		Logger.Println("error:", err)
		return nil, err
	}
	if conf.Project == "" {
		err := fmt.Errorf("%s: missing project", path)
		Logger.Println("error:", err)
		return nil, err
	}
	return conf, nil
}
