package lib

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, env, data string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STACKCTL_CONFIG_DIR", dir)
	err := os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(data), 0666)
	if err != nil {
		t.Fatal(err)
	}
}

func TestValidateEnvironment(t *testing.T) {
	for _, env := range Environments {
		if err := ValidateEnvironment(env); err != nil {
			t.Errorf("%s: %v", env, err)
		}
	}
	for _, env := range []string{"", "production", "Dev", "test"} {
		err := ValidateEnvironment(env)
		var invalid ErrInvalidEnvironment
		if !errors.As(err, &invalid) {
			t.Errorf("%q: expected ErrInvalidEnvironment, got: %v", env, err)
		}
	}
}

func TestEnvConfigLoadRejectsUnknownEnvBeforeReading(t *testing.T) {
	t.Setenv("STACKCTL_CONFIG_DIR", "/nonexistent")
	_, err := EnvConfigLoad("production")
	var invalid ErrInvalidEnvironment
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidEnvironment, got: %v", err)
	}
}

func TestEnvConfigLoad(t *testing.T) {
	writeConfig(t, "dev", `
region: us-east-1
account: "123456789012"
project: ragchat
network:
  cidr: 10.10.0.0/16
  az-count: "2"
database:
  db-name: ragchat
  engine-version: "15.4"
  min-capacity: "0.5"
  max-capacity: "2"
secrets:
  db-username: ragchat_admin
config:
  bucket: ragchat-config-dev
  prefix: config
deployer:
  github-repo: ragops/ragchat
`)
	conf, err := EnvConfigLoad("dev")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Env != "dev" || conf.Region != "us-east-1" || conf.Project != "ragchat" {
		t.Errorf("bad config: %+v", conf)
	}
	if conf.Network.Cidr != "10.10.0.0/16" || conf.Database.EngineVersion != "15.4" {
		t.Errorf("bad config: %+v", conf)
	}
	if conf.AppConfig.Bucket != "ragchat-config-dev" || conf.Deployer.GithubRepo != "ragops/ragchat" {
		t.Errorf("bad config: %+v", conf)
	}
}

func TestEnvConfigLoadRequiresRegionAndProject(t *testing.T) {
	writeConfig(t, "dev", "project: ragchat\n")
	_, err := EnvConfigLoad("dev")
	if err == nil {
		t.Error("expected missing region error")
	}
	writeConfig(t, "dev", "region: us-east-1\n")
	_, err = EnvConfigLoad("dev")
	if err == nil {
		t.Error("expected missing project error")
	}
}
