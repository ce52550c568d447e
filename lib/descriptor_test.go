package lib

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStackName(t *testing.T) {
	conf := &EnvConfig{Env: "dev", Project: "ragchat"}
	name := StackName(conf, "network")
	if name != "ragchat-network-dev" {
		t.Errorf("got: %s", name)
	}
}

func TestValidateParamsFailsFast(t *testing.T) {
	d := &StackDescriptor{
		Name: "ragchat-network-dev",
		Params: []StackParam{
			{Key: "VpcCidr", Value: "10.10.0.0/16"},
			{Key: "AzCount", Value: ""},
		},
	}
	err := d.validateParams()
	var missing ErrMissingParameter
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingParameter, got: %v", err)
	}
	if missing.Param != "AzCount" || missing.Stack != "ragchat-network-dev" {
		t.Errorf("bad error: %+v", missing)
	}
}

func TestValidateParamsAllowsUsePrevious(t *testing.T) {
	d := &StackDescriptor{
		Name: "ragchat-secrets-dev",
		Params: []StackParam{
			{Key: "DbPassword", UsePrevious: true},
		},
	}
	if err := d.validateParams(); err != nil {
		t.Fatal(err)
	}
}

func TestEnsureInputReadsTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network.yaml")
	err := os.WriteFile(path, []byte("AWSTemplateFormatVersion: 2010-09-09\n"), 0666)
	if err != nil {
		t.Fatal(err)
	}
	d := &StackDescriptor{
		Name:         "ragchat-network-dev",
		TemplatePath: path,
		Params:       []StackParam{{Key: "VpcCidr", Value: "10.10.0.0/16"}},
		Tags:         map[string]string{"project": "ragchat"},
	}
	input, err := d.ensureInput()
	if err != nil {
		t.Fatal(err)
	}
	if input.Name != d.Name || input.TemplateBody == "" {
		t.Errorf("bad input: %+v", input)
	}
}

func TestTemplatePath(t *testing.T) {
	t.Setenv("STACKCTL_TEMPLATES_DIR", "")
	if TemplatePath("network") != filepath.Join("templates", "network.yaml") {
		t.Errorf("got: %s", TemplatePath("network"))
	}
	t.Setenv("STACKCTL_TEMPLATES_DIR", "/etc/stackctl")
	if TemplatePath("database") != "/etc/stackctl/database.yaml" {
		t.Errorf("got: %s", TemplatePath("database"))
	}
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams([]string{"VpcCidr=10.0.0.0/16", "Empty=", "Eq=a=b"})
	if err != nil {
		t.Fatal(err)
	}
	expected := []StackParam{
		{Key: "VpcCidr", Value: "10.0.0.0/16"},
		{Key: "Empty", Value: ""},
		{Key: "Eq", Value: "a=b"},
	}
	if len(params) != len(expected) {
		t.Fatalf("got: %+v", params)
	}
	for i := range expected {
		if params[i] != expected[i] {
			t.Errorf("got %+v, want %+v", params[i], expected[i])
		}
	}
	for _, bad := range []string{"NoValue", "=value"} {
		_, err := ParseParams([]string{bad})
		if err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestBaseTags(t *testing.T) {
	conf := &EnvConfig{Env: "prod", Project: "ragchat"}
	tags := baseTags(conf)
	if tags["project"] != "ragchat" || tags["environment"] != "prod" || tags["managed-by"] != "stackctl" {
		t.Errorf("bad tags: %v", tags)
	}
}
