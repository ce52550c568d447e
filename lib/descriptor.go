package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

type ErrMissingParameter struct {
	Stack string
	Param string
}

func (e ErrMissingParameter) Error() string {
	return fmt.Sprintf("missing parameter: %s for stack: %s", e.Param, e.Stack)
}

// StackDescriptor is the desired state for one stack, built fresh per
// invocation and never mutated afterwards.
type StackDescriptor struct {
	Name         string
	Env          string
	TemplatePath string
	Params       []StackParam
	Capabilities []cftypes.Capability
	Tags         map[string]string
}

const (
	templatesDirVar     = "STACKCTL_TEMPLATES_DIR"
	templatesDirDefault = "templates"

	tagProject     = "project"
	tagEnvironment = "environment"
	tagManagedBy   = "managed-by"
)

func TemplatePath(kind string) string {
	dir := os.Getenv(templatesDirVar)
	if dir == "" {
		dir = templatesDirDefault
	}
	return filepath.Join(dir, kind+".yaml")
}

func StackName(conf *EnvConfig, kind string) string {
	return fmt.Sprintf("%s-%s-%s", conf.Project, kind, conf.Env)
}

func baseTags(conf *EnvConfig) map[string]string {
	return map[string]string{
		tagProject:     conf.Project,
		tagEnvironment: conf.Env,
		tagManagedBy:   "stackctl",
	}
}

// validateParams fails fast on any empty parameter value, before anything
// touches the network.
func (d *StackDescriptor) validateParams() error {
	for _, p := range d.Params {
		if !p.UsePrevious && p.Value == "" {
			err := ErrMissingParameter{Stack: d.Name, Param: p.Key}
			Logger.Println("error:", err)
			return err
		}
	}
	return nil
}

func (d *StackDescriptor) templateBody() (string, error) {
	data, err := os.ReadFile(d.TemplatePath)
	if err != nil {
		Logger.Println("error:", err)
		return "", err
	}
	return string(data), nil
}

func (d *StackDescriptor) ensureInput() (*CFEnsureInput, error) {
	err := d.validateParams()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	body, err := d.templateBody()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return &CFEnsureInput{
		Name:         d.Name,
		TemplateBody: body,
		Params:       d.Params,
		Capabilities: d.Capabilities,
		Tags:         d.Tags,
	}, nil
}

func (d *StackDescriptor) Ensure(ctx context.Context, preview bool) (*ReconcileResult, error) {
	input, err := d.ensureInput()
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return CFEnsureStack(ctx, input, preview)
}

func (d *StackDescriptor) Delete(ctx context.Context, wait, preview bool) error {
	return CFDeleteStack(ctx, d.Name, wait, preview)
}

func (d *StackDescriptor) Status(ctx context.Context) (StackState, map[string]string, error) {
	return CFStackStatus(ctx, d.Name)
}

func (d *StackDescriptor) Validate(ctx context.Context) error {
	body, err := d.templateBody()
	if err != nil {
		Logger.Println("error:", err)
		return err
	}
	return CFValidateTemplate(ctx, d.TemplatePath, body)
}

// ParseParams turns Key=Value args into ordered stack parameters.
func ParseParams(args []string) ([]StackParam, error) {
	var params []StackParam
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			err := fmt.Errorf("bad parameter, expected Key=Value, got: %s", a)
			Logger.Println("error:", err)
			return nil, err
		}
		params = append(params, StackParam{Key: k, Value: v})
	}
	return params, nil
}

// StackOutput resolves one output key from a deployed stack, failing with
// ErrMissingParameter when the stack or output is not there yet. Infra
// identifiers are always resolved this way, never hardcoded.
func StackOutput(ctx context.Context, stackName, key string) (string, error) {
	state, outputs, err := CFStackStatus(ctx, stackName)
	if err != nil {
		Logger.Println("error:", err)
		return "", err
	}
	if state == StackStateAbsent {
		err := fmt.Errorf("stack not deployed: %s", stackName)
		Logger.Println("error:", err)
		return "", err
	}
	v, ok := outputs[key]
	if !ok || v == "" {
		err := ErrMissingParameter{Stack: stackName, Param: key}
		Logger.Println("error:", err)
		return "", err
	}
	return v, nil
}
