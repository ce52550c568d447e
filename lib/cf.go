package lib

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/gofrs/uuid"
	"github.com/r3labs/diff/v2"
)

var cfClient *cloudformation.Client
var cfClientLock sync.Mutex

func CloudFormationClient() *cloudformation.Client {
	cfClientLock.Lock()
	defer cfClientLock.Unlock()
	if cfClient == nil {
		cfClient = cloudformation.NewFromConfig(*Session())
	}
	return cfClient
}

// cfAPI is the slice of the cloudformation API the reconciler needs. Tests
// substitute a scripted fake.
type cfAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
	ValidateTemplate(ctx context.Context, params *cloudformation.ValidateTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error)
}

var _ cfAPI = (*cloudformation.Client)(nil)

const (
	cfPollInterval = 10 * time.Second
	cfPollTimeout  = 30 * time.Minute
	cfUpdateGrace  = 5 * time.Second

	cfMaxFailureEvents = 25
)

type StackState string

const (
	StackStateAbsent     StackState = "ABSENT"
	StackStateInProgress StackState = "IN_PROGRESS"
	StackStateComplete   StackState = "COMPLETE"
	StackStateFailed     StackState = "FAILED"
	StackStateUnknown    StackState = "UNKNOWN"
)

// stackStateOf collapses the provider's status enum into the four states the
// reconciler acts on. Anything in the ROLLBACK family counts as failed.
func stackStateOf(status cftypes.StackStatus) StackState {
	s := string(status)
	switch {
	case status == cftypes.StackStatusDeleteComplete:
		return StackStateAbsent
	case strings.Contains(s, "ROLLBACK"):
		return StackStateFailed
	case strings.HasSuffix(s, "_FAILED"):
		return StackStateFailed
	case strings.HasSuffix(s, "_COMPLETE"):
		return StackStateComplete
	case strings.HasSuffix(s, "_IN_PROGRESS"):
		return StackStateInProgress
	default:
		return StackStateUnknown
	}
}

// cfIsNotFound classifies the describe error for a nonexistent stack. The
// provider signals absence with a ValidationError, not a distinct code.
func cfIsNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

// cfIsNoUpdates classifies the update error for an already-converged stack.
// This is the idempotence short-circuit, not a failure.
func cfIsNoUpdates(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No updates are to be performed")
}

type StackParam struct {
	Key   string
	Value string
	// keep the value already set on the remote stack, for parameters that
	// must only be chosen once, like generated passwords
	UsePrevious bool
}

type StackEvent struct {
	Resource string
	Status   string
	Reason   string
	At       time.Time
}

func (e StackEvent) String() string {
	return fmt.Sprintf("%s %s %s", e.Resource, e.Status, e.Reason)
}

type ErrStackFailed struct {
	Name   string
	Status string
	Events []StackEvent
}

func (e ErrStackFailed) Error() string {
	lines := []string{fmt.Sprintf("stack failed: %s status=%s", e.Name, e.Status)}
	for _, ev := range e.Events {
		lines = append(lines, "  "+ev.String())
	}
	return strings.Join(lines, "\n")
}

type ErrStackTimeout struct {
	Name       string
	LastStatus string
	Timeout    time.Duration
}

func (e ErrStackTimeout) Error() string {
	return fmt.Sprintf("stack timeout: %s after %s, last status: %s", e.Name, e.Timeout, e.LastStatus)
}

type ErrTemplateInvalid struct {
	Name   string
	Reason string
}

func (e ErrTemplateInvalid) Error() string {
	return fmt.Sprintf("template invalid: %s: %s", e.Name, e.Reason)
}

type CFEnsureInput struct {
	Name         string
	TemplateBody string
	Params       []StackParam
	Capabilities []cftypes.Capability
	Tags         map[string]string

	// zero values fall back to the package defaults
	Interval time.Duration
	Timeout  time.Duration
	Grace    time.Duration
}

type ReconcileResult struct {
	State   StackState
	NoOp    bool
	Outputs map[string]string
	Events  []StackEvent
}

func cfParams(params []StackParam) []cftypes.Parameter {
	var out []cftypes.Parameter
	for _, p := range params {
		if p.UsePrevious {
			out = append(out, cftypes.Parameter{
				ParameterKey:     aws.String(p.Key),
				UsePreviousValue: aws.Bool(true),
			})
			continue
		}
		out = append(out, cftypes.Parameter{
			ParameterKey:   aws.String(p.Key),
			ParameterValue: aws.String(p.Value),
		})
	}
	return out
}

func cfTags(tags map[string]string) []cftypes.Tag {
	var keys []string
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []cftypes.Tag
	for _, k := range keys {
		out = append(out, cftypes.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func cfOutputs(stack *cftypes.Stack) map[string]string {
	if stack == nil || len(stack.Outputs) == 0 {
		return nil
	}
	out := make(map[string]string)
	for _, o := range stack.Outputs {
		if o.OutputKey != nil && o.OutputValue != nil {
			out[*o.OutputKey] = *o.OutputValue
		}
	}
	return out
}

func cfRemoteParams(stack *cftypes.Stack) map[string]string {
	out := make(map[string]string)
	for _, p := range stack.Parameters {
		if p.ParameterKey != nil && p.ParameterValue != nil {
			out[*p.ParameterKey] = *p.ParameterValue
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// cfDescribeStack returns nil for a nonexistent stack. Absence is a normal
// result, never an error.
func cfDescribeStack(ctx context.Context, api cfAPI, name string) (*cftypes.Stack, error) {
	out, err := api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if cfIsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return &out.Stacks[0], nil
}

func CFDescribeStack(ctx context.Context, name string) (*cftypes.Stack, error) {
	return cfDescribeStack(ctx, CloudFormationClient(), name)
}

// CFStackStatus is the read-only snapshot: state plus outputs. It never fails
// on absence.
func CFStackStatus(ctx context.Context, name string) (StackState, map[string]string, error) {
	stack, err := cfDescribeStack(ctx, CloudFormationClient(), name)
	if err != nil {
		Logger.Println("error:", err)
		return StackStateUnknown, nil, err
	}
	if stack == nil {
		return StackStateAbsent, nil, nil
	}
	return stackStateOf(stack.StackStatus), cfOutputs(stack), nil
}

// CFEnsureStack drives the remote stack toward the desired template and
// parameters: create when absent, update when present, no-op when the provider
// reports nothing to do. Blocks until a terminal state or timeout.
func CFEnsureStack(ctx context.Context, input *CFEnsureInput, preview bool) (*ReconcileResult, error) {
	return cfEnsureStack(ctx, CloudFormationClient(), input, preview)
}

func cfEnsureStack(ctx context.Context, api cfAPI, input *CFEnsureInput, preview bool) (*ReconcileResult, error) {
	if input.Interval == 0 {
		input.Interval = cfPollInterval
	}
	if input.Timeout == 0 {
		input.Timeout = cfPollTimeout
	}
	if input.Grace == 0 {
		input.Grace = cfUpdateGrace
	}
	stack, err := cfDescribeStack(ctx, api, input.Name)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	token := uuid.Must(uuid.NewV4()).String()
	start := time.Now()
	if stack == nil {
		if preview {
			Logger.Println(PreviewString(preview)+"cloudformation create stack:", input.Name)
			return &ReconcileResult{State: StackStateAbsent, NoOp: true}, nil
		}
		_, err := api.CreateStack(ctx, &cloudformation.CreateStackInput{
			StackName:          aws.String(input.Name),
			TemplateBody:       aws.String(input.TemplateBody),
			Parameters:         cfParams(input.Params),
			Capabilities:       input.Capabilities,
			Tags:               cfTags(input.Tags),
			ClientRequestToken: aws.String(token),
		})
		if err != nil {
			Logger.Println("error:", err)
			return nil, err
		}
		Logger.Println("cloudformation created stack:", input.Name)
		return cfAwaitStack(ctx, api, input, start)
	}
	if preview {
		changelog, err := diff.Diff(cfRemoteParams(stack), cfDesiredParams(input.Params))
		if err != nil {
			Logger.Println("error:", err)
			return nil, err
		}
		for _, c := range changelog {
			Logger.Println(PreviewString(preview)+"cloudformation param "+strings.Join(c.Path, ".")+":",
				fmt.Sprint(c.From), "=>", fmt.Sprint(c.To))
		}
		Logger.Println(PreviewString(preview)+"cloudformation update stack:", input.Name)
		return &ReconcileResult{State: stackStateOf(stack.StackStatus), NoOp: true, Outputs: cfOutputs(stack)}, nil
	}
	_, err = api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:          aws.String(input.Name),
		TemplateBody:       aws.String(input.TemplateBody),
		Parameters:         cfParams(input.Params),
		Capabilities:       input.Capabilities,
		Tags:               cfTags(input.Tags),
		ClientRequestToken: aws.String(token),
	})
	if err != nil {
		if cfIsNoUpdates(err) {
			Logger.Println("cloudformation no updates:", input.Name)
			return &ReconcileResult{State: stackStateOf(stack.StackStatus), NoOp: true, Outputs: cfOutputs(stack)}, nil
		}
		Logger.Println("error:", err)
		return nil, err
	}
	Logger.Println("cloudformation updated stack:", input.Name)
	// The provider can accept an update and then decide internally there is
	// nothing to do. Confirm the stack actually left its steady state before
	// committing to the full polling budget.
	graceDeadline := start.Add(input.Grace)
	for {
		cur, err := cfDescribeStack(ctx, api, input.Name)
		if err == nil && cur != nil {
			switch stackStateOf(cur.StackStatus) {
			case StackStateInProgress:
				return cfAwaitStack(ctx, api, input, start)
			case StackStateComplete:
				if cur.LastUpdatedTime != nil && cur.LastUpdatedTime.After(start) {
					// the update ran and finished inside the grace window
					return &ReconcileResult{State: StackStateComplete, Outputs: cfOutputs(cur)}, nil
				}
			case StackStateFailed:
				events, eventsErr := cfFailureEvents(ctx, api, input.Name, start)
				if eventsErr != nil {
					Logger.Println("failed to fetch stack events:", eventsErr)
				}
				err := ErrStackFailed{Name: input.Name, Status: string(cur.StackStatus), Events: events}
				Logger.Println("error:", err)
				return &ReconcileResult{State: StackStateFailed, Events: events}, err
			}
		}
		if time.Now().After(graceDeadline) {
			Logger.Println("cloudformation update never started, treating as no-op:", input.Name)
			return &ReconcileResult{State: stackStateOf(stack.StackStatus), NoOp: true, Outputs: cfOutputs(stack)}, nil
		}
		err = sleepCtx(ctx, input.Grace/4)
		if err != nil {
			return nil, err
		}
	}
}

func cfDesiredParams(params []StackParam) map[string]string {
	out := make(map[string]string)
	for _, p := range params {
		if p.UsePrevious {
			continue
		}
		out[p.Key] = p.Value
	}
	return out
}

// cfAwaitStack polls at a fixed interval until the stack reaches a terminal
// state or the timeout elapses. Describe failures during polling are treated
// as transient and retried on the next interval.
func cfAwaitStack(ctx context.Context, api cfAPI, input *CFEnsureInput, start time.Time) (*ReconcileResult, error) {
	deadline := start.Add(input.Timeout)
	last := string(StackStateUnknown)
	for {
		if time.Now().After(deadline) {
			err := ErrStackTimeout{Name: input.Name, LastStatus: last, Timeout: input.Timeout}
			Logger.Println("error:", err)
			return nil, err
		}
		err := sleepCtx(ctx, input.Interval)
		if err != nil {
			return nil, err
		}
		stack, err := cfDescribeStack(ctx, api, input.Name)
		if err != nil {
			Logger.Println("transient describe failure while polling:", err)
			continue
		}
		if stack == nil {
			err := ErrStackFailed{Name: input.Name, Status: string(cftypes.StackStatusDeleteComplete)}
			Logger.Println("error:", err)
			return &ReconcileResult{State: StackStateFailed}, err
		}
		last = string(stack.StackStatus)
		switch stackStateOf(stack.StackStatus) {
		case StackStateComplete:
			return &ReconcileResult{State: StackStateComplete, Outputs: cfOutputs(stack)}, nil
		case StackStateFailed:
			events, eventsErr := cfFailureEvents(ctx, api, input.Name, start)
			if eventsErr != nil {
				Logger.Println("failed to fetch stack events:", eventsErr)
			}
			err := ErrStackFailed{Name: input.Name, Status: last, Events: events}
			Logger.Println("error:", err)
			return &ReconcileResult{State: StackStateFailed, Events: events}, err
		default:
			Logger.Println("waiting for stack:", input.Name, last)
		}
	}
}

// cfFailureEvents returns the most recent failure-tagged events since start,
// newest first, for diagnosis.
func cfFailureEvents(ctx context.Context, api cfAPI, name string, start time.Time) ([]StackEvent, error) {
	out, err := api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return nil, err
	}
	var events []StackEvent
	for _, e := range out.StackEvents {
		if e.Timestamp != nil && e.Timestamp.Before(start) {
			continue
		}
		status := string(e.ResourceStatus)
		if !strings.HasSuffix(status, "_FAILED") && !strings.Contains(status, "ROLLBACK") {
			continue
		}
		ev := StackEvent{Status: status}
		if e.LogicalResourceId != nil {
			ev.Resource = *e.LogicalResourceId
		}
		if e.ResourceStatusReason != nil {
			ev.Reason = *e.ResourceStatusReason
		}
		if e.Timestamp != nil {
			ev.At = *e.Timestamp
		}
		events = append(events, ev)
		if len(events) == cfMaxFailureEvents {
			break
		}
	}
	return events, nil
}

// CFDeleteStack issues delete and optionally waits for the stack to be gone.
// Deleting an absent stack is a no-op success.
func CFDeleteStack(ctx context.Context, name string, wait, preview bool) error {
	return cfDeleteStack(ctx, CloudFormationClient(), name, wait, preview, cfPollInterval, cfPollTimeout)
}

func cfDeleteStack(ctx context.Context, api cfAPI, name string, wait, preview bool, interval, timeout time.Duration) error {
	stack, err := cfDescribeStack(ctx, api, name)
	if err != nil {
		Logger.Println("error:", err)
		return err
	}
	if stack == nil {
		Logger.Println("cloudformation stack already deleted:", name)
		return nil
	}
	if !preview {
		token := uuid.Must(uuid.NewV4()).String()
		_, err := api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
			StackName:          aws.String(name),
			ClientRequestToken: aws.String(token),
		})
		if err != nil {
			Logger.Println("error:", err)
			return err
		}
	}
	Logger.Println(PreviewString(preview)+"cloudformation deleted stack:", name)
	if preview || !wait {
		return nil
	}
	start := time.Now()
	deadline := start.Add(timeout)
	last := string(cftypes.StackStatusDeleteInProgress)
	for {
		if time.Now().After(deadline) {
			err := ErrStackTimeout{Name: name, LastStatus: last, Timeout: timeout}
			Logger.Println("error:", err)
			return err
		}
		err := sleepCtx(ctx, interval)
		if err != nil {
			return err
		}
		stack, err := cfDescribeStack(ctx, api, name)
		if err != nil {
			Logger.Println("transient describe failure while polling:", err)
			continue
		}
		if stack == nil || stackStateOf(stack.StackStatus) == StackStateAbsent {
			return nil
		}
		last = string(stack.StackStatus)
		if stack.StackStatus == cftypes.StackStatusDeleteFailed {
			events, eventsErr := cfFailureEvents(ctx, api, name, start)
			if eventsErr != nil {
				Logger.Println("failed to fetch stack events:", eventsErr)
			}
			err := ErrStackFailed{Name: name, Status: last, Events: events}
			Logger.Println("error:", err)
			return err
		}
		Logger.Println("waiting for stack delete:", name, last)
	}
}

// CFValidateTemplate submits the template body for remote validation. No side
// effects.
func CFValidateTemplate(ctx context.Context, name, templateBody string) error {
	return cfValidateTemplate(ctx, CloudFormationClient(), name, templateBody)
}

func cfValidateTemplate(ctx context.Context, api cfAPI, name, templateBody string) error {
	_, err := api.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: aws.String(templateBody),
	})
	if err != nil {
		err := ErrTemplateInvalid{Name: name, Reason: err.Error()}
		Logger.Println("error:", err)
		return err
	}
	return nil
}

// CFListStacks returns every stack visible to the caller, paginated.
func CFListStacks(ctx context.Context) ([]cftypes.Stack, error) {
	var stacks []cftypes.Stack
	var token *string
	for {
		out, err := CloudFormationClient().DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
			NextToken: token,
		})
		if err != nil {
			Logger.Println("error:", err)
			return nil, err
		}
		stacks = append(stacks, out.Stacks...)
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return stacks, nil
}

// CFStackEvents returns up to limit recent events for a stack, newest first.
func CFStackEvents(ctx context.Context, name string, limit int) ([]StackEvent, error) {
	out, err := CloudFormationClient().DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(name),
	})
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	var events []StackEvent
	for _, e := range out.StackEvents {
		ev := StackEvent{Status: string(e.ResourceStatus)}
		if e.LogicalResourceId != nil {
			ev.Resource = *e.LogicalResourceId
		}
		if e.ResourceStatusReason != nil {
			ev.Reason = *e.ResourceStatusReason
		}
		if e.Timestamp != nil {
			ev.At = *e.Timestamp
		}
		events = append(events, ev)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}
