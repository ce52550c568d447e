package lib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

var errFakeNotFound = errors.New("ValidationError: Stack with id test does not exist")
var errFakeNoUpdates = errors.New("ValidationError: No updates are to be performed.")
var errFakeTransport = errors.New("RequestError: send request failed")

// fakeCF serves a pre-scripted sequence of describe results. The first absent
// describes report not-exist, then statuses are popped from script, the last
// one repeating, unless thenAbsent flips the stack back to not-exist once the
// script runs out.
type fakeCF struct {
	absent      int
	script      []cftypes.StackStatus
	thenAbsent  bool
	errAt       map[int]bool
	lastUpdated *time.Time
	outputs     []cftypes.Output
	events      []cftypes.StackEvent

	createErr   error
	updateErr   error
	deleteErr   error
	validateErr error

	describes int
	creates   int
	updates   int
	deletes   int
}

func (f *fakeCF) DescribeStacks(_ context.Context, input *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.describes++
	if f.errAt[f.describes] {
		return nil, errFakeTransport
	}
	if f.absent > 0 {
		f.absent--
		return nil, errFakeNotFound
	}
	if len(f.script) == 0 {
		return nil, errFakeNotFound
	}
	status := f.script[0]
	if len(f.script) > 1 || f.thenAbsent {
		f.script = f.script[1:]
	}
	stack := cftypes.Stack{
		StackName:       input.StackName,
		StackStatus:     status,
		Outputs:         f.outputs,
		LastUpdatedTime: f.lastUpdated,
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cftypes.Stack{stack}}, nil
}

func (f *fakeCF) CreateStack(_ context.Context, _ *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &cloudformation.CreateStackOutput{StackId: aws.String("arn:fake")}, nil
}

func (f *fakeCF) UpdateStack(_ context.Context, _ *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates++
	return &cloudformation.UpdateStackOutput{StackId: aws.String("arn:fake")}, nil
}

func (f *fakeCF) DeleteStack(_ context.Context, _ *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	f.deletes++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &cloudformation.DeleteStackOutput{}, nil
}

func (f *fakeCF) DescribeStackEvents(_ context.Context, _ *cloudformation.DescribeStackEventsInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error) {
	return &cloudformation.DescribeStackEventsOutput{StackEvents: f.events}, nil
}

func (f *fakeCF) ValidateTemplate(_ context.Context, _ *cloudformation.ValidateTemplateInput, _ ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return &cloudformation.ValidateTemplateOutput{}, nil
}

func fastInput(name string) *CFEnsureInput {
	return &CFEnsureInput{
		Name:         name,
		TemplateBody: "{}",
		Params:       []StackParam{{Key: "Cidr", Value: "10.0.0.0/16"}},
		Interval:     2 * time.Millisecond,
		Timeout:      100 * time.Millisecond,
		Grace:        8 * time.Millisecond,
	}
}

func TestStackStateOf(t *testing.T) {
	type test struct {
		status cftypes.StackStatus
		state  StackState
	}
	tests := []test{
		{cftypes.StackStatusCreateInProgress, StackStateInProgress},
		{cftypes.StackStatusCreateComplete, StackStateComplete},
		{cftypes.StackStatusCreateFailed, StackStateFailed},
		{cftypes.StackStatusUpdateInProgress, StackStateInProgress},
		{cftypes.StackStatusUpdateComplete, StackStateComplete},
		{cftypes.StackStatusRollbackInProgress, StackStateFailed},
		{cftypes.StackStatusRollbackComplete, StackStateFailed},
		{cftypes.StackStatusUpdateRollbackComplete, StackStateFailed},
		{cftypes.StackStatusDeleteInProgress, StackStateInProgress},
		{cftypes.StackStatusDeleteFailed, StackStateFailed},
		{cftypes.StackStatusDeleteComplete, StackStateAbsent},
	}
	for _, test := range tests {
		state := stackStateOf(test.status)
		if state != test.state {
			t.Errorf("%s: got %s, want %s", test.status, state, test.state)
		}
	}
}

func TestProviderResponseClassifiers(t *testing.T) {
	if !cfIsNotFound(errFakeNotFound) {
		t.Error("not-found error not classified")
	}
	if cfIsNotFound(errFakeNoUpdates) {
		t.Error("no-updates error misclassified as not-found")
	}
	if !cfIsNoUpdates(errFakeNoUpdates) {
		t.Error("no-updates error not classified")
	}
	if cfIsNoUpdates(errFakeTransport) {
		t.Error("transport error misclassified as no-updates")
	}
	if cfIsNotFound(nil) || cfIsNoUpdates(nil) {
		t.Error("nil error misclassified")
	}
}

func TestEnsureAbsentCreates(t *testing.T) {
	fake := &fakeCF{
		absent: 1,
		script: []cftypes.StackStatus{cftypes.StackStatusCreateInProgress, cftypes.StackStatusCreateComplete},
		outputs: []cftypes.Output{
			{OutputKey: aws.String("VpcId"), OutputValue: aws.String("vpc-123")},
		},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if fake.creates != 1 || fake.updates != 0 {
		t.Errorf("got %d creates, %d updates", fake.creates, fake.updates)
	}
	if result.State != StackStateComplete || result.NoOp {
		t.Errorf("got state %s noop %v", result.State, result.NoOp)
	}
	if result.Outputs["VpcId"] != "vpc-123" {
		t.Errorf("outputs not populated: %v", result.Outputs)
	}
}

func TestEnsurePresentNoUpdates(t *testing.T) {
	fake := &fakeCF{
		script:    []cftypes.StackStatus{cftypes.StackStatusCreateComplete},
		updateErr: errFakeNoUpdates,
		outputs: []cftypes.Output{
			{OutputKey: aws.String("VpcId"), OutputValue: aws.String("vpc-123")},
		},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoOp || result.State != StackStateComplete {
		t.Errorf("got state %s noop %v", result.State, result.NoOp)
	}
	if fake.creates != 0 {
		t.Errorf("no-op issued a create")
	}
	if fake.describes != 1 {
		t.Errorf("no-op entered the polling loop: %d describes", fake.describes)
	}
	if result.Outputs["VpcId"] != "vpc-123" {
		t.Errorf("outputs not populated: %v", result.Outputs)
	}
}

func TestEnsureSecondRunIsNoOp(t *testing.T) {
	// first run: absent, create, poll to complete
	first := &fakeCF{
		absent: 1,
		script: []cftypes.StackStatus{cftypes.StackStatusCreateInProgress, cftypes.StackStatusCreateComplete},
	}
	_, err := cfEnsureStack(context.Background(), first, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if first.creates != 1 {
		t.Fatalf("got %d creates", first.creates)
	}
	// second run with identical desired state: provider reports no updates
	second := &fakeCF{
		script:    []cftypes.StackStatus{cftypes.StackStatusCreateComplete},
		updateErr: errFakeNoUpdates,
	}
	result, err := cfEnsureStack(context.Background(), second, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if second.creates != 0 || !result.NoOp {
		t.Errorf("second run should no-op, got %d creates noop %v", second.creates, result.NoOp)
	}
}

func TestEnsureUpdatePollsToComplete(t *testing.T) {
	fake := &fakeCF{
		script: []cftypes.StackStatus{
			cftypes.StackStatusCreateComplete,
			cftypes.StackStatusUpdateInProgress,
			cftypes.StackStatusUpdateComplete,
		},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if fake.updates != 1 || fake.creates != 0 {
		t.Errorf("got %d creates, %d updates", fake.creates, fake.updates)
	}
	if result.State != StackStateComplete || result.NoOp {
		t.Errorf("got state %s noop %v", result.State, result.NoOp)
	}
}

func TestEnsureUpdateNeverStartsIsNoOp(t *testing.T) {
	// the provider accepts the update call but the stack never leaves its
	// steady state, the grace window bounds the wait
	fake := &fakeCF{
		script: []cftypes.StackStatus{cftypes.StackStatusUpdateComplete},
	}
	input := fastInput("net-dev")
	start := time.Now()
	result, err := cfEnsureStack(context.Background(), fake, input, false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.NoOp {
		t.Errorf("expected no-op, got state %s", result.State)
	}
	if elapsed := time.Since(start); elapsed > input.Timeout/2 {
		t.Errorf("no-op detection took %s, bounded by grace not timeout", elapsed)
	}
}

func TestEnsureUpdateFinishesInsideGrace(t *testing.T) {
	finished := time.Now().Add(time.Hour)
	fake := &fakeCF{
		script: []cftypes.StackStatus{
			cftypes.StackStatusCreateComplete,
			cftypes.StackStatusUpdateComplete,
		},
		lastUpdated: &finished,
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.NoOp || result.State != StackStateComplete {
		t.Errorf("got state %s noop %v", result.State, result.NoOp)
	}
}

func TestEnsureUpdateRollsBackDuringGrace(t *testing.T) {
	// the update is accepted but the stack is next seen already rolling back,
	// before it was ever observed in progress
	now := time.Now().Add(time.Minute)
	fake := &fakeCF{
		script: []cftypes.StackStatus{
			cftypes.StackStatusCreateComplete,
			cftypes.StackStatusUpdateRollbackInProgress,
		},
		events: []cftypes.StackEvent{
			{
				LogicalResourceId:    aws.String("AuroraCluster"),
				ResourceStatus:       cftypes.ResourceStatusUpdateFailed,
				ResourceStatusReason: aws.String("invalid engine version"),
				Timestamp:            &now,
			},
		},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("db-dev"), false)
	var failed ErrStackFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrStackFailed, got: %v", err)
	}
	if len(failed.Events) == 0 {
		t.Fatal("no diagnostic events captured")
	}
	if result == nil || result.State != StackStateFailed || result.NoOp {
		t.Errorf("bad result: %+v", result)
	}
}

func TestEnsureFailureSurfacesEvents(t *testing.T) {
	now := time.Now().Add(time.Minute)
	fake := &fakeCF{
		absent: 1,
		script: []cftypes.StackStatus{
			cftypes.StackStatusCreateInProgress,
			cftypes.StackStatusRollbackComplete,
		},
		events: []cftypes.StackEvent{
			{
				LogicalResourceId:    aws.String("AuroraCluster"),
				ResourceStatus:       cftypes.ResourceStatusCreateFailed,
				ResourceStatusReason: aws.String("capacity out of range"),
				Timestamp:            &now,
			},
		},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("db-dev"), false)
	if err == nil {
		t.Fatal("expected failure")
	}
	var failed ErrStackFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrStackFailed, got: %v", err)
	}
	if len(failed.Events) == 0 {
		t.Fatal("no diagnostic events captured")
	}
	event := failed.Events[0]
	if event.Resource != "AuroraCluster" || event.Status != "CREATE_FAILED" || event.Reason != "capacity out of range" {
		t.Errorf("bad event: %+v", event)
	}
	if result == nil || result.State != StackStateFailed {
		t.Errorf("bad result: %+v", result)
	}
}

func TestEnsureTimeout(t *testing.T) {
	fake := &fakeCF{
		absent: 1,
		script: []cftypes.StackStatus{cftypes.StackStatusCreateInProgress},
	}
	input := fastInput("net-dev")
	input.Timeout = 20 * time.Millisecond
	_, err := cfEnsureStack(context.Background(), fake, input, false)
	var timeout ErrStackTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrStackTimeout, got: %v", err)
	}
	if timeout.LastStatus != string(cftypes.StackStatusCreateInProgress) {
		t.Errorf("bad last status: %s", timeout.LastStatus)
	}
}

func TestEnsureToleratesTransientPollFailures(t *testing.T) {
	fake := &fakeCF{
		absent: 1,
		script: []cftypes.StackStatus{cftypes.StackStatusCreateInProgress, cftypes.StackStatusCreateComplete},
		errAt:  map[int]bool{2: true, 3: true},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), false)
	if err != nil {
		t.Fatal(err)
	}
	if result.State != StackStateComplete {
		t.Errorf("got state %s", result.State)
	}
}

func TestEnsureMutatingCreateFailureIsFatal(t *testing.T) {
	fake := &fakeCF{
		absent:    1,
		createErr: errors.New("AccessDenied: not authorized"),
	}
	_, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), false)
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.describes != 1 {
		t.Errorf("create failure should not be retried or polled: %d describes", fake.describes)
	}
}

func TestEnsurePreviewIssuesNoMutations(t *testing.T) {
	fake := &fakeCF{
		script: []cftypes.StackStatus{cftypes.StackStatusCreateComplete},
	}
	result, err := cfEnsureStack(context.Background(), fake, fastInput("net-dev"), true)
	if err != nil {
		t.Fatal(err)
	}
	if fake.creates != 0 || fake.updates != 0 || fake.deletes != 0 {
		t.Errorf("preview mutated: %d creates %d updates %d deletes", fake.creates, fake.updates, fake.deletes)
	}
	if !result.NoOp {
		t.Error("preview result should be a no-op")
	}
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	fake := &fakeCF{absent: 1}
	err := cfDeleteStack(context.Background(), fake, "net-dev", true, false, time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if fake.deletes != 0 {
		t.Errorf("delete issued for absent stack: %d", fake.deletes)
	}
}

func TestDeleteWaitsForGone(t *testing.T) {
	fake := &fakeCF{
		script: []cftypes.StackStatus{
			cftypes.StackStatusCreateComplete,
			cftypes.StackStatusDeleteInProgress,
		},
		thenAbsent: true,
	}
	err := cfDeleteStack(context.Background(), fake, "net-dev", true, false, time.Millisecond, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if fake.deletes != 1 {
		t.Errorf("got %d deletes", fake.deletes)
	}
}

func TestDeleteFailed(t *testing.T) {
	fake := &fakeCF{
		script: []cftypes.StackStatus{
			cftypes.StackStatusCreateComplete,
			cftypes.StackStatusDeleteInProgress,
			cftypes.StackStatusDeleteFailed,
		},
	}
	err := cfDeleteStack(context.Background(), fake, "net-dev", true, false, time.Millisecond, 50*time.Millisecond)
	var failed ErrStackFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrStackFailed, got: %v", err)
	}
}

func TestValidateTemplate(t *testing.T) {
	fake := &fakeCF{}
	err := cfValidateTemplate(context.Background(), fake, "templates/network.yaml", "{}")
	if err != nil {
		t.Fatal(err)
	}
	fake = &fakeCF{validateErr: errors.New("ValidationError: template format error")}
	err = cfValidateTemplate(context.Background(), fake, "templates/network.yaml", "{nope")
	var invalid ErrTemplateInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrTemplateInvalid, got: %v", err)
	}
}

func TestDescribeAbsentIsNil(t *testing.T) {
	fake := &fakeCF{absent: 1}
	stack, err := cfDescribeStack(context.Background(), fake, "net-dev")
	if err != nil {
		t.Fatal(err)
	}
	if stack != nil {
		t.Errorf("expected nil stack, got: %+v", stack)
	}
}
