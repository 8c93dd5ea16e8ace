package sagaengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ordersaga/errorsx"
	"ordersaga/sagactx"
	"ordersaga/step"
)

type scriptedStep struct {
	name       string
	execute    func(*sagactx.Context) step.Result
	compensate func(*sagactx.Context) step.CompensationResult
}

func (s scriptedStep) Name() string { return s.name }

func (s scriptedStep) Execute(ctx *sagactx.Context) step.Result {
	return s.execute(ctx)
}

func (s scriptedStep) Compensate(ctx *sagactx.Context) step.CompensationResult {
	return s.compensate(ctx)
}

func (s scriptedStep) CheckValidity(*sagactx.Context) step.ValidityResult {
	return step.ValidityResult{Validity: step.ValidityValid}
}

func TestRuntime_Execute_ReturnsStepResult(t *testing.T) {
	rt := NewRuntime(time.Second)
	def := scriptedStep{
		name: "quick",
		execute: func(*sagactx.Context) step.Result {
			return step.Result{Success: true, Data: map[string]any{"K": "V"}}
		},
	}

	result := rt.Execute(context.Background(), def, sagactx.New())
	assert.True(t, result.Success)
	assert.Equal(t, "V", result.Data["K"])
}

func TestRuntime_Execute_RecoversPanicAsUnexpectedError(t *testing.T) {
	rt := NewRuntime(time.Second)
	def := scriptedStep{
		name: "panicky",
		execute: func(*sagactx.Context) step.Result {
			panic("boom")
		},
	}

	result := rt.Execute(context.Background(), def, sagactx.New())
	assert.False(t, result.Success)
	assert.Equal(t, string(errorsx.ErrCodeUnexpected), result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "boom")
}

func TestRuntime_Execute_DeadlineExceededBecomesServiceUnavailable(t *testing.T) {
	rt := NewRuntime(10 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	def := scriptedStep{
		name: "slow",
		execute: func(*sagactx.Context) step.Result {
			<-release
			return step.Result{Success: true}
		},
	}

	result := rt.Execute(context.Background(), def, sagactx.New())
	assert.False(t, result.Success)
	assert.Equal(t, string(errorsx.ErrCodeServiceUnavailable), result.ErrorCode)
}

func TestRuntime_Compensate_RecoversPanicAsFailure(t *testing.T) {
	rt := NewRuntime(time.Second)
	def := scriptedStep{
		name: "panicky",
		compensate: func(*sagactx.Context) step.CompensationResult {
			panic("release failed")
		},
	}

	result := rt.Compensate(context.Background(), def, sagactx.New())
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "release failed")
}

func TestRuntime_Compensate_ReturnsScriptedResult(t *testing.T) {
	rt := NewRuntime(time.Second)
	def := scriptedStep{
		name: "clean",
		compensate: func(*sagactx.Context) step.CompensationResult {
			return step.CompensationResult{Success: true}
		},
	}

	result := rt.Compensate(context.Background(), def, sagactx.New())
	assert.True(t, result.Success)
}
