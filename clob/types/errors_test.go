package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_KindAndStage(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPipelineError(ErrSubmissionTimeout, "submission", "提交超时", cause)

	assert.Equal(t, ErrSubmissionTimeout, KindOf(err))
	assert.True(t, IsKind(err, ErrSubmissionTimeout))
	assert.False(t, IsKind(err, ErrSubmissionRejected))
	assert.Contains(t, err.Error(), "submission")
	assert.Contains(t, err.Error(), "SUBMISSION_TIMEOUT")
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewPipelineError(ErrApprovalFailed, "approvals", "授权失败", cause)

	require.ErrorIs(t, err, cause)

	var pe *PipelineError
	require.ErrorAs(t, errors.Wrap(err, "outer"), &pe)
	assert.Equal(t, ErrApprovalFailed, pe.Kind)
}

func TestKindOf_NonPipelineError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.False(t, IsKind(nil, ErrInvalidAmount))
}

func TestSideUint8(t *testing.T) {
	assert.Equal(t, uint8(0), SideBuy.Uint8())
	assert.Equal(t, uint8(1), SideSell.Uint8())
}
