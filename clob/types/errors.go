package types

import (
	"errors"
	"fmt"
)

// ErrorKind 管线错误分类
type ErrorKind string

const (
	// ErrInvalidAmount 价格/数量超出定义域；本地错误，不可重试，
	// 管线不会触达链或网络
	ErrInvalidAmount ErrorKind = "INVALID_AMOUNT"

	// ErrApprovalFailed 授权交易回滚或在期限内未确认；本次提交终止
	ErrApprovalFailed ErrorKind = "APPROVAL_FAILED"

	// ErrSigningFailed 签名密钥不可用或签名构建失败
	ErrSigningFailed ErrorKind = "SIGNING_FAILED"

	// ErrCredential 挑战-响应失败或凭证被服务端拒绝；
	// 重新执行凭证推导可恢复
	ErrCredential ErrorKind = "CREDENTIAL_ERROR"

	// ErrSubmissionRejected 服务端返回结构化拒绝；终态，不自动重试
	ErrSubmissionRejected ErrorKind = "SUBMISSION_REJECTED"

	// ErrSubmissionTimeout 限时内无响应；结果未知，
	// 重试前必须先查询订单状态
	ErrSubmissionTimeout ErrorKind = "SUBMISSION_TIMEOUT"
)

// PipelineError 管线阶段错误，携带失败阶段和底层原因，
// 让调用方能决定是否用新参数重试
type PipelineError struct {
	Kind    ErrorKind
	Stage   string // 失败的阶段: amounts / approvals / build / sign / credentials / submit
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Stage, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Stage, e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError 构造管线错误
func NewPipelineError(kind ErrorKind, stage, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Message: message, Cause: cause}
}

// KindOf 返回错误的分类；非管线错误返回空串
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
