package model

import "errors"

// 引擎错误分类（对外导出）
// 所有组件返回的业务错误都必须包装其中之一，调用方使用 errors.Is 判断类别
var (
	// ErrValidation 请求负载不合法
	ErrValidation = errors.New("请求参数不合法")

	// ErrNotFound 实体不存在（或属于其他租户）
	ErrNotFound = errors.New("实体不存在")

	// ErrInvalidReference 状态/流转跨Workflow引用
	ErrInvalidReference = errors.New("跨Workflow的非法引用")

	// ErrInvalidTransition 当前状态没有对应的出边
	ErrInvalidTransition = errors.New("当前状态不允许该流转")

	// ErrAmbiguousEntryState 入口状态缺失或不唯一
	ErrAmbiguousEntryState = errors.New("入口状态缺失或不唯一")

	// ErrOutOfSequence 审批顺序违规（只允许处理最小未决序号）
	ErrOutOfSequence = errors.New("审批顺序违规")

	// ErrAlreadyResolved 审批已被处理（并发响应的败者）
	ErrAlreadyResolved = errors.New("审批已被处理")

	// ErrConflict 实例版本过期（乐观并发冲突）
	ErrConflict = errors.New("实例版本冲突")

	// ErrInvalidState 当前状态不属于所在Workflow（直接写入或状态被删除）
	ErrInvalidState = errors.New("实例状态不属于所在Workflow")
)
