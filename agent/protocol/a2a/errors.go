package a2a

import "errors"

// A2A 邮箱错误.
var (
	// ErrStatusRegression 表示消息状态试图回退.
	ErrStatusRegression = errors.New("a2a message: status cannot move backward")
	// ErrNilMessage 表示收到空消息.
	ErrNilMessage = errors.New("a2a: nil message")
	// ErrHandlerTimeout 表示处理器超过等待时限.
	ErrHandlerTimeout = errors.New("a2a: handler timed out")
)
