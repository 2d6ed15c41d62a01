package response

// AppError 统一错误包装
type AppError struct {
	Code    int
	Reason  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误，reason 为空时按状态码取默认错误码
func WrapError(code int, reason, message string, err error) *AppError {
	if reason == "" {
		reason = DefaultReason(code)
	}
	return &AppError{
		Code:    code,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}
