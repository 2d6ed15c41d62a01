package response

const (
	CodeOK                  = 0
	CodeBadRequest          = 400
	CodeUnauthorized        = 401
	CodeInsufficientBalance = 402
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeUnprocessable       = 422
	CodeTooManyRequests     = 429
	CodeInternal            = 500
	CodeServiceUnavailable  = 503
)

// 稳定的机器可读错误码
const (
	ReasonBadRequest          = "bad_request"
	ReasonUnauthorized        = "unauthorized"
	ReasonForbidden           = "forbidden"
	ReasonNotFound            = "not_found"
	ReasonInvalidArgument     = "invalid_argument"
	ReasonInvalidState        = "invalid_state"
	ReasonInsufficientBalance = "insufficient_balance"
	ReasonAmountMismatch      = "amount_mismatch"
	ReasonSignatureInvalid    = "signature_invalid"
	ReasonTooManyRequests     = "too_many_requests"
	ReasonUnavailable         = "unavailable"
	ReasonInternal            = "internal_error"
)

// DefaultReason 返回状态码对应的默认错误码
func DefaultReason(statusCode int) string {
	switch statusCode {
	case CodeBadRequest:
		return ReasonBadRequest
	case CodeUnauthorized:
		return ReasonUnauthorized
	case CodeInsufficientBalance:
		return ReasonInsufficientBalance
	case CodeForbidden:
		return ReasonForbidden
	case CodeNotFound:
		return ReasonNotFound
	case CodeConflict:
		return ReasonInvalidState
	case CodeTooManyRequests:
		return ReasonTooManyRequests
	case CodeServiceUnavailable:
		return ReasonUnavailable
	case CodeOK:
		return ""
	}
	return ReasonInternal
}
