package public

import (
	"errors"

	handlershared "github.com/jixie-rent/server/internal/http/handlers/shared"
	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	reason string
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			handlershared.RespondErrorWithReason(c, rule.code, rule.reason, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var promotionOrderAccessErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, reason: response.ReasonNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderForbidden, code: response.CodeForbidden, reason: response.ReasonForbidden, key: "error.order_forbidden"},
}

var promotionOrderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrPromotionTierInvalid, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.promotion_tier_invalid"},
	{target: service.ErrPromotionScopeInvalid, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.promotion_scope_invalid"},
	{target: service.ErrPromotionDurationInvalid, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.promotion_duration_invalid"},
	{target: service.ErrPromotionPriceMissing, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.promotion_price_missing"},
	{target: service.ErrListingNotFound, code: response.CodeNotFound, reason: response.ReasonNotFound, key: "error.listing_not_found"},
	{target: service.ErrListingForbidden, code: response.CodeForbidden, reason: response.ReasonForbidden, key: "error.listing_forbidden"},
	{target: service.ErrListingNotPublished, code: response.CodeConflict, reason: response.ReasonInvalidState, key: "error.listing_not_published"},
}

var promotionOrderStateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict, reason: response.ReasonInvalidState, key: "error.order_status_invalid"},
}

var promotionOrderPayErrorRules = concatMappedHandlerErrors(
	promotionOrderAccessErrorRules,
	promotionOrderStateErrorRules,
	[]mappedHandlerError{
		{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.payment_method_invalid"},
		{target: service.ErrWalletInsufficientBalance, code: response.CodeInsufficientBalance, reason: response.ReasonInsufficientBalance, key: "error.wallet_insufficient_balance"},
		{target: service.ErrPaymentGatewayFailed, code: response.CodeServiceUnavailable, reason: response.ReasonUnavailable, key: "error.payment_gateway_failed"},
	},
)

var promotionOrderRefundErrorRules = concatMappedHandlerErrors(
	promotionOrderAccessErrorRules,
	promotionOrderStateErrorRules,
	[]mappedHandlerError{
		{target: service.ErrWalletReferenceConflict, code: response.CodeConflict, reason: response.ReasonInvalidState, key: "error.wallet_reference_conflict"},
	},
)

var promotionCallbackErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, reason: response.ReasonNotFound, key: "error.order_not_found"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.payment_method_invalid"},
	{target: service.ErrPaymentCallbackInvalid, code: response.CodeBadRequest, reason: response.ReasonInvalidArgument, key: "error.payment_callback_invalid"},
	{target: service.ErrPaymentSignatureInvalid, code: response.CodeBadRequest, reason: response.ReasonSignatureInvalid, key: "error.payment_signature_invalid"},
	{target: service.ErrPaymentAmountMismatch, code: response.CodeUnprocessable, reason: response.ReasonAmountMismatch, key: "error.payment_amount_mismatch"},
}

func respondPromotionOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promotionOrderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
}

func respondPromotionOrderFetchError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promotionOrderAccessErrorRules, response.CodeInternal, "error.order_fetch_failed")
}

func respondPromotionOrderPayError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promotionOrderPayErrorRules, response.CodeInternal, "error.order_update_failed")
}

func respondPromotionOrderRefundError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promotionOrderRefundErrorRules, response.CodeInternal, "error.order_update_failed")
}

func respondPromotionCallbackError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promotionCallbackErrorRules, response.CodeInternal, "error.order_update_failed")
}
