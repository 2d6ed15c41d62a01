package service

import "errors"

// 推广订单
var (
	ErrOrderNotFound       = errors.New("promotion order not found")
	ErrOrderForbidden      = errors.New("promotion order forbidden")
	ErrOrderStatusInvalid  = errors.New("promotion order status invalid")
	ErrOrderCreateFailed   = errors.New("promotion order create failed")
	ErrOrderUpdateFailed   = errors.New("promotion order update failed")
	ErrOrderFetchFailed    = errors.New("promotion order fetch failed")
	ErrOrderNoGenerateFail = errors.New("promotion order number generate failed")
)

// 推广参数
var (
	ErrPromotionTierInvalid     = errors.New("promotion tier invalid")
	ErrPromotionScopeInvalid    = errors.New("promotion region scope invalid")
	ErrPromotionDurationInvalid = errors.New("promotion duration invalid")
	ErrPromotionPriceMissing    = errors.New("promotion price not configured")
)

// 信息
var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingForbidden    = errors.New("listing forbidden")
	ErrListingNotPublished = errors.New("listing not published")
	ErrListingUpdateFailed = errors.New("listing update failed")
)

// 支付
var (
	ErrPaymentMethodInvalid    = errors.New("payment method invalid")
	ErrPaymentGatewayFailed    = errors.New("payment gateway request failed")
	ErrPaymentAmountMismatch   = errors.New("payment amount mismatch")
	ErrPaymentSignatureInvalid = errors.New("payment signature invalid")
	ErrPaymentCallbackInvalid  = errors.New("payment callback invalid")
)

// 钱包
var (
	ErrWalletAccountNotFound         = errors.New("wallet account not found")
	ErrWalletInvalidAmount           = errors.New("wallet amount invalid")
	ErrWalletInsufficientBalance     = errors.New("wallet insufficient balance")
	ErrWalletAccountCreateFailed     = errors.New("wallet account create failed")
	ErrWalletAccountUpdateFailed     = errors.New("wallet account update failed")
	ErrWalletTransactionCreateFailed = errors.New("wallet transaction create failed")
	ErrWalletReferenceConflict       = errors.New("wallet reference conflict")
)

// 通知与队列
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationFailed   = errors.New("notification dispatch failed")
	ErrQueueUnavailable     = errors.New("queue unavailable")
)
