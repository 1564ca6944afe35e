package domain

import "errors"

var (
	ErrInvalidReference     = errors.New("invalid payment reference")
	ErrGatewayFailure       = errors.New("gateway verification failed")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrPurposeMismatch      = errors.New("payment purpose mismatch")
	ErrAmountMismatch       = errors.New("payment amount mismatch")
	ErrCurrencyMismatch     = errors.New("payment currency mismatch")
	ErrInvalidMetadata      = errors.New("invalid payment metadata")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrInvalidCampaign      = errors.New("invalid campaign draft")
	ErrCampaignNotPayable   = errors.New("campaign not awaiting payment")
)
