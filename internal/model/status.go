// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Form submission statuses.
const (
	SubmissionStatusNew      = "new"
	SubmissionStatusRead     = "read"
	SubmissionStatusReplied  = "replied"
	SubmissionStatusArchived = "archived"
)

// Newsletter subscriber statuses.
const (
	SubscriberStatusActive       = "active"
	SubscriberStatusUnsubscribed = "unsubscribed"
)

// Well-known form types. Any other value is accepted as an open tag.
const (
	FormTypeContact          = "contact"
	FormTypeNewsletter       = "newsletter"
	FormTypePricingEstimator = "pricing_estimator"
	FormTypeLeadMagnet       = "lead_magnet"
)

// IsValidSubmissionStatus checks if a submission status is valid.
func IsValidSubmissionStatus(status string) bool {
	switch status {
	case SubmissionStatusNew, SubmissionStatusRead, SubmissionStatusReplied, SubmissionStatusArchived:
		return true
	}
	return false
}

// IsValidSubscriberStatus checks if a subscriber status is valid.
func IsValidSubscriberStatus(status string) bool {
	return status == SubscriberStatusActive || status == SubscriberStatusUnsubscribed
}

// RequiredFormFields maps known form types to the payload keys they must carry.
var RequiredFormFields = map[string][]string{
	FormTypeContact:          {"name", "email", "message"},
	FormTypeNewsletter:       {"email"},
	FormTypePricingEstimator: {"email"},
	FormTypeLeadMagnet:       {"name", "email"},
}
