package events

// Channel is a delivery medium for notifications.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// Channels lists all known delivery channels.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp}
}

// Valid reports whether the channel is one of the known delivery channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// Category groups notification types for preference resolution.
type Category string

const (
	CategoryTransaction Category = "transaction"
	CategorySecurity    Category = "security"
	CategoryMarketing   Category = "marketing"
	CategorySupport     Category = "support"
	CategorySavings     Category = "savings"
)

// Type identifies a domain event that can produce a notification.
type Type string

// Transaction events.
const (
	TypeTransactionCompleted  Type = "transaction_completed"
	TypeTransactionFailed     Type = "transaction_failed"
	TypeTransactionReversed   Type = "transaction_reversed"
	TypeDepositReceived       Type = "deposit_received"
	TypeWithdrawalCompleted   Type = "withdrawal_completed"
	TypeTransferSent          Type = "transfer_sent"
	TypeTransferReceived      Type = "transfer_received"
	TypePaymentDue            Type = "payment_due"
	TypePaymentOverdue        Type = "payment_overdue"
	TypeLoanApproved          Type = "loan_approved"
	TypeLoanRejected          Type = "loan_rejected"
	TypeLoanDisbursed         Type = "loan_disbursed"
	TypeLoanRepaymentDue      Type = "loan_repayment_due"
	TypeCardTransaction       Type = "card_transaction"
	TypeBillPayment           Type = "bill_payment"
	TypeStandingOrderExecuted Type = "standing_order_executed"
	TypeLowBalance            Type = "low_balance"
	TypeWalletTopUp           Type = "wallet_top_up"
)

// Security events.
const (
	TypeLoginNewDevice     Type = "login_new_device"
	TypeLoginFailed        Type = "login_failed"
	TypePasswordChanged    Type = "password_changed"
	TypePINChanged         Type = "pin_changed"
	TypeTwoFactorEnabled   Type = "two_factor_enabled"
	TypeTwoFactorDisabled  Type = "two_factor_disabled"
	TypeAccountLocked      Type = "account_locked"
	TypeAccountUnlocked    Type = "account_unlocked"
	TypeSuspiciousActivity Type = "suspicious_activity"
	TypeKYCApproved        Type = "kyc_approved"
	TypeKYCRejected        Type = "kyc_rejected"
	TypeKYCExpiring        Type = "kyc_expiring"
	TypeDeviceRegistered   Type = "device_registered"
	TypeSessionExpired     Type = "session_expired"
)

// Marketing events.
const (
	TypeProductOffer   Type = "product_offer"
	TypeRateChange     Type = "rate_change"
	TypeNewsletter     Type = "newsletter"
	TypeReferralBonus  Type = "referral_bonus"
	TypeCashbackOffer  Type = "cashback_offer"
	TypeFeatureRelease Type = "feature_release"
)

// Support events.
const (
	TypeTicketCreated        Type = "ticket_created"
	TypeTicketUpdated        Type = "ticket_updated"
	TypeTicketResolved       Type = "ticket_resolved"
	TypeTicketClosed         Type = "ticket_closed"
	TypeAgentReply           Type = "agent_reply"
	TypeMaintenanceScheduled Type = "maintenance_scheduled"
	TypeServiceRestored      Type = "service_restored"
)

// Savings events.
const (
	TypeSavingsGoalCreated Type = "savings_goal_created"
	TypeSavingsGoalReached Type = "savings_goal_reached"
	TypeSavingsMilestone   Type = "savings_milestone"
	TypeSavingsDeposit     Type = "savings_deposit"
	TypeSavingsWithdrawal  Type = "savings_withdrawal"
	TypeInterestCredited   Type = "interest_credited"
	TypeAutoSaveExecuted   Type = "auto_save_executed"
	TypeSavingsPlanMatured Type = "savings_plan_matured"
)

// General events that belong to no preference category. They bypass
// category filtering and are delivered whenever the channel is enabled.
const (
	TypeAccountStatementReady Type = "account_statement_ready"
	TypeBirthdayGreeting      Type = "birthday_greeting"
	TypeSystemAnnouncement    Type = "system_announcement"
)

// typeCategories maps every categorized notification type to its preference
// category. Types absent from this table are deliberately uncategorized.
var typeCategories = map[Type]Category{
	TypeTransactionCompleted:  CategoryTransaction,
	TypeTransactionFailed:     CategoryTransaction,
	TypeTransactionReversed:   CategoryTransaction,
	TypeDepositReceived:       CategoryTransaction,
	TypeWithdrawalCompleted:   CategoryTransaction,
	TypeTransferSent:          CategoryTransaction,
	TypeTransferReceived:      CategoryTransaction,
	TypePaymentDue:            CategoryTransaction,
	TypePaymentOverdue:        CategoryTransaction,
	TypeLoanApproved:          CategoryTransaction,
	TypeLoanRejected:          CategoryTransaction,
	TypeLoanDisbursed:         CategoryTransaction,
	TypeLoanRepaymentDue:      CategoryTransaction,
	TypeCardTransaction:       CategoryTransaction,
	TypeBillPayment:           CategoryTransaction,
	TypeStandingOrderExecuted: CategoryTransaction,
	TypeLowBalance:            CategoryTransaction,
	TypeWalletTopUp:           CategoryTransaction,

	TypeLoginNewDevice:     CategorySecurity,
	TypeLoginFailed:        CategorySecurity,
	TypePasswordChanged:    CategorySecurity,
	TypePINChanged:         CategorySecurity,
	TypeTwoFactorEnabled:   CategorySecurity,
	TypeTwoFactorDisabled:  CategorySecurity,
	TypeAccountLocked:      CategorySecurity,
	TypeAccountUnlocked:    CategorySecurity,
	TypeSuspiciousActivity: CategorySecurity,
	TypeKYCApproved:        CategorySecurity,
	TypeKYCRejected:        CategorySecurity,
	TypeKYCExpiring:        CategorySecurity,
	TypeDeviceRegistered:   CategorySecurity,
	TypeSessionExpired:     CategorySecurity,

	TypeProductOffer:   CategoryMarketing,
	TypeRateChange:     CategoryMarketing,
	TypeNewsletter:     CategoryMarketing,
	TypeReferralBonus:  CategoryMarketing,
	TypeCashbackOffer:  CategoryMarketing,
	TypeFeatureRelease: CategoryMarketing,

	TypeTicketCreated:        CategorySupport,
	TypeTicketUpdated:        CategorySupport,
	TypeTicketResolved:       CategorySupport,
	TypeTicketClosed:         CategorySupport,
	TypeAgentReply:           CategorySupport,
	TypeMaintenanceScheduled: CategorySupport,
	TypeServiceRestored:      CategorySupport,

	TypeSavingsGoalCreated: CategorySavings,
	TypeSavingsGoalReached: CategorySavings,
	TypeSavingsMilestone:   CategorySavings,
	TypeSavingsDeposit:     CategorySavings,
	TypeSavingsWithdrawal:  CategorySavings,
	TypeInterestCredited:   CategorySavings,
	TypeAutoSaveExecuted:   CategorySavings,
	TypeSavingsPlanMatured: CategorySavings,
}

// CategoryOf returns the preference category for a notification type.
// The second return value is false for uncategorized types.
func CategoryOf(t Type) (Category, bool) {
	c, ok := typeCategories[t]
	return c, ok
}
