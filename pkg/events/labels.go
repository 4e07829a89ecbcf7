package events

import "strings"

// typeLabels holds human-readable labels for notification types. Kept as a
// side table so presentation strings never leak into the type itself.
var typeLabels = map[Type]string{
	TypeTransactionCompleted:  "Transaction Completed",
	TypeTransactionFailed:     "Transaction Failed",
	TypeTransactionReversed:   "Transaction Reversed",
	TypeDepositReceived:       "Deposit Received",
	TypeWithdrawalCompleted:   "Withdrawal Completed",
	TypeTransferSent:          "Transfer Sent",
	TypeTransferReceived:      "Transfer Received",
	TypePaymentDue:            "Payment Due",
	TypePaymentOverdue:        "Payment Overdue",
	TypeLoanApproved:          "Loan Approved",
	TypeLoanRejected:          "Loan Rejected",
	TypeLoanDisbursed:         "Loan Disbursed",
	TypeLoanRepaymentDue:      "Loan Repayment Due",
	TypeCardTransaction:       "Card Transaction",
	TypeBillPayment:           "Bill Payment",
	TypeStandingOrderExecuted: "Standing Order Executed",
	TypeLowBalance:            "Low Balance Warning",
	TypeWalletTopUp:           "Wallet Top-Up",

	TypeLoginNewDevice:     "Login From New Device",
	TypeLoginFailed:        "Failed Login Attempt",
	TypePasswordChanged:    "Password Changed",
	TypePINChanged:         "PIN Changed",
	TypeTwoFactorEnabled:   "Two-Factor Authentication Enabled",
	TypeTwoFactorDisabled:  "Two-Factor Authentication Disabled",
	TypeAccountLocked:      "Account Locked",
	TypeAccountUnlocked:    "Account Unlocked",
	TypeSuspiciousActivity: "Suspicious Activity Detected",
	TypeKYCApproved:        "KYC Verification Approved",
	TypeKYCRejected:        "KYC Verification Rejected",
	TypeKYCExpiring:        "KYC Documents Expiring",
	TypeDeviceRegistered:   "New Device Registered",
	TypeSessionExpired:     "Session Expired",

	TypeProductOffer:   "Product Offer",
	TypeRateChange:     "Interest Rate Change",
	TypeNewsletter:     "Newsletter",
	TypeReferralBonus:  "Referral Bonus",
	TypeCashbackOffer:  "Cashback Offer",
	TypeFeatureRelease: "New Feature Available",

	TypeTicketCreated:        "Support Ticket Created",
	TypeTicketUpdated:        "Support Ticket Updated",
	TypeTicketResolved:       "Support Ticket Resolved",
	TypeTicketClosed:         "Support Ticket Closed",
	TypeAgentReply:           "Support Agent Reply",
	TypeMaintenanceScheduled: "Scheduled Maintenance",
	TypeServiceRestored:      "Service Restored",

	TypeSavingsGoalCreated: "Savings Goal Created",
	TypeSavingsGoalReached: "Savings Goal Reached",
	TypeSavingsMilestone:   "Savings Milestone",
	TypeSavingsDeposit:     "Savings Deposit",
	TypeSavingsWithdrawal:  "Savings Withdrawal",
	TypeInterestCredited:   "Interest Credited",
	TypeAutoSaveExecuted:   "Auto-Save Executed",
	TypeSavingsPlanMatured: "Savings Plan Matured",

	TypeAccountStatementReady: "Account Statement Ready",
	TypeBirthdayGreeting:      "Birthday Greeting",
	TypeSystemAnnouncement:    "System Announcement",
}

// Label returns the human-readable label for the type, deriving one from the
// identifier when the type is not in the table.
func (t Type) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
