package models

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Teacher{},
		&Course{},
		&Order{},
		&OrderItem{},
		&SubscriptionPlan{},
		&Subscription{},
		&LedgerEntry{},
		&Commission{},
		&AffiliateLink{},
		&AffiliateCommission{},
		&AffiliateWithdrawal{},
		&PayoutRequest{},
	}
}
