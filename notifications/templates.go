package notifications

import (
	"fmt"
	"html"

	"github.com/shopspring/decimal"
)

type Message struct {
	Subject string
	HTML    string
}

func PayoutCompleted(name string, amount decimal.Decimal) Message {
	return Message{
		Subject: "Your Payout Has Been Processed",
		HTML:    fmt.Sprintf("<h1>Payout Processed</h1><p>Hello %s,</p><p>Your payout request for the amount of %s has been processed and sent by our team.</p>", html.EscapeString(name), amount.StringFixed(2)),
	}
}

func PayoutRejected(name string, amount decimal.Decimal, notes string) Message {
	return Message{
		Subject: "Update on Your Payout Request",
		HTML:    fmt.Sprintf("<h1>Payout Request Update</h1><p>Hello %s,</p><p>Your payout request for the amount of %s was rejected. The funds have been returned to your balance.</p><p><b>Notes:</b> %s</p>", html.EscapeString(name), amount.StringFixed(2), html.EscapeString(notes)),
	}
}

func CommissionsSettled(name string, total decimal.Decimal) Message {
	return Message{
		Subject: "You Have New Earnings!",
		HTML:    fmt.Sprintf("<h1>Sale Settled</h1><p>Hello %s,</p><p>%s from a recent sale has been credited to your wallet.</p>", html.EscapeString(name), total.StringFixed(2)),
	}
}

func AffiliateWithdrawalCompleted(name string, amount decimal.Decimal) Message {
	return Message{
		Subject: "Your Affiliate Payout Is On Its Way",
		HTML:    fmt.Sprintf("<h1>Withdrawal Approved</h1><p>Hello %s,</p><p>Your affiliate withdrawal of %s has been approved and paid out.</p>", html.EscapeString(name), amount.StringFixed(2)),
	}
}

func AffiliateWithdrawalRejected(name string, amount decimal.Decimal, reason string) Message {
	return Message{
		Subject: "Update on Your Affiliate Withdrawal",
		HTML:    fmt.Sprintf("<h1>Withdrawal Rejected</h1><p>Hello %s,</p><p>Your affiliate withdrawal of %s was rejected. The commissions are available to withdraw again.</p><p><b>Reason:</b> %s</p>", html.EscapeString(name), amount.StringFixed(2), html.EscapeString(reason)),
	}
}
