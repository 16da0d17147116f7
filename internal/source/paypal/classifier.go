package paypal

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"eopbot/internal/format"
	"eopbot/internal/sink"
)

type Classifier struct {
	d   format.Dialect
	out sink.Emitter
}

func NewClassifier(d format.Dialect, out sink.Emitter) *Classifier {
	if d == nil {
		d = format.HTML{}
	}
	return &Classifier{d: d, out: out}
}

// Handle emits the payment message. Invalid amounts are an error and nothing is sent.
func (c *Classifier) Handle(ctx context.Context, ipn *IPN) error {
	msg, err := c.Format(ipn)
	if err != nil {
		return err
	}
	c.out.Emit(ctx, msg)
	return nil
}

// Format renders the net, fee and gross amounts with two decimals.
func (c *Classifier) Format(ipn *IPN) (sink.Message, error) {
	gross, err := decimal.NewFromString(ipn.MCGross)
	if err != nil {
		return sink.Message{}, fmt.Errorf("mc_gross %q: %w", ipn.MCGross, err)
	}
	fee, err := decimal.NewFromString(ipn.MCFee)
	if err != nil {
		return sink.Message{}, fmt.Errorf("mc_fee %q: %w", ipn.MCFee, err)
	}
	net := gross.Sub(fee)

	d := c.d
	amount := func(v decimal.Decimal) format.M { return d.Bold(v.StringFixed(2) + " " + ipn.MCCurrency) }
	status := format.Cond(ipn.PayerStatus == "verified", "✓", "✘")

	text := format.Printf(d, "Received %s (fee %s, gr. %s) from %s [%s]",
		amount(net),
		amount(fee),
		amount(gross),
		d.Bold(ipn.FirstName+" "+ipn.LastName),
		d.Bold(status+", "+ipn.ResidenceCountry+", "+ipn.PayerEmail),
	)
	return sink.Message{Text: text, Loud: true}, nil
}
