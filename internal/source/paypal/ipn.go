package paypal

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"golang.org/x/text/encoding/htmlindex"
)

// IPN is an Instant Payment Notification. Only the amounts are required;
// PayPal omits most other fields depending on the transaction type.
type IPN struct {
	MCGross          string `form:"mc_gross" binding:"required"`
	MCFee            string `form:"mc_fee" binding:"required"`
	MCCurrency       string `form:"mc_currency" binding:"required"`
	FirstName        string `form:"first_name"`
	LastName         string `form:"last_name"`
	PayerEmail       string `form:"payer_email"`
	PayerStatus      string `form:"payer_status"`
	PayerID          string `form:"payer_id"`
	ResidenceCountry string `form:"residence_country"`
	PaymentStatus    string `form:"payment_status"`
	PaymentType      string `form:"payment_type"`
	PaymentDate      string `form:"payment_date"`
	TxnID            string `form:"txn_id"`
	TxnType          string `form:"txn_type"`
	ItemName         string `form:"item_name"`
	ItemNumber       string `form:"item_number"`
	Custom           string `form:"custom"`
	ReceiverEmail    string `form:"receiver_email"`
	Charset          string `form:"charset"`
	NotifyVersion    string `form:"notify_version"`
	IPNTrackID       string `form:"ipn_track_id"`
}

// ParseIPN decodes a form-encoded notification body. Values are transcoded
// to UTF-8 according to the charset field (PayPal defaults to windows-1252).
func ParseIPN(raw []byte) (*IPN, error) {
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse ipn form: %w", err)
	}
	if err := transcode(form, form.Get("charset")); err != nil {
		return nil, err
	}

	var ipn IPN
	if err := binding.MapFormWithTag(&ipn, form, "form"); err != nil {
		return nil, fmt.Errorf("map ipn form: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&ipn); err != nil {
		return nil, fmt.Errorf("validate ipn: %w", err)
	}
	return &ipn, nil
}

func transcode(form url.Values, charset string) error {
	charset = strings.TrimSpace(charset)
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return fmt.Errorf("ipn charset %q: %w", charset, err)
	}
	dec := enc.NewDecoder()
	for k, vs := range form {
		for i, v := range vs {
			s, err := dec.String(v)
			if err != nil {
				return fmt.Errorf("ipn field %s: %w", k, err)
			}
			vs[i] = s
		}
	}
	return nil
}
