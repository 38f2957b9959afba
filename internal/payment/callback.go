package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBadCallback = errors.New("unrecognized callback payload")

// stkCallbackEnvelope mirrors the Daraja STK result shape:
//
//	{"Body":{"stkCallback":{"CheckoutRequestID":...,"ResultCode":0,
//	  "CallbackMetadata":{"Item":[{"Name":"Amount","Value":50}, ...]}}}}
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string `json:"Name"`
					Value any    `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// directDebitCallback is the flat shape the direct-debit variant posts.
type directDebitCallback struct {
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Receipt       string  `json:"receipt"`
}

// NormalizeCallback maps a provider-specific asynchronous notification into
// the common CallbackResult. Provider field names stop here; the state
// machine never branches on them.
func NormalizeCallback(raw []byte) (*CallbackResult, error) {
	var stk stkCallbackEnvelope
	if err := json.Unmarshal(raw, &stk); err == nil && stk.Body.StkCallback.CheckoutRequestID != "" {
		cb := stk.Body.StkCallback
		out := &CallbackResult{
			Reference: cb.CheckoutRequestID,
			Success:   cb.ResultCode == 0,
		}
		for _, item := range cb.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				if v, ok := item.Value.(float64); ok {
					out.Amount = v
				}
			case "MpesaReceiptNumber":
				out.Receipt = fmt.Sprint(item.Value)
			}
		}
		return out, nil
	}

	var dd directDebitCallback
	if err := json.Unmarshal(raw, &dd); err == nil && dd.TransactionID != "" {
		return &CallbackResult{
			Reference: dd.TransactionID,
			Success:   dd.Status == "SUCCESS",
			Amount:    dd.Amount,
			Receipt:   dd.Receipt,
		}, nil
	}

	return nil, ErrBadCallback
}
