package billing

import (
	"errors"
	"testing"
	"time"
)

var webhookNow = time.Date(2023, time.November, 6, 12, 0, 0, 0, time.UTC)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.created"}`)
	header := SignPayload(payload, "whsec_test", webhookNow)
	if err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, webhookNow); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_test", webhookNow)
	err := VerifySignature(payload, header, "whsec_other", DefaultTolerance, webhookNow)
	if !errors.Is(err, ErrNoValidSignature) {
		t.Fatalf("err = %v, want ErrNoValidSignature", err)
	}
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_test", webhookNow)
	err := VerifySignature([]byte(`{"id":"evt_2"}`), header, "whsec_test", DefaultTolerance, webhookNow)
	if !errors.Is(err, ErrNoValidSignature) {
		t.Fatalf("err = %v, want ErrNoValidSignature", err)
	}
}

func TestVerifySignatureStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_test", webhookNow.Add(-10*time.Minute))
	err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, webhookNow)
	if !errors.Is(err, ErrTimestampTooOld) {
		t.Fatalf("err = %v, want ErrTimestampTooOld", err)
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	for _, header := range []string{"", "garbage", "t=abc,v1=00", "v1=00"} {
		err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, webhookNow)
		if !errors.Is(err, ErrInvalidSignatureHeader) {
			t.Fatalf("header %q: err = %v, want ErrInvalidSignatureHeader", header, err)
		}
	}
}

func TestParseEventDecodesInvoice(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "invoice.created",
		"data": {
			"object": {
				"id": "in_1",
				"customer": "cus_1",
				"billing_reason": "subscription_cycle",
				"lines": {
					"data": [
						{
							"id": "il_1",
							"subscription_item": "si_1",
							"plan": {"id": "plan_12"},
							"period": {"start": 1699000000, "end": 1699604800}
						}
					]
				}
			}
		}
	}`)
	header := SignPayload(payload, "whsec_test", webhookNow)
	event, err := ParseEvent(payload, header, "whsec_test", webhookNow)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.Type != "invoice.created" {
		t.Fatalf("type = %s", event.Type)
	}
	invoice := event.Data.Object
	if invoice.Customer != "cus_1" || invoice.BillingReason != "subscription_cycle" {
		t.Fatalf("invoice = %+v", invoice)
	}
	if len(invoice.Lines.Data) != 1 || invoice.Lines.Data[0].Period.End != 1699604800 {
		t.Fatalf("lines = %+v", invoice.Lines.Data)
	}
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_other", webhookNow)
	if _, err := ParseEvent(payload, header, "whsec_test", webhookNow); err == nil {
		t.Fatal("expected a signature error")
	}
}
