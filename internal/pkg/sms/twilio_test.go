package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewTwilioRequiresCredentials(t *testing.T) {
	if _, err := NewTwilio(TwilioConfig{AccountSID: "AC1"}); !errors.Is(err, ErrTwilioCredentials) {
		t.Fatalf("NewTwilio() error = %v, want ErrTwilioCredentials", err)
	}
}

func TestTwilioSend(t *testing.T) {
	var gotPath, gotUser, gotPass, gotTo, gotFrom, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		gotTo, gotFrom, gotBody = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123"}`))
	}))
	defer srv.Close()

	tw, err := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+15550000000", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewTwilio() error = %v", err)
	}
	defer tw.Close()

	err = tw.Send(context.Background(), Message{To: "+15551234567", Body: "Your verification code is: 123456."})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/Accounts/AC1/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotUser != "AC1" || gotPass != "tok" {
		t.Fatalf("basic auth = %q:%q", gotUser, gotPass)
	}
	if gotTo != "+15551234567" || gotFrom != "+15550000000" || !strings.Contains(gotBody, "123456") {
		t.Fatalf("form = To:%q From:%q Body:%q", gotTo, gotFrom, gotBody)
	}
}

func TestTwilioSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	tw, _ := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+15550000000", BaseURL: srv.URL})

	err := tw.Send(context.Background(), Message{To: "+1", Body: "x"})
	if err == nil || !strings.Contains(err.Error(), "21211") {
		t.Fatalf("Send() error = %v, want twilio code in message", err)
	}

	if err := tw.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("Send() error = %v, want ErrNoRecipient", err)
	}
}
