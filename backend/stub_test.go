package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaguanLabs/invlocale"
)

func TestStubBackend(t *testing.T) {
	out, err := NewStubBackend().Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Solar Farm", "Technology"},
		TargetLang: invlocale.LocaleHR,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out[0] != "[HR] Solar Farm" || out[1] != "[HR] Technology" {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestStubBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStubBackend().Translate(ctx, TranslateRequest{Texts: []string{"x"}}); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestMockBackend(t *testing.T) {
	m := NewMockBackend()
	m.Translations["Energy"] = "Energie"

	out, err := m.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Energy", "Solar Farm"},
		TargetLang: invlocale.LocaleDE,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out[0] != "Energie" || out[1] != "[DE] Solar Farm" {
		t.Errorf("unexpected output: %v", out)
	}
	if m.CallCount() != 1 || m.CallsFor(invlocale.LocaleDE) != 1 {
		t.Errorf("unexpected counters: %d/%d", m.CallCount(), m.CallsFor(invlocale.LocaleDE))
	}
	if m.LastRequest().TargetLang != invlocale.LocaleDE {
		t.Error("LastRequest not recorded")
	}

	m.Reset()
	if m.CallCount() != 0 || m.LastRequest() != nil {
		t.Error("Reset should clear counters")
	}
}

func TestMockBackend_FailFor(t *testing.T) {
	m := NewMockBackend()
	boom := errors.New("fr backend down")
	m.FailFor(invlocale.LocaleFR, boom)

	if _, err := m.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}, TargetLang: invlocale.LocaleFR}); !errors.Is(err, boom) {
		t.Errorf("expected configured failure, got %v", err)
	}
	if _, err := m.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}, TargetLang: invlocale.LocaleIT}); err != nil {
		t.Errorf("other locales should succeed, got %v", err)
	}

	m.FailFor(invlocale.LocaleFR, nil)
	if _, err := m.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}, TargetLang: invlocale.LocaleFR}); err != nil {
		t.Errorf("cleared failure should succeed, got %v", err)
	}
}

func TestMockBackend_Delay(t *testing.T) {
	m := NewMockBackend()
	m.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.Translate(ctx, TranslateRequest{Texts: []string{"a"}}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
