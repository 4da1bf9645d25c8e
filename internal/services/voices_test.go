package services

import (
	"context"
	"testing"
	"time"
)

func testVoices() []Voice {
	return []Voice{
		{Name: "Amelie", Locale: "fr-FR"},
		{Name: "Jorge", Locale: "es-MX"},
		{Name: "Monica", Locale: "es-ES"},
		{Name: "Samantha", Locale: "en-US", Default: true},
	}
}

func TestVoiceSelectExactLocale(t *testing.T) {
	c := NewVoiceCatalog(time.Second, mustTestLogger(t))
	c.SetVoices(testVoices())
	v, ok := c.Select(context.Background(), "es-ES")
	if !ok || v.Name != "Monica" {
		t.Fatalf("got %+v ok=%v, want Monica", v, ok)
	}
}

func TestVoiceSelectLanguagePrefix(t *testing.T) {
	c := NewVoiceCatalog(time.Second, mustTestLogger(t))
	c.SetVoices(testVoices())
	// No es-AR voice; the first Spanish voice wins.
	v, ok := c.Select(context.Background(), "es-AR")
	if !ok || v.Name != "Jorge" {
		t.Fatalf("got %+v ok=%v, want Jorge", v, ok)
	}
}

func TestVoiceSelectDefaultFallback(t *testing.T) {
	c := NewVoiceCatalog(time.Second, mustTestLogger(t))
	c.SetVoices(testVoices())
	v, ok := c.Select(context.Background(), "ja-JP")
	if !ok || v.Name != "Samantha" {
		t.Fatalf("got %+v ok=%v, want the default voice", v, ok)
	}
}

func TestVoiceSelectEmptyCatalogAfterTimeout(t *testing.T) {
	c := NewVoiceCatalog(20*time.Millisecond, mustTestLogger(t))
	start := time.Now()
	_, ok := c.Select(context.Background(), "es-ES")
	if ok {
		t.Fatalf("empty catalog returned a voice")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("selection did not wait for the report window (%v)", elapsed)
	}
}

func TestVoiceSelectUnblocksOnReport(t *testing.T) {
	c := NewVoiceCatalog(5*time.Second, mustTestLogger(t))
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.SetVoices(testVoices())
	}()
	start := time.Now()
	v, ok := c.Select(context.Background(), "es-ES")
	if !ok || v.Name != "Monica" {
		t.Fatalf("got %+v ok=%v", v, ok)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("selection waited for the full timeout despite a report")
	}
}

func TestVoiceSelectEmptyWantedUsesDefaultLocale(t *testing.T) {
	c := NewVoiceCatalog(time.Second, mustTestLogger(t))
	c.SetVoices(testVoices())
	v, ok := c.Select(context.Background(), "")
	if !ok || v.Locale != "es-ES" {
		t.Fatalf("empty locale should target es-ES, got %+v", v)
	}
}
