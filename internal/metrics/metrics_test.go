package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConnectionAcceptedAndClosed(t *testing.T) {
	c := New()
	c.ConnectionAccepted("socks5")
	c.ConnectionAccepted("socks5")
	c.ConnectionClosed("socks5")

	if got := testutil.ToFloat64(c.connectionsTotal.WithLabelValues("socks5")); got != 2 {
		t.Errorf("connectionsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.connectionsActive.WithLabelValues("socks5")); got != 1 {
		t.Errorf("connectionsActive = %v, want 1", got)
	}
}

func TestAuthOutcomeLabels(t *testing.T) {
	c := New()
	c.AuthOutcome("http", true)
	c.AuthOutcome("http", false)
	c.AuthOutcome("http", false)

	if got := testutil.ToFloat64(c.authOutcomes.WithLabelValues("http", "success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.authOutcomes.WithLabelValues("http", "failure")); got != 2 {
		t.Errorf("failure count = %v, want 2", got)
	}
}

func TestRelayBytesIgnoresNonPositive(t *testing.T) {
	c := New()
	c.RelayBytes("socks5", "upload", 100)
	c.RelayBytes("socks5", "upload", 0)
	c.RelayBytes("socks5", "upload", -5)

	if got := testutil.ToFloat64(c.relayBytes.WithLabelValues("socks5", "upload")); got != 100 {
		t.Errorf("relayBytes = %v, want 100", got)
	}
}

func TestAdmissionWaitAndSessionDurationObserve(t *testing.T) {
	c := New()
	c.AdmissionWait("http", 5*time.Millisecond)
	c.SessionCompleted("http", 2*time.Second)

	if got := testutil.CollectAndCount(c.admissionWait); got != 1 {
		t.Errorf("admissionWait series = %d, want 1", got)
	}
	if got := testutil.CollectAndCount(c.sessionDuration); got != 1 {
		t.Errorf("sessionDuration series = %d, want 1", got)
	}
}

func TestNewRegistersIndependentRegistry(t *testing.T) {
	a := New()
	b := New()
	if a.Registry == b.Registry {
		t.Error("expected independent registries per Collector")
	}
}
