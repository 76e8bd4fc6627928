package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "capsync"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	dialFailures   prom.Counter
	sessions       prom.Counter
	connected      prom.Gauge
	messages       *prom.CounterVec
	mailboxDropped prom.Counter
	writeFailures  prom.Counter
	indicator      prom.Gauge
}

// NewPrometheusRecorder constructs and registers the sync metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		dialFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "dial_failures_total",
			Help:      "Failed attempts to connect to the relay",
		}),
		sessions: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Relay sessions established",
		}),
		connected: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while a relay session is active",
		}),
		messages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Relay messages by outcome",
		}, []string{"outcome"}),
		mailboxDropped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_dropped_total",
			Help:      "Inbound messages discarded because the mailbox was full",
		}),
		writeFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "indicator_write_failures_total",
			Help:      "Failed attempts to set the local caps lock",
		}),
		indicator: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "indicator_on",
			Help:      "Last observed local caps lock state",
		}),
	}
	reg.MustRegister(
		pr.dialFailures,
		pr.sessions,
		pr.connected,
		pr.messages,
		pr.mailboxDropped,
		pr.writeFailures,
		pr.indicator,
	)
	return pr
}

func (p *PrometheusRecorder) IncDialFailure() { p.dialFailures.Inc() }
func (p *PrometheusRecorder) IncSession()     { p.sessions.Inc() }

func (p *PrometheusRecorder) SetConnected(connected bool) {
	p.connected.Set(boolValue(connected))
}

func (p *PrometheusRecorder) IncSent()      { p.messages.WithLabelValues("sent").Inc() }
func (p *PrometheusRecorder) IncReceived()  { p.messages.WithLabelValues("received").Inc() }
func (p *PrometheusRecorder) IncApplied()   { p.messages.WithLabelValues("applied").Inc() }
func (p *PrometheusRecorder) IncEcho()      { p.messages.WithLabelValues("echo").Inc() }
func (p *PrometheusRecorder) IncMalformed() { p.messages.WithLabelValues("malformed").Inc() }

func (p *PrometheusRecorder) IncMailboxDropped() { p.mailboxDropped.Inc() }
func (p *PrometheusRecorder) IncWriteFailure()   { p.writeFailures.Inc() }

func (p *PrometheusRecorder) SetIndicator(on bool) {
	p.indicator.Set(boolValue(on))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
