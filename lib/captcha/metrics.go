package captcha

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	issuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "brochure_captcha_issued_total",
		Help: "The total number of CAPTCHA challenges issued",
	})

	verifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brochure_captcha_verified_total",
		Help: "The total number of CAPTCHA verifications by result",
	}, []string{"result"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brochure_captcha_rejected_total",
		Help: "The total number of rejected CAPTCHA answers by reason",
	}, []string{"reason"})

	recorderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brochure_captcha_recorder_errors_total",
		Help: "Failures of the best-effort CAPTCHA record store",
	}, []string{"op"})
)
