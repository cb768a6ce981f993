// Package metrics регистрирует счётчики Prometheus для покупок курсов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchasesTotal — количество успешных покупок курсов.
	PurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursesales_purchases_total",
		Help: "Total number of successful course purchases.",
	})

	// PurchaseFailuresTotal — количество отклонённых покупок по причинам.
	PurchaseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursesales_purchase_failures_total",
		Help: "Total number of rejected course purchases by reason.",
	}, []string{"reason"})

	// AllocationFailuresTotal — количество неудачных распределений по группам
	// после уже состоявшейся покупки.
	AllocationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursesales_allocation_failures_total",
		Help: "Total number of failed group allocations after a committed purchase.",
	})
)
