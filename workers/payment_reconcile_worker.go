// workers/payment_reconcile_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"contest-platform/services"
)

// PaymentReconcileWorker sweeps payments still INITIATED a while after
// creation and polls the gateway for their true state. Webhooks are the fast
// path; this loop is the safety net when they are dropped.
type PaymentReconcileWorker struct {
	payments *services.PaymentService
	interval time.Duration
	minAge   time.Duration
}

func NewPaymentReconcileWorker(payments *services.PaymentService) *PaymentReconcileWorker {
	return &PaymentReconcileWorker{
		payments: payments,
		interval: 2 * time.Minute,
		minAge:   2 * time.Minute,
	}
}

func (w *PaymentReconcileWorker) Start(ctx context.Context) {
	log.Println("Starting payment reconcile worker")
	go w.run(ctx)
}

func (w *PaymentReconcileWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.reconcileBatch(ctx)
		case <-ctx.Done():
			log.Println("Payment reconcile worker stopped")
			return
		}
	}
}

func (w *PaymentReconcileWorker) reconcileBatch(ctx context.Context) {
	stale, err := w.payments.StaleInitiated(w.minAge)
	if err != nil {
		log.Printf("[RECONCILE] failed to list stale payments: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("[RECONCILE] checking %d stale payments", len(stale))
	for _, p := range stale {
		if ctx.Err() != nil {
			return
		}
		payment, err := w.payments.PollStatus(ctx, p.MerchantOrderID)
		if err != nil {
			log.Printf("[RECONCILE] poll failed for %s: %v", p.MerchantOrderID, err)
			continue
		}
		if payment.Status != p.Status {
			log.Printf("[RECONCILE] payment %s moved %s -> %s", p.MerchantOrderID, p.Status, payment.Status)
		}
	}
}
