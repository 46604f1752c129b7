package services_test

import (
	"testing"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
)

func item(code string, required, produced int) models.ProductionOrderItem {
	return models.ProductionOrderItem{ItemCode: code, QuantityRequired: required, QuantityProduced: produced}
}

func TestSummarizeClampsOverproduction(t *testing.T) {
	summary := services.Summarize([]models.ProductionOrderItem{
		item("rifle_c", 10, 25),
		item("shirt_c", 10, 0),
	})

	if summary.TotalRequired != 20 {
		t.Fatalf("TotalRequired = %d, want 20", summary.TotalRequired)
	}
	if summary.TotalProduced != 10 {
		t.Fatalf("TotalProduced = %d, want 10 (clamped)", summary.TotalProduced)
	}
	if summary.Percentage != 50 {
		t.Fatalf("Percentage = %d, want 50", summary.Percentage)
	}
	if summary.ItemsComplete != 1 || summary.ItemCount != 2 {
		t.Fatalf("ItemsComplete/ItemCount = %d/%d, want 1/2", summary.ItemsComplete, summary.ItemCount)
	}
}

func TestSummarizeEmptyOrder(t *testing.T) {
	summary := services.Summarize(nil)
	if summary.Percentage != 0 {
		t.Fatalf("Percentage = %d, want 0 for empty order", summary.Percentage)
	}
}

func TestDeriveOrderStatusProgression(t *testing.T) {
	now := time.Now()

	order := &models.ProductionOrder{
		Status: models.OrderStatusPending,
		Items:  []models.ProductionOrderItem{item("rifle_c", 10, 0), item("shirt_c", 5, 0)},
	}
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusPending {
		t.Fatalf("untouched order: got %s, want PENDING", got)
	}

	order.Items[0].QuantityProduced = 3
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusInProgress {
		t.Fatalf("partial progress: got %s, want IN_PROGRESS", got)
	}

	order.Items[0].QuantityProduced = 10
	order.Items[1].QuantityProduced = 5
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusCompleted {
		t.Fatalf("all complete: got %s, want COMPLETED", got)
	}
}

func TestDeriveOrderStatusCancelledIsTerminal(t *testing.T) {
	order := &models.ProductionOrder{
		Status: models.OrderStatusCancelled,
		Items:  []models.ProductionOrderItem{item("rifle_c", 10, 10)},
	}
	if got := services.DeriveOrderStatus(order, time.Now()); got != models.OrderStatusCancelled {
		t.Fatalf("got %s, want CANCELLED to stick", got)
	}
}

func TestDeriveOrderStatusNoItemsNeverCompletes(t *testing.T) {
	order := &models.ProductionOrder{Status: models.OrderStatusPending}
	if got := services.DeriveOrderStatus(order, time.Now()); got != models.OrderStatusPending {
		t.Fatalf("got %s, want PENDING for order with no items", got)
	}
}

func TestDeriveOrderStatusMpfTimer(t *testing.T) {
	now := time.Now()
	submitted := now.Add(-time.Hour)
	ready := now.Add(-time.Second)

	order := &models.ProductionOrder{
		Status: models.OrderStatusPending,
		IsMpf:  true,
		Items:  []models.ProductionOrderItem{item("rifle_c", 10, 0)},
	}
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusPending {
		t.Fatalf("unsubmitted MPF order: got %s, want PENDING", got)
	}

	order.Status = models.OrderStatusInProgress
	order.MpfSubmittedAt = &submitted
	future := now.Add(time.Hour)
	order.MpfReadyAt = &future
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusInProgress {
		t.Fatalf("queued MPF order: got %s, want IN_PROGRESS", got)
	}

	// One second past the ready timestamp the order is collectible.
	order.MpfReadyAt = &ready
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusReadyForPickup {
		t.Fatalf("expired timer: got %s, want READY_FOR_PICKUP", got)
	}

	// Progress never auto-completes an MPF order.
	order.Status = models.OrderStatusReadyForPickup
	order.Items[0].QuantityProduced = 10
	if got := services.DeriveOrderStatus(order, now); got != models.OrderStatusReadyForPickup {
		t.Fatalf("complete items on MPF order: got %s, want READY_FOR_PICKUP", got)
	}
}

func TestApplyDerivedStatusMaintainsCompletedAt(t *testing.T) {
	now := time.Now()
	order := &models.ProductionOrder{
		Status: models.OrderStatusInProgress,
		Items:  []models.ProductionOrderItem{item("rifle_c", 10, 10)},
	}

	if changed := services.ApplyDerivedStatus(order, now); !changed {
		t.Fatal("expected a status change to COMPLETED")
	}
	if order.CompletedAt == nil || !order.CompletedAt.Equal(now) {
		t.Fatalf("CompletedAt = %v, want %v", order.CompletedAt, now)
	}

	// Edited back down: completion no longer holds.
	order.Items[0].QuantityProduced = 4
	if changed := services.ApplyDerivedStatus(order, now); !changed {
		t.Fatal("expected a status change back to IN_PROGRESS")
	}
	if order.Status != models.OrderStatusInProgress {
		t.Fatalf("Status = %s, want IN_PROGRESS", order.Status)
	}
	if order.CompletedAt != nil {
		t.Fatal("CompletedAt should be cleared when the order regresses")
	}
}

func TestEvaluateFulfillment(t *testing.T) {
	items := []models.ProductionOrderItem{
		item("rifle_c", 10, 0),
		item("bandages", 5, 0),
	}
	crated := map[string]int{"rifle_c": 8, "bandages": 12}

	fulfillment := services.EvaluateFulfillment(items, crated)

	if fulfillment.AllFulfilled {
		t.Fatal("rifle_c is short, AllFulfilled should be false")
	}
	if fulfillment.Items[0].Deficit != 2 {
		t.Fatalf("rifle_c deficit = %d, want 2", fulfillment.Items[0].Deficit)
	}
	if !fulfillment.Items[1].Fulfilled {
		t.Fatal("bandages at 12/5 should be fulfilled")
	}
	// 8/10 counted plus 5/5 clamped = 13/15.
	if fulfillment.Percentage != 87 {
		t.Fatalf("Percentage = %d, want 87", fulfillment.Percentage)
	}
}

func TestEvaluateFulfillmentSingleItemPercentage(t *testing.T) {
	fulfillment := services.EvaluateFulfillment(
		[]models.ProductionOrderItem{item("rifle_c", 10, 0)},
		map[string]int{"rifle_c": 8},
	)
	if fulfillment.Percentage != 80 {
		t.Fatalf("Percentage = %d, want 80", fulfillment.Percentage)
	}
}

func TestEvaluateFulfillmentNoItemsIsNeverFulfilled(t *testing.T) {
	fulfillment := services.EvaluateFulfillment(nil, map[string]int{})
	if fulfillment.AllFulfilled {
		t.Fatal("an empty minimums list must not count as fulfilled")
	}
	if fulfillment.Percentage != 0 {
		t.Fatalf("Percentage = %d, want 0", fulfillment.Percentage)
	}
}

func TestApplyFulfillmentStatusFlips(t *testing.T) {
	order := &models.ProductionOrder{Status: models.OrderStatusInProgress, IsStandingOrder: true}

	if changed := services.ApplyFulfillmentStatus(order, services.Fulfillment{AllFulfilled: true}); !changed {
		t.Fatal("expected flip to FULFILLED")
	}
	if order.Status != models.OrderStatusFulfilled {
		t.Fatalf("Status = %s, want FULFILLED", order.Status)
	}

	if changed := services.ApplyFulfillmentStatus(order, services.Fulfillment{AllFulfilled: false}); !changed {
		t.Fatal("expected flip back to IN_PROGRESS")
	}
	if order.Status != models.OrderStatusInProgress {
		t.Fatalf("Status = %s, want IN_PROGRESS", order.Status)
	}

	if changed := services.ApplyFulfillmentStatus(order, services.Fulfillment{AllFulfilled: false}); changed {
		t.Fatal("no change expected when already IN_PROGRESS and unfulfilled")
	}
}
