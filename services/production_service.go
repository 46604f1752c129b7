package services

import (
	"math"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
)

// ProgressSummary aggregates item progress for one order. TotalProduced
// clamps each item at its required quantity so over-production on one line
// cannot inflate the overall percentage.
type ProgressSummary struct {
	TotalRequired int `json:"total_required"`
	TotalProduced int `json:"total_produced"`
	Percentage    int `json:"percentage"`
	ItemsComplete int `json:"items_complete"`
	ItemCount     int `json:"item_count"`
}

func Summarize(items []models.ProductionOrderItem) ProgressSummary {
	summary := ProgressSummary{ItemCount: len(items)}
	for _, item := range items {
		summary.TotalRequired += item.QuantityRequired
		produced := item.QuantityProduced
		if produced > item.QuantityRequired {
			produced = item.QuantityRequired
		}
		summary.TotalProduced += produced
		if item.QuantityProduced >= item.QuantityRequired {
			summary.ItemsComplete++
		}
	}
	if summary.TotalRequired > 0 {
		summary.Percentage = int(math.Round(float64(summary.TotalProduced) / float64(summary.TotalRequired) * 100))
	}
	return summary
}

// DeriveOrderStatus recomputes an order's status from its item state.
// This is the single source of truth for the state machine: every mutation
// calls it before commit instead of reimplementing transitions inline.
//
// CANCELLED is terminal and standing orders are governed by fulfillment
// (see EvaluateFulfillment), so both pass through unchanged. MPF orders
// never auto-complete from progress; completion requires an explicit
// pickup with a delivery stockpile.
func DeriveOrderStatus(order *models.ProductionOrder, now time.Time) string {
	if order.Status == models.OrderStatusCancelled || order.IsStandingOrder {
		return order.Status
	}

	if order.IsMpf {
		switch order.Status {
		case models.OrderStatusCompleted:
			return models.OrderStatusCompleted
		case models.OrderStatusReadyForPickup:
			return models.OrderStatusReadyForPickup
		}
		if order.MpfSubmittedAt == nil {
			return models.OrderStatusPending
		}
		if order.MpfReadyAt != nil && !order.MpfReadyAt.After(now) {
			return models.OrderStatusReadyForPickup
		}
		return models.OrderStatusInProgress
	}

	allComplete := len(order.Items) > 0
	anyStarted := false
	for _, item := range order.Items {
		if item.QuantityProduced > 0 {
			anyStarted = true
		}
		if item.QuantityProduced < item.QuantityRequired {
			allComplete = false
		}
	}

	if allComplete {
		return models.OrderStatusCompleted
	}
	if anyStarted {
		return models.OrderStatusInProgress
	}
	return models.OrderStatusPending
}

// ApplyDerivedStatus writes the derived status back onto the order,
// maintaining the completion timestamp. Returns true when anything
// changed and therefore needs persisting.
func ApplyDerivedStatus(order *models.ProductionOrder, now time.Time) bool {
	newStatus := DeriveOrderStatus(order, now)
	if newStatus == order.Status {
		return false
	}

	order.Status = newStatus
	if newStatus == models.OrderStatusCompleted {
		completedAt := now
		order.CompletedAt = &completedAt
	} else {
		// Progress edited back down: completion no longer holds.
		order.CompletedAt = nil
	}
	return true
}

// FulfillmentItem is one line of a standing order compared against the
// crated stock currently in the linked stockpile.
type FulfillmentItem struct {
	ItemCode  string `json:"item_code"`
	Required  int    `json:"required"`
	Current   int    `json:"current"`
	Fulfilled bool   `json:"fulfilled"`
	Deficit   int    `json:"deficit"`
}

type Fulfillment struct {
	Items        []FulfillmentItem `json:"items"`
	AllFulfilled bool              `json:"all_fulfilled"`
	Percentage   int               `json:"percentage"`
}

// EvaluateFulfillment compares a standing order's minimums against crated
// quantities keyed by item code. An order with no items is never fulfilled.
func EvaluateFulfillment(items []models.ProductionOrderItem, cratedByCode map[string]int) Fulfillment {
	result := Fulfillment{AllFulfilled: len(items) > 0}

	totalRequired := 0
	totalCounted := 0
	for _, item := range items {
		current := cratedByCode[item.ItemCode]
		line := FulfillmentItem{
			ItemCode:  item.ItemCode,
			Required:  item.QuantityRequired,
			Current:   current,
			Fulfilled: current >= item.QuantityRequired,
		}
		if !line.Fulfilled {
			line.Deficit = item.QuantityRequired - current
			result.AllFulfilled = false
		}
		result.Items = append(result.Items, line)

		totalRequired += item.QuantityRequired
		counted := current
		if counted > item.QuantityRequired {
			counted = item.QuantityRequired
		}
		totalCounted += counted
	}

	if totalRequired > 0 {
		result.Percentage = int(math.Round(float64(totalCounted) / float64(totalRequired) * 100))
	}
	return result
}

// ApplyFulfillmentStatus flips a standing order between FULFILLED and
// IN_PROGRESS based on the evaluation. Returns true when the status
// changed.
func ApplyFulfillmentStatus(order *models.ProductionOrder, fulfillment Fulfillment) bool {
	if fulfillment.AllFulfilled && order.Status != models.OrderStatusFulfilled {
		order.Status = models.OrderStatusFulfilled
		return true
	}
	if !fulfillment.AllFulfilled && order.Status == models.OrderStatusFulfilled {
		order.Status = models.OrderStatusInProgress
		return true
	}
	return false
}
