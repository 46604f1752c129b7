package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"gorm.io/gorm"
)

func (f *fixture) setCrated(t *testing.T, stockpileID interface{}, itemCode string, quantity int) {
	t.Helper()
	status, body := f.request(t, http.MethodPost, fmt.Sprintf("/stockpiles/%v/refresh", stockpileID), map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": itemCode, "quantity": quantity, "crated": true},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("refresh: status %d, body %v", status, body)
	}
}

func TestMinimumsLifecycle(t *testing.T) {
	f := setup(t)

	minimumsPath := fmt.Sprintf("/stockpiles/%s/minimums", f.depotA.ID)

	// No minimums configured yet.
	status, _ := f.request(t, http.MethodGet, minimumsPath, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get before configuration: status %d, want 404", status)
	}

	// Configure minimums; the standing order is auto-named and linked.
	status, body := f.request(t, http.MethodPut, minimumsPath, map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": "rifle_c", "quantity": 10},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("set minimums: status %d, body %v", status, body)
	}

	var order models.ProductionOrder
	if err := f.db.Preload("Items").
		Where("regiment_id = ? AND is_standing_order = ? AND linked_stockpile_id = ?",
			f.regiment.ID, true, f.depotA.ID).
		First(&order).Error; err != nil {
		t.Fatalf("load standing order: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].QuantityRequired != 10 {
		t.Fatalf("standing order items = %+v, want one rifle_c x10", order.Items)
	}
	if order.Status != models.OrderStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS while unfulfilled", order.Status)
	}

	// 8 of 10 crated rifles: 80% and still unfulfilled.
	f.setCrated(t, f.depotA.ID, "rifle_c", 8)

	status, body = f.request(t, http.MethodGet, minimumsPath, nil)
	if status != http.StatusOK {
		t.Fatalf("get minimums: status %d", status)
	}
	data := body["data"].(map[string]interface{})
	fulfillment := data["fulfillment"].(map[string]interface{})
	if fulfillment["all_fulfilled"] != false {
		t.Fatalf("all_fulfilled = %v, want false at 8/10", fulfillment["all_fulfilled"])
	}
	if pct := fulfillment["percentage"].(float64); pct != 80 {
		t.Fatalf("percentage = %v, want 80", pct)
	}

	// Topping up past the minimum flips the order to FULFILLED on read.
	f.setCrated(t, f.depotA.ID, "rifle_c", 12)

	status, body = f.request(t, http.MethodGet, minimumsPath, nil)
	if status != http.StatusOK {
		t.Fatalf("get minimums: status %d", status)
	}
	data = body["data"].(map[string]interface{})
	if data["status"] != models.OrderStatusFulfilled {
		t.Fatalf("status = %v, want FULFILLED", data["status"])
	}
	if err := f.db.First(&order, int64(order.ID)).Error; err != nil {
		t.Fatalf("reload standing order: %v", err)
	}
	if order.Status != models.OrderStatusFulfilled {
		t.Fatalf("persisted status = %s, want FULFILLED", order.Status)
	}

	// Replacing the item list keeps the same order but re-evaluates it.
	status, body = f.request(t, http.MethodPut, minimumsPath, map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": "rifle_c", "quantity": 10},
			{"item_code": "bandages", "quantity": 20},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("replace minimums: status %d", status)
	}
	data = body["data"].(map[string]interface{})
	if data["status"] != models.OrderStatusInProgress {
		t.Fatalf("status after expansion = %v, want IN_PROGRESS (bandages missing)", data["status"])
	}

	var itemCount int64
	f.db.Model(&models.ProductionOrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount)
	if itemCount != 2 {
		t.Fatalf("item count = %d, want 2 after replacement", itemCount)
	}

	// An empty list removes the standing order entirely.
	status, _ = f.request(t, http.MethodPut, minimumsPath, map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	if status != http.StatusOK {
		t.Fatalf("clear minimums: status %d", status)
	}
	err := f.db.Where("id = ?", order.ID).First(&models.ProductionOrder{}).Error
	if err != gorm.ErrRecordNotFound {
		t.Fatalf("standing order still present after clearing, err = %v", err)
	}

	status, _ = f.request(t, http.MethodGet, minimumsPath, nil)
	if status != http.StatusNotFound {
		t.Fatalf("get after clearing: status %d, want 404", status)
	}
}

func TestMinimumsOrderDeliversToLinkedStockpile(t *testing.T) {
	f := setup(t)

	minimumsPath := fmt.Sprintf("/stockpiles/%s/minimums", f.depotA.ID)
	status, body := f.request(t, http.MethodPut, minimumsPath, map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": "rifle_c", "quantity": 10},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("set minimums: status %d, body %v", status, body)
	}

	var order models.ProductionOrder
	if err := f.db.Preload("TargetStockpiles").
		Where("regiment_id = ? AND linked_stockpile_id = ?", f.regiment.ID, f.depotA.ID).
		First(&order).Error; err != nil {
		t.Fatalf("load standing order: %v", err)
	}
	if len(order.TargetStockpiles) != 1 || order.TargetStockpiles[0].StockpileID != f.depotA.ID {
		t.Fatalf("target stockpiles = %+v, want exactly one entry for depot A", order.TargetStockpiles)
	}

	// Progress against the standing order lands in the linked stockpile.
	status, body = f.request(t, http.MethodPut, fmt.Sprintf("/orders/production/%s/items", order.ID), map[string]interface{}{
		"items": []map[string]interface{}{{"item_code": "rifle_c", "quantity_produced": 4}},
	})
	if status != http.StatusOK {
		t.Fatalf("progress update: status %d, body %v", status, body)
	}
	if got := f.cratedQuantity(t, f.depotA.ID, "rifle_c"); got != 4 {
		t.Fatalf("crated rifle_c = %d, want 4", got)
	}

	// Replacing the items keeps the single target.
	status, _ = f.request(t, http.MethodPut, minimumsPath, map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": "rifle_c", "quantity": 10},
			{"item_code": "bandages", "quantity": 20},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("replace minimums: status %d", status)
	}
	var targetCount int64
	f.db.Model(&models.ProductionOrderTargetStockpile{}).Where("order_id = ?", order.ID).Count(&targetCount)
	if targetCount != 1 {
		t.Fatalf("target rows = %d, want 1 after replacement", targetCount)
	}

	// Clearing the minimums removes the junction row too.
	status, _ = f.request(t, http.MethodPut, minimumsPath, map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	if status != http.StatusOK {
		t.Fatalf("clear minimums: status %d", status)
	}
	f.db.Model(&models.ProductionOrderTargetStockpile{}).Where("order_id = ?", order.ID).Count(&targetCount)
	if targetCount != 0 {
		t.Fatalf("target rows = %d, want 0 after clearing", targetCount)
	}
}

func TestMinimumsRejectNonPositiveQuantity(t *testing.T) {
	f := setup(t)

	status, _ := f.request(t, http.MethodPut, fmt.Sprintf("/stockpiles/%s/minimums", f.depotA.ID), map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": "rifle_c", "quantity": 0},
		},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("zero quantity minimum: status %d, want 400", status)
	}
}

func TestRefreshUpsertsAndDeletes(t *testing.T) {
	f := setup(t)

	f.setCrated(t, f.depotA.ID, "rifle_c", 5)
	if got := f.cratedQuantity(t, f.depotA.ID, "rifle_c"); got != 5 {
		t.Fatalf("crated rifle_c = %d, want 5", got)
	}

	// Refresh sets absolute counts, it does not accumulate.
	f.setCrated(t, f.depotA.ID, "rifle_c", 3)
	if got := f.cratedQuantity(t, f.depotA.ID, "rifle_c"); got != 3 {
		t.Fatalf("crated rifle_c = %d, want 3", got)
	}

	// Zero removes the row.
	f.setCrated(t, f.depotA.ID, "rifle_c", 0)
	if got := f.cratedQuantity(t, f.depotA.ID, "rifle_c"); got != 0 {
		t.Fatalf("crated rifle_c = %d, want 0", got)
	}
	var count int64
	f.db.Model(&models.StockpileItem{}).Where("stockpile_id = ?", f.depotA.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d stockpile item rows left, want 0", count)
	}

	// Refreshes are counted for the logistics leaderboard.
	var refreshes int64
	f.db.Model(&models.StockpileRefresh{}).Where("stockpile_id = ?", f.depotA.ID).Count(&refreshes)
	if refreshes != 3 {
		t.Fatalf("refresh rows = %d, want 3", refreshes)
	}

	var stockpile models.Stockpile
	if err := f.db.First(&stockpile, int64(f.depotA.ID)).Error; err != nil {
		t.Fatalf("reload stockpile: %v", err)
	}
	if stockpile.LastRefreshedAt == nil {
		t.Fatal("LastRefreshedAt not stamped by refresh")
	}
}
