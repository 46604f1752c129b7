package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/metroshica/foxhole-quartermaster-sub001/controllers"
	"github.com/metroshica/foxhole-quartermaster-sub001/migration"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
	"github.com/metroshica/foxhole-quartermaster-sub001/types"
)

type fixture struct {
	app      *fiber.App
	db       *gorm.DB
	regiment models.Regiment
	user     models.User
	depotA   models.Stockpile
	depotB   models.Stockpile
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migration.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db}

	f.regiment = models.Regiment{DiscordGuildID: "guild-1", Name: "Test Regiment"}
	if err := db.Create(&f.regiment).Error; err != nil {
		t.Fatalf("create regiment: %v", err)
	}
	f.user = models.User{DiscordID: "discord-1", Name: "Tester"}
	if err := db.Create(&f.user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	f.depotA = models.Stockpile{RegimentID: f.regiment.ID, Name: "Alpha Depot", Type: models.StockpileTypeStorageDepot, Hex: "Deadlands", LocationName: "Abandoned Ward"}
	if err := db.Create(&f.depotA).Error; err != nil {
		t.Fatalf("create depot A: %v", err)
	}
	f.depotB = models.Stockpile{RegimentID: f.regiment.ID, Name: "Bravo Seaport", Type: models.StockpileTypeSeaport, Hex: "Origin", LocationName: "The Salt March"}
	if err := db.Create(&f.depotB).Error; err != nil {
		t.Fatalf("create depot B: %v", err)
	}

	f.app = fiber.New()
	f.app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", f.user.ID)
		c.Locals("sessionID", "test-session")
		c.Locals("regimentID", f.regiment.ID)
		return c.Next()
	})

	war := services.NewWarService(nil)
	war.URL = "http://127.0.0.1:0" // unreachable on purpose, lookups fall back to 0

	production := controllers.NewProductionController(db, war)
	f.app.Get("/orders/production", production.ListOrders)
	f.app.Get("/orders/production/:id", production.GetOrder)
	f.app.Post("/orders/production", production.CreateOrder)
	f.app.Put("/orders/production/:id", production.UpdateOrder)
	f.app.Put("/orders/production/:id/items", production.UpdateItems)
	f.app.Post("/orders/production/:id/submit", production.SubmitMpf)
	f.app.Post("/orders/production/:id/complete", production.CompleteMpf)
	f.app.Delete("/orders/production/:id", production.DeleteOrder)

	stockpiles := controllers.NewStockpileController(db, services.NewScannerService(), war)
	f.app.Get("/stockpiles/:id/minimums", stockpiles.GetMinimums)
	f.app.Put("/stockpiles/:id/minimums", stockpiles.SetMinimums)
	f.app.Post("/stockpiles/:id/refresh", stockpiles.RefreshStockpile)

	return f
}

func (f *fixture) request(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.app.Test(req, 10000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s %s: bad JSON response %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func (f *fixture) createOrder(t *testing.T, name string, isMpf bool, items []map[string]interface{}, targets []types.SnowflakeID) models.ProductionOrder {
	t.Helper()

	body := map[string]interface{}{
		"name":  name,
		"items": items,
	}
	if isMpf {
		body["is_mpf"] = true
	}
	if len(targets) > 0 {
		ids := make([]string, 0, len(targets))
		for _, id := range targets {
			ids = append(ids, id.String())
		}
		body["target_stockpile_ids"] = ids
	}

	status, _ := f.request(t, http.MethodPost, "/orders/production", body)
	if status != http.StatusCreated {
		t.Fatalf("create order %q: status %d", name, status)
	}

	var order models.ProductionOrder
	if err := f.db.Preload("Items").Preload("TargetStockpiles").
		Where("regiment_id = ? AND name = ?", f.regiment.ID, name).
		First(&order).Error; err != nil {
		t.Fatalf("load created order: %v", err)
	}
	return order
}

func (f *fixture) cratedQuantity(t *testing.T, stockpileID types.SnowflakeID, itemCode string) int {
	t.Helper()
	var item models.StockpileItem
	err := f.db.Where("stockpile_id = ? AND item_code = ? AND crated = ?", stockpileID, itemCode, true).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	if err != nil {
		t.Fatalf("load stockpile item: %v", err)
	}
	return item.Quantity
}

func (f *fixture) contributionTotal(t *testing.T, orderID types.SnowflakeID) int {
	t.Helper()
	var total int
	if err := f.db.Model(&models.ProductionContribution{}).
		Where("order_id = ?", orderID).
		Select("coalesce(sum(quantity), 0)").Scan(&total).Error; err != nil {
		t.Fatalf("sum contributions: %v", err)
	}
	return total
}

func TestCreateOrderDuplicateNameConflicts(t *testing.T) {
	f := setup(t)

	items := []map[string]interface{}{{"item_code": "rifle_c", "quantity": 10}}
	f.createOrder(t, "Rifle Run", false, items, nil)

	status, body := f.request(t, http.MethodPost, "/orders/production", map[string]interface{}{
		"name":  "Rifle Run",
		"items": items,
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate name: status %d, body %v", status, body)
	}
}

func TestUpdateItemsRecordsContributionsAndInventory(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Basics", false, []map[string]interface{}{
		{"item_code": "rifle_c", "quantity": 10},
		{"item_code": "shirt_c", "quantity": 5},
	}, []types.SnowflakeID{f.depotA.ID})

	path := fmt.Sprintf("/orders/production/%s/items", order.ID)

	status, body := f.request(t, http.MethodPut, path, map[string]interface{}{
		"items": []map[string]interface{}{{"item_code": "rifle_c", "quantity_produced": 6}},
	})
	if status != http.StatusOK {
		t.Fatalf("progress update: status %d, body %v", status, body)
	}

	if got := f.contributionTotal(t, order.ID); got != 6 {
		t.Fatalf("contribution total = %d, want 6", got)
	}
	if got := f.cratedQuantity(t, f.depotA.ID, "rifle_c"); got != 6 {
		t.Fatalf("depot crated rifle_c = %d, want 6", got)
	}

	var reloaded models.ProductionOrder
	if err := f.db.First(&reloaded, int64(order.ID)).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != models.OrderStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", reloaded.Status)
	}

	// Re-sending the same counts must not double-credit anything.
	status, _ = f.request(t, http.MethodPut, path, map[string]interface{}{
		"items": []map[string]interface{}{{"item_code": "rifle_c", "quantity_produced": 6}},
	})
	if status != http.StatusOK {
		t.Fatalf("idempotent update: status %d", status)
	}
	if got := f.contributionTotal(t, order.ID); got != 6 {
		t.Fatalf("contribution total after resend = %d, want 6", got)
	}
	if got := f.cratedQuantity(t, f.depotA.ID, "rifle_c"); got != 6 {
		t.Fatalf("depot crated rifle_c after resend = %d, want 6", got)
	}

	// Finishing every line completes the order.
	status, _ = f.request(t, http.MethodPut, path, map[string]interface{}{
		"items": []map[string]interface{}{
			{"item_code": "rifle_c", "quantity_produced": 10},
			{"item_code": "shirt_c", "quantity_produced": 5},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("final update: status %d", status)
	}
	if got := f.contributionTotal(t, order.ID); got != 15 {
		t.Fatalf("contribution total = %d, want 15", got)
	}
	if err := f.db.First(&reloaded, int64(order.ID)).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != models.OrderStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", reloaded.Status)
	}
	if reloaded.CompletedAt == nil {
		t.Fatal("CompletedAt not set on completion")
	}
}

func TestUpdateItemsMultiTargetRequiresSelection(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Split Delivery", false, []map[string]interface{}{
		{"item_code": "bandages", "quantity": 20},
	}, []types.SnowflakeID{f.depotA.ID, f.depotB.ID})

	path := fmt.Sprintf("/orders/production/%s/items", order.ID)

	status, body := f.request(t, http.MethodPut, path, map[string]interface{}{
		"items": []map[string]interface{}{{"item_code": "bandages", "quantity_produced": 10}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("ambiguous target: status %d, body %v", status, body)
	}
	if body["reason"] != "target_selection_required" {
		t.Fatalf("reason = %v, want target_selection_required", body["reason"])
	}
	candidates, ok := body["target_stockpiles"].([]interface{})
	if !ok || len(candidates) != 2 {
		t.Fatalf("target_stockpiles = %v, want 2 candidates", body["target_stockpiles"])
	}

	// The rejected request must not have written anything.
	if got := f.contributionTotal(t, order.ID); got != 0 {
		t.Fatalf("contribution total after rejection = %d, want 0", got)
	}
	var item models.ProductionOrderItem
	if err := f.db.Where("order_id = ?", order.ID).First(&item).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.QuantityProduced != 0 {
		t.Fatalf("QuantityProduced = %d, want 0 after rejection", item.QuantityProduced)
	}

	// Explicit selection succeeds and credits the chosen depot.
	status, _ = f.request(t, http.MethodPut, path, map[string]interface{}{
		"items":               []map[string]interface{}{{"item_code": "bandages", "quantity_produced": 10}},
		"target_stockpile_id": f.depotB.ID.String(),
	})
	if status != http.StatusOK {
		t.Fatalf("selected target: status %d", status)
	}
	if got := f.cratedQuantity(t, f.depotB.ID, "bandages"); got != 10 {
		t.Fatalf("depot B bandages = %d, want 10", got)
	}
	if got := f.cratedQuantity(t, f.depotA.ID, "bandages"); got != 0 {
		t.Fatalf("depot A bandages = %d, want 0", got)
	}
}

func TestUpdateItemsRejectsCancelledOrder(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Abandoned", false, []map[string]interface{}{
		{"item_code": "rifle_c", "quantity": 10},
	}, nil)
	if err := f.db.Model(&models.ProductionOrder{}).
		Where("id = ?", order.ID).
		Update("status", models.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	status, body := f.request(t, http.MethodPut, fmt.Sprintf("/orders/production/%s/items", order.ID), map[string]interface{}{
		"items": []map[string]interface{}{{"item_code": "rifle_c", "quantity_produced": 3}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("cancelled order: status %d", status)
	}
	if body["reason"] != "order_cancelled" {
		t.Fatalf("reason = %v, want order_cancelled", body["reason"])
	}
}

func TestMpfLifecycle(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Tank Batch", true, []map[string]interface{}{
		{"item_code": "tank_hc", "quantity": 3},
	}, nil)

	// Submit with a one hour queue time.
	status, _ := f.request(t, http.MethodPost, fmt.Sprintf("/orders/production/%s/submit", order.ID), map[string]interface{}{
		"duration_seconds": 3600,
	})
	if status != http.StatusOK {
		t.Fatalf("submit: status %d", status)
	}

	var reloaded models.ProductionOrder
	if err := f.db.First(&reloaded, int64(order.ID)).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != models.OrderStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", reloaded.Status)
	}
	if reloaded.MpfSubmittedAt == nil || reloaded.MpfReadyAt == nil {
		t.Fatal("MPF timestamps not set on submit")
	}

	// Completion before the timer expires is rejected.
	status, body := f.request(t, http.MethodPost, fmt.Sprintf("/orders/production/%s/complete", order.ID), map[string]interface{}{
		"delivery_stockpile_id": f.depotA.ID.String(),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("early completion: status %d, body %v", status, body)
	}

	// One second past the ready time, a read flips the order.
	past := time.Now().Add(-time.Second)
	if err := f.db.Model(&models.ProductionOrder{}).
		Where("id = ?", order.ID).
		Update("mpf_ready_at", &past).Error; err != nil {
		t.Fatalf("rewind timer: %v", err)
	}

	status, body = f.request(t, http.MethodGet, fmt.Sprintf("/orders/production/%s", order.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("get after expiry: status %d", status)
	}
	data := body["data"].(map[string]interface{})
	if data["status"] != models.OrderStatusReadyForPickup {
		t.Fatalf("status = %v, want READY_FOR_PICKUP", data["status"])
	}
	if err := f.db.First(&reloaded, int64(order.ID)).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != models.OrderStatusReadyForPickup {
		t.Fatalf("persisted status = %s, want READY_FOR_PICKUP", reloaded.Status)
	}

	// Completion without a delivery stockpile is refused.
	status, body = f.request(t, http.MethodPost, fmt.Sprintf("/orders/production/%s/complete", order.ID), nil)
	if status != http.StatusBadRequest {
		t.Fatalf("completion without stockpile: status %d", status)
	}
	if body["reason"] != "delivery_stockpile_required" {
		t.Fatalf("reason = %v, want delivery_stockpile_required", body["reason"])
	}

	// With one, the order completes and records delivery.
	status, _ = f.request(t, http.MethodPost, fmt.Sprintf("/orders/production/%s/complete", order.ID), map[string]interface{}{
		"delivery_stockpile_id": f.depotA.ID.String(),
	})
	if status != http.StatusOK {
		t.Fatalf("completion: status %d", status)
	}
	if err := f.db.First(&reloaded, int64(order.ID)).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != models.OrderStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", reloaded.Status)
	}
	if reloaded.CompletedAt == nil || reloaded.DeliveredAt == nil || reloaded.DeliveryStockpileID == nil {
		t.Fatal("completion timestamps or delivery stockpile missing")
	}
	if *reloaded.DeliveryStockpileID != f.depotA.ID {
		t.Fatalf("DeliveryStockpileID = %v, want depot A", *reloaded.DeliveryStockpileID)
	}
}

func TestGetOrderByShortID(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Short Code Lookup", false, []map[string]interface{}{
		{"item_code": "rifle_c", "quantity": 10},
	}, nil)

	status, body := f.request(t, http.MethodGet, "/orders/production/"+order.ShortID, nil)
	if status != http.StatusOK {
		t.Fatalf("get by short id: status %d", status)
	}
	data := body["data"].(map[string]interface{})
	if data["short_id"] != order.ShortID {
		t.Fatalf("short_id = %v, want %s", data["short_id"], order.ShortID)
	}
}

func TestGetOrderByAllDigitShortID(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Digit Code Lookup", false, []map[string]interface{}{
		{"item_code": "rifle_c", "quantity": 10},
	}, nil)

	// The short-code alphabet includes 2-9, so a code can be all digits
	// and parse as a numeric id.
	if err := f.db.Model(&models.ProductionOrder{}).
		Where("id = ?", order.ID).
		Update("short_id", "2345").Error; err != nil {
		t.Fatalf("force short id: %v", err)
	}

	status, body := f.request(t, http.MethodGet, "/orders/production/2345", nil)
	if status != http.StatusOK {
		t.Fatalf("get by digit short id: status %d, body %v", status, body)
	}
	data := body["data"].(map[string]interface{})
	if data["short_id"] != "2345" {
		t.Fatalf("short_id = %v, want 2345", data["short_id"])
	}
}

func TestDeleteOrderCascades(t *testing.T) {
	f := setup(t)

	order := f.createOrder(t, "Disposable", false, []map[string]interface{}{
		{"item_code": "rifle_c", "quantity": 10},
	}, []types.SnowflakeID{f.depotA.ID})

	status, _ := f.request(t, http.MethodDelete, fmt.Sprintf("/orders/production/%s", order.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}

	var count int64
	f.db.Model(&models.ProductionOrderItem{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d order items left after delete", count)
	}
	f.db.Model(&models.ProductionOrderTargetStockpile{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d target rows left after delete", count)
	}
}
